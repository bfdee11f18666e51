// internal/models/assignment.go
package models

import "time"

// RankingFactors is derived per candidate during a ranking call and is
// never persisted.
type RankingFactors struct {
	AvailabilityScore          float64 `json:"availabilityScore"`
	DistanceScore              float64 `json:"distanceScore"`
	DistanceKm                 float64 `json:"distanceKm"`
	ReliabilityScore           float64 `json:"reliabilityScore"`
	SkillMatchScore            float64 `json:"skillMatchScore"`
	PreferredRelationshipScore float64 `json:"preferredRelationshipScore"`
	CompositeScore             float64 `json:"compositeScore"`
}

type RankedCandidate struct {
	CandidateID       string         `json:"candidateId"`
	Rank              int            `json:"rank"`
	Score             float64        `json:"score"`
	Factors           RankingFactors `json:"factors"`
	Available         bool           `json:"available"`
	UnavailableReason string         `json:"unavailableReason,omitempty"`
	Recommended       bool           `json:"recommended"`
}

// ScheduleCommitment is a committed (org, technician, window) interval.
// The engine reads commitments to detect conflicts and writes exactly one
// on a successful assignment commit.
type ScheduleCommitment struct {
	ID              string    `json:"commitmentId"`
	OrgID           string    `json:"orgId"`
	TechnicianID    string    `json:"technicianId"`
	ScheduledTime   time.Time `json:"scheduledTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
	OverrideUsed    bool      `json:"overrideUsed"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ConflictRef is the wire shape returned for each detected conflict.
type ConflictRef struct {
	CommitmentID  string    `json:"commitmentId"`
	ScheduledTime time.Time `json:"scheduledTime"`
}

func (c ScheduleCommitment) Ref() ConflictRef {
	return ConflictRef{CommitmentID: c.ID, ScheduledTime: c.ScheduledTime}
}
