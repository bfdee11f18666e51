// internal/workers/assignment/rank-candidates/models.go
package rankcandidates

import "dispatch-workers/internal/models"

// Input is the ranking request envelope: one job, its candidate pool and
// an optional tie-break order.
type Input struct {
	Job           models.JobRequest            `json:"job"`
	Candidates    []models.TechnicianCandidate `json:"candidates"`
	PriorityOrder []string                     `json:"priorityOrder,omitempty"`
}

// Output is the ordered ranking result. RankedCandidates always carries
// exactly one entry per input candidate.
type Output struct {
	JobID                  string                   `json:"jobId"`
	RankedCandidates       []models.RankedCandidate `json:"rankedCandidates"`
	PriorityOrder          []string                 `json:"priorityOrder"`
	RecommendedCandidateID string                   `json:"recommendedCandidateId,omitempty"`
}
