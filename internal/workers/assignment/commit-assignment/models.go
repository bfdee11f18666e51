// internal/workers/assignment/commit-assignment/models.go
package commitassignment

import "dispatch-workers/internal/models"

type Input struct {
	OrgID                    string `json:"orgId"`
	TechnicianID             string `json:"technicianId"`
	ScheduledTime            string `json:"scheduledTime"` // RFC3339
	EstimatedDurationMinutes int    `json:"estimatedDurationMinutes"`
	// OverrideConflicts lets an authorized caller push a commit through
	// detected conflicts. Who may set it is decided upstream; the
	// engine only records that it was used.
	OverrideConflicts bool `json:"overrideConflicts,omitempty"`
}

type Output struct {
	Committed    bool                       `json:"committed"`
	Commitment   *models.ScheduleCommitment `json:"commitment,omitempty"`
	Conflicts    []models.ConflictRef       `json:"conflicts,omitempty"`
	OverrideUsed bool                       `json:"overrideUsed"`
}
