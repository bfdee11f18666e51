// internal/workers/assignment/check-conflicts/models.go
package checkconflicts

import "dispatch-workers/internal/models"

type Input struct {
	OrgID                    string `json:"orgId"`
	TechnicianID             string `json:"technicianId"`
	ScheduledTime            string `json:"scheduledTime"` // RFC3339
	EstimatedDurationMinutes int    `json:"estimatedDurationMinutes"`
}

// Output reports the colliding commitments. An empty list means the
// window is clear.
type Output struct {
	HasConflicts bool                 `json:"hasConflicts"`
	Conflicts    []models.ConflictRef `json:"conflicts"`
}
