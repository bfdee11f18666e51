// internal/models/job.go
package models

// Priority tiers are informational only and never feed the ranking.
const (
	PriorityStandard = "standard"
	PriorityRush     = "rush"
	PriorityUrgent   = "urgent"
)

type JobRequest struct {
	ID                       string   `json:"id"`
	Lat                      float64  `json:"lat"`
	Lng                      float64  `json:"lng"`
	ScheduledDate            string   `json:"scheduledDate"` // YYYY-MM-DD
	ScheduledTime            string   `json:"scheduledTime"` // HH:MM
	EstimatedDurationMinutes int      `json:"estimatedDurationMinutes"`
	MediaTypes               []string `json:"mediaTypes"`
	OrganizationID           string   `json:"organizationId"`
	Priority                 string   `json:"priority,omitempty"`
}
