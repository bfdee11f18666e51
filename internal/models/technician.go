// internal/models/technician.go
package models

import "time"

// Skill categories a technician can be rated on (levels 0-5).
const (
	SkillResidential = "residential"
	SkillCommercial  = "commercial"
	SkillAerial      = "aerial"
	SkillTwilight    = "twilight"
	SkillVideo       = "video"
)

// Technician lifecycle statuses.
const (
	TechnicianActive    = "active"
	TechnicianInactive  = "inactive"
	TechnicianSuspended = "suspended"
)

type TechnicianCandidate struct {
	ID               string             `json:"id"`
	Lat              float64            `json:"lat"`
	Lng              float64            `json:"lng"`
	Skills           map[string]int     `json:"skills,omitempty"`
	Reliability      *ReliabilityStats  `json:"reliability,omitempty"`
	PreferredClients []string           `json:"preferredClients,omitempty"`
	Status           string             `json:"status"`
	WeeklyTemplate   *WeeklyTemplate    `json:"weeklyTemplate,omitempty"`
	DateOverrides    map[string]bool    `json:"dateOverrides,omitempty"`
	GlobalStatus     GlobalAvailability `json:"globalStatus"`
}

type ReliabilityStats struct {
	TotalJobs      int     `json:"totalJobs"`
	NoShows        int     `json:"noShows"`
	LateDeliveries int     `json:"lateDeliveries"`
	OnTimeRate     float64 `json:"onTimeRate"`
}

type GlobalAvailability struct {
	IsAvailable bool   `json:"isAvailable"`
	Note        string `json:"note,omitempty"`
}

// DaySchedule is one weekday entry of a technician's recurring template.
// Start/End are "HH:MM" local times; the window is [Start, End).
type DaySchedule struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// WeeklyTemplate holds the recurring work-hour schedule, keyed by
// lowercase weekday name ("monday" .. "sunday").
type WeeklyTemplate struct {
	TechnicianID string                 `json:"technicianId,omitempty"`
	Days         map[string]DaySchedule `json:"days"`
}

var weekdayKeys = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayKey maps a time.Weekday to the template's map key.
func DayKey(d time.Weekday) string {
	return weekdayKeys[int(d)%7]
}

// DefaultWeeklyTemplate returns the schedule materialized for technicians
// who have never set one: Mon-Fri 09:00-17:00, weekend disabled.
func DefaultWeeklyTemplate(technicianID string) *WeeklyTemplate {
	days := make(map[string]DaySchedule, 7)
	for i, key := range weekdayKeys {
		weekday := time.Weekday(i)
		if weekday == time.Saturday || weekday == time.Sunday {
			days[key] = DaySchedule{Enabled: false, Start: "09:00", End: "17:00"}
			continue
		}
		days[key] = DaySchedule{Enabled: true, Start: "09:00", End: "17:00"}
	}
	return &WeeklyTemplate{TechnicianID: technicianID, Days: days}
}
