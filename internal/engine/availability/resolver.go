// internal/engine/availability/resolver.go
package availability

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/models"
)

// Resolution is the outcome of an availability check at one instant.
type Resolution struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// TemplateSource loads a technician's weekly template, materializing the
// default one on first access.
type TemplateSource interface {
	GetOrCreateDefault(ctx context.Context, technicianID string) (*models.WeeklyTemplate, error)
}

// Resolver combines the global status flag, explicit date overrides and
// the recurring weekly template into a single availability answer.
type Resolver struct {
	templates TemplateSource
	logger    logger.Logger
}

func NewResolver(templates TemplateSource, log logger.Logger) *Resolver {
	return &Resolver{templates: templates, logger: log}
}

// Resolve answers whether the candidate is free at the given instant,
// loading (and lazily creating) the weekly template when the candidate
// record does not carry one. A template load failure degrades to the
// default schedule rather than dropping the candidate from the pool.
func (r *Resolver) Resolve(ctx context.Context, candidate *models.TechnicianCandidate, instant time.Time) Resolution {
	tmpl := candidate.WeeklyTemplate
	if tmpl == nil && r.templates != nil {
		loaded, err := r.templates.GetOrCreateDefault(ctx, candidate.ID)
		if err != nil {
			r.logger.Warn("weekly template load failed, falling back to default schedule", map[string]interface{}{
				"technicianId": candidate.ID,
				"error":        err.Error(),
			})
		} else {
			tmpl = loaded
		}
	}
	return ResolveWithTemplate(candidate, tmpl, instant)
}

// ResolveWithTemplate is the pure resolution core. Precedence, highest
// first: global off-flag, explicit date override, weekly day enabled,
// [start, end) time window.
func ResolveWithTemplate(candidate *models.TechnicianCandidate, tmpl *models.WeeklyTemplate, instant time.Time) Resolution {
	if !candidate.GlobalStatus.IsAvailable {
		reason := candidate.GlobalStatus.Note
		if reason == "" {
			reason = "marked unavailable"
		}
		return Resolution{Available: false, Reason: reason}
	}

	dateKey := instant.Format("2006-01-02")
	if override, ok := candidate.DateOverrides[dateKey]; ok {
		if !override {
			return Resolution{Available: false, Reason: "explicit override"}
		}
		return Resolution{Available: true}
	}

	if tmpl == nil {
		tmpl = models.DefaultWeeklyTemplate(candidate.ID)
	}

	day, ok := tmpl.Days[models.DayKey(instant.Weekday())]
	if !ok || !day.Enabled {
		return Resolution{Available: false, Reason: "does not work this day"}
	}

	startMin, err := parseClockMinutes(day.Start)
	if err != nil {
		return Resolution{Available: false, Reason: fmt.Sprintf("invalid work hours (%s-%s)", day.Start, day.End)}
	}
	endMin, err := parseClockMinutes(day.End)
	if err != nil {
		return Resolution{Available: false, Reason: fmt.Sprintf("invalid work hours (%s-%s)", day.Start, day.End)}
	}

	instantMin := instant.Hour()*60 + instant.Minute()
	if instantMin < startMin || instantMin >= endMin {
		return Resolution{
			Available: false,
			Reason:    fmt.Sprintf("outside work hours (%s-%s)", day.Start, day.End),
		}
	}

	return Resolution{Available: true}
}

// parseClockMinutes converts "HH:MM" to minutes since midnight.
func parseClockMinutes(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock time %q", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q", clock)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q", clock)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock time %q out of range", clock)
	}
	return hours*60 + minutes, nil
}
