// internal/engine/availability/store.go
package availability

import (
	"context"
	"encoding/json"
	"time"

	"dispatch-workers/internal/common/database"
	"dispatch-workers/internal/common/errors"
	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/models"
)

const templateCacheKeyPrefix = "assignment:template:"

const (
	insertDefaultTemplateQuery = `
		INSERT INTO weekly_templates (technician_id, days, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (technician_id) DO NOTHING`

	selectTemplateQuery = `
		SELECT days FROM weekly_templates WHERE technician_id = $1`
)

// TemplateStore persists weekly templates in Postgres with a
// read-through Redis cache in front.
type TemplateStore struct {
	db       *database.PostgresClient
	cache    *database.RedisClient
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewTemplateStore(db *database.PostgresClient, cache *database.RedisClient, cacheTTL time.Duration, log logger.Logger) *TemplateStore {
	return &TemplateStore{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// GetOrCreateDefault returns the technician's weekly template, lazily
// materializing the Mon-Fri default for first-time technicians. The
// insert is idempotent so concurrent ranking calls for the same
// technician converge on one row.
func (s *TemplateStore) GetOrCreateDefault(ctx context.Context, technicianID string) (*models.WeeklyTemplate, error) {
	cacheKey := templateCacheKeyPrefix + technicianID

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var tmpl models.WeeklyTemplate
			if err := json.Unmarshal([]byte(raw), &tmpl); err == nil {
				return &tmpl, nil
			}
			s.logger.Warn("corrupt cached template, reloading from database", map[string]interface{}{
				"technicianId": technicianID,
			})
		}
	}

	defaultTmpl := models.DefaultWeeklyTemplate(technicianID)
	daysJSON, err := json.Marshal(defaultTmpl.Days)
	if err != nil {
		return nil, errors.NewTemplateUpsertFailedError(technicianID, err)
	}

	if _, err := s.db.Exec(ctx, insertDefaultTemplateQuery, technicianID, daysJSON); err != nil {
		return nil, errors.NewTemplateUpsertFailedError(technicianID, err)
	}

	var raw []byte
	if err := s.db.QueryRow(ctx, selectTemplateQuery, technicianID).Scan(&raw); err != nil {
		return nil, errors.NewQueryExecutionFailedError("weekly_template_select", err)
	}

	tmpl := &models.WeeklyTemplate{TechnicianID: technicianID}
	if err := json.Unmarshal(raw, &tmpl.Days); err != nil {
		return nil, errors.NewQueryExecutionFailedError("weekly_template_decode", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(tmpl); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL); err != nil {
				s.logger.Warn("template cache write failed", map[string]interface{}{
					"technicianId": technicianID,
					"error":        err.Error(),
				})
			}
		}
	}

	return tmpl, nil
}

// Invalidate drops the cached template, e.g. after a technician edits
// their schedule.
func (s *TemplateStore) Invalidate(ctx context.Context, technicianID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, templateCacheKeyPrefix+technicianID)
}
