// internal/workers/assignment/commit-assignment/service.go
package commitassignment

import (
	"context"
	"time"

	"dispatch-workers/internal/common/errors"
	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/engine/conflict"
	"dispatch-workers/internal/models"

	"github.com/google/uuid"
)

// Committer performs the check-then-act commit under a row lock: the
// conflict re-check and the commitment insert share one transaction, so
// two concurrent assigners of the same technician cannot both pass a
// clear check and both write.
type Committer struct {
	store  *conflict.CommitmentStore
	logger logger.Logger
}

func NewCommitter(store *conflict.CommitmentStore, log logger.Logger) *Committer {
	return &Committer{store: store, logger: log}
}

// Commit writes a ScheduleCommitment for the technician if the window is
// clear, or if the caller explicitly overrides the detected conflicts.
// Returned conflicts are always populated when any were found, whether
// or not the write went through.
func (c *Committer) Commit(ctx context.Context, orgID, technicianID string, start time.Time, durationMinutes int, overrideConflicts bool) (*models.ScheduleCommitment, []models.ScheduleCommitment, error) {
	duration := time.Duration(durationMinutes) * time.Minute
	end := start.Add(duration)

	tx, err := c.store.BeginTx(ctx)
	if err != nil {
		return nil, nil, errors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	// Widened window, same as the read-only detector: lock every row
	// whose scheduled time lands within one job length of the new start.
	locked, err := c.store.ListInWindowTx(ctx, tx, orgID, technicianID, start.Add(-duration), end)
	if err != nil {
		return nil, nil, errors.NewQueryExecutionFailedError("schedule_conflicts_locked", err)
	}

	conflicts := make([]models.ScheduleCommitment, 0)
	for _, existing := range locked {
		if conflict.Overlaps(start, end, existing.ScheduledTime, existing.EndTime) {
			conflicts = append(conflicts, existing)
		}
	}

	if len(conflicts) > 0 && !overrideConflicts {
		refs := make([]models.ConflictRef, 0, len(conflicts))
		for _, existing := range conflicts {
			refs = append(refs, existing.Ref())
		}
		return nil, conflicts, errors.NewScheduleConflictError(technicianID, refs)
	}

	commitment := &models.ScheduleCommitment{
		ID:              uuid.NewString(),
		OrgID:           orgID,
		TechnicianID:    technicianID,
		ScheduledTime:   start,
		EndTime:         end,
		DurationMinutes: durationMinutes,
		OverrideUsed:    overrideConflicts && len(conflicts) > 0,
		CreatedAt:       time.Now().UTC(),
	}

	if err := c.store.InsertTx(ctx, tx, commitment); err != nil {
		return nil, conflicts, errors.NewCommitmentInsertFailedError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, conflicts, errors.NewCommitmentInsertFailedError(err)
	}

	if commitment.OverrideUsed {
		c.logger.Warn("commitment written over detected conflicts", map[string]interface{}{
			"commitmentId": commitment.ID,
			"technicianId": technicianID,
			"conflicts":    len(conflicts),
		})
	}

	return commitment, conflicts, nil
}
