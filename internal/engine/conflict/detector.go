// internal/engine/conflict/detector.go
package conflict

import (
	"context"
	stderrors "errors"
	"time"

	"dispatch-workers/internal/common/errors"
	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/models"
)

// CommitmentSource lists a technician's committed jobs whose scheduled
// time falls inside a query window.
type CommitmentSource interface {
	ListInWindow(ctx context.Context, orgID, technicianID string, from, to time.Time) ([]models.ScheduleCommitment, error)
}

// Detector is the pre-commit guard against double-booking. It fails
// closed: a storage error or timeout is reported as an error, never as
// an empty conflict list.
type Detector struct {
	store        CommitmentSource
	queryTimeout time.Duration
	retryBackoff time.Duration
	logger       logger.Logger
}

func NewDetector(store CommitmentSource, queryTimeout time.Duration, log logger.Logger) *Detector {
	return &Detector{
		store:        store,
		queryTimeout: queryTimeout,
		retryBackoff: 200 * time.Millisecond,
		logger:       log,
	}
}

// Detect returns the commitments that collide with assigning the
// technician a job starting at proposedStart for the given duration.
// The storage query uses a window widened by one job length on each
// side; adjacency within a job length is treated as worth inspecting,
// but only strict interval overlap counts as a conflict. Back-to-back
// jobs that exactly touch do not conflict.
func (d *Detector) Detect(ctx context.Context, orgID, technicianID string, proposedStart time.Time, durationMinutes int) ([]models.ScheduleCommitment, error) {
	duration := time.Duration(durationMinutes) * time.Minute
	newStart := proposedStart
	newEnd := proposedStart.Add(duration)

	windowFrom := proposedStart.Add(-duration)
	windowTo := newEnd

	commitments, err := d.queryWithRetry(ctx, orgID, technicianID, windowFrom, windowTo)
	if err != nil {
		return nil, err
	}

	conflicts := make([]models.ScheduleCommitment, 0)
	for _, c := range commitments {
		if Overlaps(newStart, newEnd, c.ScheduledTime, c.EndTime) {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts, nil
}

// Overlaps reports whether two half-open intervals collide. Strict
// inequality on both sides: end1 == start2 is a clean hand-off.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// queryWithRetry runs the window query under the configured timeout,
// retrying exactly once with backoff when the deadline is exceeded.
func (d *Detector) queryWithRetry(ctx context.Context, orgID, technicianID string, from, to time.Time) ([]models.ScheduleCommitment, error) {
	commitments, err := d.queryOnce(ctx, orgID, technicianID, from, to)
	if err == nil {
		return commitments, nil
	}

	if !isTimeout(err) {
		return nil, d.wrapQueryError(err)
	}

	d.logger.Warn("conflict query timed out, retrying once", map[string]interface{}{
		"orgId":        orgID,
		"technicianId": technicianID,
	})

	select {
	case <-time.After(d.retryBackoff):
	case <-ctx.Done():
		return nil, errors.NewQueryTimeoutError("schedule_conflicts")
	}

	commitments, err = d.queryOnce(ctx, orgID, technicianID, from, to)
	if err == nil {
		return commitments, nil
	}
	if isTimeout(err) {
		return nil, errors.NewQueryTimeoutError("schedule_conflicts")
	}
	return nil, d.wrapQueryError(err)
}

func (d *Detector) queryOnce(ctx context.Context, orgID, technicianID string, from, to time.Time) ([]models.ScheduleCommitment, error) {
	queryCtx := ctx
	if d.queryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
	}
	return d.store.ListInWindow(queryCtx, orgID, technicianID, from, to)
}

func (d *Detector) wrapQueryError(err error) error {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return errors.NewQueryExecutionFailedError("schedule_conflicts", err)
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var stdErr *errors.StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == errors.ErrCodeQueryTimeout
}
