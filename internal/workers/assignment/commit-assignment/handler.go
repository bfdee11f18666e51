// internal/workers/assignment/commit-assignment/handler.go
package commitassignment

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"dispatch-workers/internal/common/errors"
	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "commit-assignment"

type Handler struct {
	config    *Config
	committer *Committer
	errs      *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, committer *Committer, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		committer: committer,
		errs:      errors.NewErrorHandler(scoped),
		logger:    scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		verr := errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		h.errs.HandleJobError(context.Background(), client, job, verr)
		return verr
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
		h.errs.HandleJobError(ctx, client, job, err)
		return err
	}

	if len(output.Conflicts) > 0 {
		metrics.ConflictsDetected.WithLabelValues(TaskType, strconv.FormatBool(output.OverrideUsed)).Inc()
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	h.completeJob(client, job, output)
	return nil
}

// execute runs the locked commit. A blocked conflict is not a worker
// failure: the conflicts come back as a structured payload the workflow
// can branch on (and an authorized caller may resubmit with
// overrideConflicts set).
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	scheduledTime, err := time.Parse(time.RFC3339, input.ScheduledTime)
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("malformed scheduledTime %q", input.ScheduledTime))
	}

	commitment, conflicts, err := h.committer.Commit(ctx, input.OrgID, input.TechnicianID, scheduledTime, input.EstimatedDurationMinutes, input.OverrideConflicts)
	if err != nil {
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) && stdErr.Code == errors.ErrCodeScheduleConflict {
			output := &Output{Committed: false}
			for _, c := range conflicts {
				output.Conflicts = append(output.Conflicts, c.Ref())
			}
			return output, nil
		}
		return nil, err
	}

	output := &Output{
		Committed:    true,
		Commitment:   commitment,
		OverrideUsed: commitment.OverrideUsed,
	}
	for _, c := range conflicts {
		output.Conflicts = append(output.Conflicts, c.Ref())
	}
	return output, nil
}

func validateInput(input *Input) error {
	switch {
	case input.OrgID == "":
		return errors.NewValidationError("orgId is required")
	case input.TechnicianID == "":
		return errors.NewValidationError("technicianId is required")
	case input.ScheduledTime == "":
		return errors.NewValidationError("scheduledTime is required")
	case input.EstimatedDurationMinutes <= 0:
		return errors.NewValidationError("estimatedDurationMinutes must be positive, got " + strconv.Itoa(input.EstimatedDurationMinutes))
	}
	return nil
}

func errorCode(err error) string {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return string(errors.ErrCodeCommitmentInsertFailed)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
