// internal/workers/assignment/rank-candidates/handler.go
package rankcandidates

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"dispatch-workers/internal/common/errors"
	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/common/metrics"
	"dispatch-workers/internal/engine/availability"
	"dispatch-workers/internal/engine/geo"
	"dispatch-workers/internal/engine/ranking"
	"dispatch-workers/internal/engine/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const TaskType = "rank-candidates"

const rankingCacheKeyPrefix = "assignment:ranking:"

type Handler struct {
	config   *Config
	resolver *availability.Resolver
	cache    *redis.Client
	errs     *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, resolver *availability.Resolver, cache *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		resolver: resolver,
		cache:    cache,
		errs:     errors.NewErrorHandler(scoped),
		logger:   scoped,
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

	var document map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &document); err != nil {
		verr := errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		h.errs.HandleJobError(context.Background(), client, job, verr)
		return verr
	}
	if err := validateInput(document); err != nil {
		h.errs.HandleJobError(context.Background(), client, job, err)
		return err
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		verr := errors.NewValidationError(fmt.Sprintf("decode input: %v", err))
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

	metrics.RankingPoolSize.WithLabelValues(TaskType).Observe(float64(len(input.Candidates)))
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	order, err := ranking.ParsePriorityOrder(input.PriorityOrder)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	instant, err := parseScheduledInstant(input.Job.ScheduledDate, input.Job.ScheduledTime)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	jobPoint := geo.Point{Lat: input.Job.Lat, Lng: input.Job.Lng}

	scored := make([]ranking.ScoredCandidate, 0, len(input.Candidates))
	for i := range input.Candidates {
		candidate := &input.Candidates[i]

		resolution := h.resolver.Resolve(ctx, candidate, instant)
		distanceKm := geo.DistanceKm(jobPoint, geo.Point{Lat: candidate.Lat, Lng: candidate.Lng})
		factors := scoring.Score(&input.Job, candidate, resolution.Available, distanceKm)

		scored = append(scored, ranking.ScoredCandidate{
			CandidateID:       candidate.ID,
			Available:         resolution.Available,
			UnavailableReason: resolution.Reason,
			Factors:           factors,
		})
	}

	ranked := ranking.Rank(scored, order)

	output := &Output{
		JobID:            input.Job.ID,
		RankedCandidates: ranked,
		PriorityOrder:    order.Strings(),
	}
	if len(ranked) > 0 && ranked[0].Recommended {
		output.RecommendedCandidateID = ranked[0].CandidateID
	}

	h.cacheRanking(ctx, output)
	return output, nil
}

// cacheRanking stores the result keyed by job id so a dispatcher
// re-opening the same job within the TTL skips recomputation. Best
// effort only.
func (h *Handler) cacheRanking(ctx context.Context, output *Output) {
	if h.cache == nil || output.JobID == "" {
		return
	}
	payload, err := json.Marshal(output)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, rankingCacheKeyPrefix+output.JobID, payload, h.config.RankingCacheTTL).Err(); err != nil {
		h.logger.Warn("ranking cache write failed", map[string]interface{}{
			"jobId": output.JobID,
			"error": err.Error(),
		})
	}
}

// CachedRanking returns a previously computed ranking for the job, if
// one is still live in the cache.
func (h *Handler) CachedRanking(ctx context.Context, jobID string) (*Output, bool) {
	if h.cache == nil || jobID == "" {
		return nil, false
	}
	raw, err := h.cache.Get(ctx, rankingCacheKeyPrefix+jobID).Result()
	if err != nil {
		return nil, false
	}
	var output Output
	if err := json.Unmarshal([]byte(raw), &output); err != nil {
		return nil, false
	}
	return &output, true
}

func parseScheduledInstant(date, clock string) (time.Time, error) {
	instant, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed schedule %q %q", date, clock)
	}
	return instant, nil
}

func errorCode(err error) string {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return string(errors.ErrCodeRankingFailed)
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
