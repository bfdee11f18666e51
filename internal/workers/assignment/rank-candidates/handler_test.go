// internal/workers/assignment/rank-candidates/handler_test.go
package rankcandidates

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"dispatch-workers/internal/common/errors"
	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/engine/availability"
	"dispatch-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, cache *redis.Client) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	return NewHandler(LoadConfig(), availability.NewResolver(nil, log), cache, log)
}

// calgaryJob is the reference job: downtown Calgary, Thursday afternoon.
func calgaryJob() models.JobRequest {
	return models.JobRequest{
		ID:                       "job-1",
		Lat:                      51.05,
		Lng:                      -114.07,
		ScheduledDate:            "2025-11-13",
		ScheduledTime:            "14:00",
		EstimatedDurationMinutes: 60,
		MediaTypes:               []string{"photo"},
		OrganizationID:           "org-1",
		Priority:                 models.PriorityStandard,
	}
}

// ==========================
// End-to-End Ranking Tests
// ==========================

func TestExecute_ReferenceScenario(t *testing.T) {
	// Candidate A: ~5 km north, available, preferred, strong record.
	candidateA := models.TechnicianCandidate{
		ID:  "tech-a",
		Lat: 51.0949, // ~4.99 km from the job
		Lng: -114.07,
		Skills: map[string]int{
			models.SkillResidential: 4,
		},
		Reliability:      &models.ReliabilityStats{TotalJobs: 100, NoShows: 1, OnTimeRate: 0.95},
		PreferredClients: []string{"org-1"},
		Status:           models.TechnicianActive,
		GlobalStatus:     models.GlobalAvailability{IsAvailable: true},
	}

	// Candidate B: ~40 km away and globally unavailable.
	candidateB := models.TechnicianCandidate{
		ID:           "tech-b",
		Lat:          51.409, // ~39.9 km from the job
		Lng:          -114.07,
		Status:       models.TechnicianActive,
		GlobalStatus: models.GlobalAvailability{IsAvailable: false},
	}

	input := &Input{
		Job:        calgaryJob(),
		Candidates: []models.TechnicianCandidate{candidateB, candidateA},
	}

	output, err := newTestHandler(t, nil).Execute(context.Background(), input)

	require.NoError(t, err)
	require.Len(t, output.RankedCandidates, 2)

	top := output.RankedCandidates[0]
	assert.Equal(t, "tech-a", top.CandidateID)
	assert.Equal(t, 1, top.Rank)
	assert.True(t, top.Recommended)
	assert.InDelta(t, 96.8, top.Factors.CompositeScore, 0.05)
	assert.Equal(t, 100.0, top.Factors.DistanceScore)
	assert.InDelta(t, 94.0, top.Factors.ReliabilityScore, 0.001)
	assert.InDelta(t, 80.0, top.Factors.SkillMatchScore, 0.001)
	assert.Equal(t, "tech-a", output.RecommendedCandidateID)

	second := output.RankedCandidates[1]
	assert.Equal(t, "tech-b", second.CandidateID)
	assert.Equal(t, 2, second.Rank)
	assert.False(t, second.Recommended)
	assert.False(t, second.Available)
	assert.Equal(t, 0.0, second.Factors.AvailabilityScore)
	assert.Equal(t, 25.0, second.Factors.DistanceScore)
	assert.Less(t, second.Factors.CompositeScore, top.Factors.CompositeScore)
}

func TestExecute_EmptyPoolYieldsEmptyList(t *testing.T) {
	input := &Input{Job: calgaryJob()}

	output, err := newTestHandler(t, nil).Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Empty(t, output.RankedCandidates)
	assert.Empty(t, output.RecommendedCandidateID)
}

func TestExecute_SparseCandidateDataDegradesGracefully(t *testing.T) {
	// No skills, no reliability history, no template: the candidate is
	// still ranked using the documented defaults, never dropped.
	input := &Input{
		Job: calgaryJob(),
		Candidates: []models.TechnicianCandidate{
			{ID: "bare", Lat: 51.05, Lng: -114.07, GlobalStatus: models.GlobalAvailability{IsAvailable: true}},
		},
	}

	output, err := newTestHandler(t, nil).Execute(context.Background(), input)

	require.NoError(t, err)
	require.Len(t, output.RankedCandidates, 1)

	factors := output.RankedCandidates[0].Factors
	assert.Equal(t, 50.0, factors.ReliabilityScore)
	assert.Equal(t, 50.0, factors.SkillMatchScore)
	assert.True(t, output.RankedCandidates[0].Available)
}

func TestExecute_CustomPriorityOrderEchoed(t *testing.T) {
	input := &Input{
		Job:           calgaryJob(),
		Candidates:    []models.TechnicianCandidate{{ID: "a", GlobalStatus: models.GlobalAvailability{IsAvailable: true}}},
		PriorityOrder: []string{"distance", "score"},
	}

	output, err := newTestHandler(t, nil).Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, []string{"distance", "score"}, output.PriorityOrder)
}

// ==========================
// Validation Tests
// ==========================

func TestExecute_InvalidPriorityOrder(t *testing.T) {
	input := &Input{
		Job:           calgaryJob(),
		PriorityOrder: []string{"distance", "distance"},
	}

	_, err := newTestHandler(t, nil).Execute(context.Background(), input)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
}

func TestExecute_MalformedSchedule(t *testing.T) {
	job := calgaryJob()
	job.ScheduledTime = "half past two"
	input := &Input{Job: job}

	_, err := newTestHandler(t, nil).Execute(context.Background(), input)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
}

func TestValidateInput(t *testing.T) {
	validJob := map[string]interface{}{
		"lat":            51.05,
		"lng":            -114.07,
		"scheduledDate":  "2025-11-13",
		"scheduledTime":  "14:00",
		"organizationId": "org-1",
	}

	tests := []struct {
		name     string
		document map[string]interface{}
		valid    bool
	}{
		{
			name: "minimal valid envelope",
			document: map[string]interface{}{
				"job":        validJob,
				"candidates": []interface{}{map[string]interface{}{"id": "tech-a"}},
			},
			valid: true,
		},
		{
			name:     "missing job",
			document: map[string]interface{}{"candidates": []interface{}{}},
			valid:    false,
		},
		{
			name: "missing coordinates",
			document: map[string]interface{}{
				"job": map[string]interface{}{
					"scheduledDate":  "2025-11-13",
					"scheduledTime":  "14:00",
					"organizationId": "org-1",
				},
				"candidates": []interface{}{},
			},
			valid: false,
		},
		{
			name: "unknown priority factor",
			document: map[string]interface{}{
				"job":           validJob,
				"candidates":    []interface{}{},
				"priorityOrder": []interface{}{"vibes"},
			},
			valid: false,
		},
		{
			name: "duplicate priority factor",
			document: map[string]interface{}{
				"job":           validJob,
				"candidates":    []interface{}{},
				"priorityOrder": []interface{}{"distance", "distance"},
			},
			valid: false,
		},
		{
			name: "candidate without id",
			document: map[string]interface{}{
				"job":        validJob,
				"candidates": []interface{}{map[string]interface{}{"lat": 51.0}},
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInput(tt.document)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// ==========================
// Ranking Cache Tests
// ==========================

func TestExecute_WritesRankingCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	input := &Input{
		Job: calgaryJob(),
		Candidates: []models.TechnicianCandidate{
			{ID: "tech-a", Lat: 51.05, Lng: -114.07, GlobalStatus: models.GlobalAvailability{IsAvailable: true}},
		},
	}

	_, err := newTestHandler(t, cache).Execute(context.Background(), input)
	require.NoError(t, err)

	require.True(t, mr.Exists("assignment:ranking:job-1"))

	ttl := mr.TTL("assignment:ranking:job-1")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 60*time.Second)
}

func TestCachedRanking(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	handler := newTestHandler(t, cache)

	cached := &Output{
		JobID:                  "job-1",
		PriorityOrder:          []string{"availability", "distance", "score"},
		RecommendedCandidateID: "tech-a",
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	mock.ExpectGet("assignment:ranking:job-1").SetVal(string(payload))
	mock.ExpectGet("assignment:ranking:job-2").RedisNil()

	output, ok := handler.CachedRanking(context.Background(), "job-1")
	require.True(t, ok)
	assert.Equal(t, "tech-a", output.RecommendedCandidateID)

	_, ok = handler.CachedRanking(context.Background(), "job-2")
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
