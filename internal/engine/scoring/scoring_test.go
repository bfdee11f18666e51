// internal/engine/scoring/scoring_test.go
package scoring

import (
	"testing"

	"dispatch-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Distance Band Tests
// ==========================

func TestDistanceScore_Bands(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		expected   float64
	}{
		{"zero distance", 0, 100},
		{"inside 5km band", 4.9, 100},
		{"exactly 5km", 5, 100},
		{"inside 15km band", 10, 75},
		{"exactly 15km", 15, 75},
		{"inside 30km band", 22, 50},
		{"exactly 30km", 30, 50},
		{"inside 50km band", 40, 25},
		{"exactly 50km", 50, 25},
		{"beyond 50km", 50.1, 0},
		{"very far", 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DistanceScore(tt.distanceKm))
		})
	}
}

// ==========================
// Reliability Tests
// ==========================

func TestReliabilityScore(t *testing.T) {
	tests := []struct {
		name     string
		stats    *models.ReliabilityStats
		expected float64
	}{
		{
			name:     "no history defaults to neutral",
			stats:    nil,
			expected: 50,
		},
		{
			name:     "zero jobs defaults to neutral",
			stats:    &models.ReliabilityStats{TotalJobs: 0, OnTimeRate: 1.0},
			expected: 50,
		},
		{
			name:     "solid record",
			stats:    &models.ReliabilityStats{TotalJobs: 100, NoShows: 1, OnTimeRate: 0.95},
			expected: 94,
		},
		{
			name:     "perfect record",
			stats:    &models.ReliabilityStats{TotalJobs: 50, NoShows: 0, OnTimeRate: 1.0},
			expected: 100,
		},
		{
			name:     "heavy no-shows clamp at zero",
			stats:    &models.ReliabilityStats{TotalJobs: 10, NoShows: 8, OnTimeRate: 0.2},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ReliabilityScore(tt.stats), 0.001)
		})
	}
}

// ==========================
// Skill Match Tests
// ==========================

func TestSkillMatchScore(t *testing.T) {
	skills := map[string]int{
		models.SkillResidential: 4,
		models.SkillVideo:       2,
		models.SkillAerial:      5,
	}

	tests := []struct {
		name       string
		mediaTypes []string
		expected   float64
	}{
		{"photo maps to residential", []string{"photo"}, 80},
		{"video maps directly", []string{"video"}, 40},
		{"photo and aerial averaged", []string{"photo", "aerial"}, 90},
		{"unrated category counts as zero", []string{"twilight"}, 0},
		{"unknown media type defaults", []string{"matterport"}, 50},
		{"empty list defaults", nil, 50},
		{"unknown mixed with known is ignored", []string{"matterport", "photo"}, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SkillMatchScore(tt.mediaTypes, skills), 0.001)
		})
	}
}

func TestSkillMatchScore_NilSkillMap(t *testing.T) {
	// No skill data at all is missing data, not a zero rating.
	assert.InDelta(t, 50.0, SkillMatchScore([]string{"photo"}, nil), 0.001)
	assert.InDelta(t, 50.0, SkillMatchScore([]string{"photo"}, map[string]int{}), 0.001)
	assert.InDelta(t, 50.0, SkillMatchScore(nil, nil), 0.001)

	// A rated candidate without the requested category keeps the hard zero.
	assert.InDelta(t, 0.0, SkillMatchScore([]string{"photo"}, map[string]int{models.SkillVideo: 5}), 0.001)
}

// ==========================
// Composite Score Tests
// ==========================

func TestScore_CompositeBreakdown(t *testing.T) {
	job := &models.JobRequest{
		ID:             "job-1",
		OrganizationID: "org-1",
		MediaTypes:     []string{"photo"},
	}
	candidate := &models.TechnicianCandidate{
		ID:               "tech-a",
		Skills:           map[string]int{models.SkillResidential: 4},
		Reliability:      &models.ReliabilityStats{TotalJobs: 100, NoShows: 1, OnTimeRate: 0.95},
		PreferredClients: []string{"org-1"},
	}

	factors := Score(job, candidate, true, 5.0)

	assert.Equal(t, 100.0, factors.AvailabilityScore)
	assert.Equal(t, 100.0, factors.DistanceScore)
	assert.Equal(t, 100.0, factors.PreferredRelationshipScore)
	assert.InDelta(t, 94.0, factors.ReliabilityScore, 0.001)
	assert.InDelta(t, 80.0, factors.SkillMatchScore, 0.001)

	// 30 + 25 + 18.8 + 15 + 8
	assert.InDelta(t, 96.8, factors.CompositeScore, 0.01)
}

func TestScore_UnavailableDistantCandidate(t *testing.T) {
	job := &models.JobRequest{
		ID:             "job-1",
		OrganizationID: "org-1",
		MediaTypes:     []string{"photo"},
	}
	candidate := &models.TechnicianCandidate{
		ID:          "tech-b",
		Skills:      map[string]int{models.SkillResidential: 3},
		Reliability: &models.ReliabilityStats{TotalJobs: 20, NoShows: 0, OnTimeRate: 0.9},
	}

	factors := Score(job, candidate, false, 40.0)

	assert.Equal(t, 0.0, factors.AvailabilityScore)
	assert.Equal(t, 25.0, factors.DistanceScore)
	assert.Equal(t, 0.0, factors.PreferredRelationshipScore)

	// 0 + 0 + 90*0.20 + 25*0.15 + 60*0.10
	assert.InDelta(t, 27.75, factors.CompositeScore, 0.01)
}

func TestScore_CompositeAlwaysInRange(t *testing.T) {
	job := &models.JobRequest{OrganizationID: "org-1", MediaTypes: []string{"photo", "video", "aerial", "twilight"}}

	candidates := []*models.TechnicianCandidate{
		{ID: "max", Skills: map[string]int{
			models.SkillResidential: 5, models.SkillVideo: 5, models.SkillAerial: 5, models.SkillTwilight: 5,
		}, Reliability: &models.ReliabilityStats{TotalJobs: 1000, NoShows: 0, OnTimeRate: 1.0}, PreferredClients: []string{"org-1"}},
		{ID: "min"},
		{ID: "worst-history", Reliability: &models.ReliabilityStats{TotalJobs: 5, NoShows: 5, OnTimeRate: 0}},
	}

	for _, c := range candidates {
		for _, available := range []bool{true, false} {
			for _, dist := range []float64{0, 4, 16, 60, 10000} {
				factors := Score(job, c, available, dist)
				assert.GreaterOrEqual(t, factors.CompositeScore, 0.0, "candidate %s", c.ID)
				assert.LessOrEqual(t, factors.CompositeScore, 100.0, "candidate %s", c.ID)
			}
		}
	}
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkScore(b *testing.B) {
	job := &models.JobRequest{
		OrganizationID: "org-1",
		MediaTypes:     []string{"photo", "twilight"},
	}
	candidate := &models.TechnicianCandidate{
		ID:               "tech-a",
		Skills:           map[string]int{models.SkillResidential: 4, models.SkillTwilight: 3},
		Reliability:      &models.ReliabilityStats{TotalJobs: 100, NoShows: 1, OnTimeRate: 0.95},
		PreferredClients: []string{"org-2", "org-1"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Score(job, candidate, true, 7.3)
	}
}
