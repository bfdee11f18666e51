// internal/engine/scoring/scoring.go
package scoring

import (
	"math"

	"dispatch-workers/internal/models"
)

// Composite weights. Fixed constants summing to 1.0; availability and an
// existing client relationship outweigh raw proximity.
const (
	WeightAvailability = 0.30
	WeightPreferred    = 0.25
	WeightReliability  = 0.20
	WeightDistance     = 0.15
	WeightSkillMatch   = 0.10
)

// Defaults applied when a candidate has no history or no mappable skills.
// Missing data degrades the score, it never excludes the candidate.
const (
	DefaultReliabilityScore = 50.0
	DefaultSkillMatchScore  = 50.0
)

// mediaSkillCategories maps a job's required media types onto the skill
// categories technicians are rated on.
var mediaSkillCategories = map[string]string{
	"photo":    models.SkillResidential,
	"video":    models.SkillVideo,
	"aerial":   models.SkillAerial,
	"twilight": models.SkillTwilight,
}

// Score computes the full factor breakdown for one candidate against one
// job. Pure: availability and distance are resolved by the caller.
func Score(job *models.JobRequest, candidate *models.TechnicianCandidate, available bool, distanceKm float64) models.RankingFactors {
	availabilityScore := 0.0
	if available {
		availabilityScore = 100.0
	}

	factors := models.RankingFactors{
		AvailabilityScore:          availabilityScore,
		DistanceScore:              DistanceScore(distanceKm),
		DistanceKm:                 distanceKm,
		ReliabilityScore:           ReliabilityScore(candidate.Reliability),
		SkillMatchScore:            SkillMatchScore(job.MediaTypes, candidate.Skills),
		PreferredRelationshipScore: PreferredRelationshipScore(job.OrganizationID, candidate.PreferredClients),
	}

	composite := factors.AvailabilityScore*WeightAvailability +
		factors.PreferredRelationshipScore*WeightPreferred +
		factors.ReliabilityScore*WeightReliability +
		factors.DistanceScore*WeightDistance +
		factors.SkillMatchScore*WeightSkillMatch

	factors.CompositeScore = clamp(composite, 0, 100)
	return factors
}

// DistanceScore bands raw distance into 0/25/50/75/100.
func DistanceScore(distanceKm float64) float64 {
	switch {
	case distanceKm <= 5:
		return 100
	case distanceKm <= 15:
		return 75
	case distanceKm <= 30:
		return 50
	case distanceKm <= 50:
		return 25
	default:
		return 0
	}
}

// ReliabilityScore rewards on-time delivery and penalizes no-shows.
// Candidates with no job history get the neutral default.
func ReliabilityScore(stats *models.ReliabilityStats) float64 {
	if stats == nil || stats.TotalJobs <= 0 {
		return DefaultReliabilityScore
	}

	noShowPenalty := float64(stats.NoShows) / float64(stats.TotalJobs) * 100
	return clamp(stats.OnTimeRate*100-noShowPenalty, 0, 100)
}

// SkillMatchScore averages the candidate's levels (0-5) across the skill
// categories the job's media types map to, scaled to 0-100. Media types
// with no known category mapping are ignored; if nothing maps, or the
// candidate carries no skill data at all, the neutral default applies.
// A rated candidate missing one requested category still scores that
// category as zero.
func SkillMatchScore(mediaTypes []string, skills map[string]int) float64 {
	if len(skills) == 0 {
		return DefaultSkillMatchScore
	}

	var sum, matched int
	for _, mediaType := range mediaTypes {
		category, ok := mediaSkillCategories[mediaType]
		if !ok {
			continue
		}
		matched++
		sum += skills[category]
	}

	if matched == 0 {
		return DefaultSkillMatchScore
	}
	return float64(sum) / float64(matched) * 20
}

// PreferredRelationshipScore is all-or-nothing on an existing
// org-technician relationship.
func PreferredRelationshipScore(organizationID string, preferredClients []string) float64 {
	for _, clientID := range preferredClients {
		if clientID == organizationID {
			return 100
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
