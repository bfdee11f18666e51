// internal/engine/ranking/ranker.go
package ranking

import (
	"math"
	"sort"

	"dispatch-workers/internal/models"
)

// RecommendThreshold is the minimum composite score for the top-ranked
// candidate to be flagged as the default selection.
const RecommendThreshold = 60.0

// ScoredCandidate is one candidate after availability resolution and
// scoring, ready to be ranked.
type ScoredCandidate struct {
	CandidateID       string
	Available         bool
	UnavailableReason string
	Factors           models.RankingFactors
}

// Rank orders scored candidates by cascading through the priority order
// and assigns 1-based ranks. The sort is stable: candidates whose factor
// tuples tie keep their input order. At most one candidate is flagged
// recommended, and only when it is both available and scoring at or
// above the threshold.
func Rank(candidates []ScoredCandidate, order PriorityOrder) []models.RankedCandidate {
	entries := append([]ScoredCandidate(nil), candidates...)
	factors := order.Factors()
	if len(factors) == 0 {
		factors = DefaultPriorityOrder().Factors()
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return cascadeLess(entries[i], entries[j], factors)
	})

	ranked := make([]models.RankedCandidate, 0, len(entries))
	for i, e := range entries {
		rc := models.RankedCandidate{
			CandidateID:       e.CandidateID,
			Rank:              i + 1,
			Score:             e.Factors.CompositeScore,
			Factors:           e.Factors,
			Available:         e.Available,
			UnavailableReason: e.UnavailableReason,
		}
		if i == 0 && e.Available && e.Factors.CompositeScore >= RecommendThreshold {
			rc.Recommended = true
		}
		ranked = append(ranked, rc)
	}
	return ranked
}

// cascadeLess walks the priority order left to right; the first factor
// producing a non-zero comparison decides. Distance compares at 0.1 km
// precision and score as a rounded integer to keep float noise from
// manufacturing an ordering.
func cascadeLess(a, b ScoredCandidate, factors []Factor) bool {
	for _, f := range factors {
		switch f {
		case FactorAvailability:
			if a.Available != b.Available {
				return a.Available
			}
		case FactorDistance:
			da := math.Round(a.Factors.DistanceKm * 10)
			db := math.Round(b.Factors.DistanceKm * 10)
			if da != db {
				return da < db
			}
		case FactorScore:
			sa := math.Round(a.Factors.CompositeScore)
			sb := math.Round(b.Factors.CompositeScore)
			if sa != sb {
				return sa > sb
			}
		}
	}
	return false
}
