package recommend

import (
	"math"
	"strings"

	"marquee/internal/services/places"
)

// pricePenaltyWeight tunes how hard the score punishes deviation from the
// mid price tier.
const pricePenaltyWeight = 0.15

// Score ranks a candidate by review quality against price deviation:
// rating * ln(1 + reviewCount) - 0.15 * |priceLevel - 2|. A large review
// count amplifies a good rating with diminishing returns; prices far from
// the mid tier in either direction cost a flat penalty.
func Score(rating float64, reviewCount int64, priceLevel int) float64 {
	if reviewCount < 0 {
		reviewCount = 0
	}
	ratingScore := rating * math.Log(1+float64(reviewCount))
	pricePenalty := math.Abs(float64(priceLevel)-2) * pricePenaltyWeight
	return ratingScore - pricePenalty
}

// ScorePlace scores a search result, resolving the nullable price level to
// the mid tier.
func ScorePlace(p places.Place) float64 {
	return Score(p.Rating, p.UserRatingsTotal, scorePriceLevel(p.PriceLevel))
}

// scorePriceLevel treats both an absent and a zero ("free") price level as
// mid tier so neither skews the penalty.
func scorePriceLevel(level *int) int {
	if level == nil || *level == 0 {
		return 2
	}
	return *level
}

// hasDelivery reports whether the category tags indicate delivery service.
func hasDelivery(types []string) bool {
	for _, t := range types {
		lowered := strings.ToLower(t)
		if strings.Contains(lowered, "delivery") ||
			strings.Contains(lowered, "takeaway") ||
			strings.Contains(lowered, "take_out") {
			return true
		}
	}
	return false
}

// effectiveTypes picks the detail categories when available, falling back
// to the search result's own.
func effectiveTypes(place places.Place, details *places.Details) []string {
	if details != nil && details.Types != nil {
		return details.Types
	}
	return place.Types
}

// filterCandidates drops candidates without an id, candidates still inside
// the rotation window, candidates under the rating floor, and (when the
// team requires it) candidates without delivery tags.
func filterCandidates(candidates []places.Place, used map[string]struct{}, minRating float64, onlyDelivery bool) []places.Place {
	filtered := make([]places.Place, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.PlaceID == "" {
			continue
		}
		if _, seen := used[candidate.PlaceID]; seen {
			continue
		}
		if candidate.Rating < minRating {
			continue
		}
		if onlyDelivery && !hasDelivery(candidate.Types) {
			continue
		}
		filtered = append(filtered, candidate)
	}
	return filtered
}

// pickBest returns the highest-scoring candidate. Ties keep the earliest
// candidate in API order, so selection is stable for equal scores.
func pickBest(candidates []places.Place) (places.Place, bool) {
	if len(candidates) == 0 {
		return places.Place{}, false
	}
	best := candidates[0]
	bestScore := ScorePlace(best)
	for _, candidate := range candidates[1:] {
		if score := ScorePlace(candidate); score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best, true
}
