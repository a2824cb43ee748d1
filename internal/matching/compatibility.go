package matching

import (
	"math"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
)

// Weights applied to the individual compatibility signals before
// normalization. Rating proximity dominates; map and time overlap refine.
const (
	ratingWeight = 2.5
	mapsWeight   = 1.0
	timeWeight   = 1.0
)

// Score is a compatibility breakdown. All values are percentages.
type Score struct {
	Total  int `json:"total"`
	Rating int `json:"rating"`
	Maps   int `json:"maps"`
	Time   int `json:"time"`
}

// Compatibility computes the weighted compatibility of two profiles,
// normalized to 0-100.
func Compatibility(a, b *models.Profile) Score {
	ratingCompat := ratingSimilarity(a.Rating, b.Rating)
	mapsCompat := jaccard(a.FavoriteMaps, b.FavoriteMaps)
	timeCompat := jaccard(a.PlaytimeSlots, b.PlaytimeSlots)

	weighted := ratingCompat*ratingWeight + mapsCompat*mapsWeight + timeCompat*timeWeight
	maxPossible := ratingWeight + mapsWeight + timeWeight

	return Score{
		Total:  int(math.Round(weighted / maxPossible * 100)),
		Rating: int(math.Round(ratingCompat * 100)),
		Maps:   int(math.Round(mapsCompat * 100)),
		Time:   int(math.Round(timeCompat * 100)),
	}
}

// ratingSimilarity maps the absolute rating difference onto tiers: a gap of
// 100 or less is a perfect match, beyond 500 only a residual score remains.
func ratingSimilarity(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 100:
		return 1.0
	case diff <= 200:
		return 0.8
	case diff <= 350:
		return 0.6
	case diff <= 500:
		return 0.4
	default:
		return 0.2
	}
}

// jaccard computes intersection-over-union of two string sets. Either side
// being empty yields zero overlap.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, item := range a {
		setA[item] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, item := range b {
		setB[item] = struct{}{}
	}

	common := 0
	for item := range setA {
		if _, ok := setB[item]; ok {
			common++
		}
	}
	union := len(setA) + len(setB) - common
	if union == 0 {
		return 0.0
	}
	return float64(common) / float64(union)
}
