package matching

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
)

// Verdict is the tri-state outcome of a single filter predicate.
type Verdict int

const (
	// Pass means the predicate explicitly accepts the candidate.
	Pass Verdict = iota

	// Reject means the predicate explicitly excludes the candidate.
	Reject

	// Indeterminate means the predicate could not be evaluated, for example
	// because of an unrecognized filter value. The combinator treats it as a
	// pass so a single broken scoring dimension never hides all candidates.
	Indeterminate
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Reject:
		return "reject"
	default:
		return "indeterminate"
	}
}

// sharedCount returns the size of the intersection of two string sets.
func sharedCount(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	count := 0
	seen := make(map[string]struct{}, len(b))
	for _, item := range b {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		if _, ok := set[item]; ok {
			count++
		}
	}
	return count
}

// RatingVerdict evaluates the rating filter: relative modes compare against
// the searcher's own rating, named modes check a fixed range. The
// top-bracket mode is a ranking mode handled before filtering and passes
// through here.
func RatingVerdict(candidate, searcher *models.Profile, filter string) Verdict {
	switch filter {
	case "", "any", TopBracketFilterID:
		return Pass
	case "similar":
		diff := candidate.Rating - searcher.Rating
		if diff < 0 {
			diff = -diff
		}
		if diff <= 300 {
			return Pass
		}
		return Reject
	case "lower":
		if candidate.Rating < searcher.Rating {
			return Pass
		}
		return Reject
	case "higher":
		if candidate.Rating > searcher.Rating {
			return Pass
		}
		return Reject
	}

	if FilterRangeByID(filter) == nil {
		return Indeterminate
	}
	if RatingInFilter(candidate.Rating, filter) {
		return Pass
	}
	return Reject
}

// RoleVerdict keeps only candidates whose role is among the preferred ones.
// An empty preference list passes everyone.
func RoleVerdict(candidate *models.Profile, preferredRoles []string) Verdict {
	if len(preferredRoles) == 0 {
		return Pass
	}
	for _, role := range preferredRoles {
		if candidate.Role == role {
			return Pass
		}
	}
	return Reject
}

// MapsVerdict applies the shared-map threshold: strict needs three common
// maps, moderate two, soft one.
func MapsVerdict(candidate, searcher *models.Profile, mode string) Verdict {
	if mode == "" || mode == "any" {
		return Pass
	}

	common := sharedCount(candidate.FavoriteMaps, searcher.FavoriteMaps)
	switch mode {
	case "strict":
		if common >= 3 {
			return Pass
		}
	case "moderate":
		if common >= 2 {
			return Pass
		}
	case "soft":
		if common >= 1 {
			return Pass
		}
	default:
		return Indeterminate
	}
	return Reject
}

// TimeVerdict applies the shared-slot threshold: strict needs two common
// play windows, soft one.
func TimeVerdict(candidate, searcher *models.Profile, mode string) Verdict {
	if mode == "" || mode == "any" {
		return Pass
	}

	common := sharedCount(candidate.PlaytimeSlots, searcher.PlaytimeSlots)
	switch mode {
	case "strict":
		if common >= 2 {
			return Pass
		}
	case "soft":
		if common >= 1 {
			return Pass
		}
	default:
		return Indeterminate
	}
	return Reject
}

// CategoriesVerdict keeps candidates sharing at least one category tag with
// the filter. An empty filter passes everyone; a candidate without
// categories cannot match a non-empty filter.
func CategoriesVerdict(candidate *models.Profile, filter []string) Verdict {
	if len(filter) == 0 {
		return Pass
	}
	if len(candidate.Categories) == 0 {
		return Reject
	}
	if sharedCount(candidate.Categories, filter) > 0 {
		return Pass
	}
	return Reject
}

// CompatibilityVerdict rejects candidates below the minimum compatibility
// score. A threshold of zero disables the check.
func CompatibilityVerdict(candidate, searcher *models.Profile, minCompatibility int) Verdict {
	if minCompatibility <= 0 {
		return Pass
	}
	if Compatibility(searcher, candidate).Total >= minCompatibility {
		return Pass
	}
	return Reject
}

// Accept runs every filter predicate in order and reports whether the
// candidate survives. Only an explicit Reject excludes; an Indeterminate
// verdict is logged and treated as a pass.
func Accept(candidate, searcher *models.Profile, filters models.SearchFilters) bool {
	checks := []struct {
		name    string
		verdict Verdict
	}{
		{"rating", RatingVerdict(candidate, searcher, filters.RatingFilter)},
		{"roles", RoleVerdict(candidate, filters.PreferredRoles)},
		{"maps", MapsVerdict(candidate, searcher, filters.MapsCompatibility)},
		{"time", TimeVerdict(candidate, searcher, filters.TimeCompatibility)},
		{"categories", CategoriesVerdict(candidate, filters.CategoriesFilter)},
		{"compatibility", CompatibilityVerdict(candidate, searcher, filters.MinCompatibility)},
	}

	for _, check := range checks {
		switch check.verdict {
		case Reject:
			return false
		case Indeterminate:
			log.Warn().
				Str("filter", check.name).
				Int64("candidate_id", candidate.UserID).
				Msg("Filter could not be evaluated, passing candidate through")
		}
	}
	return true
}

// SortByCompatibility orders candidates by descending compatibility with the
// searcher, preserving the incoming order for equal scores.
func SortByCompatibility(candidates []*models.Profile, searcher *models.Profile) []*models.Profile {
	type scored struct {
		profile *models.Profile
		total   int
	}

	ranked := make([]scored, len(candidates))
	for i, candidate := range candidates {
		ranked[i] = scored{profile: candidate, total: Compatibility(searcher, candidate).Total}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].total > ranked[j].total
	})

	result := make([]*models.Profile, len(ranked))
	for i, entry := range ranked {
		result[i] = entry.profile
	}
	return result
}
