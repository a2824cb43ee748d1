// Package matching holds the static game data and the candidate evaluation
// logic: rating brackets, role and map pools, the compatibility score and
// the filter predicates applied during candidate search.
package matching

// RatingBracket is one display range of the rating ladder.
type RatingBracket struct {
	Name      string
	MinRating int
	MaxRating int
	Level     int
}

// RatingBrackets are the ten display ranges of the ladder, lowest first.
var RatingBrackets = []RatingBracket{
	{Name: "1-500", MinRating: 1, MaxRating: 500, Level: 1},
	{Name: "501-750", MinRating: 501, MaxRating: 750, Level: 2},
	{Name: "751-900", MinRating: 751, MaxRating: 900, Level: 3},
	{Name: "901-1050", MinRating: 901, MaxRating: 1050, Level: 4},
	{Name: "1051-1200", MinRating: 1051, MaxRating: 1200, Level: 5},
	{Name: "1201-1350", MinRating: 1201, MaxRating: 1350, Level: 6},
	{Name: "1351-1500", MinRating: 1351, MaxRating: 1500, Level: 7},
	{Name: "1501-1650", MinRating: 1501, MaxRating: 1650, Level: 8},
	{Name: "1651-1800", MinRating: 1651, MaxRating: 1800, Level: 9},
	{Name: "1801+", MinRating: 1801, MaxRating: 9999, Level: 10},
}

// FilterRange is a named rating range selectable as a search filter.
type FilterRange struct {
	ID        string
	Name      string
	MinRating int
	MaxRating int
}

// TopBracketFilterID selects the top-bracket ranking mode instead of a range
// predicate: candidates are ordered strictly by rating descending.
const TopBracketFilterID = "top"

// FilterRanges are the selectable rating range filters. The top-bracket mode
// is not listed here because it is a ranking mode, not a range.
var FilterRanges = []FilterRange{
	{ID: "newbie", Name: "Up to 1999", MaxRating: 1999},
	{ID: "intermediate", Name: "2000-2699", MinRating: 2000, MaxRating: 2699},
	{ID: "advanced", Name: "2700-3099", MinRating: 2700, MaxRating: 3099},
	{ID: "pro", Name: "3100+", MinRating: 3100, MaxRating: 99999},
}

// Roles are the five selectable team roles.
var Roles = []string{"igl", "entry", "support", "lurker", "sniper"}

// MapPool is the active competitive map pool.
var MapPool = []string{"ancient", "dust2", "inferno", "mirage", "nuke", "overpass", "train"}

// TimeSlot is a selectable daily play window.
type TimeSlot struct {
	ID        string
	StartHour int
	EndHour   int
}

// TimeSlots are the four selectable play windows.
var TimeSlots = []TimeSlot{
	{ID: "morning", StartHour: 6, EndHour: 12},
	{ID: "day", StartHour: 12, EndHour: 18},
	{ID: "evening", StartHour: 18, EndHour: 24},
	{ID: "night", StartHour: 0, EndHour: 6},
}

// Categories are the profile intent tags.
var Categories = []string{"matchmaking", "league", "tournaments", "looking_for_team"}

// BracketForRating returns the display bracket containing the rating, or nil
// when the rating falls outside the ladder.
func BracketForRating(rating int) *RatingBracket {
	for i := range RatingBrackets {
		if rating >= RatingBrackets[i].MinRating && rating <= RatingBrackets[i].MaxRating {
			return &RatingBrackets[i]
		}
	}
	return nil
}

// FilterRangeByID returns the named range filter, or nil for an unknown id.
func FilterRangeByID(id string) *FilterRange {
	for i := range FilterRanges {
		if FilterRanges[i].ID == id {
			return &FilterRanges[i]
		}
	}
	return nil
}

// RatingInFilter reports whether a rating falls inside a named range filter.
// Unknown filter ids do not exclude anyone.
func RatingInFilter(rating int, filterID string) bool {
	if filterID == "any" {
		return true
	}
	fr := FilterRangeByID(filterID)
	if fr == nil {
		return true
	}
	max := fr.MaxRating
	if max == 0 {
		max = 99999
	}
	return rating >= fr.MinRating && rating <= max
}

// ValidRole reports whether the role id is part of the role pool.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
