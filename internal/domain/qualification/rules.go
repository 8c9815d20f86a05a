package qualification

import "fmt"

// DefaultOffsetsKey is the remaining-days table entry used for codes without their own entry.
const DefaultOffsetsKey = "DEFAULT"

// ErrMissingOffsets is returned when a code has no remaining-days entry and no DEFAULT fallback exists.
var ErrMissingOffsets = fmt.Errorf("no remaining days offsets configured")

// RefresherGroup lists codes that need refresher training every RepeatYears years.
type RefresherGroup struct {
	Codes       []string
	RepeatYears int
}

// Rules drive report aggregation and reminder selection.
type Rules struct {
	BypassQualification  []string
	RemainingDaysTable   map[string][]int
	HasRefresher         []RefresherGroup
	ImpliedQualification [][]string
}

// OffsetsFor returns the day offsets at which a reminder fires for code.
func (r Rules) OffsetsFor(code string) ([]int, error) {
	if offsets, ok := r.RemainingDaysTable[code]; ok {
		return offsets, nil
	}
	if offsets, ok := r.RemainingDaysTable[DefaultOffsetsKey]; ok {
		return offsets, nil
	}
	return nil, fmt.Errorf("qualification %s: %w", code, ErrMissingOffsets)
}

func (r Rules) IsBypassed(code string) bool {
	for _, c := range r.BypassQualification {
		if c == code {
			return true
		}
	}
	return false
}
