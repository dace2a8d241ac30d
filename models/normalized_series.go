package models

import (
	"sort"
	"time"
)

// ObservationRow pairs the sale and rent readings of one category in one period.
type ObservationRow struct {
	Period   time.Time `json:"period"`
	Category string    `json:"category"`
	Sale     float64   `json:"sale"`
	Rent     float64   `json:"rent"`
}

// NormalizedSeries is the merged long-format table derived from one workbook.
type NormalizedSeries struct {
	Rows []ObservationRow `json:"rows"`
}

// Categories returns the distinct categories in ascending order.
func (s *NormalizedSeries) Categories() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range s.Rows {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// DateRange returns the earliest and latest period. ok is false for an empty series.
func (s *NormalizedSeries) DateRange() (start, end time.Time, ok bool) {
	for i, r := range s.Rows {
		if i == 0 || r.Period.Before(start) {
			start = r.Period
		}
		if i == 0 || r.Period.After(end) {
			end = r.Period
		}
	}
	return start, end, len(s.Rows) > 0
}
