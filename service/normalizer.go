package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quadrant-server/models"

	"github.com/xuri/excelize/v2"
)

var ErrPeriodParse = errors.New("failed to parse period")

// periodLayouts are tried in order against text period labels.
var periodLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006.01.02",
	"2006.1.2",
	"2006/01/02",
	"2006/1/2",
	"2006-01",
	"2006.01",
	"20060102",
}

type seriesKey struct {
	period   string
	category string
}

type longEntry struct {
	key   seriesKey
	value float64
}

// Normalize merges a sale and a rent sheet into one long-format series.
// Rows without a period are dropped, missing cells become 0, and only
// (period, category) pairs present in both sheets survive the join.
func Normalize(sale, rent models.RawSheet) (*models.NormalizedSeries, error) {
	saleLong := melt(sale)
	rentLong := melt(rent)

	rentByKey := make(map[seriesKey][]float64, len(rentLong))
	for _, e := range rentLong {
		rentByKey[e.key] = append(rentByKey[e.key], e.value)
	}

	parsed := make(map[string]time.Time)
	rows := make([]models.ObservationRow, 0, len(saleLong))
	for _, e := range saleLong {
		matches, ok := rentByKey[e.key]
		if !ok {
			continue
		}
		period, seen := parsed[e.key.period]
		if !seen {
			var err error
			period, err = ParsePeriod(e.key.period)
			if err != nil {
				return nil, err
			}
			parsed[e.key.period] = period
		}
		// duplicated keys fan out to every pairing
		for _, r := range matches {
			rows = append(rows, models.ObservationRow{
				Period:   period,
				Category: e.key.category,
				Sale:     e.value,
				Rent:     r,
			})
		}
	}

	return &models.NormalizedSeries{Rows: rows}, nil
}

// melt reshapes a wide sheet into one entry per (period, category), column by column.
func melt(sheet models.RawSheet) []longEntry {
	kept := make([]models.RawRow, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row.Period == nil || strings.TrimSpace(*row.Period) == "" {
			continue
		}
		kept = append(kept, row)
	}

	out := make([]longEntry, 0, len(kept)*len(sheet.Categories))
	for c, category := range sheet.Categories {
		for _, row := range kept {
			value := 0.0
			if c < len(row.Values) && row.Values[c] != nil {
				value = *row.Values[c]
			}
			out = append(out, longEntry{
				key:   seriesKey{period: strings.TrimSpace(*row.Period), category: category},
				value: value,
			})
		}
	}
	return out
}

// ParsePeriod turns a period label into a date. Numeric labels are Excel serial days.
func ParsePeriod(label string) (time.Time, error) {
	label = strings.TrimSpace(label)
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(label, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w %q: %v", ErrPeriodParse, label, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrPeriodParse, label)
}
