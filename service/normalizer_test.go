package services

import (
	"testing"
	"time"

	"quadrant-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func f64(v float64) *float64 { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sheet(name string, categories []string, rows ...models.RawRow) models.RawSheet {
	return models.RawSheet{Name: name, PeriodColumn: "구분", Categories: categories, Rows: rows}
}

func row(period *string, values ...*float64) models.RawRow {
	return models.RawRow{Period: period, Values: values}
}

// scenarioSheets is the two-period, two-region example with one missing sale reading.
func scenarioSheets() (models.RawSheet, models.RawSheet) {
	sale := sheet("sale", []string{"A", "B"},
		row(strp("2024-01"), f64(1), f64(3)),
		row(strp("2024-02"), f64(2), nil),
	)
	rent := sheet("rent", []string{"A", "B"},
		row(strp("2024-01"), f64(5), f64(7)),
		row(strp("2024-02"), f64(6), f64(8)),
	)
	return sale, rent
}

func TestNormalize_Scenario(t *testing.T) {
	sale, rent := scenarioSheets()

	series, err := Normalize(sale, rent)
	require.NoError(t, err)

	expected := []models.ObservationRow{
		{Period: day(2024, 1, 1), Category: "A", Sale: 1, Rent: 5},
		{Period: day(2024, 2, 1), Category: "A", Sale: 2, Rent: 6},
		{Period: day(2024, 1, 1), Category: "B", Sale: 3, Rent: 7},
		{Period: day(2024, 2, 1), Category: "B", Sale: 0, Rent: 8},
	}
	assert.Equal(t, expected, series.Rows)
}

func TestNormalize_Idempotent(t *testing.T) {
	sale, rent := scenarioSheets()

	first, err := Normalize(sale, rent)
	require.NoError(t, err)
	second, err := Normalize(sale, rent)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
}

func TestNormalize_DropsRowsWithoutPeriod(t *testing.T) {
	sale := sheet("sale", []string{"A"},
		row(nil, f64(9)),
		row(strp("  "), f64(9)),
		row(strp("2024-01-08"), f64(1)),
	)
	rent := sheet("rent", []string{"A"},
		row(strp("2024-01-08"), f64(2)),
		row(nil, f64(9)),
	)

	series, err := Normalize(sale, rent)
	require.NoError(t, err)

	require.Len(t, series.Rows, 1)
	assert.Equal(t, models.ObservationRow{Period: day(2024, 1, 8), Category: "A", Sale: 1, Rent: 2}, series.Rows[0])
}

func TestNormalize_MissingValuesBecomeZero(t *testing.T) {
	sale := sheet("sale", []string{"A", "B"}, row(strp("2024-01-08"), nil))
	rent := sheet("rent", []string{"A", "B"}, row(strp("2024-01-08"), nil, nil))

	series, err := Normalize(sale, rent)
	require.NoError(t, err)

	require.Len(t, series.Rows, 2)
	for _, r := range series.Rows {
		assert.Equal(t, 0.0, r.Sale)
		assert.Equal(t, 0.0, r.Rent)
	}
}

func TestNormalize_InnerJoinDropsUnmatched(t *testing.T) {
	sale := sheet("sale", []string{"A", "OnlySale"},
		row(strp("2024-01-01"), f64(1), f64(1)),
		row(strp("2024-01-08"), f64(2), f64(2)),
	)
	rent := sheet("rent", []string{"A", "OnlyRent"},
		row(strp("2024-01-01"), f64(3), f64(3)),
		row(strp("2024-01-15"), f64(4), f64(4)),
	)

	series, err := Normalize(sale, rent)
	require.NoError(t, err)

	require.Len(t, series.Rows, 1)
	assert.Equal(t, "A", series.Rows[0].Category)
	assert.Equal(t, day(2024, 1, 1), series.Rows[0].Period)
}

func TestNormalize_NoOverlapIsEmpty(t *testing.T) {
	sale := sheet("sale", []string{"A"}, row(strp("2024-01-01"), f64(1)))
	rent := sheet("rent", []string{"B"}, row(strp("2024-01-01"), f64(1)))

	series, err := Normalize(sale, rent)
	require.NoError(t, err)
	assert.Empty(t, series.Rows)
}

func TestNormalize_DuplicateKeysFanOut(t *testing.T) {
	sale := sheet("sale", []string{"A"},
		row(strp("2024-01-01"), f64(1)),
		row(strp("2024-01-01"), f64(2)),
	)
	rent := sheet("rent", []string{"A"},
		row(strp("2024-01-01"), f64(10)),
		row(strp("2024-01-01"), f64(20)),
		row(strp("2024-01-01"), f64(30)),
	)

	series, err := Normalize(sale, rent)
	require.NoError(t, err)

	require.Len(t, series.Rows, 6)
	pairs := make([][2]float64, len(series.Rows))
	for i, r := range series.Rows {
		pairs[i] = [2]float64{r.Sale, r.Rent}
	}
	assert.Equal(t, [][2]float64{{1, 10}, {1, 20}, {1, 30}, {2, 10}, {2, 20}, {2, 30}}, pairs)
}

func TestNormalize_PeriodParseFailureIsFatal(t *testing.T) {
	sale := sheet("sale", []string{"A"},
		row(strp("2024-01-01"), f64(1)),
		row(strp("source: KB"), f64(1)),
	)
	rent := sheet("rent", []string{"A"},
		row(strp("2024-01-01"), f64(1)),
		row(strp("source: KB"), f64(1)),
	)

	series, err := Normalize(sale, rent)
	assert.Nil(t, series)
	assert.ErrorIs(t, err, ErrPeriodParse)
	assert.Contains(t, err.Error(), "source: KB")
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		label    string
		expected time.Time
	}{
		{"2024-01-08", day(2024, 1, 8)},
		{"2024-01", day(2024, 1, 1)},
		{"2024.01.08", day(2024, 1, 8)},
		{"2024.1.8", day(2024, 1, 8)},
		{"2024/01/08", day(2024, 1, 8)},
		{"2024-01-08 00:00:00", day(2024, 1, 8)},
		{"20240108", day(2024, 1, 8)},
		{"45299", day(2024, 1, 8)},
	}

	for _, test := range tests {
		t.Run(test.label, func(t *testing.T) {
			got, err := ParsePeriod(test.label)
			require.NoError(t, err)
			assert.True(t, test.expected.Equal(got), "expected %v, got %v", test.expected, got)
		})
	}

	_, err := ParsePeriod("week 1")
	assert.ErrorIs(t, err, ErrPeriodParse)
}
