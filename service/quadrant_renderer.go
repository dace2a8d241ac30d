package services

import (
	"fmt"
	"sort"
	"time"

	"quadrant-server/models"
)

const (
	MessageIncompleteSelection = "Select a start date, an end date and at least one region."
	MessageNoMatchingData      = "No data matches the selected conditions."

	SaleAxisTitle = "Sale index"
	RentAxisTitle = "Rent index"

	labelYShift       = 10
	labelBackground   = "rgba(255, 255, 255, 0.6)"
	chartHeight       = 700
	defaultRegionPick = 3
	titleDateFormat   = "2006-01-02"
)

// QuadrantRenderer derives per-category trajectories from a normalized series.
// It holds no selection state between calls.
type QuadrantRenderer struct {
	zeroLines bool
}

func NewQuadrantRenderer(zeroLines bool) *QuadrantRenderer {
	return &QuadrantRenderer{zeroLines: zeroLines}
}

// Render filters the series to the selection and returns one chronologically
// ordered path per matching category.
func (qr *QuadrantRenderer) Render(series *models.NormalizedSeries, sel models.Selection) models.QuadrantView {
	view := models.QuadrantView{
		XAxisTitle: SaleAxisTitle,
		YAxisTitle: RentAxisTitle,
		ZeroLines:  qr.zeroLines,
		Height:     chartHeight,
		Paths:      []models.Path{},
	}

	// a workbook that joined to nothing has no range to prompt for
	if series == nil || len(series.Rows) == 0 {
		view.Status = models.ViewStatusEmpty
		view.Message = MessageNoMatchingData
		return view
	}

	if sel.Start == nil || sel.End == nil {
		view.Status = models.ViewStatusIncomplete
		view.Message = MessageIncompleteSelection
		return view
	}

	start, end := dateOnly(*sel.Start), dateOnly(*sel.End)
	view.Start, view.End = &start, &end
	view.Title = fmt.Sprintf("Real-estate quadrant path (%s ~ %s)",
		start.Format(titleDateFormat), end.Format(titleDateFormat))

	wanted := make(map[string]struct{}, len(sel.Categories))
	for _, c := range sel.Categories {
		wanted[c] = struct{}{}
	}

	groups := make(map[string][]models.ObservationRow)
	if series != nil {
		for _, row := range series.Rows {
			if _, ok := wanted[row.Category]; !ok {
				continue
			}
			if row.Period.Before(start) || row.Period.After(end) {
				continue
			}
			groups[row.Category] = append(groups[row.Category], row)
		}
	}

	if len(groups) == 0 {
		view.Status = models.ViewStatusEmpty
		view.Message = MessageNoMatchingData
		return view
	}

	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		view.Paths = append(view.Paths, buildPath(c, groups[c]))
	}
	view.Status = models.ViewStatusOK
	return view
}

// DefaultSelection covers the whole series and the first three regions by name.
func DefaultSelection(series *models.NormalizedSeries) models.Selection {
	sel := models.Selection{}
	if series == nil {
		return sel
	}
	if start, end, ok := series.DateRange(); ok {
		sel.Start, sel.End = &start, &end
	}
	categories := series.Categories()
	if len(categories) > defaultRegionPick {
		categories = categories[:defaultRegionPick]
	}
	sel.Categories = categories
	return sel
}

func buildPath(category string, rows []models.ObservationRow) models.Path {
	// stable keeps fan-out duplicates of one period in join order
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Period.Before(rows[j].Period)
	})

	points := make([]models.PathPoint, len(rows))
	for i, r := range rows {
		points[i] = models.PathPoint{Period: r.Period, Sale: r.Sale, Rent: r.Rent}
	}
	last := points[len(points)-1]

	return models.Path{
		Category: category,
		Points:   points,
		Label: models.LabelAnchor{
			Text:       category,
			Sale:       last.Sale,
			Rent:       last.Rent,
			YShift:     labelYShift,
			Background: labelBackground,
		},
	}
}

// dateOnly truncates to midnight so both ends of the range are inclusive by date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
