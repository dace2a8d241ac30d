package util

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"

	"quadrant-server/models"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNothingToRender = errors.New("nothing to render")

const pngWidth = 1100

var seriesColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

var noticeTemplate = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Quadrant</title></head>
<body><p>{{.}}</p></body></html>
`))

// RenderNoticeHTML writes the informational page shown instead of a chart.
func RenderNoticeHTML(message string, w io.Writer) error {
	return noticeTemplate.Execute(w, message)
}

// RenderQuadrantHTML writes an interactive quadrant chart page.
func RenderQuadrantHTML(view models.QuadrantView, w io.Writer) error {
	if !view.HasPaths() {
		return ErrNothingToRender
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: view.Title,
			Width:     "1100px",
			Height:    pxHeight(view.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: view.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      view.XAxisTitle,
			Type:      "value",
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: "lightgrey"}},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      view.YAxisTitle,
			Type:      "value",
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: "lightgrey"}},
		}),
	)

	for i, p := range view.Paths {
		color := seriesColors[i%len(seriesColors)]

		data := make([]opts.LineData, len(p.Points))
		for j, pt := range p.Points {
			data[j] = opts.LineData{
				Name:  pt.Period.Format("2006-01-02"),
				Value: []interface{}{pt.Sale, pt.Rent},
			}
		}
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true), Symbol: "circle"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		}
		if i == 0 && view.ZeroLines {
			seriesOpts = append(seriesOpts,
				charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{Name: "sale = 0", XAxis: 0}),
				charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "rent = 0", YAxis: 0}),
				charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
					Symbol:    []string{"none"},
					LineStyle: &opts.LineStyle{Type: "dashed", Color: "black"},
				}),
			)
		}
		line.AddSeries(p.Category, data, seriesOpts...)

		// a one-point scatter under the same legend name carries the end label.
		// "top" labels sit on the symbol box, so its size sets the lift.
		anchor := charts.NewScatter()
		anchor.AddSeries(p.Category, []opts.ScatterData{{
			Name:       p.Label.Text,
			Value:      []interface{}{p.Label.Sale, p.Label.Rent},
			SymbolSize: p.Label.YShift,
		}},
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
			charts.WithLabelOpts(opts.Label{
				Show:            opts.Bool(true),
				Position:        "top",
				Color:           "black",
				BackgroundColor: p.Label.Background,
				Padding:         "2",
				Formatter:       "{b}",
			}),
		)
		line.Overlap(anchor)
	}

	return line.Render(w)
}

// RenderQuadrantPNG writes a static quadrant chart image.
func RenderQuadrantPNG(view models.QuadrantView, w io.Writer) error {
	if !view.HasPaths() {
		return ErrNothingToRender
	}

	xMin, xMax, yMin, yMax := pathBounds(view.Paths)
	xRange := padRange(xMin, xMax)
	yRange := padRange(yMin, yMax)

	var series []chart.Series
	annotations := make([]chart.Value2, 0, len(view.Paths))
	for i, p := range view.Paths {
		color := drawing.ColorFromHex(seriesColors[i%len(seriesColors)][1:])
		xs := make([]float64, len(p.Points))
		ys := make([]float64, len(p.Points))
		for j, pt := range p.Points {
			xs[j], ys[j] = pt.Sale, pt.Rent
		}
		series = append(series, chart.ContinuousSeries{
			Name:    p.Category,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    4,
			},
		})
		annotations = append(annotations, chart.Value2{XValue: p.Label.Sale, YValue: p.Label.Rent, Label: p.Label.Text})
	}

	if view.ZeroLines {
		dashed := chart.Style{StrokeColor: drawing.ColorBlack, StrokeWidth: 1, StrokeDashArray: []float64{5, 5}}
		if xRange.Min <= 0 && 0 <= xRange.Max {
			series = append(series, chart.ContinuousSeries{
				Name: "sale = 0", XValues: []float64{0, 0}, YValues: []float64{yRange.Min, yRange.Max}, Style: dashed,
			})
		}
		if yRange.Min <= 0 && 0 <= yRange.Max {
			series = append(series, chart.ContinuousSeries{
				Name: "rent = 0", XValues: []float64{xRange.Min, xRange.Max}, YValues: []float64{0, 0}, Style: dashed,
			})
		}
	}

	series = append(series, chart.AnnotationSeries{
		Annotations: annotations,
		Style: chart.Style{
			FillColor:   drawing.Color{R: 255, G: 255, B: 255, A: 153},
			StrokeColor: drawing.Color{R: 255, G: 255, B: 255, A: 153},
			FontColor:   drawing.ColorBlack,
			FontSize:    12,
		},
	})

	graph := chart.Chart{
		Title:  view.Title,
		Width:  pngWidth,
		Height: view.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  chart.XAxis{Name: view.XAxisTitle, Range: xRange},
		YAxis:  chart.YAxis{Name: view.YAxisTitle, Range: yRange},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

func pathBounds(paths []models.Path) (xMin, xMax, yMin, yMax float64) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, p := range paths {
		for _, pt := range p.Points {
			xMin, xMax = math.Min(xMin, pt.Sale), math.Max(xMax, pt.Sale)
			yMin, yMax = math.Min(yMin, pt.Rent), math.Max(yMax, pt.Rent)
		}
	}
	return xMin, xMax, yMin, yMax
}

// padRange widens the data range by 5% so single points and edge labels stay visible.
func padRange(min, max float64) *chart.ContinuousRange {
	pad := (max - min) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(min)*0.05, 1)
	}
	return &chart.ContinuousRange{Min: min - pad, Max: max + pad}
}

func pxHeight(h int) string {
	if h <= 0 {
		h = 700
	}
	return fmt.Sprintf("%dpx", h)
}
