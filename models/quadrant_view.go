package models

import "time"

// Selection is the user-chosen date range and category set. Nil dates were not supplied.
type Selection struct {
	Start      *time.Time
	End        *time.Time
	Categories []string
}

type ViewStatus string

const (
	ViewStatusOK         ViewStatus = "ok"
	ViewStatusEmpty      ViewStatus = "empty"
	ViewStatusIncomplete ViewStatus = "incomplete"
)

type PathPoint struct {
	Period time.Time `json:"period"`
	Sale   float64   `json:"sale"`
	Rent   float64   `json:"rent"`
}

// LabelAnchor places the category name at the latest point of its path.
type LabelAnchor struct {
	Text       string  `json:"text"`
	Sale       float64 `json:"sale"`
	Rent       float64 `json:"rent"`
	YShift     int     `json:"y_shift"`
	Background string  `json:"background"`
}

type Path struct {
	Category string      `json:"category"`
	Points   []PathPoint `json:"points"`
	Label    LabelAnchor `json:"label"`
}

// QuadrantView is everything a chart renderer needs for one selection.
type QuadrantView struct {
	Status     ViewStatus `json:"status"`
	Message    string     `json:"message,omitempty"`
	Title      string     `json:"title,omitempty"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
	XAxisTitle string     `json:"x_axis_title"`
	YAxisTitle string     `json:"y_axis_title"`
	ZeroLines  bool       `json:"zero_lines"`
	Height     int        `json:"height"`
	Paths      []Path     `json:"paths"`
}

// HasPaths reports whether the view can be drawn as a chart.
func (v QuadrantView) HasPaths() bool {
	return v.Status == ViewStatusOK && len(v.Paths) > 0
}
