package models

// RawRow is one data row of a wide sheet. Nil entries are missing cells.
type RawRow struct {
	Period *string    `json:"period"`
	Values []*float64 `json:"values"`
}

// RawSheet is a wide table: a period label column plus one column per category.
type RawSheet struct {
	Name         string   `json:"name"`
	PeriodColumn string   `json:"period_column"`
	Categories   []string `json:"categories"`
	Rows         []RawRow `json:"rows"`
}
