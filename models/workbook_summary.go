package models

import "time"

// WorkbookSummary describes a loaded workbook to API clients.
type WorkbookSummary struct {
	Fingerprint string     `json:"fingerprint"`
	Name        string     `json:"name"`
	Categories  []string   `json:"categories"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Rows        int        `json:"rows"`
	LoadedAt    time.Time  `json:"loaded_at"`
}
