package util

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"quadrant-server/models"

	"github.com/xuri/excelize/v2"
)

var (
	ErrMissingSheet        = errors.New("missing sheet")
	ErrMissingPeriodColumn = errors.New("missing period column")
	ErrInvalidCell         = errors.New("invalid numeric cell")
)

// WorkbookLayout names the sale/rent sheet pair and the fixed rows to skip above the data.
type WorkbookLayout struct {
	SaleSheet    string
	RentSheet    string
	PeriodColumn string
	// SkipRows are zero-based row positions; the first row left over is the header.
	SkipRows []int
}

// ReadWorkbookFile loads the sale and rent sheets from an .xlsx file on disk.
func ReadWorkbookFile(path string, layout WorkbookLayout) (models.RawSheet, models.RawSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return models.RawSheet{}, models.RawSheet{}, fmt.Errorf("failed to open workbook %q: %w", path, err)
	}
	defer f.Close()
	return readSheetPair(f, layout)
}

// ReadWorkbook loads the sale and rent sheets from an .xlsx stream.
func ReadWorkbook(r io.Reader, layout WorkbookLayout) (models.RawSheet, models.RawSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.RawSheet{}, models.RawSheet{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return readSheetPair(f, layout)
}

func readSheetPair(f *excelize.File, layout WorkbookLayout) (models.RawSheet, models.RawSheet, error) {
	sale, err := readSheet(f, layout.SaleSheet, layout)
	if err != nil {
		return models.RawSheet{}, models.RawSheet{}, err
	}
	rent, err := readSheet(f, layout.RentSheet, layout)
	if err != nil {
		return models.RawSheet{}, models.RawSheet{}, err
	}
	return sale, rent, nil
}

func readSheet(f *excelize.File, name string, layout WorkbookLayout) (models.RawSheet, error) {
	if !hasSheet(f, name) {
		return models.RawSheet{}, fmt.Errorf("%w: %q", ErrMissingSheet, name)
	}

	// raw values keep date cells as serial numbers instead of locale formatted text
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return models.RawSheet{}, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}

	skip := make(map[int]struct{}, len(layout.SkipRows))
	for _, i := range layout.SkipRows {
		skip[i] = struct{}{}
	}

	var header []string
	var headerLine int
	sheet := models.RawSheet{Name: name, PeriodColumn: layout.PeriodColumn}
	periodIdx := -1
	var categoryIdx []int

	for line, row := range rows {
		if _, ok := skip[line]; ok {
			continue
		}

		if header == nil {
			header, headerLine = row, line
			if header == nil {
				header = []string{}
			}
			for i, h := range header {
				h = strings.TrimSpace(h)
				switch {
				case h == layout.PeriodColumn && periodIdx < 0:
					periodIdx = i
				case h == "":
					// unlabeled columns carry no category
				default:
					categoryIdx = append(categoryIdx, i)
					sheet.Categories = append(sheet.Categories, h)
				}
			}
			if periodIdx < 0 {
				return models.RawSheet{}, fmt.Errorf("%w: %q not found in sheet %q header (row %d)",
					ErrMissingPeriodColumn, layout.PeriodColumn, name, line+1)
			}
			continue
		}

		raw := models.RawRow{Values: make([]*float64, len(categoryIdx))}
		if p := strings.TrimSpace(cellAt(row, periodIdx)); p != "" {
			raw.Period = &p
		}
		for j, col := range categoryIdx {
			v, err := parseCell(cellAt(row, col))
			if err != nil {
				cell, _ := excelize.CoordinatesToCellName(col+1, line+1)
				return models.RawSheet{}, fmt.Errorf("%w: sheet %q cell %s: %v", ErrInvalidCell, name, cell, err)
			}
			raw.Values[j] = v
		}
		sheet.Rows = append(sheet.Rows, raw)
	}

	if header == nil {
		return models.RawSheet{}, fmt.Errorf("%w: sheet %q has no header row", ErrMissingPeriodColumn, name)
	}

	log.Printf("[WorkbookReader] Read sheet %q: header row %d, %d categories, %d rows",
		name, headerLine+1, len(sheet.Categories), len(sheet.Rows))
	return sheet, nil
}

func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

// GetRows trims trailing empty cells, so short rows are padded with missing values.
func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseCell(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
