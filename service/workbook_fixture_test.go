package services

import (
	"testing"

	"quadrant-server/util"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixtureLayout = util.WorkbookLayout{
	SaleSheet:    "3.매매지수",
	RentSheet:    "4.전세지수",
	PeriodColumn: "구분",
	SkipRows:     []int{0, 2, 3},
}

// scenarioWorkbook encodes scenarioSheets as an .xlsx in the KB layout.
func scenarioWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	grids := []struct {
		name string
		rows [][]interface{}
	}{
		{"3.매매지수", [][]interface{}{
			{"title"}, {"구분", "A", "B"}, {"meta"}, {"meta"},
			{"2024-01", 1, 3},
			{"2024-02", 2},
		}},
		{"4.전세지수", [][]interface{}{
			{"title"}, {"구분", "A", "B"}, {"meta"}, {"meta"},
			{"2024-01", 5, 7},
			{"2024-02", 6, 8},
		}},
	}
	for _, g := range grids {
		name, grid := g.name, g.rows
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range grid {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
