package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteHistogramCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.csv")
	bins := []HistogramBin{
		{Low: 0, High: 5, Count: 3},
		{Low: 5, High: 10, Count: 1},
	}

	require.NoError(t, WriteHistogramCSV(path, bins))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bin_low,bin_high,count\n0,5,3\n5,10,1\n", string(data))
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	weekly := weeklyRows(10, 20, 30)
	desc := DescribeValues(SpreadValues(weekly))
	bins := Histogram(SpreadValues(weekly), 2)

	require.NoError(t, WriteWorkbook(path, weekly, desc, bins))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t,
		[]string{"Weekly Spreads", "Distribution", "Histogram"},
		f.GetSheetList())

	cusip, err := f.GetCellValue("Weekly Spreads", "A2")
	require.NoError(t, err)
	assert.Equal(t, "X1", cusip)

	label, err := f.GetCellValue("Distribution", "A1")
	require.NoError(t, err)
	assert.Equal(t, "count", label)
}
