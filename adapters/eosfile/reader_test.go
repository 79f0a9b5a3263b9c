package eosfile

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"eosphase/domain/core"
	"eosphase/domain/eos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleTable = `# YQ T Fq Fh s p muBQ muBH muQQ muQH
0.30  100.0  1.0  1.0  0.1  0.2  600  500  -50  -100
0.10  120.0  0.9  1.0  0.1  0.2  700  650  -20   -30

0.20  abc    0.9  1.0  0.1  0.2  700  650  -20   -30
0.50  140.0  2.0  1.5  0.1  0.2  800  810   10     0  extra
0.40  150.0  2.0  1.5
0.45  1.6D+02  2.0  1.5  0.1  0.2  800  810   NaN    0
0.45  1.6D+02  2.0  1.5  x    y    800  810   12     0
`

func TestLoad_MapsColumnsAndDropsInvalidRows(t *testing.T) {
	path := writeFile(t, "eos.dat", sampleTable)

	rs, stats, err := NewReader(path).Read()
	require.NoError(t, err)

	assert.Equal(t, LoadStats{RowsRead: 7, RowsKept: 4, RowsDropped: 3}, stats)
	assert.Equal(t, eos.RequiredColumns(), rs.Columns())
	assert.Equal(t, 4, rs.Len())

	temps, err := rs.Column(eos.ColT)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 120, 140, 160}, temps)

	muBH, _ := rs.Column(eos.ColMuBH)
	assert.Equal(t, []float64{500, 650, 810, 810}, muBH)
	muQQ, _ := rs.Column(eos.ColMuQQ)
	assert.Equal(t, []float64{-50, -20, 10, 12}, muQQ)

	// Unused columns 4 and 5 may hold anything.
	assert.Equal(t, []int{1, 2, 5, 8}, rs.SourceRows())
}

func TestLoad_NoMissingValuesInRequiredFields(t *testing.T) {
	rs, err := Load(writeFile(t, "eos.dat", sampleTable))
	require.NoError(t, err)

	for _, name := range eos.RequiredColumns() {
		col, err := rs.Column(name)
		require.NoError(t, err)
		for i, v := range col {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "column %s row %d", name, i)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.dat") }},
		{"empty file", func(t *testing.T) string { return writeFile(t, "empty.dat", "\n# only a comment\n") }},
		{"too few columns", func(t *testing.T) string { return writeFile(t, "narrow.dat", "1 2 3 4 5 6 7 8 9\n") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.True(t, core.IsParseError(err), "got %v", err)
		})
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.5", 1.5, true},
		{" -2e3 ", -2000, true},
		{"1.5D+02", 150, true},
		{"2.5d-1", 0.25, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
		{"1,5", 0, false},
	}

	for _, tt := range tests {
		got, ok := Coerce(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-12, tt.in)
		}
	}
}

func TestLoad_Workbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{0.3, 100.0, 1.0, 1.0, 0, 0, 600, 500, -50, -100},
		{0.1, 120.0, 0.9, 1.0, 0, 0, 700, 650, -20, -30},
		{0.2, "n/a", 0.9, 1.0, 0, 0, 700, 650, -20, -30},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}
	path := filepath.Join(t.TempDir(), "eos.xlsx")
	require.NoError(t, f.SaveAs(path))

	rs, stats, err := NewReader(path).Read()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RowsKept)
	assert.Equal(t, 1, stats.RowsDropped)

	yq, _ := rs.Column(eos.ColYQ)
	assert.Equal(t, []float64{0.3, 0.1}, yq)
}
