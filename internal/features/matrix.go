package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FeatureMatrix is an ordered, named table of features backed by a dense matrix.
type FeatureMatrix struct {
	names []string
	data  *mat.Dense
	rows  int
}

func newFeatureMatrix(names []string, data *mat.Dense, rows int) *FeatureMatrix {
	return &FeatureMatrix{names: names, data: data, rows: rows}
}

// NewFeatureMatrix wraps row-major values. len(values) must equal rows*len(names).
func NewFeatureMatrix(names []string, rows int, values []float64) (*FeatureMatrix, error) {
	if len(values) != rows*len(names) {
		return nil, fmt.Errorf("feature matrix needs %d values, got %d", rows*len(names), len(values))
	}
	if rows == 0 {
		return newFeatureMatrix(append([]string(nil), names...), mat.NewDense(1, len(names), nil), 0), nil
	}
	data := mat.NewDense(rows, len(names), append([]float64(nil), values...))
	return newFeatureMatrix(append([]string(nil), names...), data, rows), nil
}

// Rows returns the number of samples.
func (m *FeatureMatrix) Rows() int { return m.rows }

// Cols returns the number of features.
func (m *FeatureMatrix) Cols() int { return len(m.names) }

// Names returns the feature names in column order.
func (m *FeatureMatrix) Names() []string { return append([]string(nil), m.names...) }

// At returns the value at row i, column j.
func (m *FeatureMatrix) At(i, j int) float64 { return m.data.At(i, j) }

// Row returns a copy of row i.
func (m *FeatureMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// Column returns a copy of the named column.
func (m *FeatureMatrix) Column(name string) ([]float64, error) {
	for j, n := range m.names {
		if n == name {
			if m.rows == 0 {
				return []float64{}, nil
			}
			return mat.Col(nil, j, m.data.Slice(0, m.rows, 0, len(m.names))), nil
		}
	}
	return nil, fmt.Errorf("feature %q not in matrix", name)
}
