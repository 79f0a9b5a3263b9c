package model

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Scaler divides every feature by its training standard deviation without
// centering, so zero stays zero. Columns with no spread are left unscaled.
type Scaler struct {
	Scale []float64 `json:"scale"`
}

// FitScaler learns per-column scales from row-major samples.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on zero rows")
	}
	nFeat := len(rows[0])
	s := &Scaler{Scale: make([]float64, nFeat)}
	col := make([]float64, len(rows))
	for j := 0; j < nFeat; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		std, err := stats.StandardDeviationPopulation(col)
		if err != nil {
			return nil, fmt.Errorf("scale of column %d: %w", j, err)
		}
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Scale[j] = std
	}
	return s, nil
}

// Transform returns a scaled copy of x.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = v / s.Scale[j]
	}
	return out
}

// TransformAll scales every row.
func (s *Scaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = s.Transform(r)
	}
	return out
}
