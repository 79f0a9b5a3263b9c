// Package features turns labeled EOS record sets into standardized feature matrices.
package features

import (
	"fmt"
	"math"

	"eosphase/domain/core"
	"eosphase/domain/eos"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Derived feature names.
const (
	FeatYQT      = "YQ_T"
	FeatDeltaMuB = "delta_muB"
	FeatDeltaMuQ = "delta_muQ"
)

// BaseColumns are standardized and kept in this order.
var BaseColumns = []string{eos.ColYQ, eos.ColT, eos.ColMuBH, eos.ColMuBQ, eos.ColMuQH, eos.ColMuQQ}

// DerivedColumns follow the base columns in the matrix.
var DerivedColumns = []string{FeatYQT, FeatDeltaMuB, FeatDeltaMuQ}

// Names returns every feature name in matrix column order.
func Names() []string {
	names := make([]string, 0, len(BaseColumns)+len(DerivedColumns))
	names = append(names, BaseColumns...)
	return append(names, DerivedColumns...)
}

// zeroVarianceTolerance scales with the column mean so a constant column whose
// mean picked up rounding error is still treated as constant.
const zeroVarianceTolerance = 1e-12

// ColumnStats holds the standardization parameters of one base column.
type ColumnStats struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"` // population standard deviation (ddof=0)
}

// Constant reports whether the column has no usable spread.
func (c ColumnStats) Constant() bool {
	return c.Std <= zeroVarianceTolerance*math.Max(1, math.Abs(c.Mean))
}

// Standardize maps v to (v-mean)/std. Constant columns map to 0.
func (c ColumnStats) Standardize(v float64) float64 {
	if c.Constant() {
		return 0
	}
	return (v - c.Mean) / c.Std
}

// Stats is the full set of standardization parameters, one entry per base column.
type Stats struct {
	Columns []ColumnStats `json:"columns"`
}

// Lookup returns the parameters of the named column.
func (s *Stats) Lookup(name string) (ColumnStats, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnStats{}, false
}

// FitStats computes mean and population standard deviation of every base column of rs.
func FitStats(rs *eos.RecordSet) (*Stats, error) {
	if err := rs.Require(BaseColumns...); err != nil {
		return nil, err
	}
	if rs.Len() == 0 {
		return nil, core.NewInsufficientDataError("cannot fit feature statistics on an empty record set")
	}

	out := &Stats{Columns: make([]ColumnStats, 0, len(BaseColumns))}
	for _, name := range BaseColumns {
		col, err := rs.Column(name)
		if err != nil {
			return nil, err
		}
		mean, err := stats.Mean(col)
		if err != nil {
			return nil, fmt.Errorf("mean of %s: %w", name, err)
		}
		std, err := stats.StandardDeviationPopulation(col)
		if err != nil {
			return nil, fmt.Errorf("std of %s: %w", name, err)
		}
		out.Columns = append(out.Columns, ColumnStats{Name: name, Mean: mean, Std: std})
	}
	return out, nil
}

// Build standardizes rs with statistics computed from rs itself and returns the
// feature matrix and the phase labels. It reads nothing but rs.
func Build(rs *eos.RecordSet) (*FeatureMatrix, []int, error) {
	st, err := FitStats(rs)
	if err != nil {
		return nil, nil, err
	}
	return BuildWith(rs, st)
}

// BuildWith standardizes rs with the given statistics.
func BuildWith(rs *eos.RecordSet, st *Stats) (*FeatureMatrix, []int, error) {
	if err := rs.Require(BaseColumns...); err != nil {
		return nil, nil, err
	}
	labels, err := eos.Labels(rs)
	if err != nil {
		return nil, nil, err
	}

	n := rs.Len()
	names := Names()
	data := mat.NewDense(max(n, 1), len(names), nil)

	norm := make(map[string][]float64, len(BaseColumns))
	for j, name := range BaseColumns {
		cs, ok := st.Lookup(name)
		if !ok {
			return nil, nil, core.NewSchemaError(name)
		}
		col, err := rs.Column(name)
		if err != nil {
			return nil, nil, err
		}
		z := make([]float64, n)
		for i, v := range col {
			z[i] = cs.Standardize(v)
			data.Set(i, j, z[i])
		}
		norm[name] = z
	}

	base := len(BaseColumns)
	for i := 0; i < n; i++ {
		data.Set(i, base, norm[eos.ColYQ][i]*norm[eos.ColT][i])
		data.Set(i, base+1, norm[eos.ColMuBQ][i]-norm[eos.ColMuBH][i])
		data.Set(i, base+2, norm[eos.ColMuQQ][i]-norm[eos.ColMuQH][i])
	}

	return newFeatureMatrix(names, data, n), labels, nil
}
