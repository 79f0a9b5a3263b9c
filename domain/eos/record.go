package eos

import (
	"fmt"
	"sort"

	"eosphase/domain/core"
)

// Record is one row of a RecordSet keyed by column name.
type Record map[string]float64

// RecordSet is a column-oriented table of float64 fields that all share one length.
// Operations that add or remove columns return a new RecordSet and leave the receiver untouched.
type RecordSet struct {
	order      []string
	columns    map[string][]float64
	sourceRows []int
}

// NewRecordSet builds a record set from named columns. order fixes the column order;
// sourceRows may be nil, in which case rows are numbered 0..n-1.
func NewRecordSet(order []string, columns map[string][]float64, sourceRows []int) (*RecordSet, error) {
	n := -1
	for _, name := range order {
		col, ok := columns[name]
		if !ok {
			return nil, core.NewSchemaError(name)
		}
		if n >= 0 && len(col) != n {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", name, len(col), n)
		}
		n = len(col)
	}
	if n < 0 {
		n = len(sourceRows)
	}
	if sourceRows == nil {
		sourceRows = make([]int, n)
		for i := range sourceRows {
			sourceRows[i] = i
		}
	}
	if len(sourceRows) != n {
		return nil, fmt.Errorf("source row index has %d entries, expected %d", len(sourceRows), n)
	}

	rs := &RecordSet{
		order:      append([]string(nil), order...),
		columns:    make(map[string][]float64, len(order)),
		sourceRows: append([]int(nil), sourceRows...),
	}
	for _, name := range order {
		rs.columns[name] = append([]float64(nil), columns[name]...)
	}
	return rs, nil
}

// FromRecords builds a record set from row maps. Every record must carry every column in order.
func FromRecords(order []string, records []Record) (*RecordSet, error) {
	columns := make(map[string][]float64, len(order))
	for _, name := range order {
		columns[name] = make([]float64, len(records))
	}
	for i, rec := range records {
		for _, name := range order {
			v, ok := rec[name]
			if !ok {
				return nil, core.NewSchemaError(name)
			}
			columns[name][i] = v
		}
	}
	return NewRecordSet(order, columns, nil)
}

// Len returns the number of rows.
func (rs *RecordSet) Len() int {
	return len(rs.sourceRows)
}

// Columns returns the column names in order.
func (rs *RecordSet) Columns() []string {
	return append([]string(nil), rs.order...)
}

// Has reports whether the named column exists.
func (rs *RecordSet) Has(name string) bool {
	_, ok := rs.columns[name]
	return ok
}

// Column returns a copy of the named column.
func (rs *RecordSet) Column(name string) ([]float64, error) {
	col, ok := rs.columns[name]
	if !ok {
		return nil, core.NewSchemaError(name)
	}
	return append([]float64(nil), col...), nil
}

// column returns the backing slice without copying; callers must not mutate it.
func (rs *RecordSet) column(name string) []float64 {
	return rs.columns[name]
}

// Require returns a SchemaError naming the first absent column.
func (rs *RecordSet) Require(names ...string) error {
	for _, name := range names {
		if !rs.Has(name) {
			return core.NewSchemaError(name)
		}
	}
	return nil
}

// SourceRows returns the input-file row index of every record.
func (rs *RecordSet) SourceRows() []int {
	return append([]int(nil), rs.sourceRows...)
}

// Row materializes one record.
func (rs *RecordSet) Row(i int) Record {
	rec := make(Record, len(rs.order))
	for _, name := range rs.order {
		rec[name] = rs.columns[name][i]
	}
	return rec
}

// WithColumn returns a copy with the named column added or replaced.
func (rs *RecordSet) WithColumn(name string, values []float64) (*RecordSet, error) {
	if len(values) != rs.Len() {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", name, len(values), rs.Len())
	}
	out := rs.Clone()
	if !out.Has(name) {
		out.order = append(out.order, name)
	}
	out.columns[name] = append([]float64(nil), values...)
	return out, nil
}

// Without returns a copy with the named columns removed. Absent names are ignored.
func (rs *RecordSet) Without(names ...string) *RecordSet {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &RecordSet{
		columns:    make(map[string][]float64, len(rs.order)),
		sourceRows: append([]int(nil), rs.sourceRows...),
	}
	for _, name := range rs.order {
		if drop[name] {
			continue
		}
		out.order = append(out.order, name)
		out.columns[name] = append([]float64(nil), rs.columns[name]...)
	}
	return out
}

// Subset returns the rows at the given positions, in the given order.
func (rs *RecordSet) Subset(idx []int) *RecordSet {
	out := &RecordSet{
		order:      append([]string(nil), rs.order...),
		columns:    make(map[string][]float64, len(rs.order)),
		sourceRows: make([]int, len(idx)),
	}
	for _, name := range rs.order {
		src := rs.columns[name]
		dst := make([]float64, len(idx))
		for i, j := range idx {
			dst[i] = src[j]
		}
		out.columns[name] = dst
	}
	for i, j := range idx {
		out.sourceRows[i] = rs.sourceRows[j]
	}
	return out
}

// SortedBySource returns a copy ordered by ascending source row.
func (rs *RecordSet) SortedBySource() *RecordSet {
	idx := make([]int, rs.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rs.sourceRows[idx[a]] < rs.sourceRows[idx[b]]
	})
	return rs.Subset(idx)
}

// Clone returns a deep copy.
func (rs *RecordSet) Clone() *RecordSet {
	idx := make([]int, rs.Len())
	for i := range idx {
		idx[i] = i
	}
	return rs.Subset(idx)
}
