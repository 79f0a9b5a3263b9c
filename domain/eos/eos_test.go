package eos

import (
	"testing"

	"eosphase/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSet(t *testing.T) *RecordSet {
	t.Helper()
	rs, err := FromRecords(RequiredColumns(), []Record{
		{ColYQ: 0.3, ColT: 100, ColFQuark: 1.0, ColFHadron: 1.0, ColMuBQ: 600, ColMuBH: 500, ColMuQQ: -50, ColMuQH: -100},
		{ColYQ: 0.1, ColT: 120, ColFQuark: 0.9, ColFHadron: 1.0, ColMuBQ: 700, ColMuBH: 650, ColMuQQ: -20, ColMuQH: -30},
		{ColYQ: 0.5, ColT: 140, ColFQuark: 2.0, ColFHadron: 1.5, ColMuBQ: 800, ColMuBH: 810, ColMuQQ: 10, ColMuQH: 0},
	})
	require.NoError(t, err)
	return rs
}

func TestAddCombinedPotential(t *testing.T) {
	rs := sampleSet(t)

	out, err := AddCombinedPotential(rs)
	require.NoError(t, err)

	hatH, err := out.Column(ColMuHatH)
	require.NoError(t, err)
	hatQ, err := out.Column(ColMuHatQ)
	require.NoError(t, err)

	assert.InDelta(t, 470.0, hatH[0], 1e-12) // 500 + 0.3*(-100)
	assert.InDelta(t, 585.0, hatQ[0], 1e-12) // 600 + 0.3*(-50)
	assert.InDelta(t, 647.0, hatH[1], 1e-12)
	assert.InDelta(t, 805.0, hatQ[2], 1e-12)

	assert.False(t, rs.Has(ColMuHatH), "input must not be modified")
}

func TestAddCombinedPotential_MissingColumn(t *testing.T) {
	rs := sampleSet(t).Without(ColMuQH)

	_, err := AddCombinedPotential(rs)
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
	assert.Contains(t, err.Error(), ColMuQH)
}

func TestLabelPhase(t *testing.T) {
	tests := []struct {
		name    string
		fQuark  float64
		fHadron float64
		want    Phase
	}{
		{"tie resolves to hadron", 1.0, 1.0, PhaseHadron},
		{"quark lower", 0.9, 1.0, PhaseQuark},
		{"hadron lower", 1.1, 1.0, PhaseHadron},
		{"negative energies", -3.0, -2.0, PhaseQuark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelPhase(tt.fQuark, tt.fHadron))
		})
	}
}

func TestAddPhaseLabel(t *testing.T) {
	rs := sampleSet(t)

	out, err := AddPhaseLabel(rs)
	require.NoError(t, err)

	labels, err := Labels(out)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, labels)

	fq, _ := out.Column(ColFQuark)
	fh, _ := out.Column(ColFHadron)
	for i, l := range labels {
		if fq[i] >= fh[i] {
			assert.Equal(t, 0, l)
		} else {
			assert.Equal(t, 1, l)
		}
	}
}

func TestAddPhaseLabel_MissingColumn(t *testing.T) {
	_, err := AddPhaseLabel(sampleSet(t).Without(ColFHadron))
	assert.True(t, core.IsSchemaError(err))

	_, err = Labels(sampleSet(t))
	assert.True(t, core.IsSchemaError(err))
}

func TestRecordSet_SubsetKeepsSourceRows(t *testing.T) {
	rs := sampleSet(t)
	sub := rs.Subset([]int{2, 0})

	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, []int{2, 0}, sub.SourceRows())
	assert.Equal(t, []int{0, 2}, sub.SortedBySource().SourceRows())

	temps, _ := sub.Column(ColT)
	assert.Equal(t, []float64{140, 100}, temps)
}

func TestRecordSet_WithColumnLengthMismatch(t *testing.T) {
	_, err := sampleSet(t).WithColumn("x", []float64{1})
	assert.Error(t, err)
}
