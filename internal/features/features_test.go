package features

import (
	"math"
	"math/rand"
	"testing"

	"eosphase/domain/core"
	"eosphase/domain/eos"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeledSet(t *testing.T, n int, seed int64) *eos.RecordSet {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	records := make([]eos.Record, n)
	for i := range records {
		records[i] = eos.Record{
			eos.ColYQ:      rng.Float64() * 0.5,
			eos.ColT:       50 + rng.Float64()*150,
			eos.ColFQuark:  rng.NormFloat64(),
			eos.ColFHadron: rng.NormFloat64(),
			eos.ColMuBQ:    900 + rng.NormFloat64()*100,
			eos.ColMuBH:    850 + rng.NormFloat64()*120,
			eos.ColMuQQ:    -40 + rng.NormFloat64()*10,
			eos.ColMuQH:    -60 + rng.NormFloat64()*15,
		}
	}
	rs, err := eos.FromRecords(eos.RequiredColumns(), records)
	require.NoError(t, err)
	rs, err = eos.AddPhaseLabel(rs)
	require.NoError(t, err)
	return rs
}

func TestBuild_StandardizesEachBaseColumn(t *testing.T) {
	X, y, err := Build(labeledSet(t, 400, 1))
	require.NoError(t, err)

	assert.Equal(t, 400, X.Rows())
	assert.Equal(t, Names(), X.Names())
	assert.Len(t, y, 400)

	for _, name := range BaseColumns {
		col, err := X.Column(name)
		require.NoError(t, err)
		mean, _ := stats.Mean(col)
		std, _ := stats.StandardDeviationPopulation(col)
		assert.InDelta(t, 0.0, mean, 1e-9, name)
		assert.InDelta(t, 1.0, std, 1e-9, name)
	}
}

func TestBuild_DerivedColumns(t *testing.T) {
	X, _, err := Build(labeledSet(t, 50, 2))
	require.NoError(t, err)

	col := func(name string) []float64 {
		c, err := X.Column(name)
		require.NoError(t, err)
		return c
	}
	yq, temp := col(eos.ColYQ), col(eos.ColT)
	muBH, muBQ := col(eos.ColMuBH), col(eos.ColMuBQ)
	muQH, muQQ := col(eos.ColMuQH), col(eos.ColMuQQ)
	yqT, dB, dQ := col(FeatYQT), col(FeatDeltaMuB), col(FeatDeltaMuQ)

	for i := range yq {
		assert.InDelta(t, yq[i]*temp[i], yqT[i], 1e-12)
		assert.InDelta(t, muBQ[i]-muBH[i], dB[i], 1e-12)
		assert.InDelta(t, muQQ[i]-muQH[i], dQ[i], 1e-12)
	}
}

func TestBuild_ZeroVarianceColumnIsZero(t *testing.T) {
	rs := labeledSet(t, 30, 3)
	constant := make([]float64, rs.Len())
	for i := range constant {
		constant[i] = 0.1
	}
	rs, err := rs.WithColumn(eos.ColYQ, constant)
	require.NoError(t, err)

	X, _, err := Build(rs)
	require.NoError(t, err)

	yq, _ := X.Column(eos.ColYQ)
	yqT, _ := X.Column(FeatYQT)
	for i := range yq {
		assert.Equal(t, 0.0, yq[i])
		assert.Equal(t, 0.0, yqT[i])
		assert.False(t, math.IsNaN(yqT[i]))
	}
}

func TestBuild_SingleRowHasNoNaN(t *testing.T) {
	rs := labeledSet(t, 1, 4)
	X, y, err := Build(rs)
	require.NoError(t, err)
	require.Equal(t, 1, X.Rows())
	assert.Len(t, y, 1)
	for _, v := range X.Row(0) {
		assert.Equal(t, 0.0, v)
	}
}

func TestBuild_UsesOnlyItsOwnRows(t *testing.T) {
	rs := labeledSet(t, 200, 5)
	first := rs.Subset(seq(0, 100))

	X1, _, err := Build(first)
	require.NoError(t, err)
	X2, _, err := Build(first.Clone())
	require.NoError(t, err)
	assert.Equal(t, X1.Row(7), X2.Row(7))

	full, _, err := Build(rs)
	require.NoError(t, err)
	assert.NotEqual(t, full.Row(7), X1.Row(7), "statistics come from the record set passed in")
}

func TestBuild_MissingColumns(t *testing.T) {
	rs := labeledSet(t, 10, 6)

	_, _, err := Build(rs.Without(eos.ColMuQQ))
	assert.True(t, core.IsSchemaError(err))

	_, _, err = Build(rs.Without(eos.ColPhase))
	assert.True(t, core.IsSchemaError(err))
}

func TestBuildPair_Modes(t *testing.T) {
	rs := labeledSet(t, 300, 7)
	train, eval := rs.Subset(seq(0, 240)), rs.Subset(seq(240, 300))

	perSplit, err := BuildPair(train, eval, PerSplit)
	require.NoError(t, err)
	assert.Nil(t, perSplit.Stats)
	evalT, _ := perSplit.EvalX.Column(eos.ColT)
	m, _ := stats.Mean(evalT)
	assert.InDelta(t, 0.0, m, 1e-9, "per_split centers eval on its own mean")

	trainOnly, err := BuildPair(train, eval, TrainOnly)
	require.NoError(t, err)
	require.NotNil(t, trainOnly.Stats)
	trainStats, err := FitStats(train)
	require.NoError(t, err)
	assert.Equal(t, trainStats, trainOnly.Stats)

	rawT, _ := eval.Column(eos.ColT)
	cs, _ := trainStats.Lookup(eos.ColT)
	got, _ := trainOnly.EvalX.Column(eos.ColT)
	for i := range rawT {
		assert.InDelta(t, (rawT[i]-cs.Mean)/cs.Std, got[i], 1e-12)
	}
}

func TestParseFitMode(t *testing.T) {
	m, err := ParseFitMode("train_only")
	require.NoError(t, err)
	assert.Equal(t, TrainOnly, m)

	m, err = ParseFitMode("")
	require.NoError(t, err)
	assert.Equal(t, PerSplit, m)

	_, err = ParseFitMode("global")
	assert.True(t, core.IsConfigError(err))
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
