package split

import (
	"math/rand"
	"testing"

	"eosphase/domain/core"
	"eosphase/domain/eos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformSet(t *testing.T, n int, seed int64) *eos.RecordSet {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	records := make([]eos.Record, n)
	for i := range records {
		records[i] = eos.Record{
			eos.ColYQ: rng.Float64() * 0.5,
			eos.ColT:  50 + rng.Float64()*150,
		}
	}
	rs, err := eos.FromRecords([]string{eos.ColYQ, eos.ColT}, records)
	require.NoError(t, err)
	return rs
}

func TestSplit_Deterministic(t *testing.T) {
	rs := uniformSet(t, 500, 1)

	train1, eval1, err := Split(rs, 0.2, 42)
	require.NoError(t, err)
	train2, eval2, err := Split(rs, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, train1.SourceRows(), train2.SourceRows())
	assert.Equal(t, eval1.SourceRows(), eval2.SourceRows())

	_, eval3, err := Split(rs, 0.2, 7)
	require.NoError(t, err)
	assert.NotEqual(t, eval1.SourceRows(), eval3.SourceRows(), "different seeds should shuffle differently")
}

func TestSplit_PartitionIsComplete(t *testing.T) {
	rs := uniformSet(t, 503, 2)

	train, eval, err := Split(rs, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, 101, eval.Len(), "eval size is ceil(0.2*n)")
	assert.Equal(t, 402, train.Len())

	seen := make(map[int]int)
	for _, r := range train.SourceRows() {
		seen[r]++
	}
	for _, r := range eval.SourceRows() {
		seen[r]++
	}
	assert.Len(t, seen, rs.Len(), "no omission")
	for r, c := range seen {
		assert.Equal(t, 1, c, "row %d assigned %d times", r, c)
	}

	assert.Equal(t, rs.Columns(), train.Columns(), "bucket column is not retained")
}

func TestSplit_PreservesBucketProportions(t *testing.T) {
	rs := uniformSet(t, 2000, 3)
	temps, _ := rs.Column(eos.ColT)
	edges := BucketEdges(temps)

	_, eval, summary, err := NewStratifiedSplitter(42).Split(rs, 0.2)
	require.NoError(t, err)
	require.Len(t, summary.Strata, TemperatureBuckets)

	full := make(map[int]int)
	for _, tv := range temps {
		full[Bucket(tv, edges)]++
	}
	evalTemps, _ := eval.Column(eos.ColT)
	held := make(map[int]int)
	for _, tv := range evalTemps {
		held[Bucket(tv, edges)]++
	}

	for b := 0; b < TemperatureBuckets; b++ {
		want := float64(full[b]) * 0.2
		assert.InDelta(t, want, float64(held[b]), 1.0, "bucket %d", b)
		assert.Equal(t, held[b], summary.Strata[b].Eval)
		assert.Equal(t, full[b]-held[b], summary.Strata[b].Train)
	}
}

func TestBucket_Edges(t *testing.T) {
	edges := BucketEdges([]float64{50, 200})
	require.Len(t, edges, TemperatureBuckets+1)
	assert.Equal(t, 50.0, edges[0])
	assert.Equal(t, 200.0, edges[TemperatureBuckets])

	assert.Equal(t, 0, Bucket(50, edges))
	assert.Equal(t, 0, Bucket(68.7, edges))
	assert.Equal(t, 1, Bucket(68.75, edges), "lower edge belongs to its bucket")
	assert.Equal(t, TemperatureBuckets-1, Bucket(200, edges), "maximum folds into the last bucket")
}

func TestSplit_InsufficientStratum(t *testing.T) {
	records := []eos.Record{
		{eos.ColT: 50}, {eos.ColT: 51}, {eos.ColT: 52}, {eos.ColT: 53},
		{eos.ColT: 200}, // alone in the top bucket
	}
	rs, err := eos.FromRecords([]string{eos.ColT}, records)
	require.NoError(t, err)

	_, _, err = Split(rs, 0.2, 42)
	require.Error(t, err)
	assert.True(t, core.IsInsufficientDataError(err))
}

func TestSplit_InvalidFraction(t *testing.T) {
	rs := uniformSet(t, 100, 4)
	for _, f := range []float64{0, 1, -0.1, 1.5} {
		_, _, err := Split(rs, f, 42)
		assert.True(t, core.IsConfigError(err), "fraction %g", f)
	}
}

func TestSplit_MissingTemperature(t *testing.T) {
	rs := uniformSet(t, 20, 5).Without(eos.ColT)
	_, _, err := Split(rs, 0.2, 42)
	assert.True(t, core.IsSchemaError(err))
}

func TestSplit_ConstantTemperature(t *testing.T) {
	records := make([]eos.Record, 10)
	for i := range records {
		records[i] = eos.Record{eos.ColT: 120}
	}
	rs, err := eos.FromRecords([]string{eos.ColT}, records)
	require.NoError(t, err)

	train, eval, err := Split(rs, 0.3, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, eval.Len())
	assert.Equal(t, 7, train.Len())
}
