// Package split partitions EOS record sets into train and evaluation subsets
// with a temperature-stratified shuffle.
package split

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"eosphase/domain/core"
	"eosphase/domain/eos"
	"eosphase/internal"
)

const (
	// DefaultTestFraction is the share of rows held out for evaluation.
	DefaultTestFraction = 0.2
	// DefaultSeed makes splits reproducible when the caller has no preference.
	DefaultSeed int64 = 42
	// TemperatureBuckets is the number of equal-width T strata.
	TemperatureBuckets = 8
)

// StratifiedSplitter implements a one-shot stratified shuffle split over temperature buckets
type StratifiedSplitter struct {
	randomSeed int64
	logger     *internal.Logger
}

// StratumCount records how one temperature bucket was divided.
type StratumCount struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Train int     `json:"train"`
	Eval  int     `json:"eval"`
}

// SplitSummary provides metadata about the partitioning
type SplitSummary struct {
	TotalRows    int                  `json:"total_rows"`
	TrainRows    int                  `json:"train_rows"`
	EvalRows     int                  `json:"eval_rows"`
	TestFraction float64              `json:"test_fraction"`
	RandomSeed   int64                `json:"random_seed"`
	Strata       map[int]StratumCount `json:"strata"`
}

// NewStratifiedSplitter creates a splitter with a specific seed for reproducibility
func NewStratifiedSplitter(seed int64) *StratifiedSplitter {
	return &StratifiedSplitter{
		randomSeed: seed,
		logger:     internal.NewDefaultLogger("split"),
	}
}

// WithLogger replaces the splitter's logger.
func (s *StratifiedSplitter) WithLogger(logger *internal.Logger) *StratifiedSplitter {
	s.logger = logger
	return s
}

// Split is a convenience wrapper around StratifiedSplitter.Split.
func Split(rs *eos.RecordSet, testFraction float64, seed int64) (*eos.RecordSet, *eos.RecordSet, error) {
	train, eval, _, err := NewStratifiedSplitter(seed).Split(rs, testFraction)
	return train, eval, err
}

// Split divides rs into train and eval sets. Both keep the temperature-bucket
// proportions of rs; the same input, fraction and seed always give the same partition.
// Rows keep their relative input order inside each output.
func (s *StratifiedSplitter) Split(rs *eos.RecordSet, testFraction float64) (*eos.RecordSet, *eos.RecordSet, SplitSummary, error) {
	summary := SplitSummary{TestFraction: testFraction, RandomSeed: s.randomSeed}

	if testFraction <= 0 || testFraction >= 1 || math.IsNaN(testFraction) {
		return nil, nil, summary, core.NewConfigError("test_fraction",
			fmt.Sprintf("must be in (0,1), got %g", testFraction))
	}
	temps, err := rs.Column(eos.ColT)
	if err != nil {
		return nil, nil, summary, err
	}

	n := len(temps)
	summary.TotalRows = n
	if n < 2 {
		return nil, nil, summary, core.NewInsufficientDataError(fmt.Sprintf("need at least 2 rows to split, got %d", n))
	}

	edges := BucketEdges(temps)
	strata := groupByBucket(temps, edges)

	keys := make([]int, 0, len(strata))
	for k, members := range strata {
		if len(members) < 2 {
			return nil, nil, summary, core.NewInsufficientDataError(fmt.Sprintf(
				"temperature bucket %d [%g, %g] has %d record(s), need at least 2",
				k, edges[k], edges[k+1], len(members)))
		}
		keys = append(keys, k)
	}
	sort.Ints(keys)

	nTest := int(math.Ceil(testFraction * float64(n)))
	nTrain := n - nTest
	if nTest < len(keys) || nTrain < len(keys) {
		return nil, nil, summary, core.NewInsufficientDataError(fmt.Sprintf(
			"split of %d rows into %d train / %d eval cannot cover %d temperature buckets",
			n, nTrain, nTest, len(keys)))
	}

	quota := allocate(keys, strata, n, nTest)

	rng := rand.New(rand.NewSource(s.randomSeed))
	var trainIdx, evalIdx []int
	summary.Strata = make(map[int]StratumCount, len(keys))
	for _, k := range keys {
		members := append([]int(nil), strata[k]...)
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})

		q := quota[k]
		evalIdx = append(evalIdx, members[:q]...)
		trainIdx = append(trainIdx, members[q:]...)
		summary.Strata[k] = StratumCount{Lower: edges[k], Upper: edges[k+1], Train: len(members) - q, Eval: q}
	}
	sort.Ints(trainIdx)
	sort.Ints(evalIdx)

	summary.TrainRows = len(trainIdx)
	summary.EvalRows = len(evalIdx)
	s.logger.Debug("split %d rows into %d train / %d eval over %d buckets (seed %d)",
		n, summary.TrainRows, summary.EvalRows, len(keys), s.randomSeed)

	return rs.Subset(trainIdx), rs.Subset(evalIdx), summary, nil
}

// BucketEdges returns the TemperatureBuckets+1 equally spaced boundaries over [min T, max T].
func BucketEdges(temps []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, t := range temps {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	edges := make([]float64, TemperatureBuckets+1)
	step := (hi - lo) / TemperatureBuckets
	for i := range edges {
		edges[i] = lo + float64(i)*step
	}
	edges[TemperatureBuckets] = hi
	return edges
}

// Bucket returns the 0-based stratum of t: edges[i] <= t < edges[i+1], with the
// upper edge folded into the last bucket.
func Bucket(t float64, edges []float64) int {
	// number of edges <= t, minus the lower edge itself
	b := sort.Search(len(edges), func(i int) bool { return edges[i] > t }) - 1
	if b < 0 {
		b = 0
	}
	if b > TemperatureBuckets-1 {
		b = TemperatureBuckets - 1
	}
	return b
}

func groupByBucket(temps, edges []float64) map[int][]int {
	strata := make(map[int][]int)
	for i, t := range temps {
		b := Bucket(t, edges)
		strata[b] = append(strata[b], i)
	}
	return strata
}

// allocate spreads nTest eval rows over strata proportionally, assigning the
// rounding remainder by largest fractional part (ties to the lower bucket).
func allocate(keys []int, strata map[int][]int, n, nTest int) map[int]int {
	type share struct {
		key  int
		frac float64
	}

	quota := make(map[int]int, len(keys))
	shares := make([]share, 0, len(keys))
	assigned := 0
	for _, k := range keys {
		exact := float64(nTest) * float64(len(strata[k])) / float64(n)
		q := int(math.Floor(exact))
		if q > len(strata[k])-1 {
			q = len(strata[k]) - 1
		}
		quota[k] = q
		assigned += q
		shares = append(shares, share{key: k, frac: exact - float64(q)})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].frac > shares[j].frac
	})
	for assigned < nTest {
		progressed := false
		for _, sh := range shares {
			if assigned == nTest {
				break
			}
			if quota[sh.key] < len(strata[sh.key])-1 {
				quota[sh.key]++
				assigned++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return quota
}
