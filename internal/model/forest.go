package model

import (
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// Forest is a bagged ensemble of classification trees. Each leaf stores the
// fraction of quark samples that reached it; the forest averages them.
type Forest struct {
	Trees       []*Tree   `json:"trees"`
	Importances []float64 `json:"importances"`
}

func fitForest(x [][]float64, y []float64, cfg ForestConfig) *Forest {
	nFeat := len(x[0])

	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(nFeat))))
	}
	if maxFeatures > nFeat {
		maxFeatures = nFeat
	}

	// Seeds are drawn up front so tree i is identical whichever worker builds it.
	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	f := &Forest{Trees: make([]*Tree, cfg.Trees)}
	perTree := make([][]float64, cfg.Trees)

	var g errgroup.Group
	g.SetLimit(cfg.workers())
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			f.Trees[i], perTree[i] = growBagged(x, y, cfg, maxFeatures, seed)
			return nil
		})
	}
	_ = g.Wait()

	importance := make([]float64, nFeat)
	for _, imp := range perTree {
		for j, v := range normalizeImportance(imp) {
			importance[j] += v
		}
	}
	f.Importances = normalizeImportance(importance)
	return f
}

// growBagged builds one tree on a bootstrap draw expressed as sample weights.
func growBagged(x [][]float64, y []float64, cfg ForestConfig, maxFeatures int, seed int64) (*Tree, []float64) {
	n := len(x)
	rng := rand.New(rand.NewSource(seed))
	weights := make([]float64, n)
	var samples []int
	if cfg.Bootstrap {
		for k := 0; k < n; k++ {
			weights[rng.Intn(n)]++
		}
		for i, w := range weights {
			if w > 0 {
				samples = append(samples, i)
			}
		}
	} else {
		samples = make([]int, n)
		for i := range samples {
			samples[i] = i
			weights[i] = 1
		}
	}
	return growTree(x, y, weights, samples, treeParams{
		maxDepth:        cfg.MaxDepth,
		minSamplesSplit: cfg.MinSamplesSplit,
		minSamplesLeaf:  cfg.MinSamplesLeaf,
		maxFeatures:     maxFeatures,
		rng:             rng,
	})
}

// Proba returns the mean leaf quark fraction over all trees.
func (f *Forest) Proba(x []float64) float64 {
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}
