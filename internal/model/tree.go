package model

import (
	"math/rand"
	"sort"
)

// Node is one node of a binary regression tree stored in a flat slice.
// Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a fitted CART tree. Samples with x[Feature] <= Threshold go left.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) leaf(x []float64) int {
	i := 0
	for t.Nodes[i].Feature >= 0 {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return i
}

// Predict returns the value of the leaf x falls into.
func (t *Tree) Predict(x []float64) float64 {
	return t.Nodes[t.leaf(x)].Value
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

type treeParams struct {
	maxDepth        int // 0: unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0: all features
	rng             *rand.Rand
}

// treeBuilder grows a tree by weighted squared-error reduction. For 0/1 targets
// the weighted SSE of a node is half its weighted Gini impurity, so the same
// criterion serves classification trees.
type treeBuilder struct {
	x          [][]float64
	y          []float64
	w          []float64
	params     treeParams
	nodes      []Node
	importance []float64
	order      []int
}

func growTree(x [][]float64, y, w []float64, samples []int, p treeParams) (*Tree, []float64) {
	nFeat := len(x[0])
	b := &treeBuilder{
		x:          x,
		y:          y,
		w:          w,
		params:     p,
		importance: make([]float64, nFeat),
		order:      make([]int, nFeat),
	}
	for j := range b.order {
		b.order[j] = j
	}
	b.build(append([]int(nil), samples...), 0)
	return &Tree{Nodes: b.nodes}, b.importance
}

type nodeSums struct {
	w, wy, wyy float64
}

func (s nodeSums) sse() float64 {
	if s.w <= 0 {
		return 0
	}
	return s.wyy - s.wy*s.wy/s.w
}

func (b *treeBuilder) sums(samples []int) nodeSums {
	var s nodeSums
	for _, i := range samples {
		w := b.w[i]
		s.w += w
		s.wy += w * b.y[i]
		s.wyy += w * b.y[i] * b.y[i]
	}
	return s
}

func (b *treeBuilder) build(samples []int, depth int) int {
	s := b.sums(samples)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: s.wy / s.w})

	parent := s.sse()
	if len(samples) < b.params.minSamplesSplit ||
		(b.params.maxDepth > 0 && depth >= b.params.maxDepth) ||
		parent <= 1e-12*s.w {
		return idx
	}

	feature, threshold, gain, ok := b.bestSplit(samples, s)
	if !ok {
		return idx
	}
	b.importance[feature] += gain

	var left, right []int
	for _, i := range samples {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: s.wy / s.w}
	return idx
}

func (b *treeBuilder) candidateFeatures() []int {
	k := b.params.maxFeatures
	if k <= 0 || k >= len(b.order) {
		return b.order
	}
	perm := b.params.rng.Perm(len(b.order))
	return perm[:k]
}

func (b *treeBuilder) bestSplit(samples []int, total nodeSums) (int, float64, float64, bool) {
	parent := total.sse()
	bestGain := 1e-12 * total.w
	bestFeature, bestThreshold := -1, 0.0
	minLeaf := b.params.minSamplesLeaf

	sorted := make([]int, len(samples))
	for _, f := range b.candidateFeatures() {
		copy(sorted, samples)
		sort.Slice(sorted, func(i, j int) bool {
			a, c := b.x[sorted[i]][f], b.x[sorted[j]][f]
			if a != c {
				return a < c
			}
			return sorted[i] < sorted[j]
		})

		var left nodeSums
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			w := b.w[i]
			left.w += w
			left.wy += w * b.y[i]
			left.wyy += w * b.y[i] * b.y[i]

			lo, hi := b.x[i][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			if k+1 < minLeaf || len(sorted)-k-1 < minLeaf {
				continue
			}
			right := nodeSums{w: total.w - left.w, wy: total.wy - left.wy, wyy: total.wyy - left.wyy}
			if left.w <= 0 || right.w <= 0 {
				continue
			}
			gain := parent - left.sse() - right.sse()
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestGain, bestFeature >= 0
}

// normalizeImportance rescales v to sum to one; an all-zero vector is returned unchanged.
func normalizeImportance(v []float64) []float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	out := make([]float64, len(v))
	if total <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}
