package split

import (
	"fmt"
	"math/rand"
	"sort"

	"eosphase/domain/core"
	"eosphase/domain/eos"
)

// Fold is one cross-validation round: row indices to fit on and to score on.
type Fold struct {
	Train []int `json:"train"`
	Test  []int `json:"test"`
}

// StratifiedKFold partitions rs into k folds that keep the phase proportions.
// Rows of each phase are shuffled with seed and dealt round-robin, continuing
// the deal across phases so fold sizes differ by at most one. Every row lands
// in exactly one test fold.
func StratifiedKFold(rs *eos.RecordSet, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, core.NewConfigError("cv", fmt.Sprintf("need at least 2 folds, got %d", k))
	}
	phase, err := rs.Column(eos.ColPhase)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[int][]int)
	for i, p := range phase {
		byLabel[int(p)] = append(byLabel[int(p)], i)
	}
	labels := make([]int, 0, len(byLabel))
	for label, members := range byLabel {
		if len(members) < k {
			return nil, core.NewInsufficientDataError(fmt.Sprintf(
				"phase %d has %d record(s), need at least %d for %d-fold cross-validation",
				label, len(members), k, k))
		}
		labels = append(labels, label)
	}
	sort.Ints(labels)

	rng := rand.New(rand.NewSource(seed))
	tests := make([][]int, k)
	next := 0
	for _, label := range labels {
		members := append([]int(nil), byLabel[label]...)
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		for _, idx := range members {
			tests[next] = append(tests[next], idx)
			next = (next + 1) % k
		}
	}

	folds := make([]Fold, k)
	inTest := make([]int, len(phase))
	for f, test := range tests {
		sort.Ints(test)
		for _, idx := range test {
			inTest[idx] = f
		}
		folds[f].Test = test
	}
	for i, f := range inTest {
		for g := range folds {
			if g != f {
				folds[g].Train = append(folds[g].Train, i)
			}
		}
	}
	return folds, nil
}
