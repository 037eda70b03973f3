package training

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// TrainTestSplit shuffles [0,n) with seed and returns disjoint train and test
// index sets. The test set gets ceil(n*testSize) rows.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("training: test size %v outside (0,1)", testSize)
	}
	nTest := int(math.Ceil(float64(n)*testSize - 1e-9))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, fmt.Errorf("training: %d rows cannot be split with test size %v", n, testSize)
	}

	perm := rand.New(rand.NewPCG(uint64(seed), 0)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// StratifiedFolds partitions positions [0,len(y)) into k folds. Rows are
// grouped by class and dealt round-robin with one counter running across all
// classes, so fold sizes differ by at most one and each class is spread
// evenly. Positions within a fold are in ascending order.
func StratifiedFolds(y []int, k int) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("training: need at least 2 folds, got %d", k)
	}
	if len(y) < k {
		return nil, fmt.Errorf("training: %d rows cannot fill %d folds", len(y), k)
	}

	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return y[order[a]] < y[order[b]]
	})

	folds := make([][]int, k)
	for n, i := range order {
		folds[n%k] = append(folds[n%k], i)
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds, nil
}

// complement returns the positions in [0,n) not listed in exclude.
func complement(n int, exclude []int) []int {
	skip := make([]bool, n)
	for _, i := range exclude {
		skip[i] = true
	}
	out := make([]int, 0, n-len(exclude))
	for i := 0; i < n; i++ {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}

func selectRows(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
