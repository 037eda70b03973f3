package forest

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Node is a flattened tree node. Leaves have Feature == -1 and carry the class
// distribution of the training samples that reached them.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) IsLeaf() bool {
	return n.Feature < 0
}

// Tree is a CART classification tree stored as a node slice rooted at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

func (t *Tree) validate(numFeatures, numClasses int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			if len(n.Value) != numClasses {
				return fmt.Errorf("leaf %d has %d class weights, want %d", i, len(n.Value), numClasses)
			}
			continue
		}
		if n.Feature >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, numFeatures)
		}
		// children are always appended after their parent
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// builder grows one tree from a bootstrap sample.
type builder struct {
	x          [][]float64
	y          []int
	numClasses int
	params     Params
	mtry       int
	rng        *rand.Rand
	nodes      []Node
}

func (b *builder) build(samples []int) Tree {
	b.nodes = make([]Node, 0, 64)
	b.grow(samples, 0)
	return Tree{Nodes: b.nodes}
}

func (b *builder) grow(samples []int, depth int) int {
	counts := b.classCounts(samples)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1})

	if isPure(counts) ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) ||
		len(samples) < 2*b.params.MinSamplesLeaf {
		b.nodes[idx].Value = distribution(counts, len(samples))
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples)
	if !ok {
		b.nodes[idx].Value = distribution(counts, len(samples))
		return idx
	}

	left := make([]int, 0, len(samples))
	right := make([]int, 0, len(samples))
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

// bestSplit scans features in random order until mtry non-constant features
// have been evaluated, keeping the split with the lowest weighted Gini
// impurity that leaves at least MinSamplesLeaf samples on each side.
func (b *builder) bestSplit(samples []int) (int, float64, bool) {
	numFeatures := len(b.x[0])
	order := b.rng.Perm(numFeatures)
	minLeaf := b.params.MinSamplesLeaf
	n := len(samples)

	bestFeature, bestThreshold := -1, 0.0
	bestScore := 0.0
	evaluated := 0

	sorted := make([]int, n)
	leftCounts := make([]int, b.numClasses)
	rightCounts := make([]int, b.numClasses)

	for _, f := range order {
		if evaluated >= b.mtry {
			break
		}

		copy(sorted, samples)
		sort.Slice(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})
		if b.x[sorted[0]][f] == b.x[sorted[n-1]][f] {
			continue
		}
		evaluated++

		clear(leftCounts)
		clear(rightCounts)
		for _, s := range sorted {
			rightCounts[b.y[s]]++
		}

		for i := 0; i < n-1; i++ {
			c := b.y[sorted[i]]
			leftCounts[c]++
			rightCounts[c]--

			lo, hi := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := i+1, n-i-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			score := weightedGini(leftCounts, nl) + weightedGini(rightCounts, nr)
			if bestFeature < 0 || score < bestScore {
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				bestScore = score
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *builder) classCounts(samples []int) []int {
	counts := make([]int, b.numClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

// weightedGini returns n * gini(counts), i.e. n - sum(c^2)/n.
func weightedGini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	var sq float64
	for _, c := range counts {
		sq += float64(c * c)
	}
	return float64(n) - sq/float64(n)
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func distribution(counts []int, n int) []float64 {
	dist := make([]float64, len(counts))
	if n == 0 {
		return dist
	}
	for i, c := range counts {
		dist[i] = float64(c) / float64(n)
	}
	return dist
}
