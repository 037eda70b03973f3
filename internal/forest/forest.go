// Package forest implements a random-forest classifier: bagged CART trees
// split on Gini impurity with per-split feature subsampling.
//
// Probabilities are the mean of the per-tree leaf class distributions. Each
// tree draws from its own RNG seeded from Params.Seed and the tree index, so
// a fixed seed reproduces the same forest whatever the goroutine schedule.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyDataset = errors.New("forest: empty dataset")
	ErrDimension    = errors.New("forest: dimension mismatch")
)

// Classifier is a trained forest. It is safe for concurrent prediction.
type Classifier struct {
	Params      Params `json:"params"`
	NumFeatures int    `json:"num_features"`
	NumClasses  int    `json:"num_classes"`
	Trees       []Tree `json:"trees"`
}

// Fit trains a forest on x (rows of equal width) with class ids y in
// [0, numClasses).
func Fit(ctx context.Context, x [][]float64, y []int, numClasses int, params Params) (*Classifier, error) {
	if len(x) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d labels", ErrDimension, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: rows have no features", ErrDimension)
	}
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrDimension, i, len(row), width)
		}
	}
	if numClasses <= 0 {
		return nil, fmt.Errorf("%w: numClasses must be positive", ErrDimension)
	}
	for i, label := range y {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("%w: label %d at row %d outside [0,%d)", ErrDimension, label, i, numClasses)
		}
	}

	params = params.withDefaults()
	mtry := params.featuresPerSplit(width)
	trees := make([]Tree, params.NEstimators)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(uint64(params.Seed), uint64(i)))
			b := &builder{
				x:          x,
				y:          y,
				numClasses: numClasses,
				params:     params,
				mtry:       mtry,
				rng:        rng,
			}
			trees[i] = b.build(bootstrap(rng, len(x)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forest: training cancelled: %w", err)
	}

	return &Classifier{
		Params:      params,
		NumFeatures: width,
		NumClasses:  numClasses,
		Trees:       trees,
	}, nil
}

func bootstrap(rng *rand.Rand, n int) []int {
	samples := make([]int, n)
	for i := range samples {
		samples[i] = rng.IntN(n)
	}
	return samples
}

// PredictProba returns one probability per class, summing to one.
func (c *Classifier) PredictProba(x []float64) ([]float64, error) {
	if len(x) != c.NumFeatures {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrDimension, len(x), c.NumFeatures)
	}
	if len(c.Trees) == 0 {
		return nil, ErrEmptyDataset
	}

	probs := make([]float64, c.NumClasses)
	for i := range c.Trees {
		for k, p := range c.Trees[i].predict(x) {
			probs[k] += p
		}
	}
	n := float64(len(c.Trees))
	for k := range probs {
		probs[k] /= n
	}
	return probs, nil
}

// Predict returns the most probable class id. Ties go to the lower id.
func (c *Classifier) Predict(x []float64) (int, error) {
	probs, err := c.PredictProba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for k, p := range probs {
		if p > probs[best] {
			best = k
		}
	}
	return best, nil
}

// Score returns the accuracy over a labelled set.
func (c *Classifier) Score(x [][]float64, y []int) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d rows but %d labels", ErrDimension, len(x), len(y))
	}
	correct := 0
	for i, row := range x {
		pred, err := c.Predict(row)
		if err != nil {
			return 0, err
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x)), nil
}

// Validate checks the structure of a deserialized classifier.
func (c *Classifier) Validate() error {
	if c.NumFeatures <= 0 || c.NumClasses <= 0 {
		return fmt.Errorf("%w: %d features, %d classes", ErrDimension, c.NumFeatures, c.NumClasses)
	}
	if len(c.Trees) == 0 {
		return fmt.Errorf("forest: no trees")
	}
	for i := range c.Trees {
		if err := c.Trees[i].validate(c.NumFeatures, c.NumClasses); err != nil {
			return fmt.Errorf("forest: tree %d: %w", i, err)
		}
	}
	return nil
}
