package forest

import (
	"fmt"
	"math"
)

// MaxFeatures selects how many features each split may consider.
type MaxFeatures string

const (
	MaxFeaturesAll  MaxFeatures = "all"
	MaxFeaturesSqrt MaxFeatures = "sqrt"
	MaxFeaturesLog2 MaxFeatures = "log2"
	// MaxFeaturesAuto is the classifier default and resolves to sqrt.
	MaxFeaturesAuto MaxFeatures = "auto"
)

type Params struct {
	NEstimators int `json:"n_estimators"`
	// MaxDepth of zero grows trees until leaves are pure or too small.
	MaxDepth       int         `json:"max_depth"`
	MinSamplesLeaf int         `json:"min_samples_leaf"`
	MaxFeatures    MaxFeatures `json:"max_features"`
	Seed           int64       `json:"seed"`
}

func DefaultParams() Params {
	return Params{
		NEstimators:    100,
		MaxDepth:       0,
		MinSamplesLeaf: 1,
		MaxFeatures:    MaxFeaturesSqrt,
		Seed:           42,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.NEstimators <= 0 {
		p.NEstimators = d.NEstimators
	}
	if p.MaxDepth < 0 {
		p.MaxDepth = 0
	}
	if p.MinSamplesLeaf <= 0 {
		p.MinSamplesLeaf = d.MinSamplesLeaf
	}
	if p.MaxFeatures == "" {
		p.MaxFeatures = d.MaxFeatures
	}
	return p
}

// featuresPerSplit resolves MaxFeatures against the feature count.
func (p Params) featuresPerSplit(numFeatures int) int {
	var k int
	switch p.MaxFeatures {
	case MaxFeaturesAll:
		k = numFeatures
	case MaxFeaturesLog2:
		k = int(math.Log2(float64(numFeatures)))
	default:
		k = int(math.Sqrt(float64(numFeatures)))
	}
	if k < 1 {
		k = 1
	}
	if k > numFeatures {
		k = numFeatures
	}
	return k
}

func (p Params) String() string {
	depth := "none"
	if p.MaxDepth > 0 {
		depth = fmt.Sprint(p.MaxDepth)
	}
	return fmt.Sprintf("n_estimators=%d max_depth=%s min_samples_leaf=%d max_features=%s",
		p.NEstimators, depth, p.MinSamplesLeaf, p.MaxFeatures)
}
