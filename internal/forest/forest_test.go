package forest

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable builds a dataset where feature 0 decides class 0/1 and feature 1
// is noise; feature 2 is constant.
func separable(n int) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		label := i % 2
		x[i] = []float64{float64(label), float64(rng.IntN(2)), 1}
		y[i] = label
	}
	return x, y
}

func TestFitSeparableData(t *testing.T) {
	x, y := separable(60)

	clf, err := Fit(context.Background(), x, y, 2, Params{NEstimators: 25, MaxFeatures: MaxFeaturesAll, Seed: 7})
	require.NoError(t, err)
	require.NoError(t, clf.Validate())

	acc, err := clf.Score(x, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)

	probs, err := clf.PredictProba([]float64{1, 0, 1})
	require.NoError(t, err)
	assert.Greater(t, probs[1], probs[0])
}

func TestPredictProbaSumsToOne(t *testing.T) {
	x, y := separable(40)
	clf, err := Fit(context.Background(), x, y, 3, Params{NEstimators: 10, Seed: 3})
	require.NoError(t, err)

	for _, row := range x {
		probs, err := clf.PredictProba(row)
		require.NoError(t, err)
		require.Len(t, probs, 3)

		sum := 0.0
		for _, p := range probs {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestFitIsDeterministicForSeed(t *testing.T) {
	x, y := separable(50)
	params := Params{NEstimators: 12, MaxDepth: 3, MinSamplesLeaf: 2, MaxFeatures: MaxFeaturesSqrt, Seed: 42}

	a, err := Fit(context.Background(), x, y, 2, params)
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, 2, params)
	require.NoError(t, err)

	assert.Equal(t, a.Trees, b.Trees)
}

func TestFitRespectsMaxDepth(t *testing.T) {
	x, y := separable(80)

	clf, err := Fit(context.Background(), x, y, 2, Params{NEstimators: 5, MaxDepth: 1, MaxFeatures: MaxFeaturesAll, Seed: 1})
	require.NoError(t, err)

	for i := range clf.Trees {
		assert.LessOrEqual(t, clf.Trees[i].Depth(), 1)
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := Fit(ctx, nil, nil, 2, DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = Fit(ctx, [][]float64{{1}, {0}}, []int{1}, 2, DefaultParams())
	assert.ErrorIs(t, err, ErrDimension)

	_, err = Fit(ctx, [][]float64{{1}, {0, 1}}, []int{1, 0}, 2, DefaultParams())
	assert.ErrorIs(t, err, ErrDimension)

	_, err = Fit(ctx, [][]float64{{1}, {0}}, []int{1, 2}, 2, DefaultParams())
	assert.ErrorIs(t, err, ErrDimension)
}

func TestFitHonoursCancellation(t *testing.T) {
	x, y := separable(20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fit(ctx, x, y, 2, Params{NEstimators: 50})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictProbaDimensionMismatch(t *testing.T) {
	x, y := separable(10)
	clf, err := Fit(context.Background(), x, y, 2, Params{NEstimators: 2})
	require.NoError(t, err)

	_, err = clf.PredictProba([]float64{1})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestSerializedClassifierPredictsIdentically(t *testing.T) {
	x, y := separable(30)
	clf, err := Fit(context.Background(), x, y, 2, Params{NEstimators: 8, Seed: 9})
	require.NoError(t, err)

	raw, err := json.Marshal(clf)
	require.NoError(t, err)
	var restored Classifier
	require.NoError(t, json.Unmarshal(raw, &restored))
	require.NoError(t, restored.Validate())

	for _, row := range x {
		want, _ := clf.PredictProba(row)
		got, err := restored.PredictProba(row)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, got, 1e-12)
	}
}

func TestValidateCatchesCorruptTrees(t *testing.T) {
	clf := &Classifier{
		NumFeatures: 2,
		NumClasses:  2,
		Trees: []Tree{{Nodes: []Node{
			{Feature: 0, Threshold: 0.5, Left: 1, Right: 5},
			{Feature: -1, Value: []float64{1, 0}},
		}}},
	}
	assert.Error(t, clf.Validate())
}

func TestFeaturesPerSplit(t *testing.T) {
	tests := []struct {
		mf   MaxFeatures
		n    int
		want int
	}{
		{MaxFeaturesSqrt, 16, 4},
		{MaxFeaturesAuto, 16, 4},
		{MaxFeaturesAll, 16, 16},
		{MaxFeaturesLog2, 16, 4},
		{MaxFeaturesSqrt, 1, 1},
		{MaxFeaturesLog2, 1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Params{MaxFeatures: tt.mf}.featuresPerSplit(tt.n), "%s of %d", tt.mf, tt.n)
	}
}

func TestParamsString(t *testing.T) {
	assert.Equal(t, "n_estimators=100 max_depth=none min_samples_leaf=1 max_features=sqrt", DefaultParams().String())
	assert.Equal(t, "n_estimators=200 max_depth=10 min_samples_leaf=5 max_features=auto",
		Params{NEstimators: 200, MaxDepth: 10, MinSamplesLeaf: 5, MaxFeatures: MaxFeaturesAuto}.String())
}
