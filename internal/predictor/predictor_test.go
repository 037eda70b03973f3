package predictor

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/watch-recommender/internal/artifacts"
	"github.com/BerylCAtieno/watch-recommender/internal/features"
	"github.com/BerylCAtieno/watch-recommender/internal/forest"
	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

type fixedClassifier struct {
	probs []float64
	err   error
	seen  [][]float64
}

func (f *fixedClassifier) PredictProba(x []float64) ([]float64, error) {
	f.seen = append(f.seen, x)
	return f.probs, f.err
}

var trainingRows = []models.Preferences{
	{AgeGroup: "31-40", Profession: "engineer", Personality: "analytical", Lifestyle: "professional", Design: "classic", PriceRange: "luxury", Material: "gold", Functionality: "durability"},
	{AgeGroup: "18-25", Profession: "student", Personality: "adventurous", Lifestyle: "active", Design: "sporty", PriceRange: "budget", Material: "rubber", Functionality: "fitness tracking"},
	{AgeGroup: "41-50", Profession: "doctor", Personality: "calm", Lifestyle: "casual", Design: "minimal", PriceRange: "mid-range", Material: "leather", Functionality: "simplicity"},
}

func trainingColumns() []string {
	rows := make([][]string, len(trainingRows))
	for i, r := range trainingRows {
		rows[i] = r.Values()
	}
	return features.FitColumns(models.FeatureFields, rows, true)
}

var brands = features.FitLabels([]string{"Casio", "Fossil", "Omega", "Rolex", "Seiko", "Tissot", "Garmin"})

func TestEncodeSeenCategoriesMatchTrainingColumns(t *testing.T) {
	columns := trainingColumns()
	p, err := New(&fixedClassifier{}, brands, columns, 5)
	require.NoError(t, err)

	for _, prefs := range trainingRows {
		vec := p.Encode(prefs)
		assert.Len(t, vec, len(columns))
		assert.Equal(t, columns, p.Columns())
	}
}

func TestEncodeNormalizesInput(t *testing.T) {
	p, err := New(&fixedClassifier{}, brands, trainingColumns(), 5)
	require.NoError(t, err)

	upper := models.Preferences{AgeGroup: " 41-50 ", Profession: "Doctor", Personality: "CALM", Lifestyle: "Casual", Design: "Minimal", PriceRange: "Mid-Range", Material: "Leather", Functionality: "Simplicity"}

	assert.Equal(t, p.Encode(trainingRows[2]), p.Encode(upper))
}

func TestEncodeUnseenValuesAreZeroFilled(t *testing.T) {
	columns := trainingColumns()
	p, err := New(&fixedClassifier{}, brands, columns, 5)
	require.NoError(t, err)

	unseen := models.Preferences{AgeGroup: "90+", Profession: "astronaut", Personality: "mysterious", Lifestyle: "nomadic", Design: "baroque", PriceRange: "priceless", Material: "meteorite", Functionality: "time travel"}

	vec := p.Encode(unseen)
	require.Len(t, vec, len(columns))
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestTopBrandsUnseenValuesDoNotError(t *testing.T) {
	clf := &fixedClassifier{probs: []float64{0.1, 0.2, 0.05, 0.3, 0.15, 0.1, 0.1}}
	p, err := New(clf, brands, trainingColumns(), 5)
	require.NoError(t, err)

	top, err := p.TopBrands(models.Preferences{AgeGroup: "unknown", Profession: "pirate"})
	require.NoError(t, err)
	assert.Len(t, top, 5)
	require.Len(t, clf.seen, 1)
	assert.Len(t, clf.seen[0], len(trainingColumns()))
}

func TestTopBrandsSortedAndCapped(t *testing.T) {
	// class order: Casio Fossil Garmin Omega Rolex Seiko Tissot
	clf := &fixedClassifier{probs: []float64{0.05, 0.10, 0.30, 0.02, 0.25, 0.20, 0.08}}
	p, err := New(clf, brands, trainingColumns(), 5)
	require.NoError(t, err)

	top, err := p.TopBrands(trainingRows[0])
	require.NoError(t, err)

	assert.Equal(t, []string{"Garmin", "Rolex", "Seiko", "Fossil", "Tissot"}, BrandNames(top))
	assert.True(t, sort.SliceIsSorted(top, func(i, j int) bool { return top[i].Probability > top[j].Probability }))
}

func TestTopBrandsTiesKeepLabelOrder(t *testing.T) {
	clf := &fixedClassifier{probs: []float64{0.2, 0.2, 0.2, 0.1, 0.1, 0.1, 0.1}}
	p, err := New(clf, brands, trainingColumns(), 3)
	require.NoError(t, err)

	top, err := p.TopBrands(trainingRows[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"Casio", "Fossil", "Garmin"}, BrandNames(top))
}

func TestTopBrandsFewerClassesThanK(t *testing.T) {
	labels := features.FitLabels([]string{"Rolex", "Casio"})
	p, err := New(&fixedClassifier{probs: []float64{0.4, 0.6}}, labels, trainingColumns(), 5)
	require.NoError(t, err)

	top, err := p.TopBrands(trainingRows[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"Rolex", "Casio"}, BrandNames(top))
}

func TestRankErrors(t *testing.T) {
	t.Run("classifier failure", func(t *testing.T) {
		p, err := New(&fixedClassifier{err: errors.New("boom")}, brands, trainingColumns(), 5)
		require.NoError(t, err)
		_, err = p.Rank(trainingRows[0])
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("probability count mismatch", func(t *testing.T) {
		p, err := New(&fixedClassifier{probs: []float64{1}}, brands, trainingColumns(), 5)
		require.NoError(t, err)
		_, err = p.Rank(trainingRows[0])
		assert.Error(t, err)
	})
}

func TestNewWithoutModel(t *testing.T) {
	_, err := New(nil, brands, nil, 5)
	assert.ErrorIs(t, err, ErrNoModel)

	_, err = FromBundle(nil, 5)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestPipelineWithTrainedForest(t *testing.T) {
	columns := trainingColumns()
	enc := features.NewOneHot(columns)
	labels := features.FitLabels([]string{"Rolex", "Casio", "Fossil"})

	var x [][]float64
	var y []int
	for i := 0; i < 30; i++ {
		row := trainingRows[i%3]
		x = append(x, enc.Transform(models.FeatureFields, row.Values()))
		y = append(y, []int{2, 0, 1}[i%3]) // Rolex, Casio, Fossil
	}
	clf, err := forest.Fit(context.Background(), x, y, labels.Len(), forest.Params{NEstimators: 20, MaxFeatures: forest.MaxFeaturesAll, Seed: 5})
	require.NoError(t, err)

	p, err := FromBundle(&artifacts.Bundle{Classifier: clf, Labels: labels, Columns: columns}, 5)
	require.NoError(t, err)

	top, err := p.TopBrands(trainingRows[0])
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, "Rolex", top[0].Brand)
	assert.LessOrEqual(t, len(top), 5)
}
