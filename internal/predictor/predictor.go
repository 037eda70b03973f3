// Package predictor runs the inference pipeline: preferences are encoded onto
// the training-time one-hot columns, scored by the classifier, and the most
// probable brands are returned.
package predictor

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/BerylCAtieno/watch-recommender/internal/artifacts"
	"github.com/BerylCAtieno/watch-recommender/internal/features"
	"github.com/BerylCAtieno/watch-recommender/internal/logging"
	"github.com/BerylCAtieno/watch-recommender/internal/metrics"
	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

// DefaultTopK is the number of brands kept from the ranking.
const DefaultTopK = 5

var ErrNoModel = errors.New("no model loaded")

// Classifier is the part of a trained model the pipeline needs.
type Classifier interface {
	PredictProba(x []float64) ([]float64, error)
}

// BrandScore is one ranked brand.
type BrandScore struct {
	Brand       string  `json:"brand"`
	Probability float64 `json:"probability"`
}

type Pipeline struct {
	classifier Classifier
	labels     *features.LabelEncoder
	encoder    *features.OneHot
	topK       int
	log        zerolog.Logger
}

// New builds a pipeline from its parts. topK <= 0 selects DefaultTopK.
func New(classifier Classifier, labels *features.LabelEncoder, columns []string, topK int) (*Pipeline, error) {
	if classifier == nil || labels == nil {
		return nil, ErrNoModel
	}
	if labels.Len() == 0 {
		return nil, fmt.Errorf("label encoder has no classes")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{
		classifier: classifier,
		labels:     labels,
		encoder:    features.NewOneHot(columns),
		topK:       topK,
		log:        logging.With("predictor"),
	}, nil
}

// FromBundle builds a pipeline over a loaded artifact bundle.
func FromBundle(b *artifacts.Bundle, topK int) (*Pipeline, error) {
	if b == nil {
		return nil, ErrNoModel
	}
	return New(b.Classifier, b.Labels, b.Columns, topK)
}

// Columns returns the training-time feature columns.
func (p *Pipeline) Columns() []string {
	return p.encoder.Columns()
}

// Encode maps preferences onto the training columns. Values are normalized
// first; values with no training column are dropped silently.
func (p *Pipeline) Encode(prefs models.Preferences) []float64 {
	return p.encoder.Transform(models.FeatureFields, prefs.Normalize().Values())
}

// Rank returns every brand sorted by descending probability. Equal
// probabilities keep label order.
func (p *Pipeline) Rank(prefs models.Preferences) ([]BrandScore, error) {
	start := time.Now()
	defer func() {
		metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	}()

	normalized := prefs.Normalize()
	vec := p.encoder.Transform(models.FeatureFields, normalized.Values())

	if unmatched := p.encoder.Unmatched(models.FeatureFields, normalized.Values()); len(unmatched) > 0 {
		metrics.UnseenCategories.Add(float64(len(unmatched)))
		p.log.Debug().Strs("columns", unmatched).Msg("preference values without a training column")
	}

	probs, err := p.classifier.PredictProba(vec)
	if err != nil {
		metrics.Predictions.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("classifier failed: %w", err)
	}
	if len(probs) != p.labels.Len() {
		metrics.Predictions.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("classifier returned %d probabilities for %d brands", len(probs), p.labels.Len())
	}

	ranked := make([]BrandScore, len(probs))
	for i, prob := range probs {
		brand, err := p.labels.Inverse(i)
		if err != nil {
			return nil, err
		}
		ranked[i] = BrandScore{Brand: brand, Probability: prob}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})

	if e := p.log.Debug(); e.Enabled() {
		table := zerolog.Dict()
		for _, r := range ranked {
			table.Float64(r.Brand, r.Probability)
		}
		e.Interface("input", normalized.Map()).
			Floats64("encoded", vec).
			Dict("probabilities", table).
			Msg("brand probabilities")
	}

	metrics.Predictions.WithLabelValues("ok").Inc()
	return ranked, nil
}

// TopBrands returns at most topK brands, most probable first.
func (p *Pipeline) TopBrands(prefs models.Preferences) ([]BrandScore, error) {
	ranked, err := p.Rank(prefs)
	if err != nil {
		return nil, err
	}
	if len(ranked) > p.topK {
		ranked = ranked[:p.topK]
	}
	return ranked, nil
}

// BrandNames extracts the brand names from a ranking.
func BrandNames(scores []BrandScore) []string {
	names := make([]string, len(scores))
	for i, s := range scores {
		names[i] = s.Brand
	}
	return names
}
