// Package recommend combines brand prediction, catalog sampling and the
// optional stylist note into one call used by every HTTP surface.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/BerylCAtieno/watch-recommender/internal/catalog"
	"github.com/BerylCAtieno/watch-recommender/internal/logging"
	"github.com/BerylCAtieno/watch-recommender/internal/metrics"
	"github.com/BerylCAtieno/watch-recommender/internal/models"
	"github.com/BerylCAtieno/watch-recommender/internal/predictor"
	"github.com/BerylCAtieno/watch-recommender/internal/stylist"
)

// ErrUnavailable is returned when no model artifacts were loaded.
var ErrUnavailable = errors.New("recommendations unavailable: model not loaded")

const noteTimeout = 8 * time.Second

type Result struct {
	Preferences models.Preferences     `json:"preferences"`
	Brands      []predictor.BrandScore `json:"brands"`
	Watches     []models.Watch         `json:"watches"`
	Note        string                 `json:"note,omitempty"`
}

type Service struct {
	pipeline *predictor.Pipeline
	sampler  *catalog.Sampler
	columns  []string
	noter    stylist.Noter
	log      zerolog.Logger
}

// NewService wires the parts together. pipeline and noter may be nil: a nil
// pipeline makes Recommend return ErrUnavailable, a nil noter leaves notes
// empty.
func NewService(pipeline *predictor.Pipeline, cat *catalog.Catalog, sampleSize int, noter stylist.Noter) *Service {
	if cat == nil {
		cat = catalog.Empty()
	}
	return &Service{
		pipeline: pipeline,
		sampler:  catalog.NewSampler(cat, sampleSize),
		columns:  cat.Columns,
		noter:    noter,
		log:      logging.With("recommend"),
	}
}

// Ready reports whether predictions can be served.
func (s *Service) Ready() bool {
	return s.pipeline != nil
}

// CatalogColumns returns the descriptive catalog headers for display.
func (s *Service) CatalogColumns() []string {
	return s.columns
}

// FeatureColumns returns the training-time one-hot columns, or nil without a
// model.
func (s *Service) FeatureColumns() []string {
	if s.pipeline == nil {
		return nil
	}
	return s.pipeline.Columns()
}

func (s *Service) Recommend(ctx context.Context, prefs models.Preferences) (*Result, error) {
	if s.pipeline == nil {
		return nil, ErrUnavailable
	}

	prefs = prefs.Normalize()
	brands, err := s.pipeline.TopBrands(prefs)
	if err != nil {
		return nil, fmt.Errorf("failed to rank brands: %w", err)
	}
	names := predictor.BrandNames(brands)

	watches := s.sampler.Sample(names)
	metrics.RecommendationsServed.Observe(float64(len(watches)))

	s.log.Info().
		Strs("brands", names).
		Int("matches", len(watches)).
		Msg("recommendations computed")

	res := &Result{
		Preferences: prefs,
		Brands:      brands,
		Watches:     watches,
	}

	if s.noter != nil {
		noteCtx, cancel := context.WithTimeout(ctx, noteTimeout)
		defer cancel()
		note, err := s.noter.Note(noteCtx, prefs, names)
		if err != nil {
			s.log.Warn().Err(err).Msg("stylist note unavailable")
		} else {
			res.Note = note
		}
	}
	return res, nil
}

// WatchLabels renders one display label per watch: the brand followed by the
// first descriptive column.
func (s *Service) WatchLabels(watches []models.Watch) []string {
	labels := make([]string, len(watches))
	for i, w := range watches {
		labels[i] = w.Label(s.columns)
	}
	return labels
}
