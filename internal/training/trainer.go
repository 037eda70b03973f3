// Package training builds the model artifact bundle from historical
// purchase records.
package training

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/watch-recommender/internal/artifacts"
	"github.com/BerylCAtieno/watch-recommender/internal/forest"
	"github.com/BerylCAtieno/watch-recommender/internal/logging"
)

type Options struct {
	PurchasesPath  string
	PurchasesSheet string
	ModelDir       string
	TestSize       float64
	Folds          int
	Seed           int64
	Grid           Grid
}

// Report summarizes a training run.
type Report struct {
	Rows         int
	SkippedRows  int
	TrainRows    int
	TestRows     int
	Columns      int
	Brands       []string
	Best         forest.Params
	CVScore      float64
	TestAccuracy float64
}

// Run loads purchases, searches the grid on the training split, refits the
// best candidate on the whole training split, scores it on the held-out split
// and saves the bundle into ModelDir.
func Run(ctx context.Context, opts Options) (*Report, error) {
	log := logging.With("trainer")

	purchases, skipped, err := LoadPurchases(opts.PurchasesPath, opts.PurchasesSheet)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("purchase rows with missing values were skipped")
	}

	data, err := Encode(purchases)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("rows", len(data.Y)).
		Int("columns", len(data.Columns)).
		Int("brands", data.Labels.Len()).
		Msg("purchases encoded")

	trainIdx, testIdx, err := TrainTestSplit(len(data.Y), opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := selectRows(data.X, data.Y, trainIdx)
	xTest, yTest := selectRows(data.X, data.Y, testIdx)

	search, err := GridSearch(ctx, xTrain, yTrain, data.Labels.Len(), opts.Grid, opts.Folds, opts.Seed)
	if err != nil {
		return nil, err
	}
	log.Info().Str("best_params", search.Best.String()).Float64("cv_accuracy", search.BestScore).Msg("grid search finished")

	best, err := forest.Fit(ctx, xTrain, yTrain, data.Labels.Len(), search.Best)
	if err != nil {
		return nil, fmt.Errorf("refit with best parameters: %w", err)
	}
	accuracy, err := best.Score(xTest, yTest)
	if err != nil {
		return nil, err
	}
	log.Info().Float64("test_accuracy", accuracy).Msg("held-out accuracy with best parameters")

	bundle := &artifacts.Bundle{
		Classifier: best,
		Labels:     data.Labels,
		Columns:    data.Columns,
	}
	if err := artifacts.Save(opts.ModelDir, bundle); err != nil {
		return nil, err
	}
	log.Info().Str("dir", opts.ModelDir).Msg("model artifacts saved")

	return &Report{
		Rows:         len(data.Y),
		SkippedRows:  skipped,
		TrainRows:    len(trainIdx),
		TestRows:     len(testIdx),
		Columns:      len(data.Columns),
		Brands:       data.Labels.Classes(),
		Best:         search.Best,
		CVScore:      search.BestScore,
		TestAccuracy: accuracy,
	}, nil
}
