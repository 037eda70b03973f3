package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/watch-recommender/internal/config"
	"github.com/BerylCAtieno/watch-recommender/internal/logging"
	"github.com/BerylCAtieno/watch-recommender/internal/training"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	purchases := flag.String("purchases", cfg.Data.PurchasesPath, "Purchase history workbook")
	sheet := flag.String("sheet", cfg.Data.PurchasesSheet, "Worksheet holding the purchase records")
	modelDir := flag.String("model-dir", cfg.Data.ModelDir, "Directory the model artifacts are written to")
	flag.Parse()

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	report, err := training.Run(ctx, training.Options{
		PurchasesPath:  *purchases,
		PurchasesSheet: *sheet,
		ModelDir:       *modelDir,
		TestSize:       cfg.Training.TestSize,
		Folds:          cfg.Training.Folds,
		Seed:           cfg.Training.Seed,
		Grid:           training.DefaultGrid(),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("training failed")
	}

	logging.Info().
		Int("rows", report.Rows).
		Int("skipped_rows", report.SkippedRows).
		Int("train_rows", report.TrainRows).
		Int("test_rows", report.TestRows).
		Int("columns", report.Columns).
		Strs("brands", report.Brands).
		Str("best_params", report.Best.String()).
		Float64("cv_accuracy", report.CVScore).
		Float64("test_accuracy", report.TestAccuracy).
		Dur("elapsed", time.Since(start)).
		Msg("training complete")
}
