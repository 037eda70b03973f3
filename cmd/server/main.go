package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/watch-recommender/internal/a2a"
	"github.com/BerylCAtieno/watch-recommender/internal/artifacts"
	"github.com/BerylCAtieno/watch-recommender/internal/catalog"
	"github.com/BerylCAtieno/watch-recommender/internal/config"
	"github.com/BerylCAtieno/watch-recommender/internal/feedback"
	"github.com/BerylCAtieno/watch-recommender/internal/logging"
	"github.com/BerylCAtieno/watch-recommender/internal/metrics"
	"github.com/BerylCAtieno/watch-recommender/internal/predictor"
	"github.com/BerylCAtieno/watch-recommender/internal/recommend"
	"github.com/BerylCAtieno/watch-recommender/internal/stylist"
	"github.com/BerylCAtieno/watch-recommender/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := loadPipeline(cfg)

	cat, err := catalog.Load(cfg.Data.CatalogPath, cfg.Data.CatalogSheet, cfg.Data.BrandColumn)
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.Data.CatalogPath).Msg("catalog unavailable, no watches will be recommended")
		cat = catalog.Empty()
	}
	metrics.CatalogSize.Set(float64(cat.Len()))
	logging.Info().Int("watches", cat.Len()).Msg("catalog loaded")

	recorder, err := feedback.New(cfg.Feedback.Backend, cfg.Feedback.CSVPath, cfg.Feedback.SQLitePath)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Feedback.Backend).Msg("failed to open feedback store")
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close feedback store")
		}
	}()

	var noter stylist.Noter
	if cfg.Gemini.APIKey != "" {
		geminiClient, err := stylist.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to create Gemini client")
		}
		defer geminiClient.Close()
		noter = geminiClient
		logging.Info().Str("model", cfg.Gemini.Model).Msg("stylist notes enabled")
	}

	svc := recommend.NewService(pipeline, cat, cfg.Recommend.SampleSize, noter)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), web.RequestLogger())

	web.NewHandler(svc, recorder).Register(router)
	a2a.NewHandler(svc, cfg.BaseURL()).Register(router)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logging.Info().
		Str("addr", cfg.Addr()).
		Str("agent_card", cfg.BaseURL()+"/.well-known/agent.json").
		Str("a2a_endpoint", cfg.BaseURL()+"/a2a/recommender").
		Bool("model_ready", svc.Ready()).
		Msg("watch recommender started")

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
	case err := <-errCh:
		logging.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// loadPipeline returns nil when the artifacts are missing or unusable, which
// leaves the server in form-only mode.
func loadPipeline(cfg *config.Config) *predictor.Pipeline {
	bundle, err := artifacts.Load(cfg.Data.ModelDir)
	if err != nil {
		if errors.Is(err, artifacts.ErrMissing) {
			logging.Warn().Str("dir", cfg.Data.ModelDir).Msg("model artifacts not found, run the trainer first")
		} else {
			logging.Error().Err(err).Str("dir", cfg.Data.ModelDir).Msg("failed to load model artifacts")
		}
		metrics.ModelLoaded.Set(0)
		return nil
	}

	pipeline, err := predictor.FromBundle(bundle, cfg.Recommend.TopBrands)
	if err != nil {
		logging.Error().Err(err).Msg("failed to build inference pipeline")
		metrics.ModelLoaded.Set(0)
		return nil
	}

	metrics.ModelLoaded.Set(1)
	logging.Info().
		Int("brands", bundle.Labels.Len()).
		Int("columns", len(bundle.Columns)).
		Int("trees", len(bundle.Classifier.Trees)).
		Msg("model loaded")
	return pipeline
}
