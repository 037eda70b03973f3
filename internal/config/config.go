// Package config loads runtime settings for the server and the trainer.
//
// Sources are layered: built-in defaults, then an optional YAML file
// (config.yaml, or the path in CONFIG_PATH), then environment variables.
// A .env file in the working directory is read into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Data      DataConfig      `koanf:"data"`
	Feedback  FeedbackConfig  `koanf:"feedback"`
	Recommend RecommendConfig `koanf:"recommend"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	Training  TrainingConfig  `koanf:"training"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
	// Mode is the gin mode: debug, release or test.
	Mode string `koanf:"mode" validate:"oneof=debug release test"`
	// PublicURL is advertised in the agent card. Empty means
	// http://localhost:<port>.
	PublicURL string `koanf:"public_url" validate:"omitempty,url"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type DataConfig struct {
	CatalogPath    string `koanf:"catalog_path" validate:"required"`
	CatalogSheet   string `koanf:"catalog_sheet"`
	BrandColumn    string `koanf:"brand_column" validate:"required"`
	PurchasesPath  string `koanf:"purchases_path" validate:"required"`
	PurchasesSheet string `koanf:"purchases_sheet"`
	ModelDir       string `koanf:"model_dir" validate:"required"`
}

type FeedbackConfig struct {
	Backend    string `koanf:"backend" validate:"oneof=csv sqlite"`
	CSVPath    string `koanf:"csv_path" validate:"required_if=Backend csv"`
	SQLitePath string `koanf:"sqlite_path" validate:"required_if=Backend sqlite"`
}

type RecommendConfig struct {
	// TopBrands is how many brands the classifier ranking keeps.
	TopBrands int `koanf:"top_brands" validate:"min=1"`
	// SampleSize caps the watches shown per request.
	SampleSize int `koanf:"sample_size" validate:"min=1"`
}

// GeminiConfig enables the optional stylist note. An empty APIKey disables it.
type GeminiConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

type TrainingConfig struct {
	Seed     int64   `koanf:"seed"`
	TestSize float64 `koanf:"test_size" validate:"gt=0,lt=1"`
	Folds    int     `koanf:"folds" validate:"min=2"`
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// BaseURL returns the externally reachable server URL.
func (c *Config) BaseURL() string {
	if c.Server.PublicURL != "" {
		return strings.TrimRight(c.Server.PublicURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}

// Validate checks struct constraints and reports every violation at once.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// DefaultConfigPaths are probed in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			CatalogPath:    "data/watch_data.xlsx",
			CatalogSheet:   "Sheet1",
			BrandColumn:    "Brands",
			PurchasesPath:  "data/purchase_data.xlsx",
			PurchasesSheet: "records (5)",
			ModelDir:       "model",
		},
		Feedback: FeedbackConfig{
			Backend:    "csv",
			CSVPath:    "data/feedback_data.csv",
			SQLitePath: "data/feedback.db",
		},
		Recommend: RecommendConfig{
			TopBrands:  5,
			SampleSize: 5,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash-lite",
		},
		Training: TrainingConfig{
			Seed:     42,
			TestSize: 0.2,
			Folds:    3,
		},
	}
}

// Load reads .env, defaults, the config file and the environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"host":                 "server.host",
	"port":                 "server.port",
	"gin_mode":             "server.mode",
	"public_url":           "server.public_url",
	"log_level":            "logging.level",
	"log_format":           "logging.format",
	"catalog_path":         "data.catalog_path",
	"catalog_sheet":        "data.catalog_sheet",
	"catalog_brand_column": "data.brand_column",
	"purchases_path":       "data.purchases_path",
	"purchases_sheet":      "data.purchases_sheet",
	"model_dir":            "data.model_dir",
	"feedback_backend":     "feedback.backend",
	"feedback_csv_path":    "feedback.csv_path",
	"feedback_sqlite_path": "feedback.sqlite_path",
	"top_brands":           "recommend.top_brands",
	"sample_size":          "recommend.sample_size",
	"gemini_api_key":       "gemini.api_key",
	"gemini_model":         "gemini.model",
	"train_seed":           "training.seed",
	"train_test_size":      "training.test_size",
	"train_folds":          "training.folds",
}

// envTransformFunc maps known variables onto config keys. Returning "" makes
// koanf skip the variable.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
