package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/23skdu/tractfeat/internal/extraction"
	"github.com/23skdu/tractfeat/internal/feature"
)

const envPrefix = "TRACTFEAT"

// Config holds the benchmark configuration. Every field can be set through
// a TRACTFEAT_-prefixed environment variable.
type Config struct {
	extraction.Config

	Streamlines int   `envconfig:"STREAMLINES" default:"10000"`
	MinPoints   int   `envconfig:"MIN_POINTS" default:"20"`
	MaxPoints   int   `envconfig:"MAX_POINTS" default:"120"`
	Dim         int   `envconfig:"DIM" default:"3"`
	Seed        int64 `envconfig:"SEED" default:"42"`

	Feature  string `envconfig:"FEATURE" default:"center_of_mass"`
	NbPoints int    `envconfig:"NB_POINTS" default:"12"`
	Rounds   int    `envconfig:"ROUNDS" default:"3"`

	// MatrixSample is how many streamlines enter the distance matrix. 0 skips it.
	MatrixSample int `envconfig:"MATRIX_SAMPLE" default:"256"`

	OutputPath  string `envconfig:"OUTPUT_PATH" default:""`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
	TraceStdout bool   `envconfig:"TRACE_STDOUT" default:"false"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

// Config validation errors
var (
	ErrInvalidStreamlines  = errors.New("streamlines must be positive")
	ErrInvalidPointRange   = errors.New("min_points must be positive and not above max_points")
	ErrInvalidDim          = errors.New("dim must be positive")
	ErrInvalidFeature      = errors.New("feature is not a known built-in feature")
	ErrInvalidNbPoints     = errors.New("nb_points must be positive")
	ErrInvalidRounds       = errors.New("rounds must be positive")
	ErrInvalidMatrixSample = errors.New("matrix_sample cannot be negative")
	ErrInvalidWorkers      = errors.New("extract_workers cannot be negative")
	ErrInvalidLogFormat    = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel     = errors.New("log_level must be debug, info, warn, or error")
)

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Config:       extraction.DefaultConfig(),
		Streamlines:  10000,
		MinPoints:    20,
		MaxPoints:    120,
		Dim:          3,
		Seed:         42,
		Feature:      "center_of_mass",
		NbPoints:     12,
		Rounds:       3,
		MatrixSample: 256,
		LogFormat:    "console",
		LogLevel:     "info",
	}
}

// LoadConfig loads envFile into the environment when it exists, then
// reads the TRACTFEAT_ variables. Variables already set win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.Streamlines <= 0 {
		return ErrInvalidStreamlines
	}
	if cfg.MinPoints <= 0 || cfg.MinPoints > cfg.MaxPoints {
		return ErrInvalidPointRange
	}
	if cfg.Dim <= 0 {
		return ErrInvalidDim
	}
	if cfg.NbPoints <= 0 {
		return ErrInvalidNbPoints
	}
	if _, err := feature.New(cfg.Feature, cfg.NbPoints); err != nil {
		return ErrInvalidFeature
	}
	if cfg.Rounds <= 0 {
		return ErrInvalidRounds
	}
	if cfg.MatrixSample < 0 {
		return ErrInvalidMatrixSample
	}
	if cfg.Workers < 0 {
		return ErrInvalidWorkers
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	return nil
}
