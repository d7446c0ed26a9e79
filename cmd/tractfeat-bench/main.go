package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/23skdu/tractfeat/internal/extraction"
	"github.com/23skdu/tractfeat/internal/feature"
	"github.com/23skdu/tractfeat/internal/logging"
	"github.com/23skdu/tractfeat/internal/metric"
	"github.com/23skdu/tractfeat/internal/simd"
	"github.com/23skdu/tractfeat/internal/storage"
	"github.com/23skdu/tractfeat/internal/streamline"
	"github.com/23skdu/tractfeat/internal/telemetry"
)

var version = "dev"

func main() {
	envFile := flag.String("env", ".env", "Optional .env file loaded before reading TRACTFEAT_ variables")
	flag.Parse()

	cfg, err := LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := ValidateConfig(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Output: os.Stdout})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			logger.Info().Str("address", cfg.MetricsAddr).Msg("Starting metrics server")
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("Failed to start metrics server")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	telemetryCfg := telemetry.Config{ServiceName: "tractfeat-bench", ServiceVersion: version, SampleRatio: 1.0}
	if cfg.TraceStdout {
		telemetryCfg.Output = os.Stderr
		telemetryCfg.PrettyPrint = true
	}
	shutdown, err := telemetry.InitTracerProvider(ctx, telemetryCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize tracing")
		os.Exit(1)
	}

	err = run(ctx, cfg, logger)
	if serr := shutdown(context.Background()); serr != nil {
		logger.Warn().Err(serr).Msg("Failed to flush traces")
	}
	if err != nil {
		logger.Error().Err(err).Msg("Benchmark failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger zerolog.Logger) error {
	f, err := feature.New(cfg.Feature, cfg.NbPoints)
	if err != nil {
		return err
	}

	logger.Info().
		Int("streamlines", cfg.Streamlines).
		Int("min_points", cfg.MinPoints).
		Int("max_points", cfg.MaxPoints).
		Int("dim", cfg.Dim).
		Str("feature", feature.Name(f)).
		Str("simd", simd.GetImplementation()).
		Msg("Starting benchmark")

	ss := randomWalks(cfg)
	ex := extraction.NewExtractor(cfg.Config, logger)

	var latency sumLatency
	var table extraction.Table
	for round := 0; round < cfg.Rounds; round++ {
		t0 := time.Now()
		table, err = ex.Extract(ctx, f, ss)
		if err != nil {
			return err
		}
		latency.Record(time.Since(t0))
	}

	summary := logger.Info().
		Str("layout", table.Layout()).
		Int("workers", ex.Workers()).
		Int("rounds", cfg.Rounds).
		Dur("avg_latency", latency.Avg()).
		Dur("max_latency", latency.Max()).
		Float64("streamlines_per_sec", float64(cfg.Streamlines)/latency.Avg().Seconds())
	if u, ok := table.(*extraction.Uniform); ok {
		dims := u.Dims()
		summary = summary.Ints("dims", dims[:])
	}
	summary.Msg("Extraction finished")

	if cfg.MatrixSample > 0 {
		if err := runMatrix(ctx, cfg, ss, logger); err != nil {
			return err
		}
	}

	if cfg.OutputPath != "" {
		t0 := time.Now()
		if err := storage.SaveTable(cfg.OutputPath, table); err != nil {
			return err
		}
		logger.Info().Str("path", cfg.OutputPath).Dur("elapsed", time.Since(t0)).Msg("Feature table written")
	}
	return nil
}

// runMatrix compares a sample of streamlines pairwise after resampling them
// to a common point count.
func runMatrix(ctx context.Context, cfg Config, ss []streamline.Streamline, logger zerolog.Logger) error {
	n := cfg.MatrixSample
	if n > len(ss) {
		n = len(ss)
	}
	resample, err := feature.NewResampleFeature(cfg.NbPoints)
	if err != nil {
		return err
	}
	m := metric.NewAveragePointwiseEuclideanMetric(resample)

	t0 := time.Now()
	matrix, err := metric.DistanceMatrix(ctx, m, ss[:n], nil)
	if err != nil {
		return err
	}
	elapsed := time.Since(t0)

	var sum float64
	pairs := 0
	for i := range matrix {
		for j := i + 1; j < len(matrix); j++ {
			sum += matrix[i][j]
			pairs++
		}
	}
	mean := 0.0
	if pairs > 0 {
		mean = sum / float64(pairs)
	}

	logger.Info().
		Str("metric", metric.Name(m)).
		Int("sample", n).
		Int("pairs", pairs).
		Float64("mean_distance", mean).
		Dur("elapsed", elapsed).
		Msg("Distance matrix finished")
	return nil
}

// sumLatency tracks per-round latency
type sumLatency struct {
	totalNs atomic.Int64
	count   atomic.Int64
	maxNs   atomic.Int64
}

func (l *sumLatency) Record(d time.Duration) {
	ns := d.Nanoseconds()
	l.totalNs.Add(ns)
	l.count.Add(1)

	for {
		current := l.maxNs.Load()
		if ns <= current {
			break
		}
		if l.maxNs.CompareAndSwap(current, ns) {
			break
		}
	}
}

func (l *sumLatency) Avg() time.Duration {
	if count := l.count.Load(); count > 0 {
		return time.Duration(l.totalNs.Load() / count)
	}
	return 0
}

func (l *sumLatency) Max() time.Duration { return time.Duration(l.maxNs.Load()) }
