package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractionStreamlinesTotal counts streamlines passed through a feature by the batch driver
	ExtractionStreamlinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tractfeat_extraction_streamlines_total",
			Help: "Total number of streamlines extracted by the batch driver",
		},
		[]string{"feature"},
	)

	// ExtractionDurationSeconds measures the latency of one batch extraction
	ExtractionDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tractfeat_extraction_duration_seconds",
			Help:    "Duration of batch feature extraction",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"feature", "layout"},
	)

	// ExtractionTablesTotal counts produced tables by layout (uniform or ragged)
	ExtractionTablesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tractfeat_extraction_tables_total",
			Help: "Total number of feature tables produced, by layout",
		},
		[]string{"layout"},
	)

	// ContractViolationsTotal counts feature/metric contract failures by kind
	ContractViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tractfeat_contract_violations_total",
			Help: "Total number of contract violations (not_implemented, shape_mismatch, dimension_mismatch)",
		},
		[]string{"kind"},
	)

	// DistanceComputationsTotal counts metric evaluations
	DistanceComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tractfeat_distance_computations_total",
			Help: "Total number of distance evaluations, by metric and numeric path",
		},
		[]string{"metric", "path"},
	)

	// SimdImplementationInfo is set to 1 for the kernel family selected at startup
	SimdImplementationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tractfeat_simd_implementation_info",
			Help: "Selected SIMD implementation for distance kernels",
		},
		[]string{"implementation"},
	)

	// StorageWriteDurationSeconds measures time spent writing feature tables
	StorageWriteDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tractfeat_storage_write_duration_seconds",
			Help:    "Time taken to write a feature table to Parquet",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	// StorageBytes tracks the size of written feature table files
	StorageBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tractfeat_storage_bytes",
			Help:    "Size of written feature table files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 12),
		},
	)
)
