// Package metric defines the Metric contract, the reference pointwise
// Euclidean metric and the dispatcher that composes a metric with its
// feature.
package metric

import (
	"fmt"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/feature"
	"github.com/23skdu/tractfeat/internal/metrics"
	"github.com/23skdu/tractfeat/internal/simd"
	"github.com/23skdu/tractfeat/internal/streamline"
)

// Metric pairs a Feature with a dissimilarity over the arrays it produces.
// Dist never sees raw streamlines and must not care which Feature
// implementation produced its inputs. Implementations must be safe for
// concurrent use.
type Metric interface {
	Feature() feature.Feature
	AreCompatible(a, b streamline.Shape) bool
	Dist(a, b feature.Array) (float64, error)
}

// Named is implemented by metrics that want a custom label in metrics.
type Named interface {
	Name() string
}

// AveragePointwiseEuclideanMetric is the mean, over rows, of the Euclidean
// distance between corresponding rows of two arrays of equal shape.
// It is symmetric and satisfies the triangle inequality.
type AveragePointwiseEuclideanMetric struct {
	feature feature.Feature
}

// NewAveragePointwiseEuclideanMetric returns the metric over f. A nil f
// means the identity feature, i.e. point-by-point comparison of the raw
// streamlines.
func NewAveragePointwiseEuclideanMetric(f feature.Feature) AveragePointwiseEuclideanMetric {
	if f == nil {
		f = feature.NewIdentityFeature()
	}
	return AveragePointwiseEuclideanMetric{feature: f}
}

func (m AveragePointwiseEuclideanMetric) Name() string { return "average_pointwise_euclidean" }

func (m AveragePointwiseEuclideanMetric) Feature() feature.Feature {
	if m.feature == nil {
		return feature.NewIdentityFeature()
	}
	return m.feature
}

// AreCompatible reports whether arrays of the two shapes can be compared.
func (m AveragePointwiseEuclideanMetric) AreCompatible(a, b streamline.Shape) bool {
	return a.Equal(b)
}

// Dist returns the average pointwise distance. Shapes that differ in either
// dimension fail with errors.ErrDimensionMismatch; nothing is resampled.
func (m AveragePointwiseEuclideanMetric) Dist(a, b feature.Array) (float64, error) {
	if !m.AreCompatible(a.Shape(), b.Shape()) {
		metrics.ContractViolationsTotal.WithLabelValues(string(errors.ErrorTypeDimensionMismatch)).Inc()
		return 0, errors.NewDimensionMismatchError("AveragePointwiseEuclideanMetric.Dist", a.Shape(), b.Shape())
	}
	rows := a.Shape().Rows
	if rows == 0 {
		return 0, nil
	}

	var sum float64
	if a.DType() == feature.Float32 && b.DType() == feature.Float32 {
		for r := 0; r < rows; r++ {
			d, err := simd.EuclideanDistance(a.Row32(r), b.Row32(r))
			if err != nil {
				return 0, wrapKernel(err, r)
			}
			sum += float64(d)
		}
		metrics.DistanceComputationsTotal.WithLabelValues(m.Name(), "float32").Inc()
		return sum / float64(rows), nil
	}

	a64, b64 := a.Float64(), b.Float64()
	for r := 0; r < rows; r++ {
		d, err := simd.EuclideanDistanceFloat64(a64.Row64(r), b64.Row64(r))
		if err != nil {
			return 0, wrapKernel(err, r)
		}
		sum += d
	}
	metrics.DistanceComputationsTotal.WithLabelValues(m.Name(), "float64").Inc()
	return sum / float64(rows), nil
}

func wrapKernel(err error, row int) error {
	return errors.WrapComputationError(err, "AveragePointwiseEuclideanMetric.Dist",
		fmt.Sprintf("row %d", row))
}

// Name returns a stable label for m: its Name() when it implements Named,
// otherwise its Go type.
func Name(m Metric) string {
	if n, ok := m.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}
