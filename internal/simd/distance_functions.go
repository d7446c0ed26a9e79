// Package simd provides the native distance kernels used by metrics.
//
// The implementation is selected once at init from the detected CPU
// features and called through function pointers afterwards. vek ships
// assembly for AVX2 with FMA only, so the choice is "avx2" or "generic".
package simd

import (
	"errors"
	"math"

	"github.com/23skdu/tractfeat/internal/metrics"
	"github.com/chewxy/math32"
	"github.com/klauspost/cpuid/v2"
	"github.com/viterin/vek"
	"github.com/viterin/vek/vek32"
)

// ErrLengthMismatch is returned when two vectors have different lengths.
var ErrLengthMismatch = errors.New("simd: vector length mismatch")

var (
	implementation               string
	euclideanDistanceImpl        func(a, b []float32) float32
	euclideanDistanceFloat64Impl func(a, b []float64) float64
)

func init() {
	implementation = detectImplementation()
	selectKernels(implementation)
	metrics.SimdImplementationInfo.WithLabelValues(implementation).Set(1)
}

func detectImplementation() string {
	if cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3) {
		return "avx2"
	}
	return "generic"
}

// GetImplementation returns the selected SIMD implementation name
func GetImplementation() string {
	return implementation
}

// selectKernels wires the function pointers for the given implementation name.
func selectKernels(impl string) {
	switch impl {
	case "avx2":
		euclideanDistanceImpl = vek32.Distance
		euclideanDistanceFloat64Impl = vek.Distance
	default:
		euclideanDistanceImpl = euclideanGeneric
		euclideanDistanceFloat64Impl = euclideanGenericFloat64
	}
}

// EuclideanDistance calculates the Euclidean distance between two vectors.
func EuclideanDistance(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	if len(a) == 0 {
		return 0, nil
	}
	return euclideanDistanceImpl(a, b), nil
}

// EuclideanDistanceFloat64 calculates the Euclidean distance between two
// float64 vectors.
func EuclideanDistanceFloat64(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	if len(a) == 0 {
		return 0, nil
	}
	return euclideanDistanceFloat64Impl(a, b), nil
}

func euclideanGeneric(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math32.Sqrt(sum)
}

func euclideanGenericFloat64(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
