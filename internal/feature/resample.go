package feature

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/streamline"
)

// ResampleFeature places NbPoints points evenly along the streamline's arc
// length, interpolating linearly between the original points. Streamlines of
// any length map to (NbPoints, D), which makes it the usual companion of
// pointwise metrics.
type ResampleFeature struct {
	nbPoints int
}

func NewResampleFeature(nbPoints int) (ResampleFeature, error) {
	if nbPoints < 1 {
		return ResampleFeature{}, errors.NewConfigurationError("NewResampleFeature",
			fmt.Sprintf("nb_points must be at least 1, got %d", nbPoints))
	}
	return ResampleFeature{nbPoints: nbPoints}, nil
}

func (f ResampleFeature) Name() string { return "resample" }

func (f ResampleFeature) NbPoints() int { return f.nbPoints }

func (f ResampleFeature) InferShape(s streamline.Streamline) (streamline.Shape, error) {
	return streamline.Shape{Rows: f.nbPoints, Cols: s.Dim()}, nil
}

func (f ResampleFeature) Extract(s streamline.Streamline) (Array, error) {
	if s.IsZero() {
		return Array{}, errors.NewValidationError("ResampleFeature.Extract", "empty streamline")
	}
	if f.nbPoints < 1 {
		return Array{}, errors.NewConfigurationError("ResampleFeature.Extract", "feature was not built with NewResampleFeature")
	}

	n, d := s.NumPoints(), s.Dim()
	cumulative := make([]float64, n)
	for i := 1; i < n; i++ {
		cumulative[i] = cumulative[i-1] + floats.Distance(widen(s.Point(i-1)), widen(s.Point(i)), 2)
	}
	total := cumulative[n-1]

	out := make([]float32, f.nbPoints*d)
	if total == 0 || f.nbPoints == 1 {
		for k := 0; k < f.nbPoints; k++ {
			copy(out[k*d:(k+1)*d], s.Point(0))
		}
		return Array{shape: streamline.Shape{Rows: f.nbPoints, Cols: d}, dtype: Float32, f32: out}, nil
	}

	targets := make([]float64, f.nbPoints)
	floats.Span(targets, 0, total)

	seg := 1
	point := make([]float64, d)
	for k, t := range targets {
		for seg < n-1 && cumulative[seg] < t {
			seg++
		}
		segLen := cumulative[seg] - cumulative[seg-1]
		ratio := 0.0
		if segLen > 0 {
			ratio = (t - cumulative[seg-1]) / segLen
		}
		a, b := s.Point(seg-1), s.Point(seg)
		for j := 0; j < d; j++ {
			point[j] = float64(a[j]) + ratio*(float64(b[j])-float64(a[j]))
		}
		for j := 0; j < d; j++ {
			out[k*d+j] = float32(point[j])
		}
	}
	// pin the last sample to the last point so rounding never overshoots
	copy(out[(f.nbPoints-1)*d:], s.Point(n-1))

	return Array{shape: streamline.Shape{Rows: f.nbPoints, Cols: d}, dtype: Float32, f32: out}, nil
}

func (f ResampleFeature) IsOrderInvariant() bool { return false }
