package feature

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/streamline"
)

// IdentityFeature returns the streamline itself, copied.
type IdentityFeature struct{}

func NewIdentityFeature() IdentityFeature { return IdentityFeature{} }

func (IdentityFeature) Name() string { return "identity" }

func (IdentityFeature) InferShape(s streamline.Streamline) (streamline.Shape, error) {
	return s.Shape(), nil
}

func (IdentityFeature) Extract(s streamline.Streamline) (Array, error) {
	data := make([]float32, len(s.Data()))
	copy(data, s.Data())
	return Array{shape: s.Shape(), dtype: Float32, f32: data}, nil
}

func (IdentityFeature) IsOrderInvariant() bool { return false }

// CenterOfMassFeature returns the mean point as a (1, D) array.
type CenterOfMassFeature struct{}

func NewCenterOfMassFeature() CenterOfMassFeature { return CenterOfMassFeature{} }

func (CenterOfMassFeature) Name() string { return "center_of_mass" }

func (CenterOfMassFeature) InferShape(s streamline.Streamline) (streamline.Shape, error) {
	return streamline.PointShape(s.Dim()), nil
}

func (CenterOfMassFeature) Extract(s streamline.Streamline) (Array, error) {
	if s.IsZero() {
		return Array{}, errors.NewValidationError("CenterOfMassFeature.Extract", "empty streamline")
	}
	// accumulate in float64, store as float32
	sum := make([]float64, s.Dim())
	for i := 0; i < s.NumPoints(); i++ {
		floats.Add(sum, widen(s.Point(i)))
	}
	floats.Scale(1/float64(s.NumPoints()), sum)
	return Array{shape: streamline.PointShape(s.Dim()), dtype: Float32, f32: narrow(sum)}, nil
}

func (CenterOfMassFeature) IsOrderInvariant() bool { return true }

// MidpointFeature returns the point at index N/2 as a (1, D) array.
type MidpointFeature struct{}

func NewMidpointFeature() MidpointFeature { return MidpointFeature{} }

func (MidpointFeature) Name() string { return "midpoint" }

func (MidpointFeature) InferShape(s streamline.Streamline) (streamline.Shape, error) {
	return streamline.PointShape(s.Dim()), nil
}

func (MidpointFeature) Extract(s streamline.Streamline) (Array, error) {
	if s.IsZero() {
		return Array{}, errors.NewValidationError("MidpointFeature.Extract", "empty streamline")
	}
	mid := make([]float32, s.Dim())
	copy(mid, s.Point(s.NumPoints()/2))
	return Array{shape: streamline.PointShape(s.Dim()), dtype: Float32, f32: mid}, nil
}

// Reversal moves the middle index for even point counts.
func (MidpointFeature) IsOrderInvariant() bool { return false }

// ArcLengthFeature returns the summed segment length as a (1, 1) array.
type ArcLengthFeature struct{}

func NewArcLengthFeature() ArcLengthFeature { return ArcLengthFeature{} }

func (ArcLengthFeature) Name() string { return "arc_length" }

func (ArcLengthFeature) InferShape(streamline.Streamline) (streamline.Shape, error) {
	return streamline.ScalarShape(), nil
}

func (ArcLengthFeature) Extract(s streamline.Streamline) (Array, error) {
	return Array{shape: streamline.ScalarShape(), dtype: Float32, f32: []float32{float32(arcLength(s))}}, nil
}

func (ArcLengthFeature) IsOrderInvariant() bool { return true }

// VectorOfEndpointsFeature returns last point minus first point as (1, D).
type VectorOfEndpointsFeature struct{}

func NewVectorOfEndpointsFeature() VectorOfEndpointsFeature { return VectorOfEndpointsFeature{} }

func (VectorOfEndpointsFeature) Name() string { return "vector_of_endpoints" }

func (VectorOfEndpointsFeature) InferShape(s streamline.Streamline) (streamline.Shape, error) {
	return streamline.PointShape(s.Dim()), nil
}

func (VectorOfEndpointsFeature) Extract(s streamline.Streamline) (Array, error) {
	if s.IsZero() {
		return Array{}, errors.NewValidationError("VectorOfEndpointsFeature.Extract", "empty streamline")
	}
	v := widen(s.Point(s.NumPoints() - 1))
	floats.Sub(v, widen(s.Point(0)))
	return Array{shape: streamline.PointShape(s.Dim()), dtype: Float32, f32: narrow(v)}, nil
}

func (VectorOfEndpointsFeature) IsOrderInvariant() bool { return false }

// New builds a built-in feature by name. nbPoints is only used by "resample".
func New(name string, nbPoints int) (Feature, error) {
	switch name {
	case "identity":
		return NewIdentityFeature(), nil
	case "center_of_mass":
		return NewCenterOfMassFeature(), nil
	case "midpoint":
		return NewMidpointFeature(), nil
	case "arc_length":
		return NewArcLengthFeature(), nil
	case "vector_of_endpoints":
		return NewVectorOfEndpointsFeature(), nil
	case "resample":
		return NewResampleFeature(nbPoints)
	default:
		return nil, errors.NewConfigurationError("feature.New", fmt.Sprintf("unknown feature %q", name))
	}
}

// Names lists the names accepted by New.
func Names() []string {
	return []string{"identity", "center_of_mass", "midpoint", "arc_length", "vector_of_endpoints", "resample"}
}

func widen(p []float32) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = float64(v)
	}
	return out
}

func narrow(p []float64) []float32 {
	out := make([]float32, len(p))
	for i, v := range p {
		out[i] = float32(v)
	}
	return out
}

func arcLength(s streamline.Streamline) float64 {
	var length float64
	prev := widen(s.Point(0))
	for i := 1; i < s.NumPoints(); i++ {
		cur := widen(s.Point(i))
		length += floats.Distance(prev, cur, 2)
		prev = cur
	}
	return length
}
