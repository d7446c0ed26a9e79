package feature

import (
	"fmt"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/streamline"
)

// DType identifies the element precision of an Array.
type DType int

const (
	Float32 DType = iota
	Float64
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// Array is a rank-2 feature representation. Exactly one of the backing
// slices is populated, according to DType.
type Array struct {
	shape streamline.Shape
	dtype DType
	f32   []float32
	f64   []float64
}

// NewArray32 wraps float32 data. dims are normalized with streamline.ShapeOf,
// so a bare length k becomes (1, k) and no dims at all means (1, 1).
func NewArray32(data []float32, dims ...int) (Array, error) {
	shape, err := shapeFor(len(data), dims)
	if err != nil {
		return Array{}, err
	}
	return Array{shape: shape, dtype: Float32, f32: data}, nil
}

// NewArray64 wraps float64 data, normalizing dims like NewArray32.
func NewArray64(data []float64, dims ...int) (Array, error) {
	shape, err := shapeFor(len(data), dims)
	if err != nil {
		return Array{}, err
	}
	return Array{shape: shape, dtype: Float64, f64: data}, nil
}

// Scalar64 is a (1, 1) float64 array holding v.
func Scalar64(v float64) Array {
	return Array{shape: streamline.ScalarShape(), dtype: Float64, f64: []float64{v}}
}

func shapeFor(n int, dims []int) (streamline.Shape, error) {
	if len(dims) == 0 && n != 1 {
		// a bare vector is one point
		dims = []int{n}
	}
	shape, err := streamline.ShapeOf(dims...)
	if err != nil {
		return streamline.Shape{}, err
	}
	if shape.Size() != n {
		return streamline.Shape{}, errors.NewValidationError("feature.NewArray",
			fmt.Sprintf("%d values do not fill shape %s", n, shape))
	}
	return shape, nil
}

func (a Array) Shape() streamline.Shape { return a.shape }

func (a Array) DType() DType { return a.dtype }

// At returns element (r, c) widened to float64.
func (a Array) At(r, c int) float64 {
	i := r*a.shape.Cols + c
	if a.dtype == Float64 {
		return a.f64[i]
	}
	return float64(a.f32[i])
}

// Data32 returns the float32 backing slice, nil for float64 arrays.
func (a Array) Data32() []float32 { return a.f32 }

// Data64 returns the float64 backing slice, nil for float32 arrays.
func (a Array) Data64() []float64 { return a.f64 }

// Row32 returns row r of a float32 array as a view.
func (a Array) Row32(r int) []float32 {
	c := a.shape.Cols
	return a.f32[r*c : (r+1)*c : (r+1)*c]
}

// Row64 returns row r of a float64 array as a view.
func (a Array) Row64(r int) []float64 {
	c := a.shape.Cols
	return a.f64[r*c : (r+1)*c : (r+1)*c]
}

// Float32 returns a float32 array with the same shape. Float32 inputs are
// returned as-is; float64 inputs are narrowed into a new slice.
func (a Array) Float32() Array {
	if a.dtype == Float32 {
		return a
	}
	out := make([]float32, len(a.f64))
	for i, v := range a.f64 {
		out[i] = float32(v)
	}
	return Array{shape: a.shape, dtype: Float32, f32: out}
}

// Float64 returns a float64 array with the same shape, widening when needed.
func (a Array) Float64() Array {
	if a.dtype == Float64 {
		return a
	}
	out := make([]float64, len(a.f32))
	for i, v := range a.f32 {
		out[i] = float64(v)
	}
	return Array{shape: a.shape, dtype: Float64, f64: out}
}

// Reverse returns a copy with the row order flipped.
func (a Array) Reverse() Array {
	rows, cols := a.shape.Rows, a.shape.Cols
	out := Array{shape: a.shape, dtype: a.dtype}
	if a.dtype == Float64 {
		out.f64 = make([]float64, len(a.f64))
		for r := 0; r < rows; r++ {
			copy(out.f64[(rows-1-r)*cols:(rows-r)*cols], a.Row64(r))
		}
		return out
	}
	out.f32 = make([]float32, len(a.f32))
	for r := 0; r < rows; r++ {
		copy(out.f32[(rows-1-r)*cols:(rows-r)*cols], a.Row32(r))
	}
	return out
}

// Equal reports whether shapes match and every element compares equal
// after widening. DType is not compared.
func (a Array) Equal(b Array) bool {
	if !a.shape.Equal(b.shape) {
		return false
	}
	for r := 0; r < a.shape.Rows; r++ {
		for c := 0; c < a.shape.Cols; c++ {
			if a.At(r, c) != b.At(r, c) {
				return false
			}
		}
	}
	return true
}
