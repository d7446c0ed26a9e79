// Package streamline holds the point-sequence type that features consume.
//
// A Streamline is N points of dimension D stored row-major in one float32
// slice. N varies between streamlines; D is fixed within a collection. The
// zero value is the absent streamline and reports shape (0, 0).
package streamline

import (
	"fmt"

	"github.com/23skdu/tractfeat/internal/errors"
)

// Streamline is an ordered sequence of points. Values are borrowed: the
// accessors returning slices expose the backing data and must not be mutated
// by features.
type Streamline struct {
	data []float32
	n    int
	d    int
}

// New copies points into a contiguous Streamline. All points must share the
// same non-zero dimension and there must be at least one point.
func New(points [][]float32) (Streamline, error) {
	if len(points) == 0 {
		return Streamline{}, errors.NewValidationError("streamline.New", "a streamline needs at least one point")
	}
	d := len(points[0])
	if d == 0 {
		return Streamline{}, errors.NewValidationError("streamline.New", "points must have at least one coordinate")
	}
	data := make([]float32, 0, len(points)*d)
	for i, p := range points {
		if len(p) != d {
			return Streamline{}, errors.NewValidationError("streamline.New",
				fmt.Sprintf("point %d has dimension %d, expected %d", i, len(p), d)).
				WithContext("index", i)
		}
		data = append(data, p...)
	}
	return Streamline{data: data, n: len(points), d: d}, nil
}

// FromFlat wraps row-major data of n points in d dimensions without copying.
func FromFlat(data []float32, n, d int) (Streamline, error) {
	if n < 1 || d < 1 {
		return Streamline{}, errors.NewValidationError("streamline.FromFlat",
			fmt.Sprintf("invalid shape (%d, %d)", n, d))
	}
	if len(data) != n*d {
		return Streamline{}, errors.NewValidationError("streamline.FromFlat",
			fmt.Sprintf("got %d values for shape (%d, %d)", len(data), n, d))
	}
	return Streamline{data: data, n: n, d: d}, nil
}

// FromFloat64 narrows row-major float64 data into a new Streamline.
func FromFloat64(data []float64, n, d int) (Streamline, error) {
	narrowed := make([]float32, len(data))
	for i, v := range data {
		narrowed[i] = float32(v)
	}
	return FromFlat(narrowed, n, d)
}

func (s Streamline) NumPoints() int { return s.n }

func (s Streamline) Dim() int { return s.d }

func (s Streamline) Shape() Shape { return Shape{Rows: s.n, Cols: s.d} }

// IsZero reports whether s is the absent streamline.
func (s Streamline) IsZero() bool { return s.n == 0 }

// Point returns a view of the i-th point.
func (s Streamline) Point(i int) []float32 {
	return s.data[i*s.d : (i+1)*s.d : (i+1)*s.d]
}

// Data returns a view of the row-major backing slice.
func (s Streamline) Data() []float32 { return s.data }

// Clone returns a deep copy.
func (s Streamline) Clone() Streamline {
	data := make([]float32, len(s.data))
	copy(data, s.data)
	return Streamline{data: data, n: s.n, d: s.d}
}

// Reverse returns a copy with the point order flipped.
func (s Streamline) Reverse() Streamline {
	data := make([]float32, len(s.data))
	for i := 0; i < s.n; i++ {
		copy(data[(s.n-1-i)*s.d:(s.n-i)*s.d], s.Point(i))
	}
	return Streamline{data: data, n: s.n, d: s.d}
}
