package streamline

import (
	"fmt"

	"github.com/23skdu/tractfeat/internal/errors"
)

// Shape is the rank-2 shape of a streamline or of a feature representation.
// Scalars are (1, 1) and single points are (1, D); there is no rank-0 or
// rank-1 form.
type Shape struct {
	Rows int
	Cols int
}

// ScalarShape is the shape used for scalar feature values.
func ScalarShape() Shape { return Shape{Rows: 1, Cols: 1} }

// PointShape is the shape of a single d-dimensional point.
func PointShape(d int) Shape { return Shape{Rows: 1, Cols: d} }

// ShapeOf normalizes a host-style dimension list to a rank-2 Shape:
// () -> (1, 1), (k) -> (1, k), (r, c) -> (r, c).
func ShapeOf(dims ...int) (Shape, error) {
	for _, d := range dims {
		if d < 0 {
			return Shape{}, errors.NewValidationError("ShapeOf", fmt.Sprintf("negative dimension in %v", dims))
		}
	}
	switch len(dims) {
	case 0:
		return ScalarShape(), nil
	case 1:
		return PointShape(dims[0]), nil
	case 2:
		return Shape{Rows: dims[0], Cols: dims[1]}, nil
	default:
		return Shape{}, errors.NewValidationError("ShapeOf", fmt.Sprintf("rank %d not supported, features are at most rank 2", len(dims)))
	}
}

// Size is the number of elements.
func (s Shape) Size() int { return s.Rows * s.Cols }

// Equal reports whether both dimensions agree.
func (s Shape) Equal(o Shape) bool { return s.Rows == o.Rows && s.Cols == o.Cols }

func (s Shape) String() string { return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols) }
