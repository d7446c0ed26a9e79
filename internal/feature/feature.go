// Package feature defines the Feature contract and the built-in features.
//
// A Feature maps a streamline to a rank-2 Array whose shape is known from the
// streamline's shape alone. InferShape must agree with the shape Extract
// produces for the same input; the batch driver in package extraction treats
// any disagreement as a hard failure.
//
// IsOrderInvariant is advisory metadata. It tells clustering code whether the
// reversed orientation of a streamline must also be tried; it is never
// checked at runtime, and a wrong value degrades results without failing.
package feature

import (
	"fmt"
	"reflect"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/streamline"
)

// Feature is a deterministic, shape-predictable transform of a streamline.
// Implementations must be safe for concurrent use.
type Feature interface {
	InferShape(s streamline.Streamline) (streamline.Shape, error)
	Extract(s streamline.Streamline) (Array, error)
	IsOrderInvariant() bool
}

// Named is implemented by features that want a custom label in logs and metrics.
type Named interface {
	Name() string
}

// Base is an embeddable partial Feature. Its InferShape and Extract fail
// with errors.ErrNotImplemented, so a type embedding Base only has to
// override the methods it actually uses. The zero Base is order-invariant.
type Base struct {
	orderSensitive bool
}

// NewBase returns a Base with the given order-invariance flag.
func NewBase(isOrderInvariant bool) Base {
	return Base{orderSensitive: !isOrderInvariant}
}

func (b Base) InferShape(streamline.Streamline) (streamline.Shape, error) {
	return streamline.Shape{}, errors.NewNotImplementedError("Feature.InferShape")
}

func (b Base) Extract(streamline.Streamline) (Array, error) {
	return Array{}, errors.NewNotImplementedError("Feature.Extract")
}

func (b Base) IsOrderInvariant() bool { return !b.orderSensitive }

// Name returns a stable label for f: its Name() when it implements Named,
// otherwise the concrete type name, or its %T form for unnamed types.
func Name(f Feature) string {
	if f == nil {
		return "<nil>"
	}
	if n, ok := f.(Named); ok {
		return n.Name()
	}
	t := reflect.TypeOf(f)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("%T", f)
}
