package extraction

import (
	"github.com/23skdu/tractfeat/internal/feature"
	"github.com/23skdu/tractfeat/internal/streamline"
)

const (
	LayoutUniform = "uniform"
	LayoutRagged  = "ragged"
)

// Table is the result of a batch extraction. It is either *Uniform, when
// every streamline maps to the same feature shape, or *Ragged. Callers
// type-switch on the concrete type.
type Table interface {
	// Len is the number of streamlines represented.
	Len() int
	// At returns the float32 representation of item i.
	At(i int) feature.Array
	// Layout is LayoutUniform or LayoutRagged.
	Layout() string

	sealed()
}

// Uniform packs M same-shaped float32 items contiguously: item i occupies
// data[i*Shape.Size() : (i+1)*Shape.Size()].
type Uniform struct {
	shape streamline.Shape
	n     int
	data  []float32
}

func newUniform(n int, shape streamline.Shape) *Uniform {
	return &Uniform{shape: shape, n: n, data: make([]float32, n*shape.Size())}
}

func (u *Uniform) Len() int { return u.n }

func (u *Uniform) Layout() string { return LayoutUniform }

// Shape is the per-item feature shape.
func (u *Uniform) Shape() streamline.Shape { return u.shape }

// Dims is the dense shape (M, rows, cols).
func (u *Uniform) Dims() [3]int { return [3]int{u.n, u.shape.Rows, u.shape.Cols} }

// Data returns the packed backing slice.
func (u *Uniform) Data() []float32 { return u.data }

// At returns item i as a view into the packed data.
func (u *Uniform) At(i int) feature.Array {
	return u.Row(i)
}

// Row returns item i as a view into the packed data.
func (u *Uniform) Row(i int) feature.Array {
	size := u.shape.Size()
	a, _ := feature.NewArray32(u.data[i*size:(i+1)*size:(i+1)*size], u.shape.Rows, u.shape.Cols)
	return a
}

func (u *Uniform) slot(i int) []float32 {
	size := u.shape.Size()
	return u.data[i*size : (i+1)*size]
}

func (*Uniform) sealed() {}

// Ragged keeps one independently shaped float32 array per streamline.
type Ragged struct {
	items []feature.Array
}

func newRagged(n int) *Ragged {
	return &Ragged{items: make([]feature.Array, n)}
}

func (r *Ragged) Len() int { return len(r.items) }

func (r *Ragged) Layout() string { return LayoutRagged }

func (r *Ragged) At(i int) feature.Array { return r.items[i] }

// Items returns the per-streamline arrays.
func (r *Ragged) Items() []feature.Array { return r.items }

func (*Ragged) sealed() {}
