package feature

import (
	"math/rand"
	"testing"

	"github.com/23skdu/tractfeat/internal/streamline"
	"github.com/stretchr/testify/require"
)

// fixtures returns the canonical streamlines: a 10x3 diagonal ramp, a
// reversed 10x3 arange, and two random 5-point streamlines in 4 and 3 dims.
func fixtures(t *testing.T) []streamline.Streamline {
	t.Helper()
	rng := rand.New(rand.NewSource(42))

	s1 := make([][]float32, 10)
	for i := range s1 {
		s1[i] = []float32{float32(i), float32(i), float32(i)}
	}

	s2 := make([]float32, 30)
	for i := range s2 {
		s2[i] = float32(i)
	}
	ramp, err := streamline.FromFlat(s2, 10, 3)
	require.NoError(t, err)

	out := []streamline.Streamline{mustNew(t, s1), ramp.Reverse()}
	for _, d := range []int{4, 3} {
		data := make([]float32, 5*d)
		for i := range data {
			data[i] = rng.Float32()
		}
		s, err := streamline.FromFlat(data, 5, d)
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func mustNew(t *testing.T, points [][]float32) streamline.Streamline {
	t.Helper()
	s, err := streamline.New(points)
	require.NoError(t, err)
	return s
}

// meanOf is the reference center of mass.
func meanOf(s streamline.Streamline) []float64 {
	mean := make([]float64, s.Dim())
	for i := 0; i < s.NumPoints(); i++ {
		for j, v := range s.Point(i) {
			mean[j] += float64(v)
		}
	}
	for j := range mean {
		mean[j] /= float64(s.NumPoints())
	}
	return mean
}

// userIdentity is a hand-written identity feature built on Base.
type userIdentity struct{ Base }

func newUserIdentity() userIdentity { return userIdentity{Base: NewBase(false)} }

func (userIdentity) InferShape(s streamline.Streamline) (streamline.Shape, error) {
	return s.Shape(), nil
}

func (userIdentity) Extract(s streamline.Streamline) (Array, error) {
	return NewArray32(s.Data(), s.NumPoints(), s.Dim())
}

// userCenterOfMass computes the mean in float64 and returns it unnarrowed.
type userCenterOfMass struct{ Base }

func newUserCenterOfMass() userCenterOfMass { return userCenterOfMass{Base: NewBase(true)} }

func (userCenterOfMass) InferShape(s streamline.Streamline) (streamline.Shape, error) {
	return streamline.ShapeOf(s.Dim())
}

func (userCenterOfMass) Extract(s streamline.Streamline) (Array, error) {
	return NewArray64(meanOf(s))
}
