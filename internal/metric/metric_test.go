package metric

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/feature"
	"github.com/23skdu/tractfeat/internal/metrics"
	"github.com/23skdu/tractfeat/internal/streamline"
)

// ramp is the 10x3 streamline [[i, i, i]].
func ramp(t *testing.T) streamline.Streamline {
	t.Helper()
	data := make([]float32, 30)
	for i := 0; i < 10; i++ {
		data[3*i], data[3*i+1], data[3*i+2] = float32(i), float32(i), float32(i)
	}
	s, err := streamline.FromFlat(data, 10, 3)
	require.NoError(t, err)
	return s
}

// reversedArange is arange(30) viewed as 10x3 with the point order flipped.
func reversedArange(t *testing.T) streamline.Streamline {
	t.Helper()
	data := make([]float32, 30)
	for i := range data {
		data[i] = float32(i)
	}
	s, err := streamline.FromFlat(data, 10, 3)
	require.NoError(t, err)
	return s.Reverse()
}

func randomStreamline(t *testing.T, rng *rand.Rand, n, d int) streamline.Streamline {
	t.Helper()
	data := make([]float32, n*d)
	for i := range data {
		data[i] = rng.Float32()*10 - 5
	}
	s, err := streamline.FromFlat(data, n, d)
	require.NoError(t, err)
	return s
}

// reference computes the average pointwise distance in float64.
func reference(a, b streamline.Streamline) float64 {
	var sum float64
	for i := 0; i < a.NumPoints(); i++ {
		var sq float64
		for j := range a.Point(i) {
			d := float64(a.Point(i)[j]) - float64(b.Point(i)[j])
			sq += d * d
		}
		sum += math.Sqrt(sq)
	}
	return sum / float64(a.NumPoints())
}

// userIdentity is a hand-written identity feature.
type userIdentity struct{ feature.Base }

func (userIdentity) InferShape(s streamline.Streamline) (streamline.Shape, error) {
	return s.Shape(), nil
}

func (userIdentity) Extract(s streamline.Streamline) (feature.Array, error) {
	return feature.NewArray32(s.Data(), s.NumPoints(), s.Dim())
}

// userCenterOfMass returns an unnarrowed float64 mean.
type userCenterOfMass struct{ feature.Base }

func (userCenterOfMass) InferShape(s streamline.Streamline) (streamline.Shape, error) {
	return streamline.ShapeOf(s.Dim())
}

func (userCenterOfMass) Extract(s streamline.Streamline) (feature.Array, error) {
	mean := make([]float64, s.Dim())
	for i := 0; i < s.NumPoints(); i++ {
		for j, v := range s.Point(i) {
			mean[j] += float64(v)
		}
	}
	for j := range mean {
		mean[j] /= float64(s.NumPoints())
	}
	return feature.NewArray64(mean)
}

func TestNewAveragePointwiseEuclideanMetric_DefaultsToIdentity(t *testing.T) {
	m := NewAveragePointwiseEuclideanMetric(nil)
	assert.IsType(t, feature.IdentityFeature{}, m.Feature())

	var zero AveragePointwiseEuclideanMetric
	assert.IsType(t, feature.IdentityFeature{}, zero.Feature())

	com := feature.NewCenterOfMassFeature()
	assert.Equal(t, com, NewAveragePointwiseEuclideanMetric(com).Feature())
}

func TestAveragePointwiseEuclideanMetric_Dist(t *testing.T) {
	s1, s2 := ramp(t), reversedArange(t)
	m := NewAveragePointwiseEuclideanMetric(nil)

	a, err := m.Feature().Extract(s1)
	require.NoError(t, err)
	b, err := m.Feature().Extract(s2)
	require.NoError(t, err)

	d, err := m.Dist(a, b)
	require.NoError(t, err)
	assert.InDelta(t, reference(s1, s2), d, 1e-4)

	self, err := m.Dist(a, a)
	require.NoError(t, err)
	assert.Equal(t, 0.0, self)
}

// A Python-style identity feature fed to the native metric must give the
// same distance as the built-in identity feature.
func TestUserFeatureWithNativeMetric(t *testing.T) {
	s1, s2 := ramp(t), reversedArange(t)

	user := NewAveragePointwiseEuclideanMetric(userIdentity{Base: feature.NewBase(false)})
	native := NewAveragePointwiseEuclideanMetric(feature.NewIdentityFeature())

	d1, err := Dist(user, s1, s2)
	require.NoError(t, err)
	d2, err := Dist(native, s1, s2)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	f1, err := user.Feature().Extract(s1)
	require.NoError(t, err)
	f2, err := user.Feature().Extract(s2)
	require.NoError(t, err)
	manual, err := user.Dist(f1, f2)
	require.NoError(t, err)
	assert.Equal(t, d1, manual)
}

func TestUserCenterOfMassWithNativeMetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s1 := randomStreamline(t, rng, 5, 3)
	s2 := randomStreamline(t, rng, 12, 3)

	user := NewAveragePointwiseEuclideanMetric(userCenterOfMass{Base: feature.NewBase(true)})
	native := NewAveragePointwiseEuclideanMetric(feature.NewCenterOfMassFeature())

	before := testutil.ToFloat64(metrics.DistanceComputationsTotal.WithLabelValues("average_pointwise_euclidean", "float64"))
	d1, err := Dist(user, s1, s2)
	require.NoError(t, err)
	after := testutil.ToFloat64(metrics.DistanceComputationsTotal.WithLabelValues("average_pointwise_euclidean", "float64"))
	assert.Equal(t, before+1, after)

	d2, err := Dist(native, s1, s2)
	require.NoError(t, err)
	assert.InDelta(t, d1, d2, 1e-5)
}

func TestAveragePointwiseEuclideanMetric_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m := NewAveragePointwiseEuclideanMetric(nil)
	for i := 0; i < 20; i++ {
		s1 := randomStreamline(t, rng, 8, 3)
		s2 := randomStreamline(t, rng, 8, 3)
		ab, err := Dist(m, s1, s2)
		require.NoError(t, err)
		ba, err := Dist(m, s2, s1)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
		assert.GreaterOrEqual(t, ab, 0.0)
	}
}

func TestAveragePointwiseEuclideanMetric_MixedPrecision(t *testing.T) {
	m := NewAveragePointwiseEuclideanMetric(nil)
	a, err := feature.NewArray32([]float32{0, 0, 3, 4}, 2, 2)
	require.NoError(t, err)
	b, err := feature.NewArray64([]float64{3, 4, 3, 4}, 2, 2)
	require.NoError(t, err)

	d, err := m.Dist(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, d, 1e-12)
}

func TestAveragePointwiseEuclideanMetric_DimensionMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	m := NewAveragePointwiseEuclideanMetric(nil)

	cases := []struct {
		name   string
		s1, s2 streamline.Streamline
	}{
		{"point count", randomStreamline(t, rng, 5, 3), randomStreamline(t, rng, 6, 3)},
		{"dimension", randomStreamline(t, rng, 5, 3), randomStreamline(t, rng, 5, 4)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.ContractViolationsTotal.WithLabelValues(string(errors.ErrorTypeDimensionMismatch)))

			assert.False(t, m.AreCompatible(tc.s1.Shape(), tc.s2.Shape()))
			_, err := Dist(m, tc.s1, tc.s2)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrDimensionMismatch)
			assert.Equal(t, errors.ErrorTypeDimensionMismatch, errors.TypeOf(err))

			after := testutil.ToFloat64(metrics.ContractViolationsTotal.WithLabelValues(string(errors.ErrorTypeDimensionMismatch)))
			assert.Equal(t, before+1, after)
		})
	}
}

func TestAveragePointwiseEuclideanMetric_CompatibleAfterFeature(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	s1 := randomStreamline(t, rng, 5, 3)
	s2 := randomStreamline(t, rng, 9, 3)

	resample, err := feature.NewResampleFeature(12)
	require.NoError(t, err)
	for _, f := range []feature.Feature{feature.NewCenterOfMassFeature(), feature.NewMidpointFeature(), resample} {
		m := NewAveragePointwiseEuclideanMetric(f)
		sh1, err := f.InferShape(s1)
		require.NoError(t, err)
		sh2, err := f.InferShape(s2)
		require.NoError(t, err)
		assert.True(t, m.AreCompatible(sh1, sh2))

		_, err = Dist(m, s1, s2)
		assert.NoError(t, err, feature.Name(f))
	}
}

// The identity metric on a single point equals the plain Euclidean distance.
func TestAveragePointwiseEuclideanMetric_SinglePoint(t *testing.T) {
	s1, err := streamline.New([][]float32{{1, 2, 3}})
	require.NoError(t, err)
	s2, err := streamline.New([][]float32{{4, 6, 3}})
	require.NoError(t, err)

	d, err := Dist(NewAveragePointwiseEuclideanMetric(nil), s1, s2)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-6)
}

func TestDist_PropagatesFeatureErrors(t *testing.T) {
	type empty struct{ feature.Base }
	m := NewAveragePointwiseEuclideanMetric(empty{})

	_, err := Dist(m, ramp(t), ramp(t))
	assert.ErrorIs(t, err, errors.ErrNotImplemented)

	_, err = Dist(nil, ramp(t), ramp(t))
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
}

func TestName(t *testing.T) {
	assert.Equal(t, "average_pointwise_euclidean", Name(NewAveragePointwiseEuclideanMetric(nil)))
	assert.Equal(t, "*metric.chebyshev", Name(&chebyshev{}))
}

// chebyshev is a user metric over raw streamlines: the largest coordinate
// difference anywhere.
type chebyshev struct{}

func (*chebyshev) Feature() feature.Feature { return feature.NewIdentityFeature() }

func (*chebyshev) AreCompatible(a, b streamline.Shape) bool { return a.Equal(b) }

func (c *chebyshev) Dist(a, b feature.Array) (float64, error) {
	if !c.AreCompatible(a.Shape(), b.Shape()) {
		return 0, errors.NewDimensionMismatchError("chebyshev.Dist", a.Shape(), b.Shape())
	}
	var best float64
	for r := 0; r < a.Shape().Rows; r++ {
		for col := 0; col < a.Shape().Cols; col++ {
			best = math.Max(best, math.Abs(a.At(r, col)-b.At(r, col)))
		}
	}
	return best, nil
}

func TestDistanceMatrix_UserMetric(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	ss := make([]streamline.Streamline, 6)
	for i := range ss {
		ss[i] = randomStreamline(t, rng, 4, 3)
	}

	m := &chebyshev{}
	got, err := DistanceMatrix(context.Background(), m, ss, nil)
	require.NoError(t, err)
	for i := range ss {
		for j := range ss {
			want, err := Dist(m, ss[i], ss[j])
			require.NoError(t, err)
			assert.Equal(t, want, got[i][j])
		}
	}
}
