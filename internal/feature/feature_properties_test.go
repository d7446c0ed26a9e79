package feature

import (
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/23skdu/tractfeat/internal/streamline"
)

func randomStreamline(n, d int, seed int64) streamline.Streamline {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float32, n*d)
	for i := range data {
		data[i] = rng.Float32()*200 - 100
	}
	s, _ := streamline.FromFlat(data, n, d)
	return s
}

func builtins() []Feature {
	resample, _ := NewResampleFeature(12)
	return []Feature{
		NewIdentityFeature(), NewCenterOfMassFeature(), NewMidpointFeature(),
		NewArcLengthFeature(), NewVectorOfEndpointsFeature(), resample,
		newUserIdentity(), newUserCenterOfMass(),
	}
}

// TestFeatureProperties validates the shape and orientation contracts of
// every built-in feature using property-based testing.
func TestFeatureProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: Extract produces exactly the inferred shape
	properties.Property("Extract shape equals InferShape", prop.ForAll(
		func(n, d int, seed int64) bool {
			s := randomStreamline(n, d, seed)
			for _, f := range builtins() {
				shape, err := f.InferShape(s)
				if err != nil {
					return false
				}
				got, err := f.Extract(s)
				if err != nil || !got.Shape().Equal(shape) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 5),
		gen.Int64(),
	))

	// Property: order-invariant features ignore reversal within tolerance
	properties.Property("order-invariant features ignore reversal", prop.ForAll(
		func(n, d int, seed int64) bool {
			s := randomStreamline(n, d, seed)
			for _, f := range builtins() {
				if !f.IsOrderInvariant() {
					continue
				}
				a, errA := f.Extract(s)
				b, errB := f.Extract(s.Reverse())
				if errA != nil || errB != nil {
					return false
				}
				for r := 0; r < a.Shape().Rows; r++ {
					for c := 0; c < a.Shape().Cols; c++ {
						if math.Abs(a.At(r, c)-b.At(r, c)) > 1e-3 {
							return false
						}
					}
				}
			}
			return true
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 5),
		gen.Int64(),
	))

	// Property: identity of a reversed streamline is the reversed identity
	properties.Property("identity commutes with reversal", prop.ForAll(
		func(n, d int, seed int64) bool {
			s := randomStreamline(n, d, seed)
			f := NewIdentityFeature()
			a, _ := f.Extract(s)
			b, _ := f.Extract(s.Reverse())
			return b.Equal(a.Reverse())
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 5),
		gen.Int64(),
	))

	// Property: extraction is deterministic
	properties.Property("Extract is deterministic", prop.ForAll(
		func(n, d int, seed int64) bool {
			s := randomStreamline(n, d, seed)
			for _, f := range builtins() {
				a, _ := f.Extract(s)
				b, _ := f.Extract(s)
				if !a.Equal(b) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 5),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
