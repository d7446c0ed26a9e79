package metric

import (
	"context"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/extraction"
	"github.com/23skdu/tractfeat/internal/streamline"
)

// Dist extracts m's feature from both streamlines and compares the results.
// It only goes through the Feature and Metric interfaces, so it returns
// exactly what the manual Extract, Extract, Dist sequence returns.
func Dist(m Metric, s1, s2 streamline.Streamline) (float64, error) {
	if m == nil {
		return 0, errors.NewValidationError("metric.Dist", "nil metric")
	}
	f := m.Feature()
	a, err := f.Extract(s1)
	if err != nil {
		return 0, err
	}
	b, err := f.Extract(s2)
	if err != nil {
		return 0, err
	}
	return m.Dist(a, b)
}

// DistanceMatrix returns the |a| x |b| matrix of m distances. Each
// collection is batch-extracted once; rows are then filled in parallel.
// A nil b compares a against itself and only evaluates the upper triangle,
// diagonal included.
func DistanceMatrix(ctx context.Context, m Metric, a, b []streamline.Streamline) ([][]float64, error) {
	if m == nil {
		return nil, errors.NewValidationError("metric.DistanceMatrix", "nil metric")
	}
	self := b == nil

	ctx, span := otel.Tracer("github.com/23skdu/tractfeat/internal/metric").Start(ctx, "DistanceMatrix")
	span.SetAttributes(
		attribute.String("metric", Name(m)),
		attribute.Int("rows", len(a)),
		attribute.Bool("self", self),
	)
	defer span.End()

	left, err := extraction.Extract(ctx, m.Feature(), a)
	if err != nil {
		return nil, err
	}
	right := left
	if !self {
		if right, err = extraction.Extract(ctx, m.Feature(), b); err != nil {
			return nil, err
		}
	}

	out := make([][]float64, left.Len())
	for i := range out {
		out[i] = make([]float64, right.Len())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < left.Len(); i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := 0
			if self {
				start = i
			}
			for j := start; j < right.Len(); j++ {
				d, err := m.Dist(left.At(i), right.At(j))
				if err != nil {
					return annotatePair(err, i, j)
				}
				out[i][j] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if self {
		for i := range out {
			for j := i + 1; j < len(out); j++ {
				out[j][i] = out[i][j]
			}
		}
	}
	return out, nil
}

func annotatePair(err error, i, j int) error {
	kind := errors.TypeOf(err)
	if kind == "" {
		kind = errors.ErrorTypeComputation
	}
	return errors.Wrap(err, kind, "metric.DistanceMatrix",
		fmt.Sprintf("pair (%d, %d)", i, j)).
		WithContext("row", i).
		WithContext("col", j)
}
