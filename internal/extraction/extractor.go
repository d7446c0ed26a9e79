// Package extraction applies one Feature to a collection of streamlines.
//
// The driver sizes every output slot from InferShape, runs Extract for each
// streamline on a bounded set of goroutines, verifies the extracted shape
// against the declared one and narrows the result to float32. When all
// declared shapes agree the items are packed into a single dense slice
// (*Uniform); otherwise each item keeps its own array (*Ragged).
package extraction

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"math/bits"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/feature"
	"github.com/23skdu/tractfeat/internal/metrics"
	"github.com/23skdu/tractfeat/internal/streamline"
)

const tracerName = "github.com/23skdu/tractfeat/internal/extraction"

// Config holds batch extraction configuration
type Config struct {
	// Workers bounds concurrent Extract calls. 0 means GOMAXPROCS.
	Workers int `envconfig:"EXTRACT_WORKERS" default:"0"`
}

// DefaultConfig returns a Config using every available core
func DefaultConfig() Config {
	return Config{Workers: 0}
}

// Extractor runs batch extractions. It holds no per-call state and may be
// shared between goroutines.
type Extractor struct {
	workers int
	logger  zerolog.Logger
}

func NewExtractor(cfg Config, logger zerolog.Logger) *Extractor {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Extractor{
		workers: workers,
		logger:  logger.With().Str("component", "extraction").Logger(),
	}
}

// Workers returns the effective concurrency bound.
func (e *Extractor) Workers() int { return e.workers }

var defaultExtractor = NewExtractor(DefaultConfig(), zerolog.Nop())

// Extract applies f to every streamline with the default Extractor.
func Extract(ctx context.Context, f feature.Feature, streamlines []streamline.Streamline) (Table, error) {
	return defaultExtractor.Extract(ctx, f, streamlines)
}

// Extract applies f to every streamline. The context is checked before each
// streamline; Extract calls already running are not interrupted.
func (e *Extractor) Extract(ctx context.Context, f feature.Feature, streamlines []streamline.Streamline) (Table, error) {
	name := feature.Name(f)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Extractor.Extract")
	span.SetAttributes(
		attribute.String("feature", name),
		attribute.Int("streamlines", len(streamlines)),
	)
	defer span.End()

	start := time.Now()
	table, err := e.extract(ctx, f, name, streamlines)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if kind := errors.TypeOf(err); kind == errors.ErrorTypeNotImplemented || kind == errors.ErrorTypeShapeMismatch {
			metrics.ContractViolationsTotal.WithLabelValues(string(kind)).Inc()
			e.logger.Warn().Err(err).Str("feature", name).Msg("feature violated its contract")
		}
		return nil, err
	}

	metrics.ExtractionStreamlinesTotal.WithLabelValues(name).Add(float64(len(streamlines)))
	metrics.ExtractionTablesTotal.WithLabelValues(table.Layout()).Inc()
	metrics.ExtractionDurationSeconds.WithLabelValues(name, table.Layout()).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("layout", table.Layout()))

	e.logger.Debug().
		Str("feature", name).
		Int("streamlines", len(streamlines)).
		Str("layout", table.Layout()).
		Dur("elapsed", time.Since(start)).
		Msg("batch extracted")
	return table, nil
}

func (e *Extractor) extract(ctx context.Context, f feature.Feature, name string, streamlines []streamline.Streamline) (Table, error) {
	if f == nil {
		return nil, errors.NewValidationError("extraction.Extract", "nil feature")
	}

	shapes := make([]streamline.Shape, len(streamlines))
	uniform := len(streamlines) > 0
	for i, s := range streamlines {
		shape, err := f.InferShape(s)
		if err != nil {
			return nil, annotate(err, i, name)
		}
		if !fits(shape.Rows, shape.Cols) {
			return nil, invalidShape(shape, name).WithContext("index", i)
		}
		shapes[i] = shape
		if !shape.Equal(shapes[0]) {
			uniform = false
		}
	}

	var (
		dense  *Uniform
		ragged *Ragged
	)
	if uniform {
		if !fits(len(streamlines), shapes[0].Size()) {
			return nil, invalidShape(shapes[0], name).WithContext("streamlines", len(streamlines))
		}
		dense = newUniform(len(streamlines), shapes[0])
	} else {
		ragged = newRagged(len(streamlines))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	launched := 0
	for i := range streamlines {
		if gctx.Err() != nil {
			break
		}
		launched++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			arr, err := f.Extract(streamlines[i])
			if err != nil {
				return annotate(err, i, name)
			}
			if !arr.Shape().Equal(shapes[i]) {
				return errors.NewShapeMismatchError("extraction.Extract", shapes[i], arr.Shape()).
					WithContext("index", i).
					WithContext("feature", name)
			}
			if dense != nil {
				copy(dense.slot(i), arr.Float32().Data32())
			} else {
				ragged.items[i] = owned32(arr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if launched < len(streamlines) {
		// stopped early on cancellation without any goroutine observing it
		return nil, context.Cause(ctx)
	}

	if dense != nil {
		return dense, nil
	}
	return ragged, nil
}

// maxElements bounds the float32 count of a single allocation.
const maxElements = math.MaxInt / 4

// fits reports whether a and b are non-negative and a*b is within maxElements.
func fits(a, b int) bool {
	if a < 0 || b < 0 {
		return false
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	return hi == 0 && lo <= maxElements
}

// invalidShape reports a declared shape no Array can have.
func invalidShape(shape streamline.Shape, name string) *errors.StructuredError {
	return errors.Wrap(errors.ErrShapeMismatch, errors.ErrorTypeShapeMismatch, "extraction.Extract",
		fmt.Sprintf("declared shape %s is not a valid array shape", shape)).
		WithContext("declared", shape.String()).
		WithContext("feature", name)
}

// owned32 narrows a to float32, copying when a was already float32 so the
// table never aliases memory handed out by the feature.
func owned32(a feature.Array) feature.Array {
	if a.DType() != feature.Float32 {
		return a.Float32()
	}
	data := make([]float32, len(a.Data32()))
	copy(data, a.Data32())
	out, _ := feature.NewArray32(data, a.Shape().Rows, a.Shape().Cols)
	return out
}

// annotate attaches the streamline index to errors returned by a feature.
func annotate(err error, i int, name string) error {
	var se *errors.StructuredError
	if stderrors.As(err, &se) {
		annotated := *se
		annotated.Context = make(map[string]interface{}, len(se.Context)+2)
		for k, v := range se.Context {
			annotated.Context[k] = v
		}
		return annotated.WithContext("index", i).WithContext("feature", name)
	}
	return errors.WrapComputationError(err, "extraction.Extract", fmt.Sprintf("feature %s failed on streamline %d", name, i)).
		WithContext("index", i).
		WithContext("feature", name)
}
