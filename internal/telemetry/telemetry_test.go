package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracerProvider_Writer(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var buf bytes.Buffer
	shutdown, err := InitTracerProvider(ctx, Config{
		ServiceName:    "tractfeat-test",
		ServiceVersion: "0.0.1",
		Output:         &buf,
		SampleRatio:    1.0,
	})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(ctx, "test-span")
	span.End()

	require.NoError(t, shutdown(ctx))
	assert.Contains(t, buf.String(), "test-span")
	assert.Contains(t, buf.String(), "tractfeat-test")
}

func TestInitTracerProvider_Disabled(t *testing.T) {
	shutdown, err := InitTracerProvider(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracerProvider_BadRatio(t *testing.T) {
	var buf bytes.Buffer
	_, err := InitTracerProvider(context.Background(), Config{Output: &buf, SampleRatio: 2})
	assert.Error(t, err)
}
