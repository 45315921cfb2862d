package observability

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"agri-advisor/internal/common/logger"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartSpan_RecordsAttributes(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "tool.call", attribute.String("tool", "get_forecast"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.call", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("tool", "get_forecast"))
}

func TestInjectTraceparent(t *testing.T) {
	installRecorder(t)

	req, _ := http.NewRequest(http.MethodPost, "http://tool/mcp", nil)
	InjectTraceparent(context.Background(), req)
	assert.Empty(t, req.Header.Get("traceparent"))

	ctx, span := StartSpan(context.Background(), "orchestrate")
	defer span.End()
	InjectTraceparent(ctx, req)
	assert.Regexp(t, regexp.MustCompile(`^00-[0-9a-f]{32}-[0-9a-f]{16}-01$`), req.Header.Get("traceparent"))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
