package backend

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTracedClient(t *testing.T, status int, body string) (*Client, *tracetest.SpanRecorder, func() []string) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var mu sync.Mutex
	parents := []string{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		parents = append(parents, r.Header.Get("traceparent"))
		mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	},
		WithTracerProvider(provider),
		WithPropagator(propagation.TraceContext{}),
	)

	return c, recorder, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string{}, parents...)
	}
}

func TestClient_HelloSpan(t *testing.T) {
	c, recorder, parents := newTracedClient(t, http.StatusOK, `{"message":"Hello"}`)

	_, err := c.Hello(context.Background())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/hello", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)

	seen := parents()
	require.Len(t, seen, 1)
	require.NotEmpty(t, seen[0], "traceparent header was not sent")
	assert.Contains(t, seen[0], spans[0].SpanContext().TraceID().String())
}

func TestClient_HelloSpanRecordsError(t *testing.T) {
	c, recorder, _ := newTracedClient(t, http.StatusInternalServerError, `oops`)

	_, err := c.Hello(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEmpty(t, spans[0].Events(), "error was not recorded on the span")
}

func TestClient_SpanPerCall(t *testing.T) {
	c, recorder, parents := newTracedClient(t, http.StatusOK, `{"message":"Hello"}`)

	for range 3 {
		_, err := c.Hello(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, recorder.Ended(), 3)
	assert.Len(t, parents(), 3)
}
