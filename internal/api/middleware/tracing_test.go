package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingNamesSpansByRoute(t *testing.T) {
	req := require.New(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := chi.NewRouter()
	r.Use(Tracing("nexthire-test"))
	r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		req.True(trace.SpanContextFromContext(r.Context()).IsValid())
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := recorder.Ended()
	req.Len(spans, 2)
	req.Equal("GET /jobs/{id}", spans[0].Name())
	req.Equal(trace.SpanKindServer, spans[0].SpanKind())
	req.Equal(codes.Unset, spans[0].Status().Code)
	req.Equal(codes.Error, spans[1].Status().Code)
}
