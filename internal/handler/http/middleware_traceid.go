package http

import (
	"net/http"

	"github.com/MKhiriev/wallet-cloud-sync/internal/tracing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/propagation"
)

const traceIDHeader = "X-Trace-ID"

// withTraceID continues the caller's trace context, opens a server span and
// attaches a request-scoped logger carrying trace_id. Without a sampled
// remote span the X-Trace-ID header (or a fresh UUID) is used instead.
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := h.tracer.StartServerRequest(ctx, r.Method, r.URL.Path)

		traceID := r.Header.Get(traceIDHeader)
		if sc := span.SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		l := h.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})
		r = r.WithContext(l.WithContext(ctx))

		rw := &responseWriter{ResponseWriter: w}
		rw.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(rw, r)

		tracing.EndRequest(span, rw.statusOrOK(), nil)
	})
}
