package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/geotoken/internal/pkg/config"
	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// maxLoggedBody caps how much of a request or response body is logged.
const maxLoggedBody = 16 << 10

const (
	masked               = "***"
	headerIdempotencyKey = "Idempotency-Key"
)

var (
	attrErrorCode      = attribute.Key("geotoken.error.code")
	attrIdempotencyKey = attribute.Key("geotoken.idempotency_key")
)

// secretFields never reach the logs: OTP codes, bearer credentials and the
// Authorization header.
var secretFields = []string{"otp", "authtoken", "authorization"}

// masker hides sensitive JSON fields and headers, matched case-insensitively.
type masker map[string]struct{}

func newMasker(cfg config.Config) masker {
	m := masker{}
	for _, f := range secretFields {
		m[f] = struct{}{}
	}
	if cfg != nil {
		for _, f := range cfg.GetArray("instrument.log_mask_fields") {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				m[f] = struct{}{}
			}
		}
	}
	return m
}

func (m masker) hides(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m masker) headers(h http.Header) http.Header {
	out := h.Clone()
	for key := range out {
		if m.hides(key) {
			out.Set(key, masked)
		}
	}
	return out
}

func (m masker) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.hides(k) {
				out[k] = masked
				continue
			}
			out[k] = m.value(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.value(inner)
		}
		return out
	default:
		return v
	}
}

// body renders a captured body for logging. JSON is masked, other text is
// logged as is and binary payloads are omitted.
func (m masker) body(b []byte, truncated bool) any {
	if len(b) == 0 {
		return nil
	}

	var out any
	var decoded any
	switch {
	case json.Unmarshal(b, &decoded) == nil:
		out = m.value(decoded)
	case utf8.Valid(b):
		out = string(b)
	default:
		return "<binary body omitted>"
	}

	if truncated {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}

// peekBody reads up to maxLoggedBody bytes and puts them back in front of the
// remaining stream so handlers still see the whole body.
func peekBody(r *http.Request) (head []byte, truncated bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	//nolint:errcheck // logging only
	head, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))

	if len(head) > maxLoggedBody {
		return head[:maxLoggedBody], true
	}
	return head, false
}

// responseRecorder captures status, size, the first maxLoggedBody bytes and
// the handler error reported through SetError.
type responseRecorder struct {
	http.ResponseWriter
	status    int
	size      int
	body      bytes.Buffer
	truncated bool
	err       error
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBody - w.body.Len(); room < len(p) {
		w.body.Write(p[:max(room, 0)])
		w.truncated = true
	} else {
		w.body.Write(p)
	}

	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

func (w *responseRecorder) SetError(err error) {
	w.err = err
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// routeOf returns the registered pattern, e.g. /control-tokens, so metrics
// stay low-cardinality. Unmatched requests fall back to the raw path.
func routeOf(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

// requestAttrs labels spans and metrics. The error code is the goerror code
// of a failed handler, e.g. ERROR_CODE_SESSION_EXPIRED on /get-tokens.
func requestAttrs(r *http.Request, route string, rec *responseRecorder) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
		semconv.HTTPResponseStatusCodeKey.Int(rec.statusCode()),
	}
	if rec.err != nil {
		attrs = append(attrs, attrErrorCode.String(goerror.CodeOf(rec.err).String()))
	}
	return attrs
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	mask := newMasker(cfg)
	tracer := ins.Tracer("geotoken.http")
	meter := ins.Meter("geotoken.http")

	requests, err := meter.Int64Counter("geotoken.http.requests",
		metric.WithDescription("API requests by route and outcome"))
	if err != nil {
		slog.Error("failed to create geotoken.http.requests counter", "error", err)
	}

	latency, err := meter.Float64Histogram("geotoken.http.latency",
		metric.WithDescription("API request latency"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create geotoken.http.latency histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := routeOf(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.UserAgentOriginal(r.UserAgent()),
					attrIdempotencyKey.Bool(r.Header.Get(headerIdempotencyKey) != ""),
				),
			)
			defer span.End()

			reqBody, reqTruncated := peekBody(r)
			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"route", route,
				"uri", r.RequestURI,
				"headers", mask.headers(r.Header),
				"body", mask.body(reqBody, reqTruncated),
			)

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := requestAttrs(r, route, rec)

			span.SetAttributes(attrs...)
			span.SetAttributes(attribute.Int("http.response.body.size", rec.size))
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if latency != nil {
				latency.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.Log(ctx, level, "response sent",
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", rec.size,
				"latency_ms", elapsed.Milliseconds(),
				"body", mask.body(rec.body.Bytes(), rec.truncated),
			)
		})
	}
}
