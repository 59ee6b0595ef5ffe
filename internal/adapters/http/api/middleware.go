package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/medreach/vitalguard/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error metrics
// for a handler under the given endpoint label.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsedMs := float64(time.Since(start).Milliseconds())
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, elapsedMs)

		if rec.status >= http.StatusBadRequest {
			errType, severity := classifyStatus(rec.status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errType)
			metrics.RecordErrorByType(errType, severity)
			metrics.RecordErrorLatency("http", errType, elapsedMs)
		}
	}
}

// classifyStatus maps an HTTP error status to the error type and
// severity labels used by the error metrics.
func classifyStatus(status int) (errType, severity string) {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", "high"
	case status == http.StatusTooManyRequests:
		return "rate_limit", "medium"
	case status == http.StatusNotFound:
		return "not_found", "medium"
	case status >= http.StatusBadRequest:
		return "client_error", "medium"
	default:
		return "unknown", "low"
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}
