// Package middleware holds the cross-cutting HTTP wrappers: trace
// propagation, per-IP rate limiting, and request metrics.
package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/metrics"
)

// Trace puts a trace id on every request. An incoming X-Trace-Id is
// honored so callers can correlate across services; otherwise one is
// minted here. The id travels in the context and is echoed back in the
// response header.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace := r.Header.Get("X-Trace-Id")
		if trace == "" {
			trace = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), config.TraceIDKey, trace)
		w.Header().Set("X-Trace-Id", trace)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestMetrics counts every request by path and final status code.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HTTPStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	})
}
