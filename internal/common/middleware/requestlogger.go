package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/logtrace"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Seatbelt-Request-ID"

// RequestLogger is a middleware that logs the request details and adds a unique request ID to the context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := newRequestId()
		ctx := logtrace.WithRequestId(r.Context(), requestID)
		ctx = log.With().Str("request_id", requestID).Logger().WithContext(ctx)
		w.Header().Set(RequestIDHeader, requestID)

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		requestURL := fmt.Sprintf("%s://%s%s", scheme, r.Host, r.RequestURI)

		rw := httpx.NewResponseWriter(w)
		start := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))

		log.Ctx(ctx).Info().
			Str("requestURL", requestURL).
			Str("requestMethod", r.Method).
			Str("requestPath", r.URL.Path).
			Str("remoteIP", r.RemoteAddr).
			Int("status", rw.Status()).
			Dur("duration", time.Since(start)).
			Msg("")
	})
}

// newRequestId returns a UUIDv7, so request ids sort by arrival time.
func newRequestId() string {
	u, err := uuid.NewV7()
	if err != nil {
		return ""
	}
	return u.String()
}
