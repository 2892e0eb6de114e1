package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

const (
	requestIDHeader    = "X-Request-Id"
	cloudTraceHeader   = "X-Cloud-Trace-Context"
	maxInboundTraceLen = 128
)

var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{8,128}$`)

// RequestID tags each request with a trace id for the logs. It has nothing
// to do with the Qnnnn quotation ids written to the sheets.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := inboundTraceID(r.Header)
			w.Header().Set(requestIDHeader, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// inboundTraceID prefers the caller's X-Request-Id, then the trace part of
// the load balancer's X-Cloud-Trace-Context ("TRACE/SPAN;o=1"), and mints a
// uuid when neither looks sane.
func inboundTraceID(h http.Header) string {
	if id := strings.TrimSpace(h.Get(requestIDHeader)); traceIDPattern.MatchString(id) {
		return id
	}
	if raw := h.Get(cloudTraceHeader); raw != "" && len(raw) <= maxInboundTraceLen {
		trace, _, _ := strings.Cut(raw, "/")
		if traceIDPattern.MatchString(trace) {
			return trace
		}
	}
	return uuid.NewString()
}
