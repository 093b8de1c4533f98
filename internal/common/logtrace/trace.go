package logtrace

import (
	"context"
	"os"
)

// IsTraceEnabled reports whether route tracing diagnostics are enabled via
// the GRIDLINE_TRACE environment variable.
func IsTraceEnabled() bool {
	return os.Getenv("GRIDLINE_TRACE") != ""
}

type requestIdContextKey string

// RequestIdKey is the context key under which the request logger middleware
// stores the request id.
const RequestIdKey = requestIdContextKey("requestId")

// RequestIdFromContext extracts the request ID from the context.
// Returns an empty string if the context is nil or carries no request ID.
func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, ok := ctx.Value(RequestIdKey).(string)
	if !ok {
		return ""
	}
	return r
}
