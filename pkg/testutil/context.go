package testutil

import (
	"net/http"
	"time"

	"veritag/pkg/requestcontext"
)

// WithClientMetadata stamps the request context with a client IP and user
// agent, simulating the metadata middleware.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent)
	return req.WithContext(ctx)
}

// WithRequestID stamps the request context with a request ID.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}

// WithFrozenTime pins the request clock, simulating the time middleware.
func WithFrozenTime(req *http.Request, at time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), at)
	return req.WithContext(ctx)
}
