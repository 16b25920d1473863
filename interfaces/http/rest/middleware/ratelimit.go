package middleware

import (
	"net"
	"net/http"

	"degrees/pkg/auth"
	pkgerrors "degrees/pkg/errors"
)

// RateLimit applies the per-client token buckets. onLimited runs for every
// rejected request and may be nil.
func RateLimit(limiter *auth.RateLimiter, perMinute int, errs *pkgerrors.ErrorHandler, onLimited func()) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow(clientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if onLimited != nil {
				onLimited()
			}
			w.Header().Set("Retry-After", "60")
			errs.Handle(w, r, pkgerrors.NewRateLimitError(perMinute, "minute"))
		})
	}
}

// clientKey is the client IP. RealIP has already rewritten RemoteAddr from
// the forwarding headers.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
