package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout is 30 seconds
const DefaultRequestTimeout = 30 * time.Second

// Timeout cancels the request context and answers 503 when a handler runs past timeout
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, `{"success":false,"error":"Service Unavailable","message":"Request Timeout"}`)
	}
}
