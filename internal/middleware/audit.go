package middleware

import (
	"net/http"
	"strings"

	logpkg "github.com/benvon/smart-tasks/internal/logger"
	"github.com/benvon/smart-tasks/internal/request"
	"go.uber.org/zap"
)

// Audit logs destructive operations and rate limit violations
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			fields := func() []zap.Field {
				return []zap.Field{
					zap.Int("status_code", rec.statusCode),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxIDLength)),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
				}
			}

			if rec.statusCode == http.StatusTooManyRequests {
				logger.Warn("rate_limit_violation", fields()...)
				return
			}
			if isDestructive(r) && rec.statusCode < http.StatusBadRequest {
				logger.Info("audit_destructive_operation", fields()...)
			}
		})
	}
}

// isDestructive reports whether the request removes data or replaces it wholesale
func isDestructive(r *http.Request) bool {
	if r.Method == http.MethodDelete {
		return true
	}
	if r.Method != http.MethodPost {
		return false
	}
	return strings.HasSuffix(r.URL.Path, "/batch-delete") || strings.HasSuffix(r.URL.Path, "/sync/reload")
}
