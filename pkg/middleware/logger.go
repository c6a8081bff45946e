package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// NewStructuredLogger logs one structured line per request. Admin-gated
// requests carry the claimed admin id so reward and ledger mutations can be
// traced back to an operator.
func NewStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			defer func() {
				status := ww.Status()

				requestAttrs := []any{
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				}
				if adminID := r.Header.Get("X-Admin-Id"); adminID != "" {
					requestAttrs = append(requestAttrs, slog.String("admin_id", adminID))
				}

				attrs := []any{
					slog.Group("request", requestAttrs...),
					slog.Group("response",
						slog.Int("status", status),
						slog.Int("bytes", ww.BytesWritten()),
						slog.String("latency", time.Since(start).String()),
					),
				}

				switch {
				case status >= 500:
					logger.Error("server error", attrs...)
				case status >= 400:
					logger.Warn("request rejected", attrs...)
				default:
					logger.Info("request completed", attrs...)
				}
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
