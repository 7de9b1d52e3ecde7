package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/handler"
)

// Recover turns a panicking handler into a 500 response. http.ErrAbortHandler
// is re-raised so the server can abort the connection as intended.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					"panic", fmt.Sprint(rec),
					"path", r.URL.Path,
					"method", r.Method,
					"stack", string(debug.Stack()),
				)
				handler.ErrorResponse(w, r, logger, domain.Internal(fmt.Errorf("panic: %v", rec), "", "An unexpected error occurred"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
