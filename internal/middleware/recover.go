package middleware

import (
	"net/http"
	"runtime/debug"

	"livestock-tracking/internal/platform/logger"
	"livestock-tracking/internal/platform/respond"
)

// Recover convierte un panic en 500 y lo loguea con el request id.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// http.ErrAbortHandler se re-lanza: net/http lo usa para cortar la conexión.
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered", map[string]any{
					"panic":      rec,
					"request_id": GetRequestID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"stack":      string(debug.Stack()),
				})
				respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
