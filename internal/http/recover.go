package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"finadvisor/internal/log"
)

// recoverJSON converts a handler panic into a 500 with a JSON detail made of
// prefix and the panic value. http.ErrAbortHandler is re-raised.
func recoverJSON(prefix string) func(http.Handler) http.Handler {
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

				log.FromContext(r.Context()).ErrorContext(r.Context(), "Panic recovered",
					log.FieldError, fmt.Sprint(rec),
					log.FieldErrorType, log.ErrorTypeInternal,
					log.FieldPath, r.URL.Path,
					"stack", string(debug.Stack()))

				writeError(w, http.StatusInternalServerError, prefix+fmt.Sprint(rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
