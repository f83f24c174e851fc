package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/phrazzld/keystone-api/internal/api/shared"
	"github.com/phrazzld/keystone-api/internal/platform/logger"
)

// PanicDetails is the developer exception body.
type PanicDetails struct {
	Panic  string `json:"panic"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Stack  string `json:"stack"`
}

// DeveloperExceptionPage recovers panics and returns their value and stack
// in the JSON error body. Mount it only in development.
func DeveloperExceptionPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			stack := string(debug.Stack())
			logger.FromContextOrDefault(r.Context(), slog.Default()).Error("panic recovered",
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", stack)

			shared.RespondWithErrorDetails(w, r, http.StatusInternalServerError, "Internal server error", PanicDetails{
				Panic:  fmt.Sprint(rec),
				Method: r.Method,
				Path:   r.URL.Path,
				Stack:  stack,
			})
		}()

		next.ServeHTTP(w, r)
	})
}
