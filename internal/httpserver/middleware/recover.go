package middleware

import (
	"net/http"

	"github.com/velic0/game-telemetry/internal/jsonlog"
)

func Recover(logger *jsonlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorWithTrace(errFromPanic(rec), jsonlog.Fields{
						"request_id": GetRequestID(r.Context()),
						"method":     r.Method,
						"path":       r.URL.Path,
					})
					writeError(w, http.StatusInternalServerError, "InternalError", "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

type panicError struct{ msg string }

func (e panicError) Error() string { return e.msg }

func errFromPanic(rec any) error {
	switch v := rec.(type) {
	case error:
		return v
	case string:
		return panicError{msg: v}
	default:
		return panicError{msg: "panic"}
	}
}
