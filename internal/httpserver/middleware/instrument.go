package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/velic0/game-telemetry/internal/metrics"
)

// Instrument records request count and duration under a stable handler
// name.
func Instrument(met *metrics.Metrics, handlerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(sr, r)

			if sr.status == 0 {
				sr.status = http.StatusOK
			}
			met.HTTPDuration.WithLabelValues(handlerName, r.Method).Observe(time.Since(start).Seconds())
			met.HTTPRequests.WithLabelValues(handlerName, r.Method, strconv.Itoa(sr.status)).Inc()
		}
		return http.HandlerFunc(fn)
	}
}
