package middleware

import (
	"net/http"
	"strconv"
	"time"

	"livestock-tracking/internal/platform/metrics"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func Metrics(m *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.InFlight.Inc()
			defer m.InFlight.Dec()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := routePattern(r)
			m.RequestLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			m.RequestTotal.WithLabelValues(r.Method, route, strconv.Itoa(status(ww))).Inc()
		})
	}
}
