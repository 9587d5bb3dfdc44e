package quotes_api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Instrument counts requests by route pattern and writes an access log line.
// The request logger carries the chi request id when one is set.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			l := logger.Get().With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			r = r.WithContext(logger.NewContext(r.Context(), &l))

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if m != nil {
				m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			}
			l.Debug().
				Str("method", r.Method).
				Str("route", route).
				Int("status", status).
				Dur("took", time.Since(start)).
				Msg("http request")
		})
	}
}
