package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"sjsage522/propertyscraper/logger"
)

// LoggerMiddleware logs one line per finished request
func LoggerMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			startTime := time.Now()

			next.ServeHTTP(ww, r)

			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("http_method", r.Method).
				Str("http_path", r.URL.Path).
				Int("status_code", ww.Status()).
				Int("bytes_written", ww.BytesWritten()).
				Int64("duration_ms", time.Since(startTime).Milliseconds()).
				Msg("request finished")
		})
	}
}
