package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"prfeed/internal/events"
	"prfeed/pkg/realtime"
)

// NewRouter wires every prfeed route. Event streams are long-lived and are
// kept out of the request timeout.
func NewRouter(registry *realtime.Registry, clock clockwork.Clock, opts StreamOptions, log zerolog.Logger) chi.Router {
	notifier := events.NewNotifier(registry, log.With().Str("component", "notifier").Logger())

	streamHandler := NewStreamHandler(registry, clock, opts, log.With().Str("component", "stream").Logger())
	eventHandler := NewEventHandler(notifier, log.With().Str("component", "events").Logger())
	statusHandler := NewStatusHandler(registry)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log.With().Str("component", "http").Logger()))
	r.Use(middleware.Recoverer)

	streamHandler.RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		eventHandler.RegisterRoutes(r)
		statusHandler.RegisterRoutes(r)
	})

	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
