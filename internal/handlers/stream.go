package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"prfeed/internal/sse"
	"prfeed/pkg/realtime"
)

// StreamOptions tunes the event streams handed out to subscribers.
type StreamOptions struct {
	Heartbeat  time.Duration
	Retry      time.Duration
	OutboxSize int
}

// StreamHandler serves the per-pull-request event streams.
type StreamHandler struct {
	registry *realtime.Registry
	clock    clockwork.Clock
	opts     StreamOptions
	log      zerolog.Logger
}

func NewStreamHandler(registry *realtime.Registry, clock clockwork.Clock, opts StreamOptions, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{registry: registry, clock: clock, opts: opts, log: log}
}

func (h *StreamHandler) RegisterRoutes(r chi.Router) {
	r.Get("/repositories/{repository}/pull-requests/{pullRequest}/events", h.stream)
}

func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request) {
	topic := realtime.Topic{
		Repository:  chi.URLParam(r, "repository"),
		PullRequest: chi.URLParam(r, "pullRequest"),
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sink := sse.NewSink(h.opts.OutboxSize, h.opts.Heartbeat, h.clock)
	client, err := h.registry.Resolve(topic).Register(realtime.Registration{
		Sink:      sink,
		SessionID: sessionFromRequest(r),
	})
	if err != nil {
		http.Error(w, "subscribe failed", http.StatusInternalServerError)
		return
	}

	log := h.log.With().Str("topic", topic.String()).Str("client", client.ID()).Logger()
	log.Debug().Str("session", string(client.SessionID())).Msg("stream opened")

	if err := sse.WriteRetry(w, h.opts.Retry); err != nil {
		client.Close()
		return
	}
	flusher.Flush()

	if err := sink.Serve(r.Context(), w); err != nil {
		log.Debug().Err(err).Msg("stream failed")
	}
	log.Debug().Msg("stream closed")
}
