package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"prfeed/internal/events"
)

const maxEventBytes = 64 << 10

// EventHandler accepts domain events from producers and broadcasts them.
type EventHandler struct {
	notifier *events.Notifier
	log      zerolog.Logger
}

func NewEventHandler(notifier *events.Notifier, log zerolog.Logger) *EventHandler {
	return &EventHandler{notifier: notifier, log: log}
}

func (h *EventHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/events", h.publish)
}

// publish takes the originating session from the request itself when the
// producer forwards the user's header or query, falling back to the body.
func (h *EventHandler) publish(w http.ResponseWriter, r *http.Request) {
	env, err := events.DecodeEnvelope(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if session := sessionFromRequest(r); session != "" {
		env.SessionID = session
	}

	ev, err := env.Event()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sent, err := h.notifier.Notify(ev)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, events.ErrUnsupportedEvent) ||
			errors.Is(err, events.ErrInvalidChange) ||
			errors.Is(err, events.ErrMissingTopic) ||
			errors.Is(err, events.ErrMissingEntity) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]int{"clients": sent})
}
