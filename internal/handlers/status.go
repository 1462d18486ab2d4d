package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"prfeed/internal/viewmodel"
	"prfeed/internal/views"
	"prfeed/pkg/realtime"
)

type StatusHandler struct {
	registry *realtime.Registry
}

func NewStatusHandler(registry *realtime.Registry) *StatusHandler {
	return &StatusHandler{registry: registry}
}

func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.redirect)
	r.Get("/channels", h.page)
	r.Get("/api/channels", h.stats)
	r.Get("/healthz", h.health)
}

func (h *StatusHandler) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/channels", http.StatusSeeOther)
}

func (h *StatusHandler) page(w http.ResponseWriter, r *http.Request) {
	render(w, r, views.StatusPage(viewmodel.NewStatusPage(h.registry.Stats())))
}

func (h *StatusHandler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, viewmodel.NewStatusPage(h.registry.Stats()))
}

func (h *StatusHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
