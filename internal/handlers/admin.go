package handlers

import (
	"net/http"

	"github.com/alertline/alertline-api/internal/alerting"
	"github.com/alertline/alertline-api/internal/directory"
	"github.com/rs/zerolog"
)

// AdminHandler serves org-wide analytics and administrative triggers.
type AdminHandler struct {
	service   alerting.Service
	directory directory.Directory
	logger    zerolog.Logger
}

func NewAdminHandler(service alerting.Service, dir directory.Directory, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service:   service,
		directory: dir,
		logger:    logger.With().Str("handler", "admin").Logger(),
	}
}

func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.service.ComputeAnalytics(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute analytics")
		http.Error(w, "Failed to compute analytics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (h *AdminHandler) TriggerReminders(w http.ResponseWriter, r *http.Request) {
	swept, err := h.service.SweepReminders(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("manual reminder sweep failed")
		http.Error(w, "Failed to send reminders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "reminders_sent", "alerts_swept": swept})
}

func (h *AdminHandler) Teams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.directory.ListTeams(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list teams")
		http.Error(w, "Failed to list teams", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.ActiveUsers(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list users")
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}
