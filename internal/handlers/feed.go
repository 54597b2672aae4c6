package handlers

import (
	"net/http"

	"github.com/alertline/alertline-api/internal/alerting"
	"github.com/alertline/alertline-api/internal/directory"
	"github.com/rs/zerolog"
)

// FeedHandler serves the per-user alert feed and dashboard counts.
type FeedHandler struct {
	service   alerting.Service
	directory directory.Directory
	logger    zerolog.Logger
}

func NewFeedHandler(service alerting.Service, dir directory.Directory, logger zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		service:   service,
		directory: dir,
		logger:    logger.With().Str("handler", "feed").Logger(),
	}
}

func (h *FeedHandler) UserAlerts(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context(), r, h.directory)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	filter := alerting.FeedFilter(r.URL.Query().Get("filter"))
	alerts, err := h.service.VisibleAlerts(r.Context(), user, filter)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to resolve visible alerts")
		http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

func (h *FeedHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context(), r, h.directory)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	stats, err := h.service.DashboardStats(r.Context(), user)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to compute dashboard stats")
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
