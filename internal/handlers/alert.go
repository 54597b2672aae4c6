package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alertline/alertline-api/internal/alerting"
	"github.com/alertline/alertline-api/internal/authz"
	"github.com/alertline/alertline-api/internal/models"
	"github.com/alertline/alertline-api/internal/repository"
	"github.com/rs/zerolog"
)

type AlertHandler struct {
	service alerting.Service
	logger  zerolog.Logger
}

func NewAlertHandler(service alerting.Service, logger zerolog.Logger) *AlertHandler {
	return &AlertHandler{
		service: service,
		logger:  logger.With().Str("handler", "alert").Logger(),
	}
}

type createAlertRequest struct {
	Title                  string    `json:"title"`
	Message                string    `json:"message"`
	Severity               string    `json:"severity"`
	DeliveryType           string    `json:"delivery_type"`
	VisibilityType         string    `json:"visibility_type"`
	TargetTeamIDs          []string  `json:"target_team_ids"`
	TargetUserIDs          []string  `json:"target_user_ids"`
	StartTime              time.Time `json:"start_time"`
	ExpiryTime             time.Time `json:"expiry_time"`
	ReminderFrequencyHours int       `json:"reminder_frequency_hours"`
	RemindersEnabled       *bool     `json:"reminders_enabled"`
}

func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	remindersEnabled := true
	if req.RemindersEnabled != nil {
		remindersEnabled = *req.RemindersEnabled
	}
	frequency := req.ReminderFrequencyHours
	if frequency == 0 {
		frequency = 2
	}

	alert, err := h.service.CreateAlert(r.Context(), repository.CreateAlertParams{
		Title:                  req.Title,
		Message:                req.Message,
		Severity:               models.Severity(req.Severity),
		DeliveryType:           models.DeliveryType(req.DeliveryType),
		Visibility:             models.Visibility(req.VisibilityType),
		TargetTeams:            req.TargetTeamIDs,
		TargetUsers:            req.TargetUserIDs,
		StartTime:              req.StartTime,
		ExpiryTime:             req.ExpiryTime,
		ReminderFrequencyHours: frequency,
		RemindersEnabled:       remindersEnabled,
		CreatedBy:              userID,
	})
	if err != nil {
		http.Error(w, "Failed to create alert: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, alert)
}

func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ListAlertsFilter{
		Severity: models.Severity(r.URL.Query().Get("severity")),
		Status:   r.URL.Query().Get("status"),
	}

	alerts, err := h.service.ListAlerts(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list alerts")
		http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	alertID, ok := alertIDFromRequest(r)
	if !ok {
		http.Error(w, "Invalid alert ID", http.StatusBadRequest)
		return
	}

	alert, err := h.service.GetAlert(r.Context(), alertID)
	if err != nil {
		if errors.Is(err, alerting.ErrNotFound) {
			http.Error(w, "Alert not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("alert_id", alertID).Msg("failed to fetch alert")
		http.Error(w, "Failed to fetch alert", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

func (h *AlertHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	alertID, ok := alertIDFromRequest(r)
	if !ok {
		http.Error(w, "Invalid alert ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeactivateAlert(r.Context(), alertID); err != nil {
		if errors.Is(err, alerting.ErrNotFound) {
			http.Error(w, "Alert not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("alert_id", alertID).Msg("failed to deactivate alert")
		http.Error(w, "Failed to deactivate alert", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// Snooze handles POST (snooze until next midnight) and DELETE (unsnooze).
func (h *AlertHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	alertID, ok := alertIDFromRequest(r)
	if !ok {
		http.Error(w, "Invalid alert ID", http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodDelete {
		if err := h.service.Unsnooze(r.Context(), userID, alertID); err != nil {
			h.respondPreferenceError(w, err, alertID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "unsnoozed"})
		return
	}

	until, err := h.service.Snooze(r.Context(), userID, alertID)
	if err != nil {
		h.respondPreferenceError(w, err, alertID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "snoozed", "snoozed_until": until})
}

// MarkRead handles POST (mark read) and DELETE (mark unread).
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	alertID, ok := alertIDFromRequest(r)
	if !ok {
		http.Error(w, "Invalid alert ID", http.StatusBadRequest)
		return
	}

	read := r.Method != http.MethodDelete
	if err := h.service.SetRead(r.Context(), userID, alertID, read); err != nil {
		h.respondPreferenceError(w, err, alertID)
		return
	}

	status := "marked_read"
	if !read {
		status = "marked_unread"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *AlertHandler) respondPreferenceError(w http.ResponseWriter, err error, alertID string) {
	if errors.Is(err, alerting.ErrNotFound) {
		http.Error(w, "Alert not found", http.StatusNotFound)
		return
	}
	h.logger.Error().Err(err).Str("alert_id", alertID).Msg("failed to update preference")
	http.Error(w, "Failed to update preference", http.StatusInternalServerError)
}
