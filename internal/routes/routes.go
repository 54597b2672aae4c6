package routes

import (
	"net/http"

	"github.com/alertline/alertline-api/internal/authz"
	"github.com/alertline/alertline-api/internal/handlers"
	"github.com/gorilla/mux"
)

// NewRouter sets up the API routes
func NewRouter(
	auth *handlers.AuthHandler,
	alert *handlers.AlertHandler,
	feed *handlers.FeedHandler,
	admin *handlers.AdminHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public auth endpoint
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	// Authenticated routes
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)

	api.HandleFunc("/user-alerts", feed.UserAlerts).Methods(http.MethodGet)
	api.HandleFunc("/dashboard-stats", feed.DashboardStats).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{alertID}", alert.Get).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{alertID}/snooze", alert.Snooze).Methods(http.MethodPost, http.MethodDelete)
	api.HandleFunc("/alerts/{alertID}/read", alert.MarkRead).Methods(http.MethodPost, http.MethodDelete)

	// Admin-only routes
	adminAPI := api.NewRoute().Subrouter()
	adminAPI.Use(authz.RequireAdmin)

	adminAPI.HandleFunc("/alerts", alert.Create).Methods(http.MethodPost)
	adminAPI.HandleFunc("/alerts", alert.List).Methods(http.MethodGet)
	adminAPI.HandleFunc("/alerts/{alertID}", alert.Deactivate).Methods(http.MethodDelete)
	adminAPI.HandleFunc("/analytics", admin.Analytics).Methods(http.MethodGet)
	adminAPI.HandleFunc("/trigger-reminders", admin.TriggerReminders).Methods(http.MethodPost)
	adminAPI.HandleFunc("/teams", admin.Teams).Methods(http.MethodGet)
	adminAPI.HandleFunc("/users", admin.Users).Methods(http.MethodGet)

	return router
}
