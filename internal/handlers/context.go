package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alertline/alertline-api/internal/authz"
	"github.com/alertline/alertline-api/internal/directory"
	"github.com/alertline/alertline-api/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// currentUser loads the authenticated user from the directory.
func currentUser(ctx context.Context, r *http.Request, dir directory.Directory) (models.User, bool) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		return models.User{}, false
	}
	user, err := dir.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

// alertIDFromRequest extracts and validates the {alertID} path variable.
func alertIDFromRequest(r *http.Request) (string, bool) {
	raw := mux.Vars(r)["alertID"]
	if _, err := uuid.Parse(raw); err != nil {
		return "", false
	}
	return raw, true
}
