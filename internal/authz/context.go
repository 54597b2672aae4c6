package authz

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey  contextKey = "user_id"
	isAdminKey contextKey = "is_admin"
)

// WithIdentity stores the authenticated user's id and admin flag on the context.
func WithIdentity(ctx context.Context, userID string, isAdmin bool) context.Context {
	if userID != "" {
		ctx = context.WithValue(ctx, userIDKey, userID)
	}
	return context.WithValue(ctx, isAdminKey, isAdmin)
}

func UserIDFromRequest(r *http.Request) (string, bool) {
	uid, ok := r.Context().Value(userIDKey).(string)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}

func IsAdminFromRequest(r *http.Request) bool {
	isAdmin, ok := r.Context().Value(isAdminKey).(bool)
	return ok && isAdmin
}
