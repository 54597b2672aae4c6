package authz

import "net/http"

// RequireAdmin ensures the requester carries the admin flag. Alerts are
// authored and administered by admin-equivalent actors only.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdminFromRequest(r) {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
