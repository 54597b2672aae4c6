package models

// User is owned by the directory; the alerting core treats it as read-only.
type User struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	TeamID       *string `json:"team_id,omitempty"`
	IsAdmin      bool    `json:"is_admin"`
	IsActive     bool    `json:"is_active"`
}
