package models

import "time"

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

type DeliveryType string

const (
	DeliveryInApp DeliveryType = "in_app"
	DeliveryEmail DeliveryType = "email"
	DeliverySMS   DeliveryType = "sms"
)

func (d DeliveryType) Valid() bool {
	switch d {
	case DeliveryInApp, DeliveryEmail, DeliverySMS:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityOrganization Visibility = "organization"
	VisibilityTeam         Visibility = "team"
	VisibilityUser         Visibility = "user"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityOrganization, VisibilityTeam, VisibilityUser:
		return true
	}
	return false
}

// Alert is an organization-wide announcement targeted at a set of recipients.
// TargetTeams is meaningful only when Visibility is "team", TargetUsers only
// when Visibility is "user"; the other set is ignored.
type Alert struct {
	ID                     string       `json:"id"`
	Title                  string       `json:"title"`
	Message                string       `json:"message"`
	Severity               Severity     `json:"severity"`
	DeliveryType           DeliveryType `json:"delivery_type"`
	Visibility             Visibility   `json:"visibility_type"`
	TargetTeams            []string     `json:"target_teams"`
	TargetUsers            []string     `json:"target_users"`
	StartTime              time.Time    `json:"start_time"`
	ExpiryTime             time.Time    `json:"expiry_time"`
	ReminderFrequencyHours int          `json:"reminder_frequency_hours"`
	RemindersEnabled       bool         `json:"reminders_enabled"`
	CreatedBy              string       `json:"created_by"`
	CreatedAt              time.Time    `json:"created_at"`
	IsActive               bool         `json:"is_active"`
}

// IsExpired reports whether the alert's expiry has passed, independent of
// the IsActive flag.
func (a Alert) IsExpired(now time.Time) bool {
	return now.After(a.ExpiryTime)
}

// InWindow reports whether now falls within [StartTime, ExpiryTime).
func (a Alert) InWindow(now time.Time) bool {
	return !a.StartTime.After(now) && now.Before(a.ExpiryTime)
}

func (a Alert) ReminderInterval() time.Duration {
	return time.Duration(a.ReminderFrequencyHours) * time.Hour
}
