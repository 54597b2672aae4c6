package models

import "time"

// Preference holds per-(user, alert) read/snooze/reminder state. Exactly one
// row exists per pair, created lazily on first interaction.
type Preference struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	AlertID      string     `json:"alert_id"`
	IsRead       bool       `json:"is_read"`
	IsSnoozed    bool       `json:"is_snoozed"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
	LastReminder *time.Time `json:"last_reminder,omitempty"`
}

// IsSnoozeActive reports whether the snooze is currently in effect. A record
// can carry IsSnoozed=true with an elapsed SnoozedUntil; callers treat that
// as not snoozed without clearing the flag.
func (p Preference) IsSnoozeActive(now time.Time) bool {
	if !p.IsSnoozed || p.SnoozedUntil == nil {
		return false
	}
	return now.Before(*p.SnoozedUntil)
}

// NeedsReminder reports whether the user is due a reminder for the alert.
// A preference with no prior reminder is always eligible, even if the alert
// started moments ago; this mirrors the behavior the product shipped with.
func (p Preference) NeedsReminder(alert Alert, now time.Time) bool {
	if p.IsSnoozeActive(now) || !alert.RemindersEnabled {
		return false
	}
	if p.LastReminder == nil {
		return true
	}
	return !now.Before(p.LastReminder.Add(alert.ReminderInterval()))
}

// NextMidnight returns the start of the calendar day following t, in t's
// location. Snoozing an alert suppresses reminders until this boundary.
func NextMidnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, t.Location())
}
