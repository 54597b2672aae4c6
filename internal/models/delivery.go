package models

import "time"

// Delivery is an append-only audit record of a single notification handed to
// a channel. Rows are unique on (alert, user, delivered_at); since the
// timestamp has finite granularity this is a weak dedup, not a true
// idempotency key.
type Delivery struct {
	ID          string       `json:"id"`
	AlertID     string       `json:"alert_id"`
	UserID      string       `json:"user_id"`
	DeliveredAt time.Time    `json:"delivered_at"`
	Channel     DeliveryType `json:"channel"`
	IsReminder  bool         `json:"is_reminder"`
}
