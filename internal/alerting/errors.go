package alerting

import (
	"errors"
	"fmt"

	"github.com/alertline/alertline-api/internal/models"
)

// ErrNotFound is returned when an alert, user or team id does not resolve.
var ErrNotFound = errors.New("alerting: not found")

// ChannelNotFoundError is an alert-level failure: the alert's delivery type
// has no registered channel, so no delivery is attempted at all.
type ChannelNotFoundError struct {
	DeliveryType models.DeliveryType
}

func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("no delivery channel registered for %q", e.DeliveryType)
}

// DeliveryError is a per-recipient transport failure. The engine logs it and
// continues with the remaining recipients; it never aborts the batch.
type DeliveryError struct {
	Channel string
	AlertID string
	UserID  string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery of alert %s to user %s failed: %v", e.Channel, e.AlertID, e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
