package alerting

import (
	"context"

	"github.com/alertline/alertline-api/internal/models"
	"github.com/rs/zerolog"
)

// Channel performs the actual notification for one recipient. Transport
// failures surface as *DeliveryError.
type Channel interface {
	Deliver(ctx context.Context, alert models.Alert, user models.User, isReminder bool) error
	String() string
}

// Channels is the closed set of delivery transports, keyed by the alert's
// delivery type. Adding a channel means adding a field and a switch arm, so
// the mapping stays exhaustively matched at compile time.
type Channels struct {
	InApp Channel
	Email Channel
	SMS   Channel
}

func (c Channels) lookup(t models.DeliveryType) (Channel, bool) {
	switch t {
	case models.DeliveryInApp:
		return c.InApp, c.InApp != nil
	case models.DeliveryEmail:
		return c.Email, c.Email != nil
	case models.DeliverySMS:
		return c.SMS, c.SMS != nil
	default:
		return nil, false
	}
}

func logDeliveryError(logger zerolog.Logger, err error, channel string, alert models.Alert, user models.User) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("alert_id", alert.ID).
		Str("user_id", user.ID).
		Str("channel", channel).
		Msg("failed to deliver alert")
}
