package alerting

import (
	"context"

	"github.com/alertline/alertline-api/internal/models"
	"github.com/alertline/alertline-api/internal/repository"
	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
)

// InAppChannel is the only channel with persisted side effects: it appends a
// delivery record and keeps the recipient's preference row current.
type InAppChannel struct {
	deliveries repository.DeliveryRepository
	prefs      repository.PreferenceRepository
	clock      clock.Clock
	logger     zerolog.Logger
}

func NewInAppChannel(deliveries repository.DeliveryRepository, prefs repository.PreferenceRepository, clk clock.Clock, logger zerolog.Logger) *InAppChannel {
	return &InAppChannel{
		deliveries: deliveries,
		prefs:      prefs,
		clock:      clk,
		logger:     logger.With().Str("channel", "in_app").Logger(),
	}
}

func (c *InAppChannel) Deliver(ctx context.Context, alert models.Alert, user models.User, isReminder bool) error {
	now := c.clock.Now()

	if _, err := c.deliveries.Record(ctx, alert.ID, user.ID, models.DeliveryInApp, isReminder, now); err != nil {
		return &DeliveryError{Channel: c.String(), AlertID: alert.ID, UserID: user.ID, Err: err}
	}

	// Record first, then preference state: a crash in between leaves the
	// reminder unstamped, so the next sweep delivers again (at-least-once).
	if isReminder {
		if err := c.prefs.StampReminder(ctx, user.ID, alert.ID, now); err != nil {
			return &DeliveryError{Channel: c.String(), AlertID: alert.ID, UserID: user.ID, Err: err}
		}
	} else {
		if _, err := c.prefs.GetOrCreate(ctx, user.ID, alert.ID); err != nil {
			return &DeliveryError{Channel: c.String(), AlertID: alert.ID, UserID: user.ID, Err: err}
		}
	}

	c.logger.Debug().
		Str("alert_id", alert.ID).
		Str("user_id", user.ID).
		Bool("is_reminder", isReminder).
		Msg("in-app notification recorded")
	return nil
}

func (c *InAppChannel) String() string {
	return "in_app"
}
