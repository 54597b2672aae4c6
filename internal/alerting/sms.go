package alerting

import (
	"context"
	"fmt"

	"github.com/alertline/alertline-api/internal/config"
	"github.com/alertline/alertline-api/internal/models"
	"github.com/rs/zerolog"
)

// SMSChannel is a provider stub: it reports success without a real transport
// until an SMS gateway is wired in.
type SMSChannel struct {
	enabled  bool
	provider string
	senderID string
	logger   zerolog.Logger
}

func NewSMSChannel(cfg config.SMSConfig, logger zerolog.Logger) *SMSChannel {
	enabled := cfg.Enabled && cfg.Provider != ""
	return &SMSChannel{
		enabled:  enabled,
		provider: cfg.Provider,
		senderID: cfg.SenderID,
		logger:   logger.With().Str("channel", "sms").Logger(),
	}
}

func (c *SMSChannel) Deliver(_ context.Context, alert models.Alert, user models.User, isReminder bool) error {
	if !c.enabled {
		c.logger.Info().
			Str("alert_id", alert.ID).
			Str("user_id", user.ID).
			Bool("is_reminder", isReminder).
			Msg("sms dispatched (mock)")
		return nil
	}

	c.logger.Info().
		Str("alert_id", alert.ID).
		Str("user_id", user.ID).
		Str("provider", c.provider).
		Bool("is_reminder", isReminder).
		Msg("sms dispatched")
	return nil
}

func (c *SMSChannel) String() string {
	if !c.enabled {
		return "sms(stub)"
	}
	return fmt.Sprintf("sms(provider=%s)", c.provider)
}
