package alerting

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/alertline/alertline-api/internal/config"
	"github.com/alertline/alertline-api/internal/models"
	"github.com/rs/zerolog"
)

// EmailChannel sends alerts over SMTP. When no SMTP host is configured it
// degrades to a logged no-op so delivery still reports success.
type EmailChannel struct {
	enabled  bool
	host     string
	port     int
	username string
	password string
	from     string
	logger   zerolog.Logger
}

func NewEmailChannel(cfg config.EmailConfig, logger zerolog.Logger) *EmailChannel {
	host := strings.TrimSpace(cfg.SMTPHost)
	from := strings.TrimSpace(cfg.From)
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	return &EmailChannel{
		enabled:  host != "" && from != "",
		host:     host,
		port:     port,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		from:     from,
		logger:   logger.With().Str("channel", "email").Logger(),
	}
}

func (c *EmailChannel) Deliver(_ context.Context, alert models.Alert, user models.User, isReminder bool) error {
	if user.Email == "" {
		c.logger.Debug().Str("user_id", user.ID).Msg("user has no email address, skipping")
		return nil
	}

	if !c.enabled {
		c.logger.Info().
			Str("alert_id", alert.ID).
			Str("user_id", user.ID).
			Bool("is_reminder", isReminder).
			Msg("email dispatched (mock)")
		return nil
	}

	subject := fmt.Sprintf("[Alertline] %s", strings.TrimSpace(alert.Title))
	if isReminder {
		subject = fmt.Sprintf("[Alertline] Reminder: %s", strings.TrimSpace(alert.Title))
	}

	body := strings.Builder{}
	body.WriteString(strings.TrimSpace(alert.Message))
	body.WriteString("\n\n")
	body.WriteString(fmt.Sprintf("Severity: %s\n", alert.Severity))
	body.WriteString(fmt.Sprintf("Expires: %s\n", alert.ExpiryTime.Format("2006-01-02 15:04:05 MST")))

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		c.from, user.Email, subject)

	message := []byte(headers + body.String())
	addr := fmt.Sprintf("%s:%d", c.host, c.port)

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	if err := smtp.SendMail(addr, auth, c.from, []string{user.Email}, message); err != nil {
		return &DeliveryError{Channel: c.String(), AlertID: alert.ID, UserID: user.ID, Err: err}
	}

	c.logger.Info().
		Str("alert_id", alert.ID).
		Str("user_id", user.ID).
		Msg("email notification sent")
	return nil
}

func (c *EmailChannel) String() string {
	return "email"
}
