package alerting

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/alertline/alertline-api/internal/models"
	"github.com/alertline/alertline-api/internal/repository"
	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// FeedFilter narrows a user's alert feed.
type FeedFilter string

const (
	FeedAll     FeedFilter = ""
	FeedRead    FeedFilter = "read"
	FeedUnread  FeedFilter = "unread"
	FeedSnoozed FeedFilter = "snoozed"
)

// VisibleAlert is an alert annotated with the viewing user's state.
type VisibleAlert struct {
	models.Alert
	IsRead    bool `json:"is_read"`
	IsSnoozed bool `json:"is_snoozed"`
}

type DashboardStats struct {
	TotalAlerts  int `json:"total_alerts"`
	ReadCount    int `json:"read_count"`
	SnoozedCount int `json:"snoozed_count"`
}

type Analytics struct {
	TotalAlerts       int                     `json:"total_alerts"`
	ActiveAlerts      int                     `json:"active_alerts"`
	DeliveredCount    int                     `json:"delivered_count"`
	ReadCount         int                     `json:"read_count"`
	SnoozedCount      int                     `json:"snoozed_count"`
	SeverityBreakdown map[models.Severity]int `json:"severity_breakdown"`
}

type Service interface {
	// CreateAlert validates and persists the alert, then fires an immediate
	// non-reminder delivery. Delivery failures are logged, not returned: the
	// alert exists either way.
	CreateAlert(ctx context.Context, params repository.CreateAlertParams) (models.Alert, error)
	GetAlert(ctx context.Context, id string) (models.Alert, error)
	ListAlerts(ctx context.Context, filter repository.ListAlertsFilter) ([]models.Alert, error)
	DeactivateAlert(ctx context.Context, id string) error

	// DeliverAlert fans the alert out to its resolved recipients over the
	// channel matching its delivery type. It reports true iff at least one
	// recipient received it; a missing channel is an alert-level failure.
	DeliverAlert(ctx context.Context, alert models.Alert, isReminder bool) (bool, error)
	// SweepReminders re-delivers every active, reminder-enabled, in-window
	// alert to recipients that are due. Returns the number of alerts swept.
	SweepReminders(ctx context.Context) (int, error)

	VisibleAlerts(ctx context.Context, user models.User, filter FeedFilter) ([]VisibleAlert, error)
	SetRead(ctx context.Context, userID, alertID string, read bool) error
	Snooze(ctx context.Context, userID, alertID string) (time.Time, error)
	Unsnooze(ctx context.Context, userID, alertID string) error

	DashboardStats(ctx context.Context, user models.User) (DashboardStats, error)
	ComputeAnalytics(ctx context.Context) (Analytics, error)
}

type service struct {
	alerts     repository.AlertRepository
	prefs      repository.PreferenceRepository
	deliveries repository.DeliveryRepository
	resolver   *TargetResolver
	channels   Channels
	clock      clock.Clock
	timeout    time.Duration
	logger     zerolog.Logger

	// Guards against overlapping sweeps within this process. Concurrent
	// sweeps across processes can still each stamp a reminder inside the
	// same eligibility window, so a recipient may rarely see a duplicate;
	// the timestamp-keyed delivery log does not prevent that.
	sweepMu sync.Mutex
}

func NewService(
	alerts repository.AlertRepository,
	prefs repository.PreferenceRepository,
	deliveries repository.DeliveryRepository,
	resolver *TargetResolver,
	channels Channels,
	clk clock.Clock,
	deliveryTimeout time.Duration,
	logger zerolog.Logger,
) Service {
	if deliveryTimeout <= 0 {
		deliveryTimeout = 10 * time.Second
	}
	return &service{
		alerts:     alerts,
		prefs:      prefs,
		deliveries: deliveries,
		resolver:   resolver,
		channels:   channels,
		clock:      clk,
		timeout:    deliveryTimeout,
		logger:     logger.With().Str("component", "alerting_service").Logger(),
	}
}

func (s *service) CreateAlert(ctx context.Context, params repository.CreateAlertParams) (models.Alert, error) {
	if strings.TrimSpace(params.Title) == "" {
		return models.Alert{}, errors.New("title is required")
	}
	if strings.TrimSpace(params.Message) == "" {
		return models.Alert{}, errors.New("message is required")
	}
	if params.Severity == "" {
		params.Severity = models.SeverityInfo
	}
	if !params.Severity.Valid() {
		return models.Alert{}, errors.Errorf("invalid severity %q", params.Severity)
	}
	if params.DeliveryType == "" {
		params.DeliveryType = models.DeliveryInApp
	}
	if !params.DeliveryType.Valid() {
		return models.Alert{}, errors.Errorf("invalid delivery type %q", params.DeliveryType)
	}
	if !params.Visibility.Valid() {
		return models.Alert{}, errors.Errorf("invalid visibility type %q", params.Visibility)
	}
	if params.StartTime.IsZero() {
		params.StartTime = s.clock.Now()
	}
	if !params.ExpiryTime.After(params.StartTime) {
		return models.Alert{}, errors.New("expiry_time must be after start_time")
	}
	if params.ReminderFrequencyHours < 0 {
		return models.Alert{}, errors.New("reminder_frequency_hours must not be negative")
	}

	alert, err := s.alerts.Create(ctx, params)
	if err != nil {
		return models.Alert{}, errors.Wrap(err, "create alert")
	}

	if _, err := s.DeliverAlert(ctx, alert, false); err != nil {
		s.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("initial delivery failed")
	}
	return alert, nil
}

func (s *service) GetAlert(ctx context.Context, id string) (models.Alert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Alert{}, ErrNotFound
		}
		return models.Alert{}, err
	}
	return alert, nil
}

func (s *service) ListAlerts(ctx context.Context, filter repository.ListAlertsFilter) ([]models.Alert, error) {
	return s.alerts.List(ctx, filter, s.clock.Now())
}

func (s *service) DeactivateAlert(ctx context.Context, id string) error {
	if err := s.alerts.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *service) DeliverAlert(ctx context.Context, alert models.Alert, isReminder bool) (bool, error) {
	channel, ok := s.channels.lookup(alert.DeliveryType)
	if !ok {
		return false, &ChannelNotFoundError{DeliveryType: alert.DeliveryType}
	}

	targets, err := s.resolver.Resolve(ctx, alert)
	if err != nil {
		return false, errors.Wrap(err, "resolve targets")
	}

	now := s.clock.Now()
	delivered := 0
	for _, user := range targets {
		if isReminder {
			pref, err := s.prefs.Find(ctx, user.ID, alert.ID)
			if err != nil {
				logDeliveryError(s.logger, err, channel.String(), alert, user)
				continue
			}
			// No preference row means no prior reminder state: eligible.
			if pref != nil && !pref.NeedsReminder(alert, now) {
				continue
			}
		}

		deliverCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := channel.Deliver(deliverCtx, alert, user, isReminder)
		cancel()
		if err != nil {
			logDeliveryError(s.logger, err, channel.String(), alert, user)
			continue
		}
		delivered++
	}

	return delivered > 0, nil
}

func (s *service) SweepReminders(ctx context.Context) (int, error) {
	if !s.sweepMu.TryLock() {
		s.logger.Info().Msg("reminder sweep already running, skipping")
		return 0, nil
	}
	defer s.sweepMu.Unlock()

	now := s.clock.Now()
	active, err := s.alerts.ListDueForReminders(ctx, now)
	if err != nil {
		return 0, errors.Wrap(err, "list alerts due for reminders")
	}

	for _, alert := range active {
		if _, err := s.DeliverAlert(ctx, alert, true); err != nil {
			s.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("reminder delivery failed")
		}
	}
	return len(active), nil
}

func (s *service) VisibleAlerts(ctx context.Context, user models.User, filter FeedFilter) ([]VisibleAlert, error) {
	now := s.clock.Now()
	alerts, err := s.alerts.ListVisibleTo(ctx, user, now)
	if err != nil {
		return nil, err
	}

	var visible []VisibleAlert
	for _, alert := range alerts {
		pref, err := s.prefs.Find(ctx, user.ID, alert.ID)
		if err != nil {
			return nil, err
		}

		var isRead, isSnoozed bool
		if pref != nil {
			isRead = pref.IsRead
			isSnoozed = pref.IsSnoozeActive(now)
		}

		switch filter {
		case FeedRead:
			if !isRead {
				continue
			}
		case FeedUnread:
			if isRead {
				continue
			}
		case FeedSnoozed:
			if !isSnoozed {
				continue
			}
		}

		visible = append(visible, VisibleAlert{Alert: alert, IsRead: isRead, IsSnoozed: isSnoozed})
	}
	return visible, nil
}

func (s *service) SetRead(ctx context.Context, userID, alertID string, read bool) error {
	if _, err := s.GetAlert(ctx, alertID); err != nil {
		return err
	}
	return s.prefs.SetRead(ctx, userID, alertID, read)
}

func (s *service) Snooze(ctx context.Context, userID, alertID string) (time.Time, error) {
	if _, err := s.GetAlert(ctx, alertID); err != nil {
		return time.Time{}, err
	}
	until := models.NextMidnight(s.clock.Now())
	if err := s.prefs.Snooze(ctx, userID, alertID, until); err != nil {
		return time.Time{}, err
	}
	return until, nil
}

func (s *service) Unsnooze(ctx context.Context, userID, alertID string) error {
	if _, err := s.GetAlert(ctx, alertID); err != nil {
		return err
	}
	return s.prefs.Unsnooze(ctx, userID, alertID)
}

func (s *service) DashboardStats(ctx context.Context, user models.User) (DashboardStats, error) {
	now := s.clock.Now()
	alerts, err := s.alerts.ListVisibleTo(ctx, user, now)
	if err != nil {
		return DashboardStats{}, err
	}

	ids := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		ids = append(ids, alert.ID)
	}

	read, err := s.prefs.CountReadIn(ctx, user.ID, ids)
	if err != nil {
		return DashboardStats{}, err
	}
	snoozed, err := s.prefs.CountSnoozedIn(ctx, user.ID, ids, now)
	if err != nil {
		return DashboardStats{}, err
	}

	return DashboardStats{TotalAlerts: len(alerts), ReadCount: read, SnoozedCount: snoozed}, nil
}

func (s *service) ComputeAnalytics(ctx context.Context) (Analytics, error) {
	now := s.clock.Now()

	total, err := s.alerts.CountAll(ctx)
	if err != nil {
		return Analytics{}, err
	}
	active, err := s.alerts.CountActive(ctx, now)
	if err != nil {
		return Analytics{}, err
	}
	delivered, err := s.deliveries.Count(ctx)
	if err != nil {
		return Analytics{}, err
	}
	read, err := s.prefs.CountRead(ctx)
	if err != nil {
		return Analytics{}, err
	}
	snoozed, err := s.prefs.CountSnoozed(ctx, now)
	if err != nil {
		return Analytics{}, err
	}
	breakdown, err := s.alerts.CountBySeverity(ctx)
	if err != nil {
		return Analytics{}, err
	}

	return Analytics{
		TotalAlerts:       total,
		ActiveAlerts:      active,
		DeliveredCount:    delivered,
		ReadCount:         read,
		SnoozedCount:      snoozed,
		SeverityBreakdown: breakdown,
	}, nil
}
