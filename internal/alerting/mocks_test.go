package alerting

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/alertline/alertline-api/internal/models"
	"github.com/alertline/alertline-api/internal/repository"
	"github.com/google/uuid"
)

// fakeDirectory implements directory.Directory with function fields so each
// test overrides only what it needs.
type fakeDirectory struct {
	activeUsersFn func(ctx context.Context) ([]models.User, error)
	inTeamsFn     func(ctx context.Context, teamIDs []string) ([]models.User, error)
	byIDsFn       func(ctx context.Context, userIDs []string) ([]models.User, error)
	getUserFn     func(ctx context.Context, id string) (models.User, error)
	listTeamsFn   func(ctx context.Context) ([]models.Team, error)
}

func (d *fakeDirectory) ActiveUsers(ctx context.Context) ([]models.User, error) {
	if d.activeUsersFn != nil {
		return d.activeUsersFn(ctx)
	}
	return nil, nil
}

func (d *fakeDirectory) ActiveUsersInTeams(ctx context.Context, teamIDs []string) ([]models.User, error) {
	if d.inTeamsFn != nil {
		return d.inTeamsFn(ctx, teamIDs)
	}
	return nil, nil
}

func (d *fakeDirectory) ActiveUsersByIDs(ctx context.Context, userIDs []string) ([]models.User, error) {
	if d.byIDsFn != nil {
		return d.byIDsFn(ctx, userIDs)
	}
	return nil, nil
}

func (d *fakeDirectory) GetUser(ctx context.Context, id string) (models.User, error) {
	if d.getUserFn != nil {
		return d.getUserFn(ctx, id)
	}
	return models.User{}, fmt.Errorf("user %s not found", id)
}

func (d *fakeDirectory) ListTeams(ctx context.Context) ([]models.Team, error) {
	if d.listTeamsFn != nil {
		return d.listTeamsFn(ctx)
	}
	return nil, nil
}

// memDirectory resolves membership from a fixed user set, matching the
// Postgres directory's visibility-rule semantics.
type memDirectory struct {
	users []models.User
}

func (d *memDirectory) ActiveUsers(context.Context) ([]models.User, error) {
	var active []models.User
	for _, u := range d.users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active, nil
}

func (d *memDirectory) ActiveUsersInTeams(_ context.Context, teamIDs []string) ([]models.User, error) {
	var matched []models.User
	for _, u := range d.users {
		if !u.IsActive || u.TeamID == nil {
			continue
		}
		for _, id := range teamIDs {
			if *u.TeamID == id {
				matched = append(matched, u)
				break
			}
		}
	}
	return matched, nil
}

func (d *memDirectory) ActiveUsersByIDs(_ context.Context, userIDs []string) ([]models.User, error) {
	var matched []models.User
	for _, u := range d.users {
		if !u.IsActive {
			continue
		}
		for _, id := range userIDs {
			if u.ID == id {
				matched = append(matched, u)
				break
			}
		}
	}
	return matched, nil
}

func (d *memDirectory) GetUser(_ context.Context, id string) (models.User, error) {
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("user %s not found", id)
}

func (d *memDirectory) ListTeams(context.Context) ([]models.Team, error) {
	return nil, nil
}

// memDeliveryRepo mirrors the deliveries table, including the weak
// (alert, user, delivered_at) uniqueness constraint.
type memDeliveryRepo struct {
	mu      sync.Mutex
	records []models.Delivery
}

func (r *memDeliveryRepo) Record(_ context.Context, alertID, userID string, channel models.DeliveryType, isReminder bool, at time.Time) (models.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.records {
		if d.AlertID == alertID && d.UserID == userID && d.DeliveredAt.Equal(at) {
			return models.Delivery{}, fmt.Errorf("duplicate delivery for alert %s user %s at %s", alertID, userID, at)
		}
	}

	delivery := models.Delivery{
		ID:          uuid.NewString(),
		AlertID:     alertID,
		UserID:      userID,
		DeliveredAt: at,
		Channel:     channel,
		IsReminder:  isReminder,
	}
	r.records = append(r.records, delivery)
	return delivery, nil
}

func (r *memDeliveryRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records), nil
}

func (r *memDeliveryRepo) all() []models.Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Delivery, len(r.records))
	copy(out, r.records)
	return out
}

func (r *memDeliveryRepo) forUser(userID string) []models.Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Delivery
	for _, d := range r.records {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out
}

// memPreferenceRepo mirrors the preferences table upsert semantics.
type memPreferenceRepo struct {
	mu    sync.Mutex
	prefs map[string]models.Preference
}

func newMemPreferenceRepo() *memPreferenceRepo {
	return &memPreferenceRepo{prefs: make(map[string]models.Preference)}
}

func prefKey(userID, alertID string) string {
	return userID + "/" + alertID
}

func (r *memPreferenceRepo) GetOrCreate(_ context.Context, userID, alertID string) (models.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(userID, alertID), nil
}

func (r *memPreferenceRepo) getOrCreateLocked(userID, alertID string) models.Preference {
	key := prefKey(userID, alertID)
	if pref, ok := r.prefs[key]; ok {
		return pref
	}
	pref := models.Preference{ID: uuid.NewString(), UserID: userID, AlertID: alertID}
	r.prefs[key] = pref
	return pref
}

func (r *memPreferenceRepo) Find(_ context.Context, userID, alertID string) (*models.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pref, ok := r.prefs[prefKey(userID, alertID)]; ok {
		copied := pref
		return &copied, nil
	}
	return nil, nil
}

func (r *memPreferenceRepo) SetRead(_ context.Context, userID, alertID string, read bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pref := r.getOrCreateLocked(userID, alertID)
	pref.IsRead = read
	r.prefs[prefKey(userID, alertID)] = pref
	return nil
}

func (r *memPreferenceRepo) Snooze(_ context.Context, userID, alertID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pref := r.getOrCreateLocked(userID, alertID)
	pref.IsSnoozed = true
	pref.SnoozedUntil = &until
	r.prefs[prefKey(userID, alertID)] = pref
	return nil
}

func (r *memPreferenceRepo) Unsnooze(_ context.Context, userID, alertID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pref := r.getOrCreateLocked(userID, alertID)
	pref.IsSnoozed = false
	pref.SnoozedUntil = nil
	r.prefs[prefKey(userID, alertID)] = pref
	return nil
}

func (r *memPreferenceRepo) StampReminder(_ context.Context, userID, alertID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pref := r.getOrCreateLocked(userID, alertID)
	pref.LastReminder = &at
	r.prefs[prefKey(userID, alertID)] = pref
	return nil
}

func (r *memPreferenceRepo) CountRead(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, pref := range r.prefs {
		if pref.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *memPreferenceRepo) CountSnoozed(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, pref := range r.prefs {
		if pref.IsSnoozed && pref.SnoozedUntil != nil && pref.SnoozedUntil.After(now) {
			count++
		}
	}
	return count, nil
}

func (r *memPreferenceRepo) CountReadIn(_ context.Context, userID string, alertIDs []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, alertID := range alertIDs {
		if pref, ok := r.prefs[prefKey(userID, alertID)]; ok && pref.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *memPreferenceRepo) CountSnoozedIn(_ context.Context, userID string, alertIDs []string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, alertID := range alertIDs {
		pref, ok := r.prefs[prefKey(userID, alertID)]
		if ok && pref.IsSnoozed && pref.SnoozedUntil != nil && pref.SnoozedUntil.After(now) {
			count++
		}
	}
	return count, nil
}

func (r *memPreferenceRepo) get(userID, alertID string) (models.Preference, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pref, ok := r.prefs[prefKey(userID, alertID)]
	return pref, ok
}

func (r *memPreferenceRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prefs)
}

// memAlertRepo mirrors the alerts table queries the engine issues. Admin
// authorship is tracked so ListVisibleTo can apply the created-by-admin rule.
type memAlertRepo struct {
	mu     sync.Mutex
	alerts []models.Alert
	admins map[string]bool
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{admins: make(map[string]bool)}
}

func (r *memAlertRepo) Create(_ context.Context, params repository.CreateAlertParams) (models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert := models.Alert{
		ID:                     uuid.NewString(),
		Title:                  params.Title,
		Message:                params.Message,
		Severity:               params.Severity,
		DeliveryType:           params.DeliveryType,
		Visibility:             params.Visibility,
		TargetTeams:            params.TargetTeams,
		TargetUsers:            params.TargetUsers,
		StartTime:              params.StartTime,
		ExpiryTime:             params.ExpiryTime,
		ReminderFrequencyHours: params.ReminderFrequencyHours,
		RemindersEnabled:       params.RemindersEnabled,
		CreatedBy:              params.CreatedBy,
		CreatedAt:              params.StartTime,
		IsActive:               true,
	}
	r.alerts = append(r.alerts, alert)
	return alert, nil
}

func (r *memAlertRepo) GetByID(_ context.Context, id string) (models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range r.alerts {
		if alert.ID == id {
			return alert, nil
		}
	}
	return models.Alert{}, sql.ErrNoRows
}

func (r *memAlertRepo) List(_ context.Context, filter repository.ListAlertsFilter, now time.Time) ([]models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Alert
	for _, alert := range r.alerts {
		if filter.Severity != "" && alert.Severity != filter.Severity {
			continue
		}
		switch filter.Status {
		case repository.StatusActive:
			if !alert.IsActive || !alert.ExpiryTime.After(now) {
				continue
			}
		case repository.StatusExpired:
			if alert.IsActive && alert.ExpiryTime.After(now) {
				continue
			}
		}
		out = append(out, alert)
	}
	return out, nil
}

func (r *memAlertRepo) ListVisibleTo(_ context.Context, user models.User, now time.Time) ([]models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Alert
	for _, alert := range r.alerts {
		if !alert.IsActive || !alert.InWindow(now) || !r.admins[alert.CreatedBy] {
			continue
		}
		if alertTargets(alert, user) {
			out = append(out, alert)
		}
	}
	return out, nil
}

func alertTargets(alert models.Alert, user models.User) bool {
	switch alert.Visibility {
	case models.VisibilityOrganization:
		return true
	case models.VisibilityTeam:
		if user.TeamID == nil {
			return false
		}
		for _, id := range alert.TargetTeams {
			if id == *user.TeamID {
				return true
			}
		}
	case models.VisibilityUser:
		for _, id := range alert.TargetUsers {
			if id == user.ID {
				return true
			}
		}
	}
	return false
}

func (r *memAlertRepo) ListDueForReminders(_ context.Context, now time.Time) ([]models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Alert
	for _, alert := range r.alerts {
		if alert.IsActive && alert.RemindersEnabled && alert.InWindow(now) {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *memAlertRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, alert := range r.alerts {
		if alert.ID == id {
			r.alerts[i].IsActive = false
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *memAlertRepo) CountAll(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts), nil
}

func (r *memAlertRepo) CountActive(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, alert := range r.alerts {
		if alert.IsActive && alert.ExpiryTime.After(now) {
			count++
		}
	}
	return count, nil
}

func (r *memAlertRepo) CountBySeverity(context.Context) (map[models.Severity]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	breakdown := make(map[models.Severity]int)
	for _, alert := range r.alerts {
		breakdown[alert.Severity]++
	}
	return breakdown, nil
}

// stubChannel lets tests script per-recipient outcomes.
type stubChannel struct {
	name      string
	deliverFn func(ctx context.Context, alert models.Alert, user models.User, isReminder bool) error

	mu    sync.Mutex
	calls []string
}

func (c *stubChannel) Deliver(ctx context.Context, alert models.Alert, user models.User, isReminder bool) error {
	c.mu.Lock()
	c.calls = append(c.calls, user.ID)
	c.mu.Unlock()
	if c.deliverFn != nil {
		return c.deliverFn(ctx, alert, user, isReminder)
	}
	return nil
}

func (c *stubChannel) String() string {
	if c.name != "" {
		return c.name
	}
	return "stub"
}

func (c *stubChannel) delivered() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}
