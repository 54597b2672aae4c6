package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/alertline/alertline-api/internal/models"
	"github.com/lib/pq"
)

// PreferenceRepository persists per-(user, alert) read/snooze/reminder state.
// All mutations are single-statement upserts keyed on (user_id, alert_id) so
// concurrent first-access races cannot create duplicate rows.
type PreferenceRepository interface {
	// GetOrCreate returns the existing preference for the pair, creating a
	// fresh one with all flags unset if absent. Idempotent and atomic.
	GetOrCreate(ctx context.Context, userID, alertID string) (models.Preference, error)
	// Find returns nil without error when no preference exists for the pair.
	Find(ctx context.Context, userID, alertID string) (*models.Preference, error)
	SetRead(ctx context.Context, userID, alertID string, read bool) error
	Snooze(ctx context.Context, userID, alertID string, until time.Time) error
	Unsnooze(ctx context.Context, userID, alertID string) error
	// StampReminder records that a reminder was just delivered, creating the
	// preference if it does not exist yet.
	StampReminder(ctx context.Context, userID, alertID string, at time.Time) error
	CountRead(ctx context.Context) (int, error)
	CountSnoozed(ctx context.Context, now time.Time) (int, error)
	CountReadIn(ctx context.Context, userID string, alertIDs []string) (int, error)
	CountSnoozedIn(ctx context.Context, userID string, alertIDs []string, now time.Time) (int, error)
}

type preferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

const preferenceColumns = `id, user_id, alert_id, is_read, is_snoozed, snoozed_until, last_reminder`

func (r *preferenceRepository) GetOrCreate(ctx context.Context, userID, alertID string) (models.Preference, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	const query = `
		INSERT INTO alertline.preferences (user_id, alert_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, alert_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + preferenceColumns

	return scanPreference(r.db.QueryRowContext(ctx, query, userID, alertID))
}

func (r *preferenceRepository) Find(ctx context.Context, userID, alertID string) (*models.Preference, error) {
	const query = `
		SELECT ` + preferenceColumns + `
		FROM alertline.preferences
		WHERE user_id = $1 AND alert_id = $2`

	pref, err := scanPreference(r.db.QueryRowContext(ctx, query, userID, alertID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepository) SetRead(ctx context.Context, userID, alertID string, read bool) error {
	const query = `
		INSERT INTO alertline.preferences (user_id, alert_id, is_read)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, alert_id) DO UPDATE SET is_read = $3`

	_, err := r.db.ExecContext(ctx, query, userID, alertID, read)
	return err
}

func (r *preferenceRepository) Snooze(ctx context.Context, userID, alertID string, until time.Time) error {
	const query = `
		INSERT INTO alertline.preferences (user_id, alert_id, is_snoozed, snoozed_until)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (user_id, alert_id) DO UPDATE SET is_snoozed = TRUE, snoozed_until = $3`

	_, err := r.db.ExecContext(ctx, query, userID, alertID, until)
	return err
}

func (r *preferenceRepository) Unsnooze(ctx context.Context, userID, alertID string) error {
	const query = `
		INSERT INTO alertline.preferences (user_id, alert_id, is_snoozed, snoozed_until)
		VALUES ($1, $2, FALSE, NULL)
		ON CONFLICT (user_id, alert_id) DO UPDATE SET is_snoozed = FALSE, snoozed_until = NULL`

	_, err := r.db.ExecContext(ctx, query, userID, alertID)
	return err
}

func (r *preferenceRepository) StampReminder(ctx context.Context, userID, alertID string, at time.Time) error {
	const query = `
		INSERT INTO alertline.preferences (user_id, alert_id, last_reminder)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, alert_id) DO UPDATE SET last_reminder = $3`

	_, err := r.db.ExecContext(ctx, query, userID, alertID, at)
	return err
}

func (r *preferenceRepository) CountRead(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alertline.preferences WHERE is_read`).Scan(&count)
	return count, err
}

func (r *preferenceRepository) CountSnoozed(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alertline.preferences WHERE is_snoozed AND snoozed_until > $1`, now).Scan(&count)
	return count, err
}

func (r *preferenceRepository) CountReadIn(ctx context.Context, userID string, alertIDs []string) (int, error) {
	if len(alertIDs) == 0 {
		return 0, nil
	}
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM alertline.preferences
		WHERE user_id = $1 AND alert_id = ANY($2) AND is_read`,
		userID, pq.Array(alertIDs)).Scan(&count)
	return count, err
}

func (r *preferenceRepository) CountSnoozedIn(ctx context.Context, userID string, alertIDs []string, now time.Time) (int, error) {
	if len(alertIDs) == 0 {
		return 0, nil
	}
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM alertline.preferences
		WHERE user_id = $1 AND alert_id = ANY($2) AND is_snoozed AND snoozed_until > $3`,
		userID, pq.Array(alertIDs), now).Scan(&count)
	return count, err
}

func scanPreference(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Preference, error) {
	var (
		pref         models.Preference
		snoozedUntil sql.NullTime
		lastReminder sql.NullTime
	)

	if err := scanner.Scan(
		&pref.ID,
		&pref.UserID,
		&pref.AlertID,
		&pref.IsRead,
		&pref.IsSnoozed,
		&snoozedUntil,
		&lastReminder,
	); err != nil {
		return models.Preference{}, err
	}

	if snoozedUntil.Valid {
		t := snoozedUntil.Time
		pref.SnoozedUntil = &t
	}
	if lastReminder.Valid {
		t := lastReminder.Time
		pref.LastReminder = &t
	}
	return pref, nil
}
