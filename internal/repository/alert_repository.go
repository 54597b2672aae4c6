package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/alertline/alertline-api/internal/models"
	"github.com/lib/pq"
)

type CreateAlertParams struct {
	Title                  string
	Message                string
	Severity               models.Severity
	DeliveryType           models.DeliveryType
	Visibility             models.Visibility
	TargetTeams            []string
	TargetUsers            []string
	StartTime              time.Time
	ExpiryTime             time.Time
	ReminderFrequencyHours int
	RemindersEnabled       bool
	CreatedBy              string
}

// ListAlertsFilter narrows the admin alert listing. Zero values mean "all".
type ListAlertsFilter struct {
	Severity models.Severity
	Status   string // "", "active" or "expired"
}

const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

type AlertRepository interface {
	Create(ctx context.Context, params CreateAlertParams) (models.Alert, error)
	GetByID(ctx context.Context, id string) (models.Alert, error)
	List(ctx context.Context, filter ListAlertsFilter, now time.Time) ([]models.Alert, error)
	// ListVisibleTo returns active, in-window alerts authored by an admin that
	// the user may see: organization-wide, team-targeted at the user's team,
	// or individually targeted. Newest first.
	ListVisibleTo(ctx context.Context, user models.User, now time.Time) ([]models.Alert, error)
	// ListDueForReminders returns active alerts with reminders enabled whose
	// window contains now.
	ListDueForReminders(ctx context.Context, now time.Time) ([]models.Alert, error)
	Deactivate(ctx context.Context, id string) error
	CountAll(ctx context.Context) (int, error)
	CountActive(ctx context.Context, now time.Time) (int, error)
	CountBySeverity(ctx context.Context) (map[models.Severity]int, error)
}

type alertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) AlertRepository {
	return &alertRepository{db: db}
}

const alertColumns = `id, title, message, severity, delivery_type, visibility_type,
		target_teams, target_users, start_time, expiry_time,
		reminder_frequency_hours, reminders_enabled, created_by, created_at, is_active`

func (r *alertRepository) Create(ctx context.Context, params CreateAlertParams) (models.Alert, error) {
	const query = `
		INSERT INTO alertline.alerts
			(title, message, severity, delivery_type, visibility_type,
			 target_teams, target_users, start_time, expiry_time,
			 reminder_frequency_hours, reminders_enabled, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + alertColumns

	row := r.db.QueryRowContext(ctx, query,
		params.Title,
		params.Message,
		params.Severity,
		params.DeliveryType,
		params.Visibility,
		pq.Array(params.TargetTeams),
		pq.Array(params.TargetUsers),
		params.StartTime,
		params.ExpiryTime,
		params.ReminderFrequencyHours,
		params.RemindersEnabled,
		params.CreatedBy,
	)
	return scanAlert(row)
}

func (r *alertRepository) GetByID(ctx context.Context, id string) (models.Alert, error) {
	const query = `
		SELECT ` + alertColumns + `
		FROM alertline.alerts
		WHERE id = $1`
	return scanAlert(r.db.QueryRowContext(ctx, query, id))
}

func (r *alertRepository) List(ctx context.Context, filter ListAlertsFilter, now time.Time) ([]models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alertline.alerts
		WHERE ($1 = '' OR severity = $1)`

	switch filter.Status {
	case StatusActive:
		query += ` AND is_active AND expiry_time > $2`
	case StatusExpired:
		query += ` AND (NOT is_active OR expiry_time <= $2)`
	default:
		query += ` AND $2::timestamptz IS NOT NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, string(filter.Severity), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (r *alertRepository) ListVisibleTo(ctx context.Context, user models.User, now time.Time) ([]models.Alert, error) {
	const query = `
		SELECT ` + alertColumnsPrefixed + `
		FROM alertline.alerts a
		JOIN alertline.users c ON c.id = a.created_by
		WHERE a.is_active
		  AND a.start_time <= $1
		  AND a.expiry_time > $1
		  AND c.is_admin
		  AND (a.visibility_type = 'organization'
		    OR (a.visibility_type = 'team' AND $2::uuid = ANY(a.target_teams))
		    OR (a.visibility_type = 'user' AND $3::uuid = ANY(a.target_users)))
		ORDER BY a.created_at DESC`

	var teamID interface{}
	if user.TeamID != nil {
		teamID = *user.TeamID
	}

	rows, err := r.db.QueryContext(ctx, query, now, teamID, user.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (r *alertRepository) ListDueForReminders(ctx context.Context, now time.Time) ([]models.Alert, error) {
	const query = `
		SELECT ` + alertColumns + `
		FROM alertline.alerts
		WHERE is_active
		  AND reminders_enabled
		  AND start_time <= $1
		  AND expiry_time > $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (r *alertRepository) Deactivate(ctx context.Context, id string) error {
	const query = `
		UPDATE alertline.alerts
		SET is_active = FALSE
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *alertRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alertline.alerts`).Scan(&count)
	return count, err
}

func (r *alertRepository) CountActive(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alertline.alerts WHERE is_active AND expiry_time > $1`, now).Scan(&count)
	return count, err
}

func (r *alertRepository) CountBySeverity(ctx context.Context) (map[models.Severity]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT severity, COUNT(*) FROM alertline.alerts GROUP BY severity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := make(map[models.Severity]int)
	for rows.Next() {
		var severity models.Severity
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		breakdown[severity] = count
	}
	return breakdown, rows.Err()
}

const alertColumnsPrefixed = `a.id, a.title, a.message, a.severity, a.delivery_type, a.visibility_type,
		a.target_teams, a.target_users, a.start_time, a.expiry_time,
		a.reminder_frequency_hours, a.reminders_enabled, a.created_by, a.created_at, a.is_active`

func scanAlert(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Alert, error) {
	var (
		alert       models.Alert
		targetTeams pq.StringArray
		targetUsers pq.StringArray
	)

	if err := scanner.Scan(
		&alert.ID,
		&alert.Title,
		&alert.Message,
		&alert.Severity,
		&alert.DeliveryType,
		&alert.Visibility,
		&targetTeams,
		&targetUsers,
		&alert.StartTime,
		&alert.ExpiryTime,
		&alert.ReminderFrequencyHours,
		&alert.RemindersEnabled,
		&alert.CreatedBy,
		&alert.CreatedAt,
		&alert.IsActive,
	); err != nil {
		return models.Alert{}, err
	}

	alert.TargetTeams = targetTeams
	alert.TargetUsers = targetUsers
	return alert, nil
}

func collectAlerts(rows *sql.Rows) ([]models.Alert, error) {
	var alerts []models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
