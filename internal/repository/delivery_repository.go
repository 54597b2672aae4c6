package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/alertline/alertline-api/internal/models"
)

// DeliveryRepository is the append-only audit log of channel deliveries.
type DeliveryRepository interface {
	Record(ctx context.Context, alertID, userID string, channel models.DeliveryType, isReminder bool, at time.Time) (models.Delivery, error)
	Count(ctx context.Context) (int, error)
}

type deliveryRepository struct {
	db *sql.DB
}

func NewDeliveryRepository(db *sql.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Record(ctx context.Context, alertID, userID string, channel models.DeliveryType, isReminder bool, at time.Time) (models.Delivery, error) {
	const query = `
		INSERT INTO alertline.deliveries (alert_id, user_id, channel, is_reminder, delivered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, alert_id, user_id, delivered_at, channel, is_reminder`

	var delivery models.Delivery
	err := r.db.QueryRowContext(ctx, query, alertID, userID, channel, isReminder, at).Scan(
		&delivery.ID,
		&delivery.AlertID,
		&delivery.UserID,
		&delivery.DeliveredAt,
		&delivery.Channel,
		&delivery.IsReminder,
	)
	if err != nil {
		return models.Delivery{}, err
	}
	return delivery, nil
}

func (r *deliveryRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alertline.deliveries`).Scan(&count)
	return count, err
}
