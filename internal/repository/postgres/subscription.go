package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pointmarket-backend/internal/domain"

	"github.com/google/uuid"
)

type subscriptionRepository struct {
	q DBTX
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	query := `INSERT INTO subscriptions (id, item_id, user_id, status, interval_days, next_charge_at, last_charged_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query,
		sub.ID, sub.ItemID, sub.UserID, sub.Status, sub.IntervalDays, sub.NextChargeAt, sub.LastChargedAt).
		Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	sub := &domain.Subscription{ID: id}
	query := `SELECT item_id, user_id, status, interval_days, next_charge_at, last_charged_at, created_at, updated_at
	          FROM subscriptions WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&sub.ItemID, &sub.UserID, &sub.Status, &sub.IntervalDays,
		&sub.NextChargeAt, &sub.LastChargedAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (r *subscriptionRepository) GetByItemAndUser(ctx context.Context, itemID, userID string) (*domain.Subscription, error) {
	sub := &domain.Subscription{ItemID: itemID, UserID: userID}
	query := `SELECT id, status, interval_days, next_charge_at, last_charged_at, created_at, updated_at
	          FROM subscriptions WHERE item_id = $1 AND user_id = $2`
	err := r.q.QueryRowContext(ctx, query, itemID, userID).Scan(
		&sub.ID, &sub.Status, &sub.IntervalDays,
		&sub.NextChargeAt, &sub.LastChargedAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	query := `UPDATE subscriptions SET status = $2, next_charge_at = $3, last_charged_at = $4, updated_at = NOW()
	          WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, sub.ID, sub.Status, sub.NextChargeAt, sub.LastChargedAt)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (r *subscriptionRepository) ListDue(ctx context.Context, now time.Time, limit int32) ([]domain.Subscription, error) {
	query := `SELECT id, item_id, user_id, status, interval_days, next_charge_at, last_charged_at, created_at, updated_at
	          FROM subscriptions WHERE status = 'ACTIVE' AND next_charge_at <= $1
	          ORDER BY next_charge_at LIMIT $2`
	rows, err := r.q.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(&sub.ID, &sub.ItemID, &sub.UserID, &sub.Status, &sub.IntervalDays,
			&sub.NextChargeAt, &sub.LastChargedAt, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
