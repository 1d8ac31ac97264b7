package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pointmarket-backend/internal/domain"

	"github.com/google/uuid"
)

type purchaseRepository struct {
	q DBTX
}

// Create inserts optimistically. A concurrent duplicate purchase loses the
// race at commit time with a unique violation, which callers receive as
// domain.ErrAlreadyPurchased.
func (r *purchaseRepository) Create(ctx context.Context, rec *domain.PurchaseRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `INSERT INTO purchase_records (id, item_id, buyer_id, points_spent, expires_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING purchased_at`
	err := r.q.QueryRowContext(ctx, query,
		rec.ID, rec.ItemID, rec.BuyerID, rec.PointsSpent, rec.ExpiresAt).
		Scan(&rec.PurchasedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyPurchased
		}
		return err
	}
	return nil
}

func (r *purchaseRepository) GetByID(ctx context.Context, id string) (*domain.PurchaseRecord, error) {
	rec := &domain.PurchaseRecord{ID: id}
	query := `SELECT item_id, buyer_id, points_spent, purchased_at, expires_at FROM purchase_records WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&rec.ItemID, &rec.BuyerID, &rec.PointsSpent, &rec.PurchasedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *purchaseRepository) GetByItemAndBuyer(ctx context.Context, itemID, buyerID string) (*domain.PurchaseRecord, error) {
	rec := &domain.PurchaseRecord{ItemID: itemID, BuyerID: buyerID}
	query := `SELECT id, points_spent, purchased_at, expires_at FROM purchase_records WHERE item_id = $1 AND buyer_id = $2`
	err := r.q.QueryRowContext(ctx, query, itemID, buyerID).Scan(
		&rec.ID, &rec.PointsSpent, &rec.PurchasedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *purchaseRepository) ListByBuyer(ctx context.Context, buyerID string, page, pageSize int32) ([]domain.PurchaseRecord, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM purchase_records WHERE buyer_id = $1`
	if err := r.q.QueryRowContext(ctx, countQuery, buyerID).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, item_id, points_spent, purchased_at, expires_at
	          FROM purchase_records WHERE buyer_id = $1 ORDER BY purchased_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, buyerID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []domain.PurchaseRecord
	for rows.Next() {
		rec := domain.PurchaseRecord{BuyerID: buyerID}
		if err := rows.Scan(&rec.ID, &rec.ItemID, &rec.PointsSpent, &rec.PurchasedAt, &rec.ExpiresAt); err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}
	return recs, count, rows.Err()
}

// ExtendExpiry is the only permitted mutation of a purchase record.
func (r *purchaseRepository) ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	query := `UPDATE purchase_records SET expires_at = $2 WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, expiresAt)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrPurchaseNotFound
	}
	return nil
}
