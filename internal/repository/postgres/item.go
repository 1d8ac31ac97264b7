package postgres

import (
	"context"
	"database/sql"
	"errors"

	"pointmarket-backend/internal/domain"

	"github.com/google/uuid"
)

type itemRepository struct {
	q DBTX
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `INSERT INTO items (id, seller_id, title, price_points, stock_quantity, is_available)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	return r.q.QueryRowContext(ctx, query,
		item.ID, item.SellerID, item.Title, item.PricePoints, item.StockQuantity, item.IsAvailable).
		Scan(&item.CreatedAt, &item.UpdatedAt)
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	item := &domain.Item{ID: id}
	query := `SELECT seller_id, title, price_points, stock_quantity, is_available, created_at, updated_at
	          FROM items WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&item.SellerID, &item.Title, &item.PricePoints, &item.StockQuantity,
		&item.IsAvailable, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query := `UPDATE items SET title = $2, price_points = $3, stock_quantity = $4, is_available = $5, updated_at = NOW()
	          WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query,
		item.ID, item.Title, item.PricePoints, item.StockQuantity, item.IsAvailable)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *itemRepository) ListBySeller(ctx context.Context, sellerID string, page, pageSize int32) ([]domain.Item, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM items WHERE seller_id = $1`
	if err := r.q.QueryRowContext(ctx, countQuery, sellerID).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, seller_id, title, price_points, stock_quantity, is_available, created_at, updated_at
	          FROM items WHERE seller_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, sellerID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.SellerID, &item.Title, &item.PricePoints,
			&item.StockQuantity, &item.IsAvailable, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, count, rows.Err()
}

// DecrementStock takes one unit only while stock remains; the conditional
// UPDATE row-locks the item so concurrent buyers of a scarce item serialize
// here and the count never goes negative.
func (r *itemRepository) DecrementStock(ctx context.Context, id string) (bool, error) {
	query := `UPDATE items SET stock_quantity = stock_quantity - 1, updated_at = NOW()
	          WHERE id = $1 AND stock_quantity > 0`
	res, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
