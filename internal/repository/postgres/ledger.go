package postgres

import (
	"context"
	"errors"
	"time"

	"pointmarket-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ledgerRepository struct {
	q DBTX
}

const refundOnceIndex = "idx_ledger_transactions_refund_once"

func (r *ledgerRepository) Append(ctx context.Context, tx *domain.LedgerTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	query := `INSERT INTO ledger_transactions (id, user_id, transaction_type, amount, related_item_id, related_purchase_id, description)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`
	err := r.q.QueryRowContext(ctx, query,
		tx.ID, tx.UserID, tx.Type, tx.Amount, tx.RelatedItemID, tx.RelatedPurchaseID, tx.Description).
		Scan(&tx.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == refundOnceIndex {
				return domain.ErrAlreadyRefunded
			}
			return domain.ErrConstraintViolation
		}
		return err
	}
	return nil
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.LedgerTransaction, int32, error) {
	query := `SELECT id, user_id, transaction_type, amount, related_item_id, related_purchase_id, description, created_at
	          FROM ledger_transactions WHERE user_id = $1`
	countQuery := `SELECT count(*) FROM ledger_transactions WHERE user_id = $1`
	args := []any{userID}

	if filter.Type != "" {
		query += ` AND transaction_type = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		countQuery += ` AND transaction_type = $2`
		args = append(args, filter.Type)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	}

	var count int32
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.LedgerTransaction
	for rows.Next() {
		var tx domain.LedgerTransaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount,
			&tx.RelatedItemID, &tx.RelatedPurchaseID, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, 0, err
		}
		txs = append(txs, tx)
	}
	return txs, count, rows.Err()
}

func (r *ledgerRepository) SumByUser(ctx context.Context, userID string) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_transactions WHERE user_id = $1`
	err := r.q.QueryRowContext(ctx, query, userID).Scan(&sum)
	return sum, err
}

func (r *ledgerRepository) HasRefund(ctx context.Context, purchaseID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ledger_transactions WHERE related_purchase_id = $1 AND transaction_type = 'REFUND')`
	err := r.q.QueryRowContext(ctx, query, purchaseID).Scan(&exists)
	return exists, err
}

func (r *ledgerRepository) Summary(ctx context.Context, userID string) (*domain.LedgerSummary, error) {
	summary := &domain.LedgerSummary{}

	var balance int64
	if err := r.q.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE user_id = $1`, userID).Scan(&balance); err != nil {
		return nil, accountScanErr(err)
	}
	summary.Balance = balance

	query := `SELECT
	            COALESCE(SUM(CASE WHEN transaction_type = 'CHARGE' THEN amount ELSE 0 END), 0),
	            COALESCE(SUM(CASE WHEN transaction_type IN ('PURCHASE', 'SUBSCRIPTION_CHARGE') AND amount < 0 THEN -amount ELSE 0 END), 0),
	            COALESCE(SUM(CASE WHEN transaction_type = 'BONUS' THEN amount ELSE 0 END), 0),
	            COALESCE(SUM(CASE WHEN transaction_type = 'REFUND' THEN amount ELSE 0 END), 0),
	            COALESCE(SUM(CASE WHEN transaction_type = 'SALE_COMMISSION' THEN amount ELSE 0 END), 0)
	          FROM ledger_transactions WHERE user_id = $1`
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&summary.TotalCharged, &summary.TotalSpent, &summary.TotalGranted,
		&summary.TotalRefunded, &summary.TotalCommission)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// SellerRevenue counts both first purchases and subscription renewals of the
// seller's items. The amount < 0 guard keeps credit-direction
// SUBSCRIPTION_CHARGE entries (webhook-granted plans) out of the sum.
func (r *ledgerRepository) SellerRevenue(ctx context.Context, sellerID string, from, to time.Time) (*domain.SellerRevenue, error) {
	rev := &domain.SellerRevenue{SellerID: sellerID, From: from, To: to}
	query := `SELECT COALESCE(SUM(-t.amount), 0), count(*)
	          FROM ledger_transactions t
	          JOIN items i ON i.id = t.related_item_id
	          WHERE i.seller_id = $1
	            AND t.transaction_type IN ('PURCHASE', 'SUBSCRIPTION_CHARGE')
	            AND t.amount < 0
	            AND t.created_at >= $2 AND t.created_at < $3`
	err := r.q.QueryRowContext(ctx, query, sellerID, from, to).Scan(&rev.TotalPoints, &rev.SaleCount)
	if err != nil {
		return nil, err
	}
	return rev, nil
}
