package postgres

import (
	"context"
	"database/sql"
	"errors"

	"pointmarket-backend/internal/domain"
)

type accountRepository struct {
	q DBTX
}

// accountScanErr maps a missing-row scan error to the domain error.
func accountScanErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrAccountNotFound
	}
	return err
}

func (r *accountRepository) Create(ctx context.Context, userID string) (*domain.Account, error) {
	acct := &domain.Account{UserID: userID}
	query := `INSERT INTO accounts (user_id, balance) VALUES ($1, 0) RETURNING balance, archived, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, userID).
		Scan(&acct.Balance, &acct.Archived, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConstraintViolation
		}
		return nil, err
	}
	return acct, nil
}

func (r *accountRepository) Get(ctx context.Context, userID string) (*domain.Account, error) {
	acct := &domain.Account{UserID: userID}
	query := `SELECT balance, archived, created_at, updated_at FROM accounts WHERE user_id = $1`
	err := r.q.QueryRowContext(ctx, query, userID).
		Scan(&acct.Balance, &acct.Archived, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return acct, nil
}

func (r *accountRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	query := `SELECT balance FROM accounts WHERE user_id = $1`
	err := r.q.QueryRowContext(ctx, query, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrAccountNotFound
	}
	return balance, err
}

// GetBalanceForUpdate blocks concurrent mutators for the same user until the
// surrounding transaction commits or rolls back. Other users' rows stay
// unlocked.
func (r *accountRepository) GetBalanceForUpdate(ctx context.Context, userID string) (int64, error) {
	var balance int64
	var archived bool
	query := `SELECT balance, archived FROM accounts WHERE user_id = $1 FOR UPDATE`
	err := r.q.QueryRowContext(ctx, query, userID).Scan(&balance, &archived)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, err
	}
	if archived {
		return 0, domain.ErrAccountArchived
	}
	return balance, nil
}

func (r *accountRepository) SetBalance(ctx context.Context, userID string, balance int64) error {
	query := `UPDATE accounts SET balance = $2, updated_at = NOW() WHERE user_id = $1`
	res, err := r.q.ExecContext(ctx, query, userID, balance)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) Archive(ctx context.Context, userID string) error {
	query := `UPDATE accounts SET archived = TRUE, updated_at = NOW() WHERE user_id = $1`
	res, err := r.q.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
