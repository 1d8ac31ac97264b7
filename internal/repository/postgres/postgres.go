package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pointmarket-backend/internal/repository"

	"github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository method
// runs unchanged inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB // nil for transaction-scoped stores

	accounts      *accountRepository
	ledger        *ledgerRepository
	items         *itemRepository
	purchases     *purchaseRepository
	subscriptions *subscriptionRepository
}

func NewStore(db *sql.DB) *Store {
	return newStore(db, db)
}

func newStore(db *sql.DB, q DBTX) *Store {
	return &Store{
		db:            db,
		accounts:      &accountRepository{q: q},
		ledger:        &ledgerRepository{q: q},
		items:         &itemRepository{q: q},
		purchases:     &purchaseRepository{q: q},
		subscriptions: &subscriptionRepository{q: q},
	}
}

func (s *Store) Accounts() repository.AccountRepository           { return s.accounts }
func (s *Store) Ledger() repository.LedgerRepository              { return s.ledger }
func (s *Store) Items() repository.ItemRepository                 { return s.items }
func (s *Store) Purchases() repository.PurchaseRepository         { return s.purchases }
func (s *Store) Subscriptions() repository.SubscriptionRepository { return s.subscriptions }

// ExecTx runs fn inside one database transaction. Nested calls reuse the
// surrounding transaction, so services can compose without double-begins.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(newStore(nil, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505), the signal the idempotency guard relies on.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
