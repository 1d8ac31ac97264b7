package repository

import (
	"context"
	"time"

	"pointmarket-backend/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, userID string) (*domain.Account, error)
	Get(ctx context.Context, userID string) (*domain.Account, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	// GetBalanceForUpdate acquires an exclusive row lock on the account and
	// must only be called inside ExecTx. Concurrent mutators for the same
	// user serialize on this lock; other users are unaffected.
	GetBalanceForUpdate(ctx context.Context, userID string) (int64, error)
	SetBalance(ctx context.Context, userID string, balance int64) error
	Archive(ctx context.Context, userID string) error
}

type LedgerRepository interface {
	// Append inserts one immutable ledger entry. There is no update or
	// delete; refunds are recorded as new entries.
	Append(ctx context.Context, tx *domain.LedgerTransaction) error
	ListByUser(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.LedgerTransaction, int32, error)
	SumByUser(ctx context.Context, userID string) (int64, error)
	HasRefund(ctx context.Context, purchaseID string) (bool, error)
	Summary(ctx context.Context, userID string) (*domain.LedgerSummary, error)
	SellerRevenue(ctx context.Context, sellerID string, from, to time.Time) (*domain.SellerRevenue, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	ListBySeller(ctx context.Context, sellerID string, page, pageSize int32) ([]domain.Item, int32, error)
	// DecrementStock atomically takes one unit of finite stock. It returns
	// false when the item has no stock left; items with unlimited stock are
	// never passed to it.
	DecrementStock(ctx context.Context, id string) (bool, error)
}

type PurchaseRepository interface {
	// Create inserts optimistically; a uniqueness conflict on
	// (item_id, buyer_id) is returned as domain.ErrAlreadyPurchased.
	Create(ctx context.Context, rec *domain.PurchaseRecord) error
	GetByID(ctx context.Context, id string) (*domain.PurchaseRecord, error)
	GetByItemAndBuyer(ctx context.Context, itemID, buyerID string) (*domain.PurchaseRecord, error)
	ListByBuyer(ctx context.Context, buyerID string, page, pageSize int32) ([]domain.PurchaseRecord, int32, error)
	ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	GetByID(ctx context.Context, id string) (*domain.Subscription, error)
	GetByItemAndUser(ctx context.Context, itemID, userID string) (*domain.Subscription, error)
	Update(ctx context.Context, sub *domain.Subscription) error
	ListDue(ctx context.Context, now time.Time, limit int32) ([]domain.Subscription, error)
}

// Store bundles the repositories and provides the single atomic-unit
// primitive of the engine: ExecTx runs fn against a transaction-scoped
// Store, commits when fn returns nil and rolls back everything otherwise.
// A failed purchase therefore leaves no partial debit, stock decrement or
// purchase record behind.
type Store interface {
	Accounts() AccountRepository
	Ledger() LedgerRepository
	Items() ItemRepository
	Purchases() PurchaseRepository
	Subscriptions() SubscriptionRepository
	ExecTx(ctx context.Context, fn func(Store) error) error
}

// BalanceCache is an optional, non-authoritative read cache for balances.
// The database value always wins; the cache is invalidated after every
// successful balance mutation.
type BalanceCache interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	SetBalance(ctx context.Context, userID string, balance int64) error
	InvalidateBalance(ctx context.Context, userID string) error
}
