package service

import (
	"context"
	"time"

	"pointmarket-backend/internal/domain"
)

type LedgerService interface {
	CreateAccount(ctx context.Context, userID string) (*domain.Account, error)
	ArchiveAccount(ctx context.Context, userID string) error
	GetBalance(ctx context.Context, userID string) (int64, error)
	ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.LedgerTransaction, int32, error)
	GetSummary(ctx context.Context, userID string) (*domain.LedgerSummary, error)
	GetSellerRevenue(ctx context.Context, sellerID string, from, to time.Time) (*domain.SellerRevenue, error)

	// Credit grants points from external collaborators (payment webhooks,
	// admin grants, bonus flows). Amount must be positive; the type must be
	// one of CHARGE, BONUS or SUBSCRIPTION_CHARGE.
	Credit(ctx context.Context, userID string, amount int64, txType domain.TransactionType, relatedItemID *string, description string) (int64, error)

	// Refund reverses a purchase's debit exactly once.
	Refund(ctx context.Context, purchaseID string) (int64, error)
}

type PurchaseService interface {
	// Purchase executes the full purchase of an item by a buyer as one
	// atomic transaction. Repeated calls for the same (item, buyer) return
	// the original receipt without a second debit.
	Purchase(ctx context.Context, itemID, buyerID string) (*domain.PurchaseReceipt, error)
	GetPurchase(ctx context.Context, purchaseID string) (*domain.PurchaseRecord, error)
	ListPurchases(ctx context.Context, buyerID string, page, pageSize int32) ([]domain.PurchaseRecord, int32, error)
}

type CatalogService interface {
	CreateItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	UpdateItem(ctx context.Context, item *domain.Item) error
	ListSellerItems(ctx context.Context, sellerID string, page, pageSize int32) ([]domain.Item, int32, error)
	SetAvailability(ctx context.Context, id string, available bool) error
}

type SubscriptionService interface {
	// Subscribe purchases the first cycle of a point-charged membership and
	// registers the recurring charge.
	Subscribe(ctx context.Context, itemID, userID string, intervalDays int32) (*domain.Subscription, error)
	Cancel(ctx context.Context, subscriptionID, userID string) (*domain.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*domain.Subscription, error)

	// ChargeDue renews every active subscription whose next_charge_at has
	// passed. Insufficient balance marks the subscription PAST_DUE without
	// partial effects. Invoked by the cron job runner.
	ChargeDue(ctx context.Context, now time.Time) (charged, pastDue int, err error)
}
