package domain

import "time"

type TransactionType string

const (
	// TransactionTypePurchase debits a buyer for an item purchase.
	TransactionTypePurchase TransactionType = "PURCHASE"
	// TransactionTypeSaleCommission credits a seller their cut of a purchase.
	TransactionTypeSaleCommission TransactionType = "SALE_COMMISSION"
	// TransactionTypeRefund reverses a purchase debit.
	TransactionTypeRefund TransactionType = "REFUND"
	// TransactionTypeCharge credits points bought with real money.
	TransactionTypeCharge TransactionType = "CHARGE"
	// TransactionTypeBonus credits admin grants and campaign rewards.
	TransactionTypeBonus TransactionType = "BONUS"
	// TransactionTypeSubscriptionCharge debits a recurring membership renewal,
	// or credits points granted by an external subscription plan.
	TransactionTypeSubscriptionCharge TransactionType = "SUBSCRIPTION_CHARGE"
)

// Valid reports whether t is one of the known transaction types.
// Unknown kinds are rejected at the boundary rather than stored.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeSaleCommission, TransactionTypeRefund,
		TransactionTypeCharge, TransactionTypeBonus, TransactionTypeSubscriptionCharge:
		return true
	}
	return false
}

// LedgerTransaction is one append-only ledger entry. Rows are never updated
// or deleted; corrections are recorded as new entries (e.g. REFUND).
type LedgerTransaction struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Type              TransactionType `json:"transaction_type"`
	Amount            int64           `json:"amount"` // positive = credit, negative = debit
	RelatedItemID     *string         `json:"related_item_id,omitempty"`
	RelatedPurchaseID *string         `json:"related_purchase_id,omitempty"`
	Description       string          `json:"description"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TransactionFilter narrows transaction history queries.
type TransactionFilter struct {
	Type   TransactionType // empty = all types
	Limit  int32
	Offset int32
}

// LedgerSummary aggregates a user's ledger for display.
type LedgerSummary struct {
	Balance         int64 `json:"balance"`
	TotalCharged    int64 `json:"total_charged"`    // CHARGE credits
	TotalSpent      int64 `json:"total_spent"`      // PURCHASE + SUBSCRIPTION_CHARGE debits, as a positive number
	TotalGranted    int64 `json:"total_granted"`    // BONUS credits
	TotalRefunded   int64 `json:"total_refunded"`   // REFUND credits
	TotalCommission int64 `json:"total_commission"` // SALE_COMMISSION credits
}

// SellerRevenue aggregates purchase and subscription-renewal debits
// attributable to a seller's items over a date range.
type SellerRevenue struct {
	SellerID    string    `json:"seller_id"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	TotalPoints int64     `json:"total_points"`
	SaleCount   int64     `json:"sale_count"`
}
