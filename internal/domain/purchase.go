package domain

import "time"

// PurchaseRecord marks that a buyer owns an item. At most one record exists
// per (item, buyer), enforced by a database uniqueness constraint. The only
// permitted mutation is extending or clearing ExpiresAt.
type PurchaseRecord struct {
	ID          string     `json:"id"`
	ItemID      string     `json:"item_id"`
	BuyerID     string     `json:"buyer_id"`
	PointsSpent int64      `json:"points_spent"`
	PurchasedAt time.Time  `json:"purchased_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Active reports whether the record grants ownership at time now.
func (p *PurchaseRecord) Active(now time.Time) bool {
	return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}

// PurchaseReceipt is the caller-facing result of a purchase. Replayed
// requests return the original receipt with the current balance.
type PurchaseReceipt struct {
	PurchaseID       string    `json:"purchase_id"`
	ItemID           string    `json:"item_id"`
	PointsSpent      int64     `json:"points_spent"`
	RemainingBalance int64     `json:"remaining_balance"`
	PurchasedAt      time.Time `json:"purchased_at"`
	AlreadyOwned     bool      `json:"already_owned"`
}
