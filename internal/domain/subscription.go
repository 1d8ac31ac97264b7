package domain

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue   SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription is a point-charged recurring membership on an item. Renewal
// debits a SUBSCRIPTION_CHARGE transaction and extends the expiry of the
// member's purchase record.
type Subscription struct {
	ID            string             `json:"id"`
	ItemID        string             `json:"item_id"`
	UserID        string             `json:"user_id"`
	Status        SubscriptionStatus `json:"status"`
	IntervalDays  int32              `json:"interval_days"`
	NextChargeAt  time.Time          `json:"next_charge_at"`
	LastChargedAt *time.Time         `json:"last_charged_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
