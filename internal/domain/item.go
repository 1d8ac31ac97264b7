package domain

import "time"

// Item is a purchasable entity owned by a seller. Pricing and stock are
// managed by the catalog service; the purchase orchestrator reads and
// conditionally decrements stock inside the purchase transaction.
type Item struct {
	ID            string    `json:"id"`
	SellerID      string    `json:"seller_id"`
	Title         string    `json:"title"`
	PricePoints   int64     `json:"price_points"`
	StockQuantity *int64    `json:"stock_quantity,omitempty"` // nil = unlimited
	IsAvailable   bool      `json:"is_available"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
