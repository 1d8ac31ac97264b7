package domain

import "time"

// Account is the current-balance projection for one user. The balance is
// mutated only by the ledger service's balance mutator, never directly,
// and always equals the sum of the user's ledger transactions.
type Account struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
