package service

import (
	"context"
	"fmt"
	"time"

	"pointmarket-backend/internal/domain"
	"pointmarket-backend/internal/logger"
	"pointmarket-backend/internal/repository"
)

const (
	defaultHistoryLimit int32 = 50
	maxHistoryLimit     int32 = 500
)

// creditableTypes are the transaction types external collaborators may credit
// through the ledger service. Everything else is produced internally by the
// purchase and subscription flows.
var creditableTypes = map[domain.TransactionType]bool{
	domain.TransactionTypeCharge:             true,
	domain.TransactionTypeBonus:              true,
	domain.TransactionTypeSubscriptionCharge: true,
}

type ledgerService struct {
	store           repository.Store
	cache           repository.BalanceCache
	minChargeAmount int64
}

func NewLedgerService(store repository.Store, cache repository.BalanceCache, minChargeAmount int64) LedgerService {
	return &ledgerService{store: store, cache: cache, minChargeAmount: minChargeAmount}
}

// applyDelta is the single code path through which an account balance changes.
// It locks the account row, rejects mutations that would drive the balance
// negative, writes the new balance and appends the matching ledger entry. It
// must run inside ExecTx so the balance write and the ledger append commit or
// roll back together.
func applyDelta(ctx context.Context, tx repository.Store, entry *domain.LedgerTransaction) (int64, error) {
	if entry.Amount == 0 {
		return 0, domain.ErrInvalidAmount
	}
	if !entry.Type.Valid() {
		return 0, domain.ErrInvalidTransactionType
	}

	balance, err := tx.Accounts().GetBalanceForUpdate(ctx, entry.UserID)
	if err != nil {
		return 0, err
	}
	newBalance := balance + entry.Amount
	if newBalance < 0 {
		return 0, &domain.InsufficientBalanceError{Required: -entry.Amount, Available: balance}
	}

	if err := tx.Accounts().SetBalance(ctx, entry.UserID, newBalance); err != nil {
		return 0, err
	}
	if err := tx.Ledger().Append(ctx, entry); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *ledgerService) invalidateBalance(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateBalance(ctx, userID); err != nil {
		logger.Warn("balance cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (s *ledgerService) CreateAccount(ctx context.Context, userID string) (*domain.Account, error) {
	return s.store.Accounts().Create(ctx, userID)
}

func (s *ledgerService) ArchiveAccount(ctx context.Context, userID string) error {
	if err := s.store.Accounts().Archive(ctx, userID); err != nil {
		return err
	}
	s.invalidateBalance(ctx, userID)
	return nil
}

func (s *ledgerService) GetBalance(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		if balance, err := s.cache.GetBalance(ctx, userID); err == nil {
			return balance, nil
		}
	}
	balance, err := s.store.Accounts().GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.SetBalance(ctx, userID, balance); err != nil {
			logger.Warn("balance cache write failed", "user_id", userID, "error", err)
		}
	}
	return balance, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.LedgerTransaction, int32, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, domain.ErrInvalidTransactionType
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultHistoryLimit
	}
	if filter.Limit > maxHistoryLimit {
		filter.Limit = maxHistoryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.Ledger().ListByUser(ctx, userID, filter)
}

func (s *ledgerService) GetSummary(ctx context.Context, userID string) (*domain.LedgerSummary, error) {
	return s.store.Ledger().Summary(ctx, userID)
}

func (s *ledgerService) GetSellerRevenue(ctx context.Context, sellerID string, from, to time.Time) (*domain.SellerRevenue, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("revenue range end %s must be after start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return s.store.Ledger().SellerRevenue(ctx, sellerID, from, to)
}

func (s *ledgerService) Credit(ctx context.Context, userID string, amount int64, txType domain.TransactionType, relatedItemID *string, description string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	if !creditableTypes[txType] {
		return 0, domain.ErrInvalidTransactionType
	}
	if txType == domain.TransactionTypeCharge && amount < s.minChargeAmount {
		return 0, fmt.Errorf("charge of %d points is below the minimum of %d: %w",
			amount, s.minChargeAmount, domain.ErrInvalidAmount)
	}

	var newBalance int64
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		var err error
		newBalance, err = applyDelta(ctx, tx, &domain.LedgerTransaction{
			UserID:        userID,
			Type:          txType,
			Amount:        amount,
			RelatedItemID: relatedItemID,
			Description:   description,
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	s.invalidateBalance(ctx, userID)
	logger.Info("points credited", "user_id", userID, "type", txType, "amount", amount, "balance", newBalance)
	return newBalance, nil
}

func (s *ledgerService) Refund(ctx context.Context, purchaseID string) (int64, error) {
	var (
		newBalance int64
		buyerID    string
	)
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		rec, err := tx.Purchases().GetByID(ctx, purchaseID)
		if err != nil {
			return err
		}
		buyerID = rec.BuyerID

		// Cheap pre-check; the partial unique index on related_purchase_id
		// closes the remaining race between concurrent refunds.
		refunded, err := tx.Ledger().HasRefund(ctx, purchaseID)
		if err != nil {
			return err
		}
		if refunded {
			return domain.ErrAlreadyRefunded
		}

		newBalance, err = applyDelta(ctx, tx, &domain.LedgerTransaction{
			UserID:            rec.BuyerID,
			Type:              domain.TransactionTypeRefund,
			Amount:            rec.PointsSpent,
			RelatedItemID:     &rec.ItemID,
			RelatedPurchaseID: &rec.ID,
			Description:       "Purchase refund",
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	s.invalidateBalance(ctx, buyerID)
	logger.Info("purchase refunded", "purchase_id", purchaseID, "user_id", buyerID, "balance", newBalance)
	return newBalance, nil
}
