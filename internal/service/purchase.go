package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pointmarket-backend/internal/domain"
	"pointmarket-backend/internal/logger"
	"pointmarket-backend/internal/repository"
)

type purchaseService struct {
	store                 repository.Store
	cache                 repository.BalanceCache
	commissionRatePercent int64
}

func NewPurchaseService(store repository.Store, cache repository.BalanceCache, commissionRatePercent int64) PurchaseService {
	return &purchaseService{
		store:                 store,
		cache:                 cache,
		commissionRatePercent: commissionRatePercent,
	}
}

// validatePurchasable rejects items that cannot be bought by this buyer
// before any state is touched.
func validatePurchasable(item *domain.Item, buyerID string) error {
	if !item.IsAvailable {
		return domain.ErrItemUnavailable
	}
	if item.SellerID == buyerID {
		return domain.ErrSelfPurchase
	}
	if item.PricePoints <= 0 {
		return domain.ErrInvalidPrice
	}
	return nil
}

func (s *purchaseService) Purchase(ctx context.Context, itemID, buyerID string) (*domain.PurchaseReceipt, error) {
	var receipt *domain.PurchaseReceipt
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		item, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if err := validatePurchasable(item, buyerID); err != nil {
			return err
		}

		// Idempotent replay: a buyer who already holds the item gets the
		// original receipt back instead of a second debit.
		existing, err := tx.Purchases().GetByItemAndBuyer(ctx, itemID, buyerID)
		if err == nil {
			if !existing.Active(time.Now().UTC()) {
				return domain.ErrAlreadyPurchased
			}
			balance, err := tx.Accounts().GetBalance(ctx, buyerID)
			if err != nil {
				return err
			}
			receipt = &domain.PurchaseReceipt{
				PurchaseID:       existing.ID,
				ItemID:           itemID,
				PointsSpent:      existing.PointsSpent,
				RemainingBalance: balance,
				PurchasedAt:      existing.PurchasedAt,
				AlreadyOwned:     true,
			}
			return nil
		}
		if !errors.Is(err, domain.ErrPurchaseNotFound) {
			return err
		}

		if item.StockQuantity != nil {
			taken, err := tx.Items().DecrementStock(ctx, itemID)
			if err != nil {
				return err
			}
			if !taken {
				return domain.ErrOutOfStock
			}
		}

		newBalance, err := applyDelta(ctx, tx, &domain.LedgerTransaction{
			UserID:        buyerID,
			Type:          domain.TransactionTypePurchase,
			Amount:        -item.PricePoints,
			RelatedItemID: &item.ID,
			Description:   fmt.Sprintf("Purchased %q", item.Title),
		})
		if err != nil {
			return err
		}

		rec := &domain.PurchaseRecord{
			ItemID:      itemID,
			BuyerID:     buyerID,
			PointsSpent: item.PricePoints,
		}
		if err := tx.Purchases().Create(ctx, rec); err != nil {
			return err
		}

		if err := s.creditCommission(ctx, tx, item, rec); err != nil {
			return err
		}

		receipt = &domain.PurchaseReceipt{
			PurchaseID:       rec.ID,
			ItemID:           itemID,
			PointsSpent:      rec.PointsSpent,
			RemainingBalance: newBalance,
			PurchasedAt:      rec.PurchasedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !receipt.AlreadyOwned {
		s.invalidateBalances(ctx, buyerID, itemID)
		logger.Info("item purchased",
			"item_id", itemID, "buyer_id", buyerID,
			"purchase_id", receipt.PurchaseID, "points_spent", receipt.PointsSpent)
	}
	return receipt, nil
}

// creditCommission pays the seller their configured share of the sale within
// the same transaction as the buyer's debit.
func (s *purchaseService) creditCommission(ctx context.Context, tx repository.Store, item *domain.Item, rec *domain.PurchaseRecord) error {
	if s.commissionRatePercent <= 0 {
		return nil
	}
	amount := item.PricePoints * s.commissionRatePercent / 100
	if amount == 0 {
		return nil
	}
	_, err := applyDelta(ctx, tx, &domain.LedgerTransaction{
		UserID:            item.SellerID,
		Type:              domain.TransactionTypeSaleCommission,
		Amount:            amount,
		RelatedItemID:     &item.ID,
		RelatedPurchaseID: &rec.ID,
		Description:       fmt.Sprintf("Commission for %q", item.Title),
	})
	return err
}

func (s *purchaseService) invalidateBalances(ctx context.Context, buyerID, itemID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateBalance(ctx, buyerID); err != nil {
		logger.Warn("balance cache invalidation failed", "user_id", buyerID, "error", err)
	}
	if s.commissionRatePercent > 0 {
		if item, err := s.store.Items().GetByID(ctx, itemID); err == nil {
			if err := s.cache.InvalidateBalance(ctx, item.SellerID); err != nil {
				logger.Warn("balance cache invalidation failed", "user_id", item.SellerID, "error", err)
			}
		}
	}
}

func (s *purchaseService) GetPurchase(ctx context.Context, purchaseID string) (*domain.PurchaseRecord, error) {
	return s.store.Purchases().GetByID(ctx, purchaseID)
}

func (s *purchaseService) ListPurchases(ctx context.Context, buyerID string, page, pageSize int32) ([]domain.PurchaseRecord, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultHistoryLimit
	}
	if pageSize > maxHistoryLimit {
		pageSize = maxHistoryLimit
	}
	return s.store.Purchases().ListByBuyer(ctx, buyerID, page, pageSize)
}
