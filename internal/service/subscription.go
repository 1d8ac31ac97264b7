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

// chargeBatchSize caps how many due subscriptions a single ChargeDue pass
// processes; the next scheduled run picks up the remainder.
const chargeBatchSize int32 = 100

type subscriptionService struct {
	store repository.Store
	cache repository.BalanceCache
}

func NewSubscriptionService(store repository.Store, cache repository.BalanceCache) SubscriptionService {
	return &subscriptionService{store: store, cache: cache}
}

func (s *subscriptionService) Subscribe(ctx context.Context, itemID, userID string, intervalDays int32) (*domain.Subscription, error) {
	if intervalDays <= 0 {
		return nil, fmt.Errorf("subscription interval must be positive, got %d", intervalDays)
	}

	var sub *domain.Subscription
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		item, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if err := validatePurchasable(item, userID); err != nil {
			return err
		}

		existing, err := tx.Subscriptions().GetByItemAndUser(ctx, itemID, userID)
		if err == nil && existing.Status == domain.SubscriptionStatusActive {
			return domain.ErrAlreadySubscribed
		}
		if err != nil && !errors.Is(err, domain.ErrSubscriptionNotFound) {
			return err
		}

		now := time.Now().UTC()
		expiry := now.AddDate(0, 0, int(intervalDays))

		rec, err := tx.Purchases().GetByItemAndBuyer(ctx, itemID, userID)
		switch {
		case errors.Is(err, domain.ErrPurchaseNotFound):
			// First cycle buys the item itself.
			if item.StockQuantity != nil {
				taken, err := tx.Items().DecrementStock(ctx, itemID)
				if err != nil {
					return err
				}
				if !taken {
					return domain.ErrOutOfStock
				}
			}
			if _, err := applyDelta(ctx, tx, &domain.LedgerTransaction{
				UserID:        userID,
				Type:          domain.TransactionTypePurchase,
				Amount:        -item.PricePoints,
				RelatedItemID: &item.ID,
				Description:   fmt.Sprintf("Subscribed to %q", item.Title),
			}); err != nil {
				return err
			}
			rec = &domain.PurchaseRecord{
				ItemID:      itemID,
				BuyerID:     userID,
				PointsSpent: item.PricePoints,
				ExpiresAt:   &expiry,
			}
			if err := tx.Purchases().Create(ctx, rec); err != nil {
				return err
			}
		case err == nil:
			// Returning subscriber: charge a renewal and extend the existing
			// purchase instead of inserting a duplicate record.
			if _, err := applyDelta(ctx, tx, &domain.LedgerTransaction{
				UserID:            userID,
				Type:              domain.TransactionTypeSubscriptionCharge,
				Amount:            -item.PricePoints,
				RelatedItemID:     &item.ID,
				RelatedPurchaseID: &rec.ID,
				Description:       fmt.Sprintf("Renewed %q", item.Title),
			}); err != nil {
				return err
			}
			if err := tx.Purchases().ExtendExpiry(ctx, rec.ID, expiry); err != nil {
				return err
			}
		default:
			return err
		}

		if existing != nil {
			existing.Status = domain.SubscriptionStatusActive
			existing.NextChargeAt = expiry
			existing.LastChargedAt = &now
			if err := tx.Subscriptions().Update(ctx, existing); err != nil {
				return err
			}
			sub = existing
			return nil
		}
		sub = &domain.Subscription{
			ItemID:        itemID,
			UserID:        userID,
			Status:        domain.SubscriptionStatusActive,
			IntervalDays:  intervalDays,
			NextChargeAt:  expiry,
			LastChargedAt: &now,
		}
		return tx.Subscriptions().Create(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, userID)
	logger.Info("subscription started",
		"subscription_id", sub.ID, "item_id", itemID, "user_id", userID, "next_charge_at", sub.NextChargeAt)
	return sub, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, subscriptionID, userID string) (*domain.Subscription, error) {
	sub, err := s.store.Subscriptions().GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, domain.ErrSubscriptionNotFound
	}
	if sub.Status == domain.SubscriptionStatusCancelled {
		return sub, nil
	}
	// Access already paid for stays until the purchase record expires; only
	// the recurring charge stops.
	sub.Status = domain.SubscriptionStatusCancelled
	if err := s.store.Subscriptions().Update(ctx, sub); err != nil {
		return nil, err
	}
	logger.Info("subscription cancelled", "subscription_id", subscriptionID, "user_id", userID)
	return sub, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*domain.Subscription, error) {
	return s.store.Subscriptions().GetByID(ctx, id)
}

func (s *subscriptionService) ChargeDue(ctx context.Context, now time.Time) (int, int, error) {
	due, err := s.store.Subscriptions().ListDue(ctx, now, chargeBatchSize)
	if err != nil {
		return 0, 0, err
	}

	var charged, pastDue int
	for i := range due {
		sub := &due[i]
		err := s.chargeOne(ctx, sub, now)
		switch {
		case err == nil:
			charged++
			s.invalidateBalance(ctx, sub.UserID)
		case domain.IsInsufficientBalance(err):
			if err := s.markPastDue(ctx, sub, now); err != nil {
				logger.Error("failed to mark subscription past due", "subscription_id", sub.ID, "error", err)
				continue
			}
			pastDue++
		default:
			logger.Error("subscription charge failed", "subscription_id", sub.ID, "error", err)
		}
	}
	return charged, pastDue, nil
}

// chargeOne renews a single subscription atomically: the debit, the purchase
// expiry extension and the schedule advance commit together or not at all.
func (s *subscriptionService) chargeOne(ctx context.Context, sub *domain.Subscription, now time.Time) error {
	return s.store.ExecTx(ctx, func(tx repository.Store) error {
		item, err := tx.Items().GetByID(ctx, sub.ItemID)
		if err != nil {
			return err
		}
		if !item.IsAvailable {
			// The seller pulled the item; stop charging instead of failing
			// every future run.
			sub.Status = domain.SubscriptionStatusCancelled
			return tx.Subscriptions().Update(ctx, sub)
		}

		rec, err := tx.Purchases().GetByItemAndBuyer(ctx, sub.ItemID, sub.UserID)
		if err != nil {
			return err
		}

		if _, err := applyDelta(ctx, tx, &domain.LedgerTransaction{
			UserID:            sub.UserID,
			Type:              domain.TransactionTypeSubscriptionCharge,
			Amount:            -item.PricePoints,
			RelatedItemID:     &item.ID,
			RelatedPurchaseID: &rec.ID,
			Description:       fmt.Sprintf("Renewed %q", item.Title),
		}); err != nil {
			return err
		}

		// Advance from the scheduled time, not from now, so the billing
		// anchor does not drift when the job runs late.
		next := sub.NextChargeAt.AddDate(0, 0, int(sub.IntervalDays))
		for !next.After(now) {
			next = next.AddDate(0, 0, int(sub.IntervalDays))
		}
		if err := tx.Purchases().ExtendExpiry(ctx, rec.ID, next); err != nil {
			return err
		}

		sub.NextChargeAt = next
		sub.LastChargedAt = &now
		return tx.Subscriptions().Update(ctx, sub)
	})
}

func (s *subscriptionService) markPastDue(ctx context.Context, sub *domain.Subscription, now time.Time) error {
	sub.Status = domain.SubscriptionStatusPastDue
	if err := s.store.Subscriptions().Update(ctx, sub); err != nil {
		return err
	}
	logger.Warn("subscription past due", "subscription_id", sub.ID, "user_id", sub.UserID, "due_at", sub.NextChargeAt)
	return nil
}

func (s *subscriptionService) invalidateBalance(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateBalance(ctx, userID); err != nil {
		logger.Warn("balance cache invalidation failed", "user_id", userID, "error", err)
	}
}
