package service

import (
	"context"
	"errors"

	"pointmarket-backend/internal/domain"
	"pointmarket-backend/internal/repository"
)

type catalogService struct {
	store repository.Store
}

func NewCatalogService(store repository.Store) CatalogService {
	return &catalogService{store: store}
}

func validateItem(item *domain.Item) error {
	if item.SellerID == "" {
		return errors.New("item seller is required")
	}
	if item.Title == "" {
		return errors.New("item title is required")
	}
	if item.PricePoints < 0 {
		return domain.ErrInvalidPrice
	}
	// A published item must carry a positive price; drafts may stay at zero.
	if item.IsAvailable && item.PricePoints == 0 {
		return domain.ErrInvalidPrice
	}
	if item.StockQuantity != nil && *item.StockQuantity < 0 {
		return errors.New("stock quantity cannot be negative")
	}
	return nil
}

func (s *catalogService) CreateItem(ctx context.Context, item *domain.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	return s.store.Items().Create(ctx, item)
}

func (s *catalogService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return s.store.Items().GetByID(ctx, id)
}

func (s *catalogService) UpdateItem(ctx context.Context, item *domain.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	return s.store.Items().Update(ctx, item)
}

func (s *catalogService) ListSellerItems(ctx context.Context, sellerID string, page, pageSize int32) ([]domain.Item, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultHistoryLimit
	}
	if pageSize > maxHistoryLimit {
		pageSize = maxHistoryLimit
	}
	return s.store.Items().ListBySeller(ctx, sellerID, page, pageSize)
}

func (s *catalogService) SetAvailability(ctx context.Context, id string, available bool) error {
	item, err := s.store.Items().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if available && item.PricePoints <= 0 {
		return domain.ErrInvalidPrice
	}
	item.IsAvailable = available
	return s.store.Items().Update(ctx, item)
}
