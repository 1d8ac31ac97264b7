package service_test

import (
	"context"
	"testing"
	"time"

	"pointmarket-backend/internal/domain"
	"pointmarket-backend/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	getItemQuery        = `SELECT seller_id, title, price_points, stock_quantity, is_available`
	findPurchaseQuery   = `FROM purchase_records WHERE item_id = \$1 AND buyer_id = \$2`
	insertPurchaseQuery = `INSERT INTO purchase_records`
	decrementStockQuery = `UPDATE items SET stock_quantity = stock_quantity - 1`
)

func itemRow(sellerID string, price int64, stock any, available bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"seller_id", "title", "price_points", "stock_quantity", "is_available", "created_at", "updated_at",
	}).AddRow(sellerID, "Starter Guide", price, stock, available, time.Now(), time.Now())
}

func emptyPurchaseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "points_spent", "purchased_at", "expires_at"})
}

func TestPurchase(t *testing.T) {
	t.Run("debits the buyer and records the purchase atomically", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewPurchaseService(store, nil, 0)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, true))
		mock.ExpectQuery(findPurchaseQuery).
			WithArgs("item-1", "buyer-1").
			WillReturnRows(emptyPurchaseRows())
		mock.ExpectQuery(lockBalanceQuery).
			WithArgs("buyer-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance", "archived"}).AddRow(1000, false))
		mock.ExpectExec(setBalanceQuery).
			WithArgs("buyer-1", int64(700)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(appendQuery).
			WithArgs(sqlmock.AnyArg(), "buyer-1", domain.TransactionTypePurchase, int64(-300),
				"item-1", nil, `Purchased "Starter Guide"`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectQuery(insertPurchaseQuery).
			WithArgs(sqlmock.AnyArg(), "item-1", "buyer-1", int64(300), nil).
			WillReturnRows(sqlmock.NewRows([]string{"purchased_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		receipt, err := svc.Purchase(context.Background(), "item-1", "buyer-1")
		require.NoError(t, err)
		assert.False(t, receipt.AlreadyOwned)
		assert.Equal(t, int64(300), receipt.PointsSpent)
		assert.Equal(t, int64(700), receipt.RemainingBalance)
		assert.NotEmpty(t, receipt.PurchaseID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replays an existing purchase without a second debit", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewPurchaseService(store, nil, 0)
		purchasedAt := time.Now().Add(-24 * time.Hour)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, true))
		mock.ExpectQuery(findPurchaseQuery).
			WithArgs("item-1", "buyer-1").
			WillReturnRows(emptyPurchaseRows().AddRow("purchase-1", 300, purchasedAt, nil))
		mock.ExpectQuery(`SELECT balance FROM accounts WHERE user_id = \$1`).
			WithArgs("buyer-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(700))
		mock.ExpectCommit()

		receipt, err := svc.Purchase(context.Background(), "item-1", "buyer-1")
		require.NoError(t, err)
		assert.True(t, receipt.AlreadyOwned)
		assert.Equal(t, "purchase-1", receipt.PurchaseID)
		assert.Equal(t, int64(300), receipt.PointsSpent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance leaves no partial effects", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewPurchaseService(store, nil, 0)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, true))
		mock.ExpectQuery(findPurchaseQuery).
			WithArgs("item-1", "buyer-1").
			WillReturnRows(emptyPurchaseRows())
		mock.ExpectQuery(lockBalanceQuery).
			WithArgs("buyer-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance", "archived"}).AddRow(100, false))
		mock.ExpectRollback()

		_, err := svc.Purchase(context.Background(), "item-1", "buyer-1")
		require.True(t, domain.IsInsufficientBalance(err))

		var insufficient *domain.InsufficientBalanceError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, int64(300), insufficient.Required)
		assert.Equal(t, int64(100), insufficient.Available)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("finite stock sells out", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewPurchaseService(store, nil, 0)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, 3, true))
		mock.ExpectQuery(findPurchaseQuery).
			WithArgs("item-1", "buyer-1").
			WillReturnRows(emptyPurchaseRows())
		mock.ExpectExec(decrementStockQuery).
			WithArgs("item-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := svc.Purchase(context.Background(), "item-1", "buyer-1")
		assert.ErrorIs(t, err, domain.ErrOutOfStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sellers cannot buy their own items", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewPurchaseService(store, nil, 0)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, true))
		mock.ExpectRollback()

		_, err := svc.Purchase(context.Background(), "item-1", "seller-1")
		assert.ErrorIs(t, err, domain.ErrSelfPurchase)
	})

	t.Run("self-purchase is rejected before the price is inspected", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewPurchaseService(store, nil, 0)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 0, nil, true))
		mock.ExpectRollback()

		_, err := svc.Purchase(context.Background(), "item-1", "seller-1")
		assert.ErrorIs(t, err, domain.ErrSelfPurchase)
	})

	t.Run("unavailable items cannot be bought", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewPurchaseService(store, nil, 0)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, false))
		mock.ExpectRollback()

		_, err := svc.Purchase(context.Background(), "item-1", "buyer-1")
		assert.ErrorIs(t, err, domain.ErrItemUnavailable)
	})

	t.Run("commission is credited to the seller in the same transaction", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewPurchaseService(store, nil, 10)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, true))
		mock.ExpectQuery(findPurchaseQuery).
			WithArgs("item-1", "buyer-1").
			WillReturnRows(emptyPurchaseRows())
		mock.ExpectQuery(lockBalanceQuery).
			WithArgs("buyer-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance", "archived"}).AddRow(1000, false))
		mock.ExpectExec(setBalanceQuery).
			WithArgs("buyer-1", int64(700)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(appendQuery).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectQuery(insertPurchaseQuery).
			WillReturnRows(sqlmock.NewRows([]string{"purchased_at"}).AddRow(time.Now()))
		// Seller side: 10% of 300.
		mock.ExpectQuery(lockBalanceQuery).
			WithArgs("seller-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance", "archived"}).AddRow(50, false))
		mock.ExpectExec(setBalanceQuery).
			WithArgs("seller-1", int64(80)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(appendQuery).
			WithArgs(sqlmock.AnyArg(), "seller-1", domain.TransactionTypeSaleCommission, int64(30),
				"item-1", sqlmock.AnyArg(), `Commission for "Starter Guide"`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		receipt, err := svc.Purchase(context.Background(), "item-1", "buyer-1")
		require.NoError(t, err)
		assert.Equal(t, int64(700), receipt.RemainingBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
