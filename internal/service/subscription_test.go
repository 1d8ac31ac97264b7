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
	getSubByIDQuery       = `FROM subscriptions WHERE id = \$1`
	getSubByItemUserQuery = `FROM subscriptions WHERE item_id = \$1 AND user_id = \$2`
	updateSubQuery        = `UPDATE subscriptions SET status = \$2`
	insertSubQuery        = `INSERT INTO subscriptions`
	extendExpiryQuery     = `UPDATE purchase_records SET expires_at = \$2`
	listDueQuery          = `WHERE status = 'ACTIVE' AND next_charge_at <= \$1`
)

func TestSubscribe(t *testing.T) {
	t.Run("first cycle buys the item and schedules the next charge", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewSubscriptionService(store, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, true))
		mock.ExpectQuery(getSubByItemUserQuery).
			WithArgs("item-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "status", "interval_days", "next_charge_at", "last_charged_at", "created_at", "updated_at",
			}))
		mock.ExpectQuery(findPurchaseQuery).
			WithArgs("item-1", "user-1").
			WillReturnRows(emptyPurchaseRows())
		mock.ExpectQuery(lockBalanceQuery).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance", "archived"}).AddRow(1000, false))
		mock.ExpectExec(setBalanceQuery).
			WithArgs("user-1", int64(700)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(appendQuery).
			WithArgs(sqlmock.AnyArg(), "user-1", domain.TransactionTypePurchase, int64(-300),
				"item-1", nil, `Subscribed to "Starter Guide"`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectQuery(insertPurchaseQuery).
			WithArgs(sqlmock.AnyArg(), "item-1", "user-1", int64(300), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"purchased_at"}).AddRow(time.Now()))
		mock.ExpectQuery(insertSubQuery).
			WithArgs(sqlmock.AnyArg(), "item-1", "user-1", domain.SubscriptionStatusActive,
				int32(30), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectCommit()

		sub, err := svc.Subscribe(context.Background(), "item-1", "user-1", 30)
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
		assert.Equal(t, int32(30), sub.IntervalDays)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("active subscription cannot be doubled", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewSubscriptionService(store, nil)
		next := time.Now().AddDate(0, 0, 10)

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, true))
		mock.ExpectQuery(getSubByItemUserQuery).
			WithArgs("item-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "status", "interval_days", "next_charge_at", "last_charged_at", "created_at", "updated_at",
			}).AddRow("sub-1", "ACTIVE", 30, next, nil, time.Now(), time.Now()))
		mock.ExpectRollback()

		_, err := svc.Subscribe(context.Background(), "item-1", "user-1", 30)
		assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)
	})

	t.Run("rejects non-positive intervals", func(t *testing.T) {
		store, _ := newTestStore(t)
		svc := service.NewSubscriptionService(store, nil)

		_, err := svc.Subscribe(context.Background(), "item-1", "user-1", 0)
		assert.Error(t, err)
	})
}

func TestCancel(t *testing.T) {
	next := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	subRows := func(status string) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"item_id", "user_id", "status", "interval_days", "next_charge_at", "last_charged_at", "created_at", "updated_at",
		}).AddRow("item-1", "user-1", status, 30, next, nil, next.AddDate(0, -1, 0), next.AddDate(0, -1, 0))
	}

	t.Run("stops the recurring charge", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewSubscriptionService(store, nil)

		mock.ExpectQuery(getSubByIDQuery).
			WithArgs("sub-1").
			WillReturnRows(subRows("ACTIVE"))
		mock.ExpectExec(updateSubQuery).
			WithArgs("sub-1", domain.SubscriptionStatusCancelled, next, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		sub, err := svc.Cancel(context.Background(), "sub-1", "user-1")
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionStatusCancelled, sub.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewSubscriptionService(store, nil)

		mock.ExpectQuery(getSubByIDQuery).
			WithArgs("sub-1").
			WillReturnRows(subRows("CANCELLED"))

		sub, err := svc.Cancel(context.Background(), "sub-1", "user-1")
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionStatusCancelled, sub.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only the owner can cancel", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewSubscriptionService(store, nil)

		mock.ExpectQuery(getSubByIDQuery).
			WithArgs("sub-1").
			WillReturnRows(subRows("ACTIVE"))

		_, err := svc.Cancel(context.Background(), "sub-1", "someone-else")
		assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
	})
}

func TestChargeDue(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	dueAt := now.Add(-time.Hour)

	dueRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "item_id", "user_id", "status", "interval_days", "next_charge_at", "last_charged_at", "created_at", "updated_at",
		}).AddRow("sub-1", "item-1", "user-1", "ACTIVE", 30, dueAt, nil, dueAt.AddDate(0, -1, 0), dueAt)
	}

	t.Run("renews a due subscription", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewSubscriptionService(store, nil)
		renewedUntil := dueAt.AddDate(0, 0, 30)

		mock.ExpectQuery(listDueQuery).
			WithArgs(now, sqlmock.AnyArg()).
			WillReturnRows(dueRows())

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, true))
		mock.ExpectQuery(findPurchaseQuery).
			WithArgs("item-1", "user-1").
			WillReturnRows(emptyPurchaseRows().AddRow("purchase-1", 300, dueAt.AddDate(0, 0, -30), dueAt))
		mock.ExpectQuery(lockBalanceQuery).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance", "archived"}).AddRow(1000, false))
		mock.ExpectExec(setBalanceQuery).
			WithArgs("user-1", int64(700)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(appendQuery).
			WithArgs(sqlmock.AnyArg(), "user-1", domain.TransactionTypeSubscriptionCharge, int64(-300),
				"item-1", "purchase-1", `Renewed "Starter Guide"`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
		mock.ExpectExec(extendExpiryQuery).
			WithArgs("purchase-1", renewedUntil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(updateSubQuery).
			WithArgs("sub-1", domain.SubscriptionStatusActive, renewedUntil, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		charged, pastDue, err := svc.ChargeDue(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, 1, charged)
		assert.Equal(t, 0, pastDue)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance marks the subscription past due", func(t *testing.T) {
		store, mock := newTestStore(t)
		svc := service.NewSubscriptionService(store, nil)

		mock.ExpectQuery(listDueQuery).
			WithArgs(now, sqlmock.AnyArg()).
			WillReturnRows(dueRows())

		mock.ExpectBegin()
		mock.ExpectQuery(getItemQuery).
			WithArgs("item-1").
			WillReturnRows(itemRow("seller-1", 300, nil, true))
		mock.ExpectQuery(findPurchaseQuery).
			WithArgs("item-1", "user-1").
			WillReturnRows(emptyPurchaseRows().AddRow("purchase-1", 300, dueAt.AddDate(0, 0, -30), dueAt))
		mock.ExpectQuery(lockBalanceQuery).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"balance", "archived"}).AddRow(50, false))
		mock.ExpectRollback()

		mock.ExpectExec(updateSubQuery).
			WithArgs("sub-1", domain.SubscriptionStatusPastDue, dueAt, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		charged, pastDue, err := svc.ChargeDue(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, 0, charged)
		assert.Equal(t, 1, pastDue)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
