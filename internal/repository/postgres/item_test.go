package postgres

import (
	"context"
	"regexp"
	"testing"

	"pointmarket-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestItemDecrementStock(t *testing.T) {
	query := regexp.QuoteMeta(`UPDATE items SET stock_quantity = stock_quantity - 1, updated_at = NOW()`)

	t.Run("takes one unit while stock remains", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(query).
			WithArgs("item-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		taken, err := store.Items().DecrementStock(context.Background(), "item-1")
		assert.NoError(t, err)
		assert.True(t, taken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports sold out without going negative", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(query).
			WithArgs("item-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		taken, err := store.Items().DecrementStock(context.Background(), "item-1")
		assert.NoError(t, err)
		assert.False(t, taken)
	})
}

func TestItemGetByID(t *testing.T) {
	t.Run("missing item", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(`SELECT seller_id, title, price_points`).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{
				"seller_id", "title", "price_points", "stock_quantity", "is_available", "created_at", "updated_at",
			}))

		_, err := store.Items().GetByID(context.Background(), "nope")
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})
}
