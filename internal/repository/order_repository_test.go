package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/testutil"
)

func newOrder(userID, productID uint64, qty int, price int64) model.Order {
	now := time.Now().UTC()
	items := int64(qty) * price
	return model.Order{
		UserID:        userID,
		Items:         []model.OrderItem{{ProductID: productID, Name: "Golden Root", Quantity: qty, Price: price}},
		ShippingInfo:  model.ShippingInfo{Address: "12 MG Road", City: "Pune", State: "MH", Country: "IN", PinCode: "411001", PhoneNo: "9999999999"},
		PaymentInfo:   model.PaymentInfo{ID: "pay_1", Status: "succeeded"},
		ItemsPrice:    items,
		TaxPrice:      items * 18 / 100,
		ShippingPrice: 0,
		TotalPrice:    items + items*18/100,
		Status:        model.StatusPending,
		PaidAt:        now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func insertOrder(t *testing.T, db *sql.DB, repo *OrderRepo, o model.Order) model.Order {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.CreateTx(context.Background(), tx, &o))
	require.NoError(t, tx.Commit())
	return o
}

func TestOrderRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	users := NewUserRepo(db)
	repo := NewOrderRepo(db)
	u, err := users.Create(ctx, "Asha", "asha@example.com", "pw", testCost)
	require.NoError(t, err)

	o := insertOrder(t, db, repo, newOrder(u.ID, 1, 2, 100))
	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.UserName)
	assert.Equal(t, "asha@example.com", got.UserEmail)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, int64(236), got.TotalPrice)
	assert.Equal(t, "411001", got.ShippingInfo.PinCode)
	assert.Nil(t, got.DeliveredAt)
	require.Len(t, got.Items, 1)
	assert.Equal(t, model.OrderItem{ProductID: 1, Name: "Golden Root", Quantity: 2, Price: 100}, got.Items[0])

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepo_ListByUserAndAll(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewOrderRepo(db)
	insertOrder(t, db, repo, newOrder(1, 1, 1, 100))
	insertOrder(t, db, repo, newOrder(2, 1, 1, 100))
	insertOrder(t, db, repo, newOrder(1, 1, 3, 100))

	mine, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, uint64(1), o.UserID)
		assert.Len(t, o.Items, 1)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrderRepo_CompareAndSetStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewOrderRepo(db)
	o := insertOrder(t, db, repo, newOrder(1, 1, 1, 100))

	tx, err := db.Begin()
	require.NoError(t, err)
	ok, err := repo.CompareAndSetStatusTx(ctx, tx, o.ID, model.StatusPending, model.StatusShipped, time.Now().UTC(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.CompareAndSetStatusTx(ctx, tx, o.ID, model.StatusPending, model.StatusShipped, time.Now().UTC(), nil)
	require.NoError(t, err)
	assert.False(t, ok, "second swap from Pending must miss")
	st, err := repo.StatusTx(ctx, tx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusShipped, st)
	require.NoError(t, tx.Commit())

	delivered := time.Now().UTC()
	tx, err = db.Begin()
	require.NoError(t, err)
	ok, err = repo.CompareAndSetStatusTx(ctx, tx, o.ID, model.StatusShipped, model.StatusDelivered, delivered, &delivered)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, tx.Commit())

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, got.Status)
	require.NotNil(t, got.DeliveredAt)
	assert.WithinDuration(t, delivered, *got.DeliveredAt, time.Second)
}

func TestOrderRepo_Delete(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewOrderRepo(db)
	o := insertOrder(t, db, repo, newOrder(1, 1, 1, 100))

	require.NoError(t, repo.Delete(ctx, o.ID))
	_, err := repo.GetByID(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, o.ID), ErrNotFound)

	var items int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM order_items WHERE order_id = ?", o.ID).Scan(&items))
	assert.Zero(t, items)
}
