package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/notify"
	"github.com/iliyamo/orvella-storefront/internal/repository"
	"github.com/iliyamo/orvella-storefront/internal/testutil"
)

const testCost = 4

type fixture struct {
	db       *sql.DB
	users    *repository.UserRepo
	products *repository.ProductRepo
	orders   *repository.OrderRepo
	bus      *notify.Bus
	sub      *notify.Subscription
	svc      *OrderService

	admin, alice, bob model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	f := &fixture{
		db:       db,
		users:    repository.NewUserRepo(db),
		products: repository.NewProductRepo(db),
		orders:   repository.NewOrderRepo(db),
		bus:      notify.New(32),
	}
	t.Cleanup(f.bus.Close)
	f.sub = f.bus.Subscribe()
	f.svc = NewOrderService(f.orders, f.products, f.bus, 1)

	f.admin = f.user(t, "Admin", "admin@orvella.in")
	var err error
	f.admin, err = f.users.UpdateRole(context.Background(), f.admin.ID, model.RoleAdmin)
	require.NoError(t, err)
	f.alice = f.user(t, "Alice", "alice@example.com")
	f.bob = f.user(t, "Bob", "bob@example.com")
	return f
}

func (f *fixture) user(t *testing.T, name, email string) model.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), name, email, "password1", testCost)
	require.NoError(t, err)
	return u
}

// product creates the master product on first use and additional rows
// directly afterwards, since CreateMaster allows only one.
func (f *fixture) product(t *testing.T, stock int) model.Product {
	t.Helper()
	ctx := context.Background()
	existing, err := f.products.List(ctx)
	require.NoError(t, err)
	if len(existing) == 0 {
		p, err := f.products.CreateMaster(ctx, model.Product{Name: "Golden Root", Price: 100, Description: "scent", Stock: stock})
		require.NoError(t, err)
		return p
	}
	now := time.Now().UTC()
	res, err := f.db.Exec(
		"INSERT INTO products (name, price, description, category, stock, sales, images, created_at, updated_at) VALUES (?,?,?,?,?,0,'[]',?,?)",
		"Extra", 100, "extra", "", stock, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	p, err := f.products.Get(ctx, uint64(id))
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id uint64) (stock, sales int) {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock, p.Sales
}

func shipping() model.ShippingInfo {
	return model.ShippingInfo{Address: "12 MG Road", City: "Pune", State: "MH", Country: "IN", PinCode: "411001", PhoneNo: "9876543210"}
}

// input builds a consistent order: 18% tax, free shipping.
func input(items ...model.OrderItem) CreateOrderInput {
	var sum int64
	for _, it := range items {
		sum += it.Subtotal()
	}
	tax := sum * 18 / 100
	return CreateOrderInput{
		Items:        items,
		ShippingInfo: shipping(),
		PaymentInfo:  model.PaymentInfo{ID: "pay_123", Status: "succeeded"},
		ItemsPrice:   sum,
		TaxPrice:     tax,
		TotalPrice:   sum + tax,
	}
}

func (f *fixture) place(t *testing.T, actor model.User, items ...model.OrderItem) model.Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), actor, input(items...))
	require.NoError(t, err)
	f.drain()
	return o
}

// drain discards events already on the test subscription.
func (f *fixture) drain() {
	for {
		select {
		case <-f.sub.C():
		default:
			return
		}
	}
}

func (f *fixture) next(t *testing.T) notify.Event {
	t.Helper()
	select {
	case ev := <-f.sub.C():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return notify.Event{}
	}
}
