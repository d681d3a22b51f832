package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/iliyamo/orvella-storefront/internal/database"
	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/notify"
	"github.com/iliyamo/orvella-storefront/internal/repository"
)

// Publisher is the part of the notification bus the order service uses.
type Publisher interface {
	Publish(ev notify.Event) int
}

// CachePurger drops cached catalog responses after stock changes.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// CreateOrderInput is what checkout submits.  Prices come from the client
// and are checked against the line items, not recomputed from the catalog.
type CreateOrderInput struct {
	Items         []model.OrderItem
	ShippingInfo  model.ShippingInfo
	PaymentInfo   model.PaymentInfo
	ItemsPrice    int64
	TaxPrice      int64
	ShippingPrice int64
	TotalPrice    int64
}

// OrderService owns the order lifecycle.  Status moves along
// Pending → Shipped → Delivered or Pending|Shipped → Cancelled, each move a
// check-and-set on the stored status.  Shipping an order takes its items
// out of stock in the same transaction, so a failed decrement leaves both
// the order and the stock untouched.
type OrderService struct {
	orders   *repository.OrderRepo
	products *repository.ProductRepo
	bus      Publisher
	// Purger is optional; when set it is called after an order ships.
	Purger         CachePurger
	priceTolerance int64
	now            func() time.Time
}

// NewOrderService wires the order store to the inventory ledger and the bus.
func NewOrderService(orders *repository.OrderRepo, products *repository.ProductRepo, bus Publisher, priceTolerance int64) *OrderService {
	if orders == nil || products == nil {
		panic("nil repository passed to NewOrderService")
	}
	if priceTolerance < 0 {
		priceTolerance = 0
	}
	return &OrderService{
		orders:         orders,
		products:       products,
		bus:            bus,
		priceTolerance: priceTolerance,
		now:            time.Now,
	}
}

// Create persists a Pending order for actor and then announces it on the
// bus.  The announcement happens only after the commit succeeded.
func (s *OrderService) Create(ctx context.Context, actor model.User, in CreateOrderInput) (model.Order, error) {
	if actor.ID == 0 {
		return model.Order{}, ErrUnauthenticated
	}
	if err := s.validate(in); err != nil {
		return model.Order{}, err
	}
	now := s.now().UTC()
	o := model.Order{
		UserID:        actor.ID,
		Items:         in.Items,
		ShippingInfo:  in.ShippingInfo,
		PaymentInfo:   in.PaymentInfo,
		ItemsPrice:    in.ItemsPrice,
		TaxPrice:      in.TaxPrice,
		ShippingPrice: in.ShippingPrice,
		TotalPrice:    in.TotalPrice,
		Status:        model.StatusPending,
		PaidAt:        now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := database.InTx(ctx, s.orders.DB(), func(tx *sql.Tx) error {
		return s.orders.CreateTx(ctx, tx, &o)
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}
	o.UserName, o.UserEmail = actor.Name, actor.Email

	s.publish(notify.TypeNewOrder, o,
		fmt.Sprintf("New Order placed by %s for ₹%d", actor.Name, o.TotalPrice))
	return o, nil
}

// GetByID returns an order to its owner or to an admin.
func (s *OrderService) GetByID(ctx context.Context, actor model.User, id uint64) (model.Order, error) {
	if actor.ID == 0 {
		return model.Order{}, ErrUnauthenticated
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return model.Order{}, err
	}
	if o.UserID != actor.ID && !actor.IsAdmin() {
		return model.Order{}, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return o, nil
}

// ListMine returns the actor's own orders.
func (s *OrderService) ListMine(ctx context.Context, actor model.User) ([]model.Order, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthenticated
	}
	return s.orders.ListByUser(ctx, actor.ID)
}

// ListAll returns every order and the revenue over non-cancelled ones.  The
// revenue is computed from the rows just read, never cached.
func (s *OrderService) ListAll(ctx context.Context, actor model.User) ([]model.Order, int64, error) {
	if err := Authorize(actor, model.RoleAdmin); err != nil {
		return nil, 0, err
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return orders, TotalRevenue(orders), nil
}

// UpdateStatus moves order id to next.  Everything happens in one
// transaction: read the current status, validate the edge, swap the status
// only if it is still the one read, and, when shipping, decrement stock for
// every line item.  A repeated or concurrent request for the same move
// fails the swap and gets ErrInvalidTransition (or ErrAlreadyTerminal), so
// stock is taken once.
func (s *OrderService) UpdateStatus(ctx context.Context, actor model.User, id uint64, next model.OrderStatus) (model.Order, error) {
	if err := Authorize(actor, model.RoleAdmin); err != nil {
		return model.Order{}, err
	}
	next, err := model.ParseOrderStatus(string(next))
	if err != nil {
		return model.Order{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err = database.InTx(ctx, s.orders.DB(), func(tx *sql.Tx) error {
		cur, err := s.orders.StatusTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkTransition(cur, next); err != nil {
			return err
		}
		now := s.now().UTC()
		var deliveredAt *time.Time
		if next == model.StatusDelivered {
			deliveredAt = &now
		}
		swapped, err := s.orders.CompareAndSetStatusTx(ctx, tx, id, cur, next, now, deliveredAt)
		if err != nil {
			return err
		}
		if !swapped {
			latest, err := s.orders.StatusTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := checkTransition(latest, next); err != nil {
				return err
			}
			return fmt.Errorf("order %d changed concurrently: %w", id, ErrInvalidTransition)
		}
		if next != model.StatusShipped {
			return nil
		}
		items, err := s.orders.ItemsTx(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := s.products.DecrementTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("ship order %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	if next == model.StatusShipped && s.Purger != nil {
		if err := s.Purger.Purge(ctx); err != nil {
			log.Printf("orders: purge catalog cache after shipping order %d: %v", id, err)
		}
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return model.Order{}, err
	}
	s.publish(notify.TypeStatusUpdated, o,
		fmt.Sprintf("Order #%d is now %s", o.ID, strings.ToLower(string(o.Status))))
	return o, nil
}

// Delete removes an order permanently.
func (s *OrderService) Delete(ctx context.Context, actor model.User, id uint64) error {
	if err := Authorize(actor, model.RoleAdmin); err != nil {
		return err
	}
	return s.orders.Delete(ctx, id)
}

// checkTransition classifies a requested move from cur to next.
func checkTransition(cur, next model.OrderStatus) error {
	if cur == model.StatusDelivered {
		return ErrAlreadyTerminal
	}
	if !cur.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, next)
	}
	return nil
}

func (s *OrderService) validate(in CreateOrderInput) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}
	var sum int64
	for i, it := range in.Items {
		if it.ProductID == 0 || it.Quantity <= 0 || it.Price <= 0 {
			return fmt.Errorf("%w: item %d needs a product, a positive quantity and a positive price", ErrInvalidInput, i)
		}
		if int64(it.Quantity) > model.MaxItemQuantity || int64(it.Quantity) > math.MaxInt64/it.Price {
			return fmt.Errorf("%w: item %d quantity %d too large", ErrInvalidInput, i, it.Quantity)
		}
		var ok bool
		if sum, ok = addAmounts(sum, it.Subtotal()); !ok {
			return fmt.Errorf("%w: line items add up beyond the supported amount", ErrInvalidInput)
		}
	}
	si := in.ShippingInfo
	for _, f := range []struct{ name, value string }{
		{"address", si.Address}, {"city", si.City}, {"state", si.State},
		{"country", si.Country}, {"pinCode", si.PinCode}, {"phoneNo", si.PhoneNo},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: shippingInfo.%s required", ErrInvalidInput, f.name)
		}
	}
	if in.ItemsPrice < 0 || in.TaxPrice < 0 || in.ShippingPrice < 0 || in.TotalPrice <= 0 {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidInput)
	}
	if abs(in.ItemsPrice-sum) > s.priceTolerance {
		return fmt.Errorf("%w: itemsPrice %d, line items add up to %d", ErrPriceMismatch, in.ItemsPrice, sum)
	}
	want, ok := addAmounts(in.ItemsPrice, in.TaxPrice, in.ShippingPrice)
	if !ok {
		return fmt.Errorf("%w: itemsPrice+taxPrice+shippingPrice beyond the supported amount", ErrInvalidInput)
	}
	if abs(in.TotalPrice-want) > s.priceTolerance {
		return fmt.Errorf("%w: totalPrice %d, items+tax+shipping is %d", ErrPriceMismatch, in.TotalPrice, want)
	}
	return nil
}

func (s *OrderService) publish(typ string, o model.Order, msg string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(notify.NewEvent(typ, notify.OrderSummary{
		OrderID:    o.ID,
		UserName:   o.UserName,
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
		Message:    msg,
	}))
}

// addAmounts sums non-negative amounts; ok is false when the sum would
// overflow int64.
func addAmounts(vals ...int64) (sum int64, ok bool) {
	for _, v := range vals {
		if v > math.MaxInt64-sum {
			return 0, false
		}
		sum += v
	}
	return sum, true
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
