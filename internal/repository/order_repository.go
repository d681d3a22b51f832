package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/orvella-storefront/internal/model"
)

// OrderRepo persists orders and their line items.  Status changes go
// through CompareAndSetStatusTx only; there is no unconditional status
// setter.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the handle so callers can open transactions spanning the order
// and the inventory ledger.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const orderSelect = `SELECT o.id, o.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
       o.shipping_address, o.shipping_city, o.shipping_state, o.shipping_country,
       o.shipping_pin_code, o.shipping_phone_no, o.payment_id, o.payment_status,
       o.items_price, o.tax_price, o.shipping_price, o.total_price, o.status,
       o.paid_at, o.delivered_at, o.created_at, o.updated_at
FROM orders o
LEFT JOIN users u ON u.id = o.user_id`

// CreateTx inserts the order and its items within tx.  It fills in the
// generated ID on o.  The caller sets Status and the timestamps.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (user_id, shipping_address, shipping_city, shipping_state, shipping_country,
        shipping_pin_code, shipping_phone_no, payment_id, payment_status, items_price, tax_price,
        shipping_price, total_price, status, paid_at, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	s := o.ShippingInfo
	res, err := tx.ExecContext(ctx, q,
		o.UserID, s.Address, s.City, s.State, s.Country, s.PinCode, s.PhoneNo,
		o.PaymentInfo.ID, o.PaymentInfo.Status,
		o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice, string(o.Status),
		o.PaidAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return r.createItemsTx(ctx, tx, o.ID, o.Items)
}

// createItemsTx inserts all line items in a single statement.
func (r *OrderRepo) createItemsTx(ctx context.Context, tx *sql.Tx, orderID uint64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, product_id, name, quantity, price) VALUES `
	args := make([]any, 0, len(items)*5)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, orderID, it.ProductID, it.Name, it.Quantity, it.Price)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// GetByID returns an order with its items and the purchaser's name and
// email, or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	orders, err := r.query(ctx, r.db, orderSelect+" WHERE o.id = ?", id)
	if err != nil {
		return model.Order{}, err
	}
	if len(orders) == 0 {
		return model.Order{}, ErrNotFound
	}
	return orders[0], nil
}

// ListByUser returns the orders owned by userID, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.query(ctx, r.db, orderSelect+" WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC", userID)
}

// ListAll returns every order, newest first.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.query(ctx, r.db, orderSelect+" ORDER BY o.created_at DESC, o.id DESC")
}

// StatusTx reads the current status of an order inside tx.
func (r *OrderRepo) StatusTx(ctx context.Context, tx *sql.Tx, id uint64) (model.OrderStatus, error) {
	var st string
	err := tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = ?", id).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return model.OrderStatus(st), nil
}

// ItemsTx loads the line items of an order inside tx, in insertion order.
func (r *OrderRepo) ItemsTx(ctx context.Context, tx *sql.Tx, id uint64) ([]model.OrderItem, error) {
	byOrder, err := r.items(ctx, tx, []uint64{id})
	if err != nil {
		return nil, err
	}
	return byOrder[id], nil
}

// CompareAndSetStatusTx moves an order from `from` to `to` only if its
// status is still `from`.  It reports false when another writer got there
// first (or the order vanished); the caller decides what that means.
// deliveredAt is written only when non-nil.
func (r *OrderRepo) CompareAndSetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.OrderStatus, now time.Time, deliveredAt *time.Time) (bool, error) {
	q := "UPDATE orders SET status = ?, updated_at = ?"
	args := []any{string(to), now}
	if deliveredAt != nil {
		q += ", delivered_at = ?"
		args = append(args, *deliveredAt)
	}
	q += " WHERE id = ? AND status = ?"
	args = append(args, id, string(from))
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("update order %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes an order and its items.  It returns ErrNotFound when no
// order has the given id.
func (r *OrderRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// query runs an orderSelect query and attaches line items to every row.
func (r *OrderRepo) query(ctx context.Context, q querier, query string, args ...any) ([]model.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	orders := []model.Order{}
	for rows.Next() {
		var (
			o         model.Order
			status    string
			delivered sql.NullTime
		)
		s := &o.ShippingInfo
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserName, &o.UserEmail,
			&s.Address, &s.City, &s.State, &s.Country, &s.PinCode, &s.PhoneNo,
			&o.PaymentInfo.ID, &o.PaymentInfo.Status,
			&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice, &status,
			&o.PaidAt, &delivered, &o.CreatedAt, &o.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		o.Status = model.OrderStatus(status)
		if delivered.Valid {
			t := delivered.Time
			o.DeliveredAt = &t
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Close before loading items: with a single-connection pool the next
	// query would otherwise wait on this one.
	rows.Close()
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uint64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	byOrder, err := r.items(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []model.OrderItem{}
		}
	}
	return orders, nil
}

// items loads the line items of the given orders keyed by order id.
func (r *OrderRepo) items(ctx context.Context, q querier, orderIDs []uint64) (map[uint64][]model.OrderItem, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx,
		"SELECT order_id, product_id, name, quantity, price FROM order_items WHERE order_id IN ("+placeholders+") ORDER BY id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()
	out := make(map[uint64][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID uint64
			it      model.OrderItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}
