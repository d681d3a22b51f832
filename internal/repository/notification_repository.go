package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/orvella-storefront/internal/model"
)

// NotificationRepo stores the dashboard's copy of bus events.  Writes are
// keyed by the event id so a redelivered message does not duplicate a row.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Save inserts n unless a row with the same id already exists.
func (r *NotificationRepo) Save(ctx context.Context, n model.Notification) error {
	var exists int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications WHERE id = ?", n.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("lookup notification: %w", err)
	}
	if exists > 0 {
		return nil
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO notifications (id, type, category, message, order_id, created_at) VALUES (?,?,?,?,?,?)",
		n.ID, n.Type, n.Category, n.Message, n.OrderID, n.CreatedAt.UTC())
	if err != nil && !isDuplicateKey(err) {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Recent returns up to limit notifications, newest first.
func (r *NotificationRepo) Recent(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, type, category, message, order_id, created_at FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Category, &n.Message, &n.OrderID, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
