package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/orvella-storefront/internal/model"
)

// ProductRepo holds the catalog and doubles as the inventory ledger: stock
// and cumulative sales change only through DecrementTx (or an admin edit of
// stock).  Images are stored as a JSON array to keep their order.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productCols = "id,name,price,description,category,stock,sales,images,created_at,updated_at"

// Get returns a product by id.
func (r *ProductRepo) Get(ctx context.Context, id uint64) (model.Product, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+productCols+" FROM products WHERE id=?", id)
	return scanProduct(row)
}

// List returns all products in creation order.  The storefront sells a
// single master product, so the first entry is the one on display.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+productCols+" FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateMaster inserts the master product.  It fails with ErrConflict when
// a product already exists.
func (r *ProductRepo) CreateMaster(ctx context.Context, p model.Product) (model.Product, error) {
	images, err := encodeImages(p.Images)
	if err != nil {
		return model.Product{}, err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Product{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return model.Product{}, err
	}
	if n > 0 {
		return model.Product{}, ErrConflict
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO products (name, price, description, category, stock, sales, images, created_at, updated_at) VALUES (?,?,?,?,?,0,?,?,?)",
		p.Name, p.Price, p.Description, p.Category, p.Stock, images, now, now)
	if err != nil {
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Product{}, err
	}
	committed = true
	p.ID, p.Sales, p.CreatedAt, p.UpdatedAt = uint64(id), 0, now, now
	return p, nil
}

// Update overwrites the editable attributes of a product.  Sales is left
// untouched.
func (r *ProductRepo) Update(ctx context.Context, p model.Product) (model.Product, error) {
	images, err := encodeImages(p.Images)
	if err != nil {
		return model.Product{}, err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE products SET name=?, price=?, description=?, category=?, stock=?, images=?, updated_at=? WHERE id=?",
		p.Name, p.Price, p.Description, p.Category, p.Stock, images, time.Now().UTC(), p.ID)
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	return r.Get(ctx, p.ID)
}

// DecrementTx removes qty units from stock and adds them to sales in one
// conditional statement.  The WHERE clause makes concurrent decrements of
// the same product serialize on the row: the total taken never exceeds
// what was available.  On failure nothing is written and the error is
// ErrNotFound or ErrInsufficientStock.
func (r *ProductRepo) DecrementTx(ctx context.Context, tx *sql.Tx, productID uint64, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("decrement product %d: non-positive quantity %d", productID, qty)
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock=stock-?, sales=sales+?, updated_at=? WHERE id=? AND stock>=?",
		qty, qty, time.Now().UTC(), productID, qty)
	if err != nil {
		return fmt.Errorf("decrement product %d: %w", productID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var stock int
	err = tx.QueryRowContext(ctx, "SELECT stock FROM products WHERE id=?", productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("product %d has %d, need %d: %w", productID, stock, qty, ErrInsufficientStock)
}

// Decrement is DecrementTx in its own transaction.
func (r *ProductRepo) Decrement(ctx context.Context, productID uint64, qty int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.DecrementTx(ctx, tx, productID, qty); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func scanProduct(s rowScanner) (model.Product, error) {
	var (
		p      model.Product
		images []byte
	)
	err := s.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Category, &p.Stock, &p.Sales, &images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, err
	}
	p.Images = []model.Image{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return model.Product{}, fmt.Errorf("decode images of product %d: %w", p.ID, err)
		}
	}
	return p, nil
}

func encodeImages(images []model.Image) (string, error) {
	if images == nil {
		images = []model.Image{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode images: %w", err)
	}
	return string(b), nil
}
