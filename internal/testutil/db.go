// Package testutil provides a throwaway SQLite database that mirrors the
// MySQL schema closely enough for repository and service tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const schema = `
CREATE TABLE users (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  name          TEXT NOT NULL,
  email         TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role          TEXT NOT NULL DEFAULT 'user',
  avatar_url    TEXT NOT NULL DEFAULT '',
  created_at    DATETIME NOT NULL,
  updated_at    DATETIME NOT NULL
);
CREATE TABLE products (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  name        TEXT NOT NULL,
  price       INTEGER NOT NULL CHECK (price > 0),
  description TEXT NOT NULL,
  category    TEXT NOT NULL DEFAULT '',
  stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  sales       INTEGER NOT NULL DEFAULT 0,
  images      TEXT NOT NULL,
  created_at  DATETIME NOT NULL,
  updated_at  DATETIME NOT NULL
);
CREATE TABLE orders (
  id                INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id           INTEGER NOT NULL,
  shipping_address  TEXT NOT NULL,
  shipping_city     TEXT NOT NULL,
  shipping_state    TEXT NOT NULL,
  shipping_country  TEXT NOT NULL,
  shipping_pin_code TEXT NOT NULL,
  shipping_phone_no TEXT NOT NULL,
  payment_id        TEXT NOT NULL DEFAULT '',
  payment_status    TEXT NOT NULL DEFAULT '',
  items_price       INTEGER NOT NULL,
  tax_price         INTEGER NOT NULL,
  shipping_price    INTEGER NOT NULL,
  total_price       INTEGER NOT NULL,
  status            TEXT NOT NULL DEFAULT 'Pending',
  paid_at           DATETIME NOT NULL,
  delivered_at      DATETIME NULL,
  created_at        DATETIME NOT NULL,
  updated_at        DATETIME NOT NULL
);
CREATE TABLE order_items (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id   INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  name       TEXT NOT NULL DEFAULT '',
  quantity   INTEGER NOT NULL,
  price      INTEGER NOT NULL
);
CREATE TABLE notifications (
  id         TEXT PRIMARY KEY,
  type       TEXT NOT NULL,
  category   TEXT NOT NULL,
  message    TEXT NOT NULL,
  order_id   INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL
);
`

// OpenDB creates a fresh database file under t.TempDir and applies the
// schema.  The pool is limited to one connection so concurrent callers
// queue instead of hitting SQLITE_BUSY; code under test must therefore run
// every statement of a transaction on the *sql.Tx it was given.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}
