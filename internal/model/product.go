package model

import "time"

// Image is one entry of a product's ordered image list.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Product mirrors the `products` table.  Price is expressed in the smallest
// currency unit.  Stock never drops below zero; Sales only grows, and both
// move together when an order ships.
type Product struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Sales       int       `json:"sales"`
	Images      []Image   `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
