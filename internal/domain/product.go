package domain

import "time"

type Product struct {
	ID       int64
	Name     string
	Slug     string
	IsActive bool
	// ImageURL is the first media position for the product, supplied by the
	// external media store. Only the URL string is ever persisted here.
	ImageURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variant is the purchasable SKU-level unit of a Product.
type Variant struct {
	ID        int64
	ProductID int64
	Name      string
	SKU       string
	IsActive  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
