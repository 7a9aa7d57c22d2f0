package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entity referenced by carts and orders. The checkout
// core reads price and stock and mutates stock only through the locked
// decrement inside the checkout transaction.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	OwnerID   string          `json:"owner_id"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// Sellable reports whether the product can currently be purchased.
func (p *Product) Sellable() bool {
	return p.IsActive
}

// OwnedBy reports whether the product belongs to the given user.
func (p *Product) OwnedBy(userID string) bool {
	return p.OwnerID == userID
}
