package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
)

// CartRepository defines session cart persistence.
type CartRepository interface {
	// Get retrieves the cart for a session. Returns a NotFound error when
	// the session has no cart yet.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save persists the cart for a session, overwriting any existing one.
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error

	// Delete removes the cart for a session.
	Delete(ctx context.Context, sessionID string) error
}

// ProductRepository defines catalog reads and the stock ledger. Stock is
// decremented only through DecrementStock inside the checkout transaction;
// the non-Tx reads are eventually consistent and never drive the final
// admission decision.
type ProductRepository interface {
	// GetSellable retrieves an active product by ID.
	GetSellable(ctx context.Context, id int64) (*domain.Product, error)

	// ListSellableByIDs retrieves the active products among ids. Missing or
	// inactive products are simply absent from the result.
	ListSellableByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)

	// LockForUpdate acquires row locks on every product in ids with a single
	// batch query ordered by ID, and returns the locked rows (active or not).
	// Lock-wait timeouts surface as a retryable Busy error.
	LockForUpdate(ctx context.Context, tx pgx.Tx, ids []int64) ([]domain.Product, error)

	// DecrementStock reduces a locked product's stock by qty.
	DecrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) error

	// AdjustStock adds delta to a product's stock (restock, never part of
	// checkout) and returns the new stock level.
	AdjustStock(ctx context.Context, id int64, delta int) (int, error)
}

// OrderRepository defines order persistence. The Tx methods run inside the
// checkout transaction owned by the service layer.
type OrderRepository interface {
	// InsertHeaderTx inserts the order header.
	InsertHeaderTx(ctx context.Context, tx pgx.Tx, o *domain.Order) error

	// InsertLineTx inserts one order line.
	InsertLineTx(ctx context.Context, tx pgx.Tx, line *domain.OrderLine) error

	// FinalizeTx sets the order total and payment state after all lines are in.
	FinalizeTx(ctx context.Context, tx pgx.Tx, orderID string, total decimal.Decimal, status string, isPaid bool) error

	// GetByID retrieves an order with its lines.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByUser retrieves a page of a user's orders (without lines) plus the
	// total count.
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error)

	// GetLine retrieves a single order line together with the owner of its
	// product, for fulfillment authorization.
	GetLine(ctx context.Context, lineID string) (*domain.OrderLine, string, error)

	// UpdateLineStatus sets the fulfillment status of a line.
	UpdateLineStatus(ctx context.Context, lineID, status string) error
}
