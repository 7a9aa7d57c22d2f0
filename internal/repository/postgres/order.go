package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/database"
	apperrors "github.com/jihadnassar202/E-Commerce-Project/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// InsertHeaderTx inserts the order header inside the checkout transaction.
func (r *OrderRepository) InsertHeaderTx(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, status, is_paid, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, o.ID, o.UserID, o.Status, o.IsPaid, o.TotalAmount, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order header: %w", err)
	}

	return nil
}

// InsertLineTx inserts one order line inside the checkout transaction.
func (r *OrderRepository) InsertLineTx(ctx context.Context, tx pgx.Tx, line *domain.OrderLine) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, line.ID, line.OrderID, line.ProductID, line.Quantity, line.PriceAtPurchase, line.Status)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}

	return nil
}

// FinalizeTx writes the accumulated total and payment state after all lines
// are inserted.
func (r *OrderRepository) FinalizeTx(ctx context.Context, tx pgx.Tx, orderID string, total decimal.Decimal, status string, isPaid bool) error {
	query := `
		UPDATE orders
		SET total_amount = $2, status = $3, is_paid = $4
		WHERE id = $1`

	ct, err := tx.Exec(ctx, query, orderID, total, status, isPaid)
	if err != nil {
		return fmt.Errorf("finalize order: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("finalize order %s: not found", orderID)
	}

	return nil
}

// GetByID retrieves an order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	headerQuery := `
		SELECT id, user_id, status, is_paid, total_amount, created_at
		FROM orders
		WHERE id = $1`

	var o domain.Order
	err := r.pool.QueryRow(ctx, headerQuery, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.IsPaid, &o.TotalAmount, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	linesQuery := `
		SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price_at_purchase, i.status
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.product_id`

	rows, err := r.pool.Query(ctx, linesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.ProductName,
			&line.Quantity, &line.PriceAtPurchase, &line.Status,
		); err != nil {
			return nil, fmt.Errorf("scan order line row: %w", err)
		}
		o.Lines = append(o.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order line rows: %w", err)
	}

	return &o, nil
}

// ListByUser retrieves a page of a user's orders, newest first, without lines.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}

	offset := (page - 1) * perPage

	query := `
		SELECT id, user_id, status, is_paid, total_amount, created_at,
		       count(*) OVER() AS total_count
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders by user: %w", err)
	}
	defer rows.Close()

	var (
		orders     []domain.Order
		totalCount int
	)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status, &o.IsPaid, &o.TotalAmount, &o.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, totalCount, nil
}

// GetLine retrieves one order line along with the owner of its product, so
// the service can authorize fulfillment changes.
func (r *OrderRepository) GetLine(ctx context.Context, lineID string) (*domain.OrderLine, string, error) {
	query := `
		SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price_at_purchase, i.status, p.owner_id
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.id = $1`

	var (
		line    domain.OrderLine
		ownerID string
	)
	err := r.pool.QueryRow(ctx, query, lineID).Scan(
		&line.ID, &line.OrderID, &line.ProductID, &line.ProductName,
		&line.Quantity, &line.PriceAtPurchase, &line.Status, &ownerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.NotFound("order line", lineID)
		}
		return nil, "", fmt.Errorf("get order line: %w", err)
	}

	return &line, ownerID, nil
}

// UpdateLineStatus sets the fulfillment status of a line. Quantity and price
// never change after creation.
func (r *OrderRepository) UpdateLineStatus(ctx context.Context, lineID, status string) error {
	query := `
		UPDATE order_items
		SET status = $2
		WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, lineID, status)
	if err != nil {
		return fmt.Errorf("update order line status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order line", lineID)
	}

	return nil
}
