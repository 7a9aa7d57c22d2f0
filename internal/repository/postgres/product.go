package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/database"
	apperrors "github.com/jihadnassar202/E-Commerce-Project/pkg/errors"
)

// lockNotAvailable is the PostgreSQL error code raised when lock_timeout
// expires while waiting for a row lock.
const lockNotAvailable = "55P03"

const productColumns = "id, name, price, stock, owner_id, is_active, created_at"

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Pool returns the underlying pool for transactional operations in the
// service layer.
func (r *ProductRepository) Pool() database.DBTX {
	return r.pool
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.OwnerID, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetSellable retrieves an active product by ID.
func (r *ProductRepository) GetSellable(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND is_active`

	ctx, end := database.TraceQuery(ctx, "GetSellableProduct", query)
	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("get sellable product: %w", err)
	}

	return p, nil
}

// ListSellableByIDs retrieves the active products among ids. Products that
// are missing or inactive are simply absent from the result.
func (r *ProductRepository) ListSellableByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1) AND is_active
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list sellable products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

// LockForUpdate acquires row locks on every product in ids in one batch
// query, ordered by ID so concurrent checkouts that share products always
// lock in the same order. Rows are returned whether active or not; the
// caller re-validates sellability against the locked state. A lock_timeout
// expiry surfaces as a retryable Busy error.
func (r *ProductRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, ids []int64) (_ []domain.Product, err error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`

	ctx, end := database.TraceQuery(ctx, "LockProductsForUpdate", query)
	defer func() { end(err) }()

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		if isLockTimeout(err) {
			return nil, apperrors.Busy("product rows are locked by a concurrent checkout")
		}
		return nil, fmt.Errorf("lock products for update: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan locked product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		if isLockTimeout(err) {
			return nil, apperrors.Busy("product rows are locked by a concurrent checkout")
		}
		return nil, fmt.Errorf("iterate locked product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

// DecrementStock reduces a locked product's stock by qty. The stock >= qty
// guard is a final defense; the caller has already validated against the
// locked row.
func (r *ProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) error {
	query := `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	ct, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("decrement stock for product %d: insufficient stock at write time", id)
	}

	return nil
}

// AdjustStock adds delta to a product's stock and returns the new level.
// Used for restocking; checkout never goes through here.
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	query := `
		UPDATE products
		SET stock = GREATEST(stock + $2, 0)
		WHERE id = $1
		RETURNING stock`

	var stock int
	err := r.pool.QueryRow(ctx, query, id, delta).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("product", fmt.Sprintf("%d", id))
		}
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	return stock, nil
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable
}
