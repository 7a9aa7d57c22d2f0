package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/database"
	apperrors "github.com/jihadnassar202/E-Commerce-Project/pkg/errors"
)

func setupProductRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)
	return repo, mock
}

var productCols = []string{"id", "name", "price", "stock", "owner_id", "is_active", "created_at"}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:        3,
		Name:      "Widget",
		Price:     decimal.RequireFromString("9.99"),
		Stock:     10,
		OwnerID:   "seller-1",
		IsActive:  true,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func productRow(p domain.Product) *pgxmock.Rows {
	return pgxmock.NewRows(productCols).
		AddRow(p.ID, p.Name, p.Price, p.Stock, p.OwnerID, p.IsActive, p.CreatedAt)
}

func TestProductRepository_GetSellable_Success(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p := sampleProduct()
	mock.ExpectQuery("SELECT .+ FROM products WHERE id = \\$1 AND is_active").
		WithArgs(p.ID).
		WillReturnRows(productRow(p))

	got, err := repo.GetSellable(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.Price.Equal(got.Price))
	assert.Equal(t, p.Stock, got.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetSellable_NotFound(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM products WHERE").
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetSellable(context.Background(), 99)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListSellableByIDs_Empty(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	got, err := repo.ListSellableByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListSellableByIDs(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p := sampleProduct()
	mock.ExpectQuery("SELECT .+ FROM products WHERE id = ANY").
		WithArgs([]int64{3, 17}).
		WillReturnRows(productRow(p))

	got, err := repo.ListSellableByIDs(context.Background(), []int64{3, 17})
	require.NoError(t, err)
	// Inactive or missing products are absent rather than erroring.
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_LockForUpdate(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	p := sampleProduct()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM products WHERE id = ANY\\(\\$1\\) ORDER BY id FOR UPDATE").
		WithArgs([]int64{3}).
		WillReturnRows(productRow(p))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	got, err := repo.LockForUpdate(ctx, tx, []int64{3})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_LockForUpdate_TimeoutIsBusy(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs([]int64{3}).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	got, err := repo.LockForUpdate(ctx, tx, []int64{3})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrBusy)

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products SET stock = stock - \\$2 WHERE id = \\$1 AND stock >= \\$2").
		WithArgs(int64(3), 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.DecrementStock(ctx, tx, 3, 2))
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_GuardTrips(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products SET stock = stock - ").
		WithArgs(int64(3), 50).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	err = repo.DecrementStock(ctx, tx, 3, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient stock at write time")

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_AdjustStock(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE products SET stock = GREATEST").
		WithArgs(int64(3), 5).
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(15))

	stock, err := repo.AdjustStock(context.Background(), 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 15, stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_AdjustStock_NotFound(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE products SET stock = GREATEST").
		WithArgs(int64(99), 5).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.AdjustStock(context.Background(), 99, 5)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
