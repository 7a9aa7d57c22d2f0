package service

import (
	"context"
	"log/slog"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	"github.com/jihadnassar202/E-Commerce-Project/internal/repository"
	apperrors "github.com/jihadnassar202/E-Commerce-Project/pkg/errors"
)

// StockService handles restocking. Checkout never goes through here; the
// only code path that decrements stock for a sale is the checkout
// transaction's locked decrement.
type StockService struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewStockService creates a stock service.
func NewStockService(products repository.ProductRepository, logger *slog.Logger) *StockService {
	return &StockService{products: products, logger: logger}
}

// Adjust adds delta to a product's stock and returns the new level, floored
// at zero. Staff only; route-level authorization enforces the role and the
// service re-checks it.
func (s *StockService) Adjust(ctx context.Context, principal domain.Principal, productID int64, delta int) (int, error) {
	if !principal.IsStaff() {
		return 0, apperrors.PermissionDenied("only staff can adjust stock")
	}

	if delta == 0 {
		return 0, apperrors.InvalidQuantity("stock adjustment must be non-zero")
	}

	stock, err := s.products.AdjustStock(ctx, productID, delta)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "adjusted product stock",
		slog.Int64("product_id", productID),
		slog.Int("delta", delta),
		slog.Int("stock", stock),
	)

	return stock, nil
}
