package service

import (
	"context"
	"log/slog"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	"github.com/jihadnassar202/E-Commerce-Project/internal/repository"
	apperrors "github.com/jihadnassar202/E-Commerce-Project/pkg/errors"
)

// OrderService exposes read access to committed orders and the single
// permitted post-creation mutation, the fulfillment status of a line.
type OrderService struct {
	orders repository.OrderRepository
	logger *slog.Logger
}

// NewOrderService creates an order service.
func NewOrderService(orders repository.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{orders: orders, logger: logger}
}

// GetOrder retrieves an order with its lines. Only the owner and staff may
// see it; everyone else gets NotFound so order IDs do not leak existence.
func (s *OrderService) GetOrder(ctx context.Context, principal domain.Principal, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != principal.UserID && !principal.IsStaff() {
		return nil, apperrors.NotFound("order", orderID)
	}

	return order, nil
}

// ListOrders returns a page of the principal's own orders, newest first,
// plus the total count for pagination.
func (s *OrderService) ListOrders(ctx context.Context, principal domain.Principal, page, perPage int) ([]domain.Order, int, error) {
	return s.orders.ListByUser(ctx, principal.UserID, page, perPage)
}

// UpdateLineStatus moves a line through fulfillment. Restricted to staff and
// to the seller who owns the line's product; quantity and price never change
// after creation.
func (s *OrderService) UpdateLineStatus(ctx context.Context, principal domain.Principal, lineID, status string) (*domain.OrderLine, error) {
	if !domain.IsValidLineStatus(status) {
		return nil, apperrors.InvalidStatus(status)
	}

	line, ownerID, err := s.orders.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	if !principal.IsStaff() && ownerID != principal.UserID {
		return nil, apperrors.PermissionDenied("only staff or the product's seller can update this line")
	}

	if err := s.orders.UpdateLineStatus(ctx, lineID, status); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "updated order line status",
		slog.String("line_id", lineID),
		slog.String("from", line.Status),
		slog.String("to", status),
	)

	line.Status = status
	return line, nil
}
