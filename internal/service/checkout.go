package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	"github.com/jihadnassar202/E-Commerce-Project/internal/event"
	"github.com/jihadnassar202/E-Commerce-Project/internal/repository"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/database"
	apperrors "github.com/jihadnassar202/E-Commerce-Project/pkg/errors"
)

// DefaultLockTimeout bounds how long a checkout waits on product row locks
// held by a competing checkout before surfacing Busy.
const DefaultLockTimeout = 3 * time.Second

// CheckoutService turns a session cart into a committed order. The whole
// admission decision happens inside one transaction under row locks; no
// read outside that transaction is trusted for it.
type CheckoutService struct {
	pool        database.DBTX
	carts       *CartService
	products    repository.ProductRepository
	orders      repository.OrderRepository
	events      *event.Producer
	logger      *slog.Logger
	lockTimeout time.Duration
	now         func() time.Time
}

// NewCheckoutService creates a checkout service. A non-positive lockTimeout
// falls back to DefaultLockTimeout.
func NewCheckoutService(
	pool database.DBTX,
	carts *CartService,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	events *event.Producer,
	logger *slog.Logger,
	lockTimeout time.Duration,
) *CheckoutService {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &CheckoutService{
		pool:        pool,
		carts:       carts,
		products:    products,
		orders:      orders,
		events:      events,
		logger:      logger,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// Submit runs the full checkout: sanitize the cart, lock every referenced
// product in one batch, validate all lines against the locked rows, then
// create the order, snapshot prices, and decrement stock, all or nothing.
// Validation collects every violation before aborting so the user gets one
// complete correction list. Payment is stubbed and always succeeds.
func (s *CheckoutService) Submit(ctx context.Context, sessionID string, principal domain.Principal) (*domain.Order, error) {
	cart, _, _, _, err := s.carts.LoadSanitized(ctx, sessionID, principal)
	if err != nil {
		return nil, err
	}

	if cart.IsEmpty() {
		return nil, apperrors.EmptyCart()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, s.fail(ctx, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
	if _, err := tx.Exec(ctx, timeout); err != nil {
		return nil, s.fail(ctx, "set lock timeout", err)
	}

	ids := cart.ProductIDs()
	locked, err := s.products.LockForUpdate(ctx, tx, ids)
	if err != nil {
		if errors.Is(err, apperrors.ErrBusy) {
			return nil, err
		}
		return nil, s.fail(ctx, "lock products", err)
	}

	byID := make(map[int64]domain.Product, len(locked))
	for _, p := range locked {
		byID[p.ID] = p
	}

	// Every line is checked against the locked rows; all violations are
	// collected before aborting.
	var violations []string
	for _, id := range ids {
		qty := cart.Items[id]
		product, ok := byID[id]

		switch {
		case !ok || !product.Sellable():
			violations = append(violations, fmt.Sprintf("product %d is no longer available", id))
		case product.OwnedBy(principal.UserID):
			violations = append(violations, fmt.Sprintf("you cannot purchase your own product %s", product.Name))
		case product.Stock == 0:
			violations = append(violations, fmt.Sprintf("%s is sold out", product.Name))
		case qty > product.Stock:
			violations = append(violations, fmt.Sprintf("only %d of %s left in stock", product.Stock, product.Name))
		}
	}

	if len(violations) > 0 {
		s.logger.InfoContext(ctx, "checkout aborted by validation",
			slog.Int("violations", len(violations)),
		)
		return nil, apperrors.Aborted(violations)
	}

	order := &domain.Order{
		ID:          uuid.New().String(),
		UserID:      principal.UserID,
		Status:      domain.OrderStatusPending,
		IsPaid:      false,
		TotalAmount: decimal.Zero,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.orders.InsertHeaderTx(ctx, tx, order); err != nil {
		return nil, s.fail(ctx, "insert order header", err)
	}

	total := decimal.Zero
	for _, id := range ids {
		product := byID[id]
		qty := cart.Items[id]

		line := domain.OrderLine{
			ID:              uuid.New().String(),
			OrderID:         order.ID,
			ProductID:       id,
			ProductName:     product.Name,
			Quantity:        qty,
			PriceAtPurchase: product.Price,
			Status:          domain.LineStatusPending,
		}

		if err := s.orders.InsertLineTx(ctx, tx, &line); err != nil {
			return nil, s.fail(ctx, "insert order line", err)
		}

		if err := s.products.DecrementStock(ctx, tx, id, qty); err != nil {
			return nil, s.fail(ctx, "decrement stock", err)
		}

		total = total.Add(line.LineTotal())
		order.Lines = append(order.Lines, line)
	}

	total = domain.RoundCurrency(total)

	if err := s.orders.FinalizeTx(ctx, tx, order.ID, total, domain.OrderStatusPaid, true); err != nil {
		return nil, s.fail(ctx, "finalize order", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, s.fail(ctx, "commit transaction", err)
	}

	order.Status = domain.OrderStatusPaid
	order.IsPaid = true
	order.TotalAmount = total

	s.logger.InfoContext(ctx, "checkout committed",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.String("total_amount", total.StringFixed(domain.CurrencyPlaces)),
		slog.Int("lines", len(order.Lines)),
	)

	// The order is durable; cart clearing and event publication only log
	// failures rather than undoing the commit.
	if err := s.carts.Clear(ctx, sessionID, ClearReasonCheckout); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("error", err.Error()),
		)
	}
	for _, line := range order.Lines {
		if err := s.events.PublishStockDecremented(ctx, line.ProductID, line.Quantity, order.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish stock.decremented event",
				slog.String("error", err.Error()),
			)
		}
	}

	return order, nil
}

// fail logs the underlying fault with its step and returns a generic error,
// never a half-written order or a leaked internal detail.
func (s *CheckoutService) fail(ctx context.Context, step string, err error) error {
	s.logger.ErrorContext(ctx, "checkout failed",
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
	return apperrors.Internal(fmt.Errorf("%s: %w", step, err))
}
