package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	"github.com/jihadnassar202/E-Commerce-Project/internal/event"
	"github.com/jihadnassar202/E-Commerce-Project/internal/repository"
	apperrors "github.com/jihadnassar202/E-Commerce-Project/pkg/errors"
)

// Reasons recorded on cart.cleared events.
const (
	ClearReasonExpired  = "expired"
	ClearReasonCheckout = "checkout"
)

// CartSummary is returned by every cart mutation so clients can refresh
// their cart badge without a second round trip.
type CartSummary struct {
	CartCount int      `json:"cart_count"`
	Warnings  []string `json:"warnings,omitempty"`
}

// CartLine is one priced line in the cart view.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartView is the priced rendering of a session cart. Dropped lists product
// IDs that sanitation removed, aggregated into one notice for the client.
type CartView struct {
	Lines     []CartLine      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	CartCount int             `json:"cart_count"`
	Dropped   []int64         `json:"dropped,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// CartService implements session cart operations. The cart is an explicit
// value: every operation loads it, transforms it, and stores it back.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	events   *event.Producer
	logger   *slog.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewCartService creates a cart service. ttl bounds how long an untouched
// cart stays valid.
func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	events *event.Producer,
	logger *slog.Logger,
	ttl time.Duration,
) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		events:   events,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Add puts qty units of a product into the cart, stacking on any existing
// quantity. A non-positive qty is coerced to 1 rather than rejected; the
// add entry point treats it as "give me one".
func (s *CartService) Add(ctx context.Context, sessionID string, principal domain.Principal, productID int64, qty int) (*CartSummary, error) {
	if qty <= 0 {
		qty = 1
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetSellable(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.OwnedBy(principal.UserID) {
		return nil, apperrors.SelfPurchase(product.Name)
	}

	if product.Stock <= 0 {
		return nil, apperrors.SoldOut(product.Name)
	}

	current := cart.Items[productID]
	if current+qty > product.Stock {
		return nil, apperrors.InsufficientStock(product.Name, product.Stock)
	}

	cart.Items[productID] = current + qty

	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "added product to cart",
		slog.Int64("product_id", productID),
		slog.Int("quantity", qty),
	)
	s.publishUpdated(ctx, sessionID, principal.UserID, cart)

	return &CartSummary{CartCount: cart.Count()}, nil
}

// Update sets a line's quantity outright. A non-positive qty removes the
// line, succeeding even when it was never there. A qty above live stock is
// clamped to stock with a warning instead of failing.
func (s *CartService) Update(ctx context.Context, sessionID string, principal domain.Principal, productID int64, qty int) (*CartSummary, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if qty <= 0 {
		delete(cart.Items, productID)

		if err := s.carts.Save(ctx, sessionID, cart); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		s.publishUpdated(ctx, sessionID, principal.UserID, cart)

		return &CartSummary{CartCount: cart.Count()}, nil
	}

	product, err := s.products.GetSellable(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.OwnedBy(principal.UserID) {
		return nil, apperrors.SelfPurchase(product.Name)
	}

	var warnings []string
	if qty > product.Stock {
		warnings = append(warnings, fmt.Sprintf("only %d of %s left in stock, quantity was reduced", product.Stock, product.Name))
		qty = product.Stock
	}

	if qty == 0 {
		delete(cart.Items, productID)
	} else {
		cart.Items[productID] = qty
	}

	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "updated cart quantity",
		slog.Int64("product_id", productID),
		slog.Int("quantity", qty),
	)
	s.publishUpdated(ctx, sessionID, principal.UserID, cart)

	return &CartSummary{CartCount: cart.Count(), Warnings: warnings}, nil
}

// Increment raises a line's quantity by exactly one.
func (s *CartService) Increment(ctx context.Context, sessionID string, principal domain.Principal, productID int64) (*CartSummary, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	current, ok := cart.Items[productID]
	if !ok {
		return nil, apperrors.NotInCart(fmt.Sprintf("%d", productID))
	}

	product, err := s.products.GetSellable(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.OwnedBy(principal.UserID) {
		return nil, apperrors.SelfPurchase(product.Name)
	}

	if current+1 > product.Stock {
		return nil, apperrors.InsufficientStock(product.Name, product.Stock)
	}

	cart.Items[productID] = current + 1

	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	s.publishUpdated(ctx, sessionID, principal.UserID, cart)

	return &CartSummary{CartCount: cart.Count()}, nil
}

// Decrement lowers a line's quantity by exactly one, removing the line when
// it reaches zero.
func (s *CartService) Decrement(ctx context.Context, sessionID string, principal domain.Principal, productID int64) (*CartSummary, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	current, ok := cart.Items[productID]
	if !ok {
		return nil, apperrors.NotInCart(fmt.Sprintf("%d", productID))
	}

	if current-1 <= 0 {
		delete(cart.Items, productID)
	} else {
		cart.Items[productID] = current - 1
	}

	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	s.publishUpdated(ctx, sessionID, principal.UserID, cart)

	return &CartSummary{CartCount: cart.Count()}, nil
}

// Remove deletes a line unconditionally. An absent line is reported as
// NotInCart so HTTP callers can distinguish 404 from 200; the cart state
// ends up the same either way.
func (s *CartService) Remove(ctx context.Context, sessionID string, principal domain.Principal, productID int64) (*CartSummary, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, ok := cart.Items[productID]; !ok {
		return nil, apperrors.NotInCart(fmt.Sprintf("%d", productID))
	}

	delete(cart.Items, productID)

	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "removed product from cart",
		slog.Int64("product_id", productID),
	)
	s.publishUpdated(ctx, sessionID, principal.UserID, cart)

	return &CartSummary{CartCount: cart.Count()}, nil
}

// View returns the priced cart after a sanitation pass. The total is the
// rounded sum of per-line rounded totals.
func (s *CartService) View(ctx context.Context, sessionID string, principal domain.Principal) (*CartView, error) {
	cart, dropped, warnings, byID, err := s.LoadSanitized(ctx, sessionID, principal)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		Lines:     []CartLine{},
		Total:     decimal.Zero,
		CartCount: cart.Count(),
		Dropped:   dropped,
		Warnings:  warnings,
	}

	total := decimal.Zero
	for _, id := range cart.ProductIDs() {
		product := byID[id]
		qty := cart.Items[id]
		lineTotal := domain.LineTotal(product.Price, qty)

		view.Lines = append(view.Lines, CartLine{
			ProductID: id,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  qty,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	view.Total = domain.RoundCurrency(total)

	return view, nil
}

// LoadSanitized loads the cart, applies expiry, and runs the sanitation
// pass: lines whose product vanished, became unsellable, belongs to the
// acting user, or has zero stock are dropped; quantities above live stock
// are clamped. The cleaned cart is persisted only when something changed,
// which makes sanitation idempotent. Checkout uses this as its first step.
func (s *CartService) LoadSanitized(ctx context.Context, sessionID string, principal domain.Principal) (*domain.Cart, []int64, []string, map[int64]domain.Product, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	products, err := s.products.ListSellableByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load cart products: %w", err)
	}

	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var (
		dropped  []int64
		warnings []string
		changed  bool
	)

	for _, id := range cart.ProductIDs() {
		qty := cart.Items[id]
		product, ok := byID[id]

		switch {
		case !ok, qty <= 0, product.Stock == 0, product.OwnedBy(principal.UserID):
			delete(cart.Items, id)
			dropped = append(dropped, id)
			changed = true
		case qty > product.Stock:
			cart.Items[id] = product.Stock
			warnings = append(warnings, fmt.Sprintf("only %d of %s left in stock, quantity was reduced", product.Stock, product.Name))
			changed = true
		}
	}

	if changed {
		if err := s.carts.Save(ctx, sessionID, cart); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("save sanitized cart: %w", err)
		}
		s.logger.InfoContext(ctx, "sanitized cart",
			slog.Int("dropped", len(dropped)),
			slog.Int("clamped", len(warnings)),
		)
	}

	slices.Sort(dropped)

	return cart, dropped, warnings, byID, nil
}

// Clear empties the session cart. Used by checkout after commit.
func (s *CartService) Clear(ctx context.Context, sessionID, reason string) error {
	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := s.events.PublishCartCleared(ctx, sessionID, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// loadCart fetches the session cart, creating a fresh one for new sessions.
// An expired cart is cleared with its timestamp reset and reported once via
// CartExpired; the next call sees a fresh cart.
func (s *CartService) loadCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewCart(s.now()), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	if cart.IsExpired(s.ttl, s.now()) {
		fresh := domain.NewCart(s.now())
		if err := s.carts.Save(ctx, sessionID, fresh); err != nil {
			return nil, fmt.Errorf("reset expired cart: %w", err)
		}

		s.logger.InfoContext(ctx, "cleared expired cart",
			slog.Time("created_at", cart.CreatedAt),
		)
		if err := s.events.PublishCartCleared(ctx, sessionID, ClearReasonExpired); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
				slog.String("error", err.Error()),
			)
		}

		return nil, apperrors.CartExpired()
	}

	return cart, nil
}

func (s *CartService) publishUpdated(ctx context.Context, sessionID, userID string, cart *domain.Cart) {
	if err := s.events.PublishCartUpdated(ctx, sessionID, userID, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
}
