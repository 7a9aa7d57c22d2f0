package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	apperrors "github.com/jihadnassar202/E-Commerce-Project/pkg/errors"
)

const testSession = "sess-1"

var testPrincipal = domain.Principal{UserID: "user-1", Role: "customer"}

func widget(stock int) *domain.Product {
	return &domain.Product{
		ID:       3,
		Name:     "Widget",
		Price:    decimal.RequireFromString("9.99"),
		Stock:    stock,
		OwnerID:  "seller-1",
		IsActive: true,
	}
}

func cartWith(items map[int64]int) *domain.Cart {
	c := domain.NewCart(time.Now())
	for id, qty := range items {
		c.Items[id] = qty
	}
	return c
}

func TestCartService_Add_NewSession(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(nil, apperrors.NotFound("cart", testSession))
	products.On("GetSellable", mock.Anything, int64(3)).Return(widget(10), nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.Items[3] == 2 && !c.CreatedAt.IsZero()
	})).Return(nil)

	summary, err := svc.Add(context.Background(), testSession, testPrincipal, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CartCount)
	carts.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestCartService_Add_CoercesNonPositiveQuantity(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(nil), nil)
	products.On("GetSellable", mock.Anything, int64(3)).Return(widget(10), nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.Items[3] == 1
	})).Return(nil)

	summary, err := svc.Add(context.Background(), testSession, testPrincipal, 3, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CartCount)
	carts.AssertExpectations(t)
}

func TestCartService_Add_StacksOnExistingLine(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 4}), nil)
	products.On("GetSellable", mock.Anything, int64(3)).Return(widget(10), nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.Items[3] == 6
	})).Return(nil)

	summary, err := svc.Add(context.Background(), testSession, testPrincipal, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.CartCount)
}

func TestCartService_Add_SoldOut(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(nil), nil)
	products.On("GetSellable", mock.Anything, int64(3)).Return(widget(0), nil)

	_, err := svc.Add(context.Background(), testSession, testPrincipal, 3, 1)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SOLD_OUT", appErr.Code)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_Add_InsufficientStock(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 9}), nil)
	products.On("GetSellable", mock.Anything, int64(3)).Return(widget(10), nil)

	_, err := svc.Add(context.Background(), testSession, testPrincipal, 3, 2)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	assert.Contains(t, appErr.Message, "only 10 of Widget left in stock")
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_Add_SelfPurchase(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	seller := domain.Principal{UserID: "seller-1", Role: "seller"}
	carts.On("Get", mock.Anything, testSession).Return(cartWith(nil), nil)
	products.On("GetSellable", mock.Anything, int64(3)).Return(widget(10), nil)

	_, err := svc.Add(context.Background(), testSession, seller, 3, 1)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_Add_ProductNotFound(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(nil), nil)
	products.On("GetSellable", mock.Anything, int64(99)).Return(nil, apperrors.NotFound("product", "99"))

	_, err := svc.Add(context.Background(), testSession, testPrincipal, 99, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_Update_ClampsToStock(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 2}), nil)
	products.On("GetSellable", mock.Anything, int64(3)).Return(widget(10), nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.Items[3] == 10
	})).Return(nil)

	summary, err := svc.Update(context.Background(), testSession, testPrincipal, 3, 20)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.CartCount)
	require.Len(t, summary.Warnings, 1)
	assert.Contains(t, summary.Warnings[0], "only 10 of Widget left in stock")
}

func TestCartService_Update_ZeroQuantityRemovesIdempotently(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	// Product 7 is not even in the cart; removal still succeeds.
	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 2}), nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		_, ok := c.Items[7]
		return !ok && c.Items[3] == 2
	})).Return(nil)

	summary, err := svc.Update(context.Background(), testSession, testPrincipal, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CartCount)
	products.AssertNotCalled(t, "GetSellable", mock.Anything, mock.Anything)
}

func TestCartService_Increment(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 2}), nil)
	products.On("GetSellable", mock.Anything, int64(3)).Return(widget(10), nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.Items[3] == 3
	})).Return(nil)

	summary, err := svc.Increment(context.Background(), testSession, testPrincipal, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.CartCount)
}

func TestCartService_Increment_NotInCart(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(nil), nil)

	_, err := svc.Increment(context.Background(), testSession, testPrincipal, 3)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_IN_CART", appErr.Code)
}

func TestCartService_Increment_PastStock(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 10}), nil)
	products.On("GetSellable", mock.Anything, int64(3)).Return(widget(10), nil)

	_, err := svc.Increment(context.Background(), testSession, testPrincipal, 3)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCartService_Decrement_RemovesLineAtZero(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 1}), nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		_, ok := c.Items[3]
		return !ok
	})).Return(nil)

	summary, err := svc.Decrement(context.Background(), testSession, testPrincipal, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CartCount)
}

func TestCartService_Decrement_NotInCart(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(nil), nil)

	_, err := svc.Decrement(context.Background(), testSession, testPrincipal, 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_Remove(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 2, 7: 1}), nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		_, ok := c.Items[3]
		return !ok && c.Items[7] == 1
	})).Return(nil)

	summary, err := svc.Remove(context.Background(), testSession, testPrincipal, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CartCount)
}

func TestCartService_Remove_AbsentReportsNotInCart(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(nil), nil)

	_, err := svc.Remove(context.Background(), testSession, testPrincipal, 3)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_IN_CART", appErr.Code)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_View_PricesAndTotals(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 3, 5: 1}), nil)
	products.On("ListSellableByIDs", mock.Anything, []int64{3, 5}).Return([]domain.Product{
		{ID: 3, Name: "Widget", Price: decimal.RequireFromString("9.99"), Stock: 10, OwnerID: "seller-1", IsActive: true},
		{ID: 5, Name: "Gadget", Price: decimal.RequireFromString("1.005"), Stock: 4, OwnerID: "seller-2", IsActive: true},
	}, nil)

	view, err := svc.View(context.Background(), testSession, testPrincipal)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, int64(3), view.Lines[0].ProductID)
	assert.True(t, view.Lines[0].LineTotal.Equal(decimal.RequireFromString("29.97")))
	// 1.005 rounds half-up to 1.01 per line before summation.
	assert.True(t, view.Lines[1].LineTotal.Equal(decimal.RequireFromString("1.01")))
	assert.True(t, view.Total.Equal(decimal.RequireFromString("30.98")))
	assert.Equal(t, 4, view.CartCount)
	assert.Empty(t, view.Dropped)
	// Nothing changed, so the cart is not rewritten.
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_View_SanitizeDropsAndClamps(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	// 3: fine; 5: clamped from 9 to 4; 7: vanished from the catalog;
	// 9: owned by the acting user.
	carts.On("Get", mock.Anything, testSession).Return(cartWith(map[int64]int{3: 2, 5: 9, 7: 1, 9: 1}), nil)
	products.On("ListSellableByIDs", mock.Anything, []int64{3, 5, 7, 9}).Return([]domain.Product{
		{ID: 3, Name: "Widget", Price: decimal.RequireFromString("9.99"), Stock: 10, OwnerID: "seller-1", IsActive: true},
		{ID: 5, Name: "Gadget", Price: decimal.RequireFromString("2.50"), Stock: 4, OwnerID: "seller-2", IsActive: true},
		{ID: 9, Name: "Mine", Price: decimal.RequireFromString("5.00"), Stock: 3, OwnerID: "user-1", IsActive: true},
	}, nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		_, has7 := c.Items[7]
		_, has9 := c.Items[9]
		return c.Items[3] == 2 && c.Items[5] == 4 && !has7 && !has9
	})).Return(nil)

	view, err := svc.View(context.Background(), testSession, testPrincipal)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, []int64{7, 9}, view.Dropped)
	require.Len(t, view.Warnings, 1)
	assert.Contains(t, view.Warnings[0], "Gadget")
	assert.True(t, view.Total.Equal(decimal.RequireFromString("29.98")))
	carts.AssertExpectations(t)
}

func TestCartService_View_EmptySession(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	carts.On("Get", mock.Anything, testSession).Return(nil, apperrors.NotFound("cart", testSession))
	products.On("ListSellableByIDs", mock.Anything, []int64{}).Return([]domain.Product{}, nil)

	view, err := svc.View(context.Background(), testSession, testPrincipal)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Total.IsZero())
	assert.Equal(t, 0, view.CartCount)
}

func TestCartService_SanitizeIsIdempotent(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	clean := map[int64]int{3: 2}
	catalog := []domain.Product{
		{ID: 3, Name: "Widget", Price: decimal.RequireFromString("9.99"), Stock: 10, OwnerID: "seller-1", IsActive: true},
	}

	carts.On("Get", mock.Anything, testSession).Return(cartWith(clean), nil).Twice()
	products.On("ListSellableByIDs", mock.Anything, []int64{3}).Return(catalog, nil).Twice()

	first, _, _, _, err := svc.LoadSanitized(context.Background(), testSession, testPrincipal)
	require.NoError(t, err)
	second, _, _, _, err := svc.LoadSanitized(context.Background(), testSession, testPrincipal)
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_ExpiredCartIsClearedOnce(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc := newTestCartService(carts, products)

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	stale := cartWith(map[int64]int{3: 2})
	stale.CreatedAt = now.Add(-25 * time.Hour)

	carts.On("Get", mock.Anything, testSession).Return(stale, nil)
	carts.On("Save", mock.Anything, testSession, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 0 && c.CreatedAt.Equal(now)
	})).Return(nil)

	_, err := svc.View(context.Background(), testSession, testPrincipal)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CART_EXPIRED", appErr.Code)
	assert.Equal(t, 410, appErr.Status)
	carts.AssertExpectations(t)
}
