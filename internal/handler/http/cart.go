package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	"github.com/jihadnassar202/E-Commerce-Project/internal/service"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/httputil"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/middleware"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints. The cart is keyed
// by the authenticated user; the gateway guarantees X-User-ID is present.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// AddItemRequest is the JSON request body for adding a product to the cart.
// Quantity is optional; anything non-positive is treated as 1.
type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

// UpdateQuantityRequest is the JSON request body for setting a line's
// quantity. Zero or negative removes the line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func principalFrom(r *http.Request) domain.Principal {
	return domain.Principal{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	view, err := h.service.View(r.Context(), principal.UserID, principal)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	summary, err := h.service.Add(r.Context(), principal.UserID, principal, req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// UpdateItem handles PUT /api/v1/cart/items/{productID}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	summary, err := h.service.Update(r.Context(), principal.UserID, principal, productID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// IncrementItem handles POST /api/v1/cart/items/{productID}/increment
func (h *CartHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	summary, err := h.service.Increment(r.Context(), principal.UserID, principal, productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// DecrementItem handles POST /api/v1/cart/items/{productID}/decrement
func (h *CartHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	summary, err := h.service.Decrement(r.Context(), principal.UserID, principal, productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	summary, err := h.service.Remove(r.Context(), principal.UserID, principal, productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}
