package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jihadnassar202/E-Commerce-Project/internal/service"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/httputil"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/validator"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates an order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// UpdateLineStatusRequest is the JSON request body for moving an order line
// through fulfillment.
type UpdateLineStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// GetOrder handles GET /api/v1/orders/{orderID}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), principal, orderID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	orders, total, err := h.service.ListOrders(r.Context(), principal, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, page, perPage))
}

// UpdateLineStatus handles PATCH /api/v1/orders/lines/{lineID}/status
func (h *OrderHandler) UpdateLineStatus(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	lineID, ok := httputil.ParseUUID(w, chi.URLParam(r, "lineID"))
	if !ok {
		return
	}

	var req UpdateLineStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	line, err := h.service.UpdateLineStatus(r.Context(), principal, lineID.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: line})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
