package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jihadnassar202/E-Commerce-Project/internal/service"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/httputil"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/validator"
)

// StockHandler handles stock adjustment requests.
type StockHandler struct {
	service *service.StockService
	logger  *slog.Logger
}

// NewStockHandler creates a stock HTTP handler.
func NewStockHandler(svc *service.StockService, logger *slog.Logger) *StockHandler {
	return &StockHandler{service: svc, logger: logger}
}

// AdjustStockRequest is the JSON request body for a stock adjustment.
type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// AdjustStockResponse reports the stock level after the adjustment.
type AdjustStockResponse struct {
	ProductID int64 `json:"product_id"`
	Stock     int   `json:"stock"`
}

// Adjust handles POST /api/v1/products/{productID}/stock
func (h *StockHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	stock, err := h.service.Adjust(r.Context(), principal, productID, req.Delta)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AdjustStockResponse{ProductID: productID, Stock: stock},
	})
}
