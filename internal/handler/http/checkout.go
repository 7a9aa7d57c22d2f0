package http

import (
	"log/slog"
	"net/http"

	"github.com/jihadnassar202/E-Commerce-Project/internal/service"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/httputil"
)

// CheckoutHandler handles HTTP requests for checkout.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// Submit handles POST /api/v1/checkout. The request carries no body; the
// order is built from the session cart.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	order, err := h.service.Submit(r.Context(), principal.UserID, principal)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}
