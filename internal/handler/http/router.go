package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jihadnassar202/E-Commerce-Project/internal/service"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/health"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/middleware"
)

// RouterConfig carries the knobs the router needs beyond its handlers.
type RouterConfig struct {
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	carts *service.CartService,
	checkout *service.CheckoutService,
	orders *service.OrderService,
	stock *service.StockService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(carts, logger)
	checkoutHandler := NewCheckoutHandler(checkout, logger)
	orderHandler := NewOrderHandler(orders, logger)
	stockHandler := NewStockHandler(stock, logger)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		}
		r.Use(middleware.Identity())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateItem)
			r.Post("/items/{productID}/increment", cartHandler.IncrementItem)
			r.Post("/items/{productID}/decrement", cartHandler.DecrementItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", checkoutHandler.Submit)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{orderID}", orderHandler.GetOrder)

			r.With(middleware.RequireRole(middleware.RoleSeller, middleware.RoleStaff)).
				Patch("/lines/{lineID}/status", orderHandler.UpdateLineStatus)
		})

		r.With(middleware.RequireRole(middleware.RoleStaff)).
			Post("/products/{productID}/stock", stockHandler.Adjust)
	})

	return r
}
