package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	pkgkafka "github.com/jihadnassar202/E-Commerce-Project/pkg/kafka"
)

// Kafka topics for storefront domain events.
const (
	TopicCartUpdated      = "storefront.cart.updated"
	TopicCartCleared      = "storefront.cart.cleared"
	TopicOrderCreated     = "storefront.order.created"
	TopicStockDecremented = "storefront.stock.decremented"
)

// Aggregate types.
const (
	AggregateTypeCart    = "cart"
	AggregateTypeOrder   = "order"
	AggregateTypeProduct = "product"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	ItemCount int    `json:"item_count"`
	LineCount int    `json:"line_count"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	TotalAmount string `json:"total_amount"`
	LineCount   int    `json:"line_count"`
}

// StockDecrementedData is the payload for a stock.decremented event.
type StockDecrementedData struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	OrderID   string `json:"order_id"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID, userID string, cart *domain.Cart) error {
	data := CartUpdatedData{
		SessionID: sessionID,
		UserID:    userID,
		ItemCount: cart.Count(),
		LineCount: len(cart.Items),
	}

	ev, err := pkgkafka.NewEvent(TopicCartUpdated, sessionID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, ev); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	return nil
}

// PublishCartCleared publishes a cart.cleared event. Reason distinguishes
// expiry, explicit clearing, and checkout.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID, reason string) error {
	data := CartClearedData{SessionID: sessionID, Reason: reason}

	ev, err := pkgkafka.NewEvent(TopicCartCleared, sessionID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, ev); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	return nil
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	data := OrderCreatedData{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount.StringFixed(domain.CurrencyPlaces),
		LineCount:   len(o.Lines),
	}

	ev, err := pkgkafka.NewEvent(TopicOrderCreated, o.ID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, ev); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", o.ID),
		slog.Int("line_count", len(o.Lines)),
	)

	return nil
}

// PublishStockDecremented publishes one stock.decremented event per line of
// a committed checkout.
func (p *Producer) PublishStockDecremented(ctx context.Context, productID int64, qty int, orderID string) error {
	data := StockDecrementedData{ProductID: productID, Quantity: qty, OrderID: orderID}

	ev, err := pkgkafka.NewEvent(TopicStockDecremented, strconv.FormatInt(productID, 10), AggregateTypeProduct, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create stock.decremented event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStockDecremented, ev); err != nil {
		return fmt.Errorf("publish stock.decremented event: %w", err)
	}

	return nil
}
