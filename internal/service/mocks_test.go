package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/jihadnassar202/E-Commerce-Project/internal/domain"
	"github.com/jihadnassar202/E-Commerce-Project/internal/event"
	pkgkafka "github.com/jihadnassar202/E-Commerce-Project/pkg/kafka"
)

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	args := m.Called(ctx, sessionID, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) GetSellable(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListSellableByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, ids []int64) ([]domain.Product, error) {
	args := m.Called(ctx, tx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) error {
	args := m.Called(ctx, tx, id, qty)
	return args.Error(0)
}

func (m *mockProductRepository) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	args := m.Called(ctx, id, delta)
	return args.Int(0), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) InsertHeaderTx(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	args := m.Called(ctx, tx, o)
	return args.Error(0)
}

func (m *mockOrderRepository) InsertLineTx(ctx context.Context, tx pgx.Tx, line *domain.OrderLine) error {
	args := m.Called(ctx, tx, line)
	return args.Error(0)
}

func (m *mockOrderRepository) FinalizeTx(ctx context.Context, tx pgx.Tx, orderID string, total decimal.Decimal, status string, isPaid bool) error {
	args := m.Called(ctx, tx, orderID, total, status, isPaid)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) GetLine(ctx context.Context, lineID string) (*domain.OrderLine, string, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*domain.OrderLine), args.String(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateLineStatus(ctx context.Context, lineID, status string) error {
	args := m.Called(ctx, lineID, status)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEventProducer returns a real producer pointed at an unreachable broker.
// Publish failures are only logged by the services, so tests stay green; the
// async writer keeps them from waiting on delivery retries.
func testEventProducer(logger *slog.Logger) *event.Producer {
	cfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	cfg.Async = true
	kp := pkgkafka.NewProducer(cfg, logger)
	return event.NewProducer(kp, logger)
}

func newTestCartService(carts *mockCartRepository, products *mockProductRepository) *CartService {
	logger := testLogger()
	svc := NewCartService(carts, products, testEventProducer(logger), logger, 24*time.Hour)
	return svc
}
