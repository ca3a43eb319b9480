package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DryRun wraps a real exchange, passing market-data reads through while
// simulating order placement. Simulated orders fill at their limit price on
// the next status poll, and the simulated quote balance is effectively
// unlimited so assignments never fail on funds.
type DryRun struct {
	inner  Exchange
	logger *zap.Logger

	mu     sync.Mutex
	orders map[string]*Order
}

var _ Exchange = (*DryRun)(nil)

// NewDryRun creates a simulating wrapper around a real exchange.
func NewDryRun(inner Exchange, logger *zap.Logger) *DryRun {
	return &DryRun{
		inner:  inner,
		logger: logger.Named("dry-run"),
		orders: make(map[string]*Order),
	}
}

func (d *DryRun) GetMarketSummaries(ctx context.Context) ([]MarketSummary, error) {
	return d.inner.GetMarketSummaries(ctx)
}

func (d *DryRun) GetTicker(ctx context.Context, market string) (*Ticker, error) {
	return d.inner.GetTicker(ctx, market)
}

func (d *DryRun) GetTickerHistory(ctx context.Context, market string, since time.Time, period time.Duration) ([]Candle, error) {
	return d.inner.GetTickerHistory(ctx, market, since, period)
}

// GetBalance reports a large simulated balance so buys always proceed.
func (d *DryRun) GetBalance(ctx context.Context, currency string) (*Balance, error) {
	return &Balance{
		Currency:  currency,
		Available: decimal.NewFromInt(1_000_000),
	}, nil
}

func (d *DryRun) record(market, side string, quantity, price decimal.Decimal) string {
	id := uuid.NewString()
	d.mu.Lock()
	d.orders[id] = &Order{
		ID:       id,
		Market:   market,
		Status:   OrderStatusOpen,
		Quantity: quantity,
		Price:    price,
		Time:     time.Now(),
	}
	d.mu.Unlock()

	d.logger.Info("Simulated order placed",
		zap.String("market", market),
		zap.String("side", side),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("order_id", id),
	)
	return id
}

func (d *DryRun) Buy(ctx context.Context, market string, quantity, price decimal.Decimal) (string, error) {
	return d.record(market, orderSideBuy, quantity, price), nil
}

func (d *DryRun) Sell(ctx context.Context, market string, quantity, price decimal.Decimal) (string, error) {
	return d.record(market, orderSideSell, quantity, price), nil
}

// GetOrder reports a simulated order as filled at its limit price. The first
// poll after placement observes the fill.
func (d *DryRun) GetOrder(ctx context.Context, orderID, market string) (*Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	order, ok := d.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("simulated order %s not found", orderID)
	}
	if order.Status == OrderStatusOpen {
		order.Status = OrderStatusFilled
		order.Time = time.Now()
	}
	copied := *order
	return &copied, nil
}

func (d *DryRun) CancelOrder(ctx context.Context, orderID, market string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	order, ok := d.orders[orderID]
	if !ok {
		return fmt.Errorf("simulated order %s not found", orderID)
	}
	order.Status = OrderStatusCancelled
	return nil
}
