package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the venue-side state of an order.
type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "Open"
	OrderStatusPartiallyFilled OrderStatus = "PartiallyFilled"
	OrderStatusFilled          OrderStatus = "Filled"
	OrderStatusCancelled       OrderStatus = "Cancelled"
)

// CurrencyPair splits a market name into its base and quote currencies.
type CurrencyPair struct {
	Base  string
	Quote string
}

// MarketSummary is one row of the venue's market overview.
type MarketSummary struct {
	MarketName   string
	BaseVolume   float64
	CurrencyPair CurrencyPair
}

// Ticker is a point-in-time quote for one market.
type Ticker struct {
	Bid  decimal.Decimal
	Ask  decimal.Decimal
	Last decimal.Decimal
}

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    float64
}

// Balance is the venue-side balance for one currency.
type Balance struct {
	Currency  string
	Available decimal.Decimal
	Reserved  decimal.Decimal
}

// Order is a normalized view of an order on the venue.
type Order struct {
	ID       string
	Market   string
	Status   OrderStatus
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Time     time.Time
}

// Exchange is the surface the trade manager needs from a venue.
type Exchange interface {
	GetMarketSummaries(ctx context.Context) ([]MarketSummary, error)
	GetTicker(ctx context.Context, market string) (*Ticker, error)
	GetTickerHistory(ctx context.Context, market string, since time.Time, period time.Duration) ([]Candle, error)
	GetBalance(ctx context.Context, currency string) (*Balance, error)
	Buy(ctx context.Context, market string, quantity, price decimal.Decimal) (string, error)
	Sell(ctx context.Context, market string, quantity, price decimal.Decimal) (string, error)
	GetOrder(ctx context.Context, orderID, market string) (*Order, error)
	CancelOrder(ctx context.Context, orderID, market string) error
}
