package strategy

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"mynt-trade-bot-go/internal/exchange"
)

// TradeAdvice is the signal a strategy produces for one market.
type TradeAdvice string

const (
	AdviceBuy  TradeAdvice = "Buy"
	AdviceHold TradeAdvice = "Hold"
	AdviceSell TradeAdvice = "Sell"
)

// Forecast is the result of evaluating a candle window.
type Forecast struct {
	Advice TradeAdvice
}

// Strategy produces Buy/Hold/Sell advice from a window of candles.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// IdealPeriod is the candle period the strategy was designed for.
	IdealPeriod() time.Duration

	// MinimumAmountOfCandles is the smallest window Forecast accepts.
	MinimumAmountOfCandles() int

	// Forecast evaluates a candle window, oldest candle first.
	Forecast(candles []exchange.Candle) (Forecast, error)
}

// MinimumDateTime returns the earliest candle timestamp a strategy needs to
// produce a signal at the given time.
func MinimumDateTime(s Strategy, now time.Time) time.Time {
	return now.Add(-time.Duration(s.MinimumAmountOfCandles()) * s.IdealPeriod())
}

// CurrentCandleDateTime truncates the given time to the strategy's candle
// boundary.
func CurrentCandleDateTime(s Strategy, now time.Time) time.Time {
	return now.Truncate(s.IdealPeriod())
}

// SignalDate returns the start time of the most recent complete candle, the
// point the strategy's latest signal refers to.
func SignalDate(s Strategy, now time.Time) time.Time {
	return CurrentCandleDateTime(s, now).Add(-s.IdealPeriod())
}

// New constructs a strategy by its configured name.
func New(name string, logger *zap.Logger) (Strategy, error) {
	switch name {
	case "", SMACrossoverName:
		return NewSMACrossover(logger), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
}
