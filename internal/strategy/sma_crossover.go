package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mynt-trade-bot-go/internal/exchange"
)

// SMACrossoverName identifies the simple-moving-average crossover strategy.
const SMACrossoverName = "SMACrossover"

const (
	smaFastWindow = 12
	smaSlowWindow = 26
)

// SMACrossover signals Buy when the fast moving average of closes crosses
// above the slow one, and Sell when it crosses below.
type SMACrossover struct {
	logger *zap.Logger
}

var _ Strategy = (*SMACrossover)(nil)

func NewSMACrossover(logger *zap.Logger) *SMACrossover {
	return &SMACrossover{logger: logger.Named("sma-crossover")}
}

func (s *SMACrossover) Name() string {
	return SMACrossoverName
}

func (s *SMACrossover) IdealPeriod() time.Duration {
	return time.Hour
}

func (s *SMACrossover) MinimumAmountOfCandles() int {
	// One extra candle so the previous bar's averages exist too.
	return smaSlowWindow + 1
}

// sma averages the Close of candles[from:to].
func sma(candles []exchange.Candle, from, to int) decimal.Decimal {
	sum := decimal.Zero
	for _, candle := range candles[from:to] {
		sum = sum.Add(candle.Close)
	}
	return sum.Div(decimal.NewFromInt(int64(to - from)))
}

func (s *SMACrossover) Forecast(candles []exchange.Candle) (Forecast, error) {
	if len(candles) < s.MinimumAmountOfCandles() {
		return Forecast{}, fmt.Errorf("need at least %d candles, got %d", s.MinimumAmountOfCandles(), len(candles))
	}

	n := len(candles)
	fastNow := sma(candles, n-smaFastWindow, n)
	slowNow := sma(candles, n-smaSlowWindow, n)
	fastPrev := sma(candles, n-smaFastWindow-1, n-1)
	slowPrev := sma(candles, n-smaSlowWindow-1, n-1)

	advice := AdviceHold
	switch {
	case fastNow.GreaterThan(slowNow) && fastPrev.LessThanOrEqual(slowPrev):
		advice = AdviceBuy
	case fastNow.LessThan(slowNow) && fastPrev.GreaterThanOrEqual(slowPrev):
		advice = AdviceSell
	}

	s.logger.Debug("Forecast computed",
		zap.String("fast", fastNow.String()),
		zap.String("slow", slowNow.String()),
		zap.String("advice", string(advice)),
	)
	return Forecast{Advice: advice}, nil
}
