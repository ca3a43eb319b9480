package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mynt-trade-bot-go/internal/exchange"
)

// candlesWithCloses builds one candle per close value, one period apart.
func candlesWithCloses(closes []float64) []exchange.Candle {
	start := time.Date(2018, 3, 14, 0, 0, 0, 0, time.UTC)
	candles := make([]exchange.Candle, len(closes))
	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		candles[i] = exchange.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    100,
		}
	}
	return candles
}

func flatCloses(n int, value float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = value
	}
	return closes
}

func TestSMACrossover_BuyOnUpwardCross(t *testing.T) {
	s := NewSMACrossover(zap.NewNop())

	// Flat tape, then a jump on the latest candle: the fast average crosses
	// above the slow one.
	closes := flatCloses(s.MinimumAmountOfCandles(), 0.05)
	closes[len(closes)-1] = 0.06

	forecast, err := s.Forecast(candlesWithCloses(closes))
	require.NoError(t, err)
	assert.Equal(t, AdviceBuy, forecast.Advice)
}

func TestSMACrossover_SellOnDownwardCross(t *testing.T) {
	s := NewSMACrossover(zap.NewNop())

	closes := flatCloses(s.MinimumAmountOfCandles(), 0.05)
	closes[len(closes)-1] = 0.04

	forecast, err := s.Forecast(candlesWithCloses(closes))
	require.NoError(t, err)
	assert.Equal(t, AdviceSell, forecast.Advice)
}

func TestSMACrossover_HoldOnFlatTape(t *testing.T) {
	s := NewSMACrossover(zap.NewNop())

	forecast, err := s.Forecast(candlesWithCloses(flatCloses(s.MinimumAmountOfCandles(), 0.05)))
	require.NoError(t, err)
	assert.Equal(t, AdviceHold, forecast.Advice)
}

func TestSMACrossover_RejectsShortWindow(t *testing.T) {
	s := NewSMACrossover(zap.NewNop())

	_, err := s.Forecast(candlesWithCloses(flatCloses(s.MinimumAmountOfCandles()-1, 0.05)))
	assert.Error(t, err)
}

func TestMinimumDateTime(t *testing.T) {
	s := NewSMACrossover(zap.NewNop())
	now := time.Date(2018, 3, 14, 12, 0, 0, 0, time.UTC)

	minimum := MinimumDateTime(s, now)
	assert.Equal(t, now.Add(-time.Duration(s.MinimumAmountOfCandles())*time.Hour), minimum)
}

func TestSignalDate(t *testing.T) {
	s := NewSMACrossover(zap.NewNop())
	now := time.Date(2018, 3, 14, 12, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2018, 3, 14, 12, 0, 0, 0, time.UTC), CurrentCandleDateTime(s, now))
	assert.Equal(t, time.Date(2018, 3, 14, 11, 0, 0, 0, time.UTC), SignalDate(s, now))
}

func TestNew_UnknownStrategy(t *testing.T) {
	_, err := New("DoesNotExist", zap.NewNop())
	assert.Error(t, err)

	s, err := New("", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SMACrossoverName, s.Name())
}
