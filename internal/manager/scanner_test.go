package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mynt-trade-bot-go/internal/config"
	"mynt-trade-bot-go/internal/exchange"
	"mynt-trade-bot-go/internal/models"
)

func summary(market, base, quote string, volume float64) exchange.MarketSummary {
	return exchange.MarketSummary{
		MarketName:   market,
		BaseVolume:   volume,
		CurrencyPair: exchange.CurrencyPair{Base: base, Quote: quote},
	}
}

func TestFindBuyOpportunities_FiltersAndOrders(t *testing.T) {
	cfg := &config.Trading{
		QuoteCurrency:   "BTC",
		MinimumVolume:   300,
		AlwaysTradeList: []string{"XLM"},
		MarketBlacklist: []string{"DOGE"},
	}
	m, mockVenue, _ := setupTest(t, cfg)

	mockVenue.On("GetMarketSummaries").Return([]exchange.MarketSummary{
		summary("ETH/BTC", "ETH", "BTC", 500),
		summary("LTC/BTC", "LTC", "BTC", 900),
		summary("ETH/USDT", "ETH", "USDT", 9000), // wrong quote currency
		summary("XRP/BTC", "XRP", "BTC", 100),    // below minimum volume
		summary("XLM/BTC", "XLM", "BTC", 50),     // low volume but always-trade
		summary("DOGE/BTC", "DOGE", "BTC", 800),  // blacklisted
		summary("NEO/BTC", "NEO", "BTC", 700),    // already held
	}, nil)
	mockVenue.On("GetTickerHistory", "LTC/BTC").Return(buyCandles(), nil)
	mockVenue.On("GetTickerHistory", "ETH/BTC").Return(buyCandles(), nil)
	mockVenue.On("GetTickerHistory", "XLM/BTC").Return(holdCandles(), nil)

	held := []*models.Trade{{Market: "NEO/BTC", IsOpen: true}}
	markets, err := m.findBuyOpportunities(context.Background(), held)
	require.NoError(t, err)

	// Descending base volume, buy signals only.
	assert.Equal(t, []string{"LTC/BTC", "ETH/BTC"}, markets)
	mockVenue.AssertExpectations(t)
}

func TestFindBuyOpportunities_QuoteComparisonIsCaseInsensitive(t *testing.T) {
	cfg := &config.Trading{QuoteCurrency: "btc", MinimumVolume: 0}
	m, mockVenue, _ := setupTest(t, cfg)

	mockVenue.On("GetMarketSummaries").Return([]exchange.MarketSummary{
		summary("ETH/BTC", "ETH", "BTC", 500),
	}, nil)
	mockVenue.On("GetTickerHistory", "ETH/BTC").Return(buyCandles(), nil)

	markets, err := m.findBuyOpportunities(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH/BTC"}, markets)
}

func TestFindBuyOpportunities_StrategyErrorMeansNoSignal(t *testing.T) {
	cfg := &config.Trading{QuoteCurrency: "BTC", MinimumVolume: 0}
	m, mockVenue, _ := setupTest(t, cfg)

	mockVenue.On("GetMarketSummaries").Return([]exchange.MarketSummary{
		summary("ETH/BTC", "ETH", "BTC", 500),
		summary("LTC/BTC", "LTC", "BTC", 400),
	}, nil)
	// A market whose candles cannot be fetched is treated as Hold, and must
	// not starve the rest of the scan.
	mockVenue.On("GetTickerHistory", "ETH/BTC").Return([]exchange.Candle{}, errors.New("venue down"))
	mockVenue.On("GetTickerHistory", "LTC/BTC").Return(buyCandles(), nil)

	markets, err := m.findBuyOpportunities(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"LTC/BTC"}, markets)
}
