package manager

import (
	"github.com/shopspring/decimal"

	"mynt-trade-bot-go/internal/config"
	"mynt-trade-bot-go/internal/exchange"
)

// pricePrecision is the venue's decimal precision for rates.
const pricePrecision = 8

// TargetBid computes the rate at which a buy order should be placed.
//
// AskLastBalance: when the ask sits below the last trade the market is moving
// up, so pay a point between ask and last weighted by the ask_last_balance
// factor in [0,1] to get filled. Otherwise the ask already leads the tape and
// is taken as-is.
//
// Percentage: bid the current bid discounted by the configured percentage,
// rounded to the venue precision.
func TargetBid(cfg *config.Trading, ticker *exchange.Ticker) decimal.Decimal {
	if cfg.BuyInPriceStrategy == config.BuyInPercentage {
		discount := decimal.NewFromFloat(1 - cfg.BuyInPricePercentage)
		return ticker.Bid.Mul(discount).Round(pricePrecision)
	}

	if ticker.Ask.LessThan(ticker.Last) {
		balance := decimal.NewFromFloat(cfg.AskLastBalance)
		return ticker.Ask.Add(ticker.Last.Sub(ticker.Ask).Mul(balance))
	}
	return ticker.Ask
}
