package manager

import (
	"testing"

	"mynt-trade-bot-go/internal/config"
	"mynt-trade-bot-go/internal/exchange"
)

func TestTargetBid_AskLastBalance(t *testing.T) {
	cfg := &config.Trading{
		BuyInPriceStrategy: config.BuyInAskLastBalance,
		AskLastBalance:     0.5,
	}

	t.Run("AskBelowLast", func(t *testing.T) {
		ticker := &exchange.Ticker{Bid: dec(t, "0.05"), Ask: dec(t, "0.051"), Last: dec(t, "0.052")}
		assertDec(t, "0.0515", TargetBid(cfg, ticker))
	})

	t.Run("AskAboveLast", func(t *testing.T) {
		ticker := &exchange.Ticker{Bid: dec(t, "0.05"), Ask: dec(t, "0.053"), Last: dec(t, "0.052")}
		assertDec(t, "0.053", TargetBid(cfg, ticker))
	})

	t.Run("AskEqualsLast", func(t *testing.T) {
		ticker := &exchange.Ticker{Bid: dec(t, "0.05"), Ask: dec(t, "0.052"), Last: dec(t, "0.052")}
		assertDec(t, "0.052", TargetBid(cfg, ticker))
	})

	t.Run("ResultStaysBetweenAskAndLast", func(t *testing.T) {
		ticker := &exchange.Ticker{Bid: dec(t, "0.05"), Ask: dec(t, "0.051"), Last: dec(t, "0.052")}
		for _, balance := range []float64{0, 0.25, 0.5, 0.75, 1} {
			cfg := &config.Trading{BuyInPriceStrategy: config.BuyInAskLastBalance, AskLastBalance: balance}
			bid := TargetBid(cfg, ticker)
			if bid.LessThan(ticker.Ask) || bid.GreaterThan(ticker.Last) {
				t.Fatalf("balance %v: target bid %s outside [ask, last]", balance, bid)
			}
		}
	})
}

func TestTargetBid_Percentage(t *testing.T) {
	cfg := &config.Trading{
		BuyInPriceStrategy:   config.BuyInPercentage,
		BuyInPricePercentage: 0.005,
	}

	ticker := &exchange.Ticker{Bid: dec(t, "0.05"), Ask: dec(t, "0.051"), Last: dec(t, "0.052")}
	// 0.05 * 0.995, rounded to the venue's 8 decimals.
	assertDec(t, "0.04975", TargetBid(cfg, ticker))
}

func TestTargetBid_PercentageRoundsToVenuePrecision(t *testing.T) {
	cfg := &config.Trading{
		BuyInPriceStrategy:   config.BuyInPercentage,
		BuyInPricePercentage: 0.0033,
	}

	ticker := &exchange.Ticker{Bid: dec(t, "0.00001234"), Ask: dec(t, "0.00001240"), Last: dec(t, "0.00001236")}
	// 0.00001234 * 0.9967 = 0.0000122992... -> 8 decimals
	assertDec(t, "0.0000123", TargetBid(cfg, ticker))
}
