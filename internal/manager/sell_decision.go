package manager

import (
	"time"

	"github.com/shopspring/decimal"

	"mynt-trade-bot-go/internal/config"
	"mynt-trade-bot-go/internal/models"
)

// DecisionKind tags the outcome of a sell evaluation.
type DecisionKind int

const (
	// DecideNoOp leaves the position untouched.
	DecideNoOp DecisionKind = iota
	// DecideUpdateStop raises the trailing stop; no order is placed.
	DecideUpdateStop
	// DecideSell closes the position for the given reason.
	DecideSell
)

// Decision is the outcome of evaluating a held position against the sell
// rules. StopRate is set for DecideUpdateStop, Reason for DecideSell.
type Decision struct {
	Kind     DecisionKind
	StopRate decimal.Decimal
	Reason   models.SellType
}

var (
	noOp = Decision{Kind: DecideNoOp}
	one  = decimal.NewFromInt(1)
)

func sellFor(reason models.SellType) Decision {
	return Decision{Kind: DecideSell, Reason: reason}
}

// ShouldSell evaluates the sell rules for one position against the current
// bid. It is a pure function of its inputs; persisting an updated trailing
// stop is the caller's job.
//
// Rule order is deliberate: the stop loss is checked before the ROI ladder
// and the trailing rules, so a collapsed position always exits as StopLoss.
func ShouldSell(trade *models.Trade, currentBid decimal.Decimal, now time.Time, cfg *config.Trading) Decision {
	profitRatio := currentBid.Sub(trade.OpenRate).Div(trade.OpenRate)
	profit, _ := profitRatio.Float64()

	// 1. Stop loss.
	if profit < cfg.StopLossPercentage {
		return sellFor(models.SellTypeStopLoss)
	}

	// 2. Time-based ROI ladder, first matching rung wins.
	elapsedMinutes := now.Sub(trade.OpenDate).Minutes()
	for _, step := range cfg.ReturnOnInvestment {
		if elapsedMinutes > step.Duration && profit > step.Profit {
			return sellFor(models.SellTypeTimed)
		}
	}

	// 3. Trailing stop.
	if cfg.EnableTrailingStop {
		if trade.StopLossRate.Valid && currentBid.LessThan(trade.StopLossRate.Decimal) {
			return sellFor(models.SellTypeTrailingStopLoss)
		}

		// The stop ratchets up with the position's gain; it never moves down.
		trailing := profitRatio.Sub(decimal.NewFromFloat(cfg.TrailingStopPercentage))
		newStop := trade.OpenRate.Mul(one.Add(trailing))
		if profit > cfg.TrailingStopStartingPercentage &&
			(!trade.StopLossRate.Valid || trade.StopLossRate.Decimal.LessThan(newStop)) {
			return Decision{Kind: DecideUpdateStop, StopRate: newStop}
		}
	}

	return noOp
}
