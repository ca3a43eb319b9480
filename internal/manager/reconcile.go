package manager

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mynt-trade-bot-go/internal/exchange"
	"mynt-trade-bot-go/internal/models"
)

var hundred = decimal.NewFromInt(100)

// cancelStaleBuys cancels every outstanding buy order whose venue status is
// not PartiallyFilled and releases its trader slot. Partially filled buys are
// left on the book. The trader release is written immediately, not batched,
// because the free-trader scan later in the same cycle must observe it.
func (m *Manager) cancelStaleBuys(ctx context.Context, trades []*models.Trade, traders []*models.Trader, b *batches) {
	for _, trade := range trades {
		if !trade.IsBuying || trade.OpenOrderID == nil {
			continue
		}

		order, err := m.exchange.GetOrder(ctx, *trade.OpenOrderID, trade.Market)
		if err != nil {
			m.logger.Warn("Could not fetch buy order state",
				zap.String("market", trade.Market), zap.Error(err))
			continue
		}
		if order.Status == exchange.OrderStatusPartiallyFilled {
			continue
		}

		if err := m.exchange.CancelOrder(ctx, order.ID, trade.Market); err != nil {
			m.logger.Warn("Could not cancel stale buy",
				zap.String("market", trade.Market), zap.Error(err))
			continue
		}

		now := m.clock()
		closeDate := now
		trade.IsBuying = false
		trade.IsOpen = false
		trade.SellType = models.SellTypeCancelled
		trade.CloseDate = &closeDate
		trade.OpenOrderID = nil
		b.trades.Replace(trade)

		trader := traderByID(traders, trade.TraderID)
		if trader == nil {
			m.logger.Error("Cancelled trade references unknown trader, operator intervention required",
				zap.String("row_key", trade.RowKey), zap.String("trader_id", trade.TraderID))
			continue
		}
		trader.IsBusy = false
		trader.LastUpdated = now
		if err := m.store.SaveTrader(ctx, trader); err != nil {
			m.logger.Error("Failed to release trader",
				zap.String("trader_id", trader.RowKey), zap.Error(err))
		}

		m.notifier.Send(fmt.Sprintf("Cancelled %s buy order", trade.Market))
		m.logger.Info("Stale buy cancelled",
			zap.String("market", trade.Market), zap.String("order_id", order.ID))
	}
}

// updateOpenBuyOrders detects buy fills and replaces the trade's economic
// fields with the actual fill data. When configured, a take-profit sell is
// placed immediately on fill.
func (m *Manager) updateOpenBuyOrders(ctx context.Context, trades []*models.Trade, b *batches) {
	for _, trade := range trades {
		if !trade.HasOpenBuyOrder() {
			continue
		}

		order, err := m.exchange.GetOrder(ctx, *trade.OpenOrderID, trade.Market)
		if err != nil {
			m.logger.Warn("Could not fetch buy order state",
				zap.String("market", trade.Market), zap.Error(err))
			continue
		}
		if order.Status != exchange.OrderStatusFilled {
			continue
		}

		trade.Quantity = order.Quantity
		trade.OpenRate = order.Price
		trade.StakeAmount = order.Quantity.Mul(order.Price)
		trade.OpenDate = order.Time
		trade.IsBuying = false
		trade.OpenOrderID = nil

		if m.cfg.ImmediatelyPlaceSellOrder {
			profit := decimal.NewFromFloat(m.cfg.ImmediatelyPlaceSellOrderAtProfit)
			sellPrice := trade.OpenRate.Mul(one.Add(profit)).Round(pricePrecision)

			orderID, err := m.exchange.Sell(ctx, trade.Market, trade.Quantity, sellPrice)
			if err != nil {
				// Left held; the sell-condition check will pick it up.
				m.logger.Warn("Failed to place immediate sell",
					zap.String("market", trade.Market), zap.Error(err))
			} else {
				trade.CloseRate = decimal.NewNullDecimal(sellPrice)
				trade.SellOrderID = &orderID
				trade.OpenOrderID = &orderID
				trade.IsSelling = true
				trade.SellType = models.SellTypeImmediate
			}
		}

		b.trades.Replace(trade)
		m.notifier.Send(fmt.Sprintf("Bought %s of %s at %s",
			trade.Quantity, trade.Market, trade.OpenRate))
		m.logger.Info("Buy order filled",
			zap.String("market", trade.Market),
			zap.String("quantity", trade.Quantity.String()),
			zap.String("open_rate", trade.OpenRate.String()),
		)
	}
}

// updateOpenSellOrders detects sell fills, closes the trade with realized
// PnL and credits the owning trader. A closed trade referencing an unknown
// trader is an invariant violation and aborts the cycle.
func (m *Manager) updateOpenSellOrders(ctx context.Context, trades []*models.Trade, traders []*models.Trader, b *batches) error {
	for _, trade := range trades {
		if !trade.HasOpenSellOrder() {
			continue
		}

		order, err := m.exchange.GetOrder(ctx, *trade.OpenOrderID, trade.Market)
		if err != nil {
			m.logger.Warn("Could not fetch sell order state",
				zap.String("market", trade.Market), zap.Error(err))
			continue
		}
		if order.Status != exchange.OrderStatusFilled {
			continue
		}

		trader := traderByID(traders, trade.TraderID)
		if trader == nil {
			return fmt.Errorf("trade %s references unknown trader %s, operator intervention required",
				trade.RowKey, trade.TraderID)
		}

		fillTime := order.Time
		trade.IsOpen = false
		trade.IsSelling = false
		trade.OpenOrderID = nil
		trade.CloseDate = &fillTime
		trade.CloseRate = decimal.NewNullDecimal(order.Price)

		closeProfit := order.Price.Mul(order.Quantity).Sub(trade.StakeAmount)
		closeProfitPercent := closeProfit.Div(trade.StakeAmount).Mul(hundred)
		trade.CloseProfit = decimal.NewNullDecimal(closeProfit)
		trade.CloseProfitPercent = decimal.NewNullDecimal(closeProfitPercent)
		b.trades.Replace(trade)

		trader.CurrentBalance = trader.CurrentBalance.Add(closeProfit)
		trader.IsBusy = false
		trader.LastUpdated = m.clock()
		b.traders.Replace(trader)

		m.notifier.Send(fmt.Sprintf("Sold %s at %s for %s profit (%s%%)",
			trade.Market, order.Price, closeProfit, closeProfitPercent.Round(2)))
		m.logger.Info("Sell order filled",
			zap.String("market", trade.Market),
			zap.String("close_profit", closeProfit.String()),
		)
	}
	return nil
}

// checkForSellConditions evaluates the sell rules for every held position.
// A trailing-stop update only persists the raised stop; it never places an
// order.
func (m *Manager) checkForSellConditions(ctx context.Context, trades []*models.Trade, b *batches) {
	for _, trade := range trades {
		if !trade.IsHeld() {
			continue
		}

		ticker, err := m.exchange.GetTicker(ctx, trade.Market)
		if err != nil {
			m.logger.Warn("Could not quote market for sell check",
				zap.String("market", trade.Market), zap.Error(err))
			continue
		}

		decision := ShouldSell(trade, ticker.Bid, m.clock(), m.cfg)
		switch decision.Kind {
		case DecideSell:
			if err := m.placeSell(ctx, trade, ticker.Bid, decision.Reason, b); err != nil {
				m.logger.Warn("Failed to place sell",
					zap.String("market", trade.Market), zap.Error(err))
			}
		case DecideUpdateStop:
			trade.StopLossRate = decimal.NewNullDecimal(decision.StopRate)
			b.trades.Replace(trade)
			m.logger.Info("Trailing stop raised",
				zap.String("market", trade.Market),
				zap.String("stop_loss_rate", decision.StopRate.String()),
			)
		}
	}
}
