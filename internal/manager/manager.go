package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mynt-trade-bot-go/internal/config"
	"mynt-trade-bot-go/internal/exchange"
	"mynt-trade-bot-go/internal/models"
	"mynt-trade-bot-go/internal/notify"
	"mynt-trade-bot-go/internal/store"
	"mynt-trade-bot-go/internal/strategy"
)

var errInsufficientFunds = errors.New("available balance below trader balance")

// Manager multiplexes a bounded pool of trader slots onto the market
// universe. Its two entry points, CheckStrategySignals and
// UpdateRunningTrades, are designed to run on independent cadences and are
// serialized by an internal mutex; no mutable state survives between cycles
// except through the store.
type Manager struct {
	mu       sync.Mutex
	logger   *zap.Logger
	cfg      *config.Trading
	store    *store.Store
	exchange exchange.Exchange
	strategy strategy.Strategy
	notifier notify.Notifier
	clock    func() time.Time
}

// NewManager creates a trade manager.
func NewManager(logger *zap.Logger, cfg *config.Trading, st *store.Store, ex exchange.Exchange, strat strategy.Strategy, notifier notify.Notifier) *Manager {
	return &Manager{
		logger:   logger.Named("manager"),
		cfg:      cfg,
		store:    st,
		exchange: ex,
		strategy: strat,
		notifier: notifier,
		clock:    time.Now,
	}
}

// batches collects the cycle's pending writes, one batch per table.
type batches struct {
	trades  *store.Batch
	traders *store.Batch
}

func (m *Manager) newBatches() *batches {
	return &batches{trades: m.store.NewBatch(), traders: m.store.NewBatch()}
}

func (m *Manager) flush(ctx context.Context, b *batches) error {
	if err := m.store.Execute(ctx, b.trades); err != nil {
		return fmt.Errorf("failed to flush trade batch: %w", err)
	}
	if err := m.store.Execute(ctx, b.traders); err != nil {
		return fmt.Errorf("failed to flush trader batch: %w", err)
	}
	return nil
}

// loadTraders returns the trader roster, creating it on first boot. The
// bootstrap inserts all slots in one transaction under the single-writer
// assumption.
func (m *Manager) loadTraders(ctx context.Context) ([]*models.Trader, error) {
	traders, err := m.store.Traders(ctx)
	if err != nil {
		return nil, err
	}
	if len(traders) > 0 {
		return traders, nil
	}

	m.logger.Info("Empty trader table, creating trader slots",
		zap.Int("count", m.cfg.MaxConcurrentTrades),
		zap.Float64("stake", m.cfg.StakePerTrader),
	)
	stake := decimal.NewFromFloat(m.cfg.StakePerTrader)
	now := m.clock()
	batch := m.store.NewBatch()
	for i := 0; i < m.cfg.MaxConcurrentTrades; i++ {
		trader := &models.Trader{
			PartitionKey:   models.PartitionTrader,
			RowKey:         uuid.NewString(),
			CurrentBalance: stake,
			StakeAmount:    stake,
			LastUpdated:    now,
		}
		batch.Insert(trader)
		traders = append(traders, trader)
	}
	if err := m.store.Execute(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to bootstrap traders: %w", err)
	}
	return traders, nil
}

func traderByID(traders []*models.Trader, id string) *models.Trader {
	for _, trader := range traders {
		if trader.RowKey == id {
			return trader
		}
	}
	return nil
}

func freeTraders(traders []*models.Trader) []*models.Trader {
	var free []*models.Trader
	for _, trader := range traders {
		if !trader.IsBusy {
			free = append(free, trader)
		}
	}
	return free
}

// CheckStrategySignals runs one decision cycle: cancel stale buys if
// configured, check held positions for strategy sells, then open new buys
// into free trader slots.
func (m *Manager) CheckStrategySignals(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	traders, err := m.loadTraders(ctx)
	if err != nil {
		return err
	}
	activeTrades, err := m.store.ActiveTrades(ctx)
	if err != nil {
		return err
	}

	b := m.newBatches()

	if m.cfg.CancelUnboughtEachCycle {
		m.cancelStaleBuys(ctx, activeTrades, traders, b)
	}

	m.sellOnStrategy(ctx, activeTrades, b)

	candidates, err := m.findBuyOpportunities(ctx, activeTrades)
	if err != nil {
		// A failed scan abandons only the buy side; the cycle's other
		// writes still flush.
		m.logger.Error("Buy scan failed", zap.Error(err))
		candidates = nil
	}

	free := freeTraders(traders)
	assignments := len(free)
	if len(candidates) < assignments {
		assignments = len(candidates)
	}
	for i := 0; i < assignments; i++ {
		if err := m.openNewTrade(ctx, free[i], candidates[i], b); err != nil {
			if errors.Is(err, errInsufficientFunds) {
				m.logger.Error("Insufficient funds, skipping remaining assignments", zap.Error(err))
				break
			}
			m.logger.Warn("Failed to open trade",
				zap.String("market", candidates[i]), zap.Error(err))
		}
	}

	return m.flush(ctx, b)
}

// UpdateRunningTrades runs one reconciliation cycle: apply buy fills, apply
// sell fills, then evaluate sell conditions for held positions.
func (m *Manager) UpdateRunningTrades(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	traders, err := m.loadTraders(ctx)
	if err != nil {
		return err
	}
	activeTrades, err := m.store.ActiveTrades(ctx)
	if err != nil {
		return err
	}

	b := m.newBatches()

	m.updateOpenBuyOrders(ctx, activeTrades, b)
	if err := m.updateOpenSellOrders(ctx, activeTrades, traders, b); err != nil {
		return err
	}
	m.checkForSellConditions(ctx, activeTrades, b)

	return m.flush(ctx, b)
}

// sellOnStrategy asks the strategy about every held position and sells the
// ones it advises to exit, pre-empting any outstanding immediate take-profit
// order.
func (m *Manager) sellOnStrategy(ctx context.Context, trades []*models.Trade, b *batches) {
	for _, trade := range trades {
		if !trade.IsHeld() {
			continue
		}
		if m.adviseMarket(ctx, trade.Market) != strategy.AdviceSell {
			continue
		}

		ticker, err := m.exchange.GetTicker(ctx, trade.Market)
		if err != nil {
			m.logger.Warn("Could not quote market for strategy sell",
				zap.String("market", trade.Market), zap.Error(err))
			continue
		}
		if err := m.placeSell(ctx, trade, ticker.Bid, models.SellTypeStrategy, b); err != nil {
			m.logger.Warn("Failed to place strategy sell",
				zap.String("market", trade.Market), zap.Error(err))
		}
	}
}

// placeSell puts a limit sell on the book at the given bid and records the
// transition on the trade. An outstanding immediate take-profit order is
// cancelled first.
func (m *Manager) placeSell(ctx context.Context, trade *models.Trade, bid decimal.Decimal, reason models.SellType, b *batches) error {
	if trade.IsSelling && trade.SellType == models.SellTypeImmediate && trade.OpenOrderID != nil {
		if err := m.exchange.CancelOrder(ctx, *trade.OpenOrderID, trade.Market); err != nil {
			return fmt.Errorf("failed to cancel immediate sell: %w", err)
		}
	}

	orderID, err := m.exchange.Sell(ctx, trade.Market, trade.Quantity, bid)
	if err != nil {
		return err
	}

	trade.CloseRate = decimal.NewNullDecimal(bid)
	trade.SellOrderID = &orderID
	trade.OpenOrderID = &orderID
	trade.SellType = reason
	trade.IsSelling = true
	b.trades.Replace(trade)

	m.notifier.Send(fmt.Sprintf("Selling %s of %s at %s (%s)",
		trade.Quantity, trade.Market, bid, reason))
	m.logger.Info("Sell order placed",
		zap.String("market", trade.Market),
		zap.String("order_id", orderID),
		zap.String("reason", string(reason)),
	)
	return nil
}

// openNewTrade assigns one free trader slot to one candidate market by
// placing a limit buy at the target bid.
func (m *Manager) openNewTrade(ctx context.Context, trader *models.Trader, market string, b *batches) error {
	balance, err := m.exchange.GetBalance(ctx, m.cfg.QuoteCurrency)
	if err != nil {
		return err
	}
	if balance.Available.LessThan(trader.CurrentBalance) {
		return fmt.Errorf("%w: available %s, trader balance %s",
			errInsufficientFunds, balance.Available, trader.CurrentBalance)
	}

	spend := decimal.Min(trader.CurrentBalance, decimal.NewFromFloat(m.cfg.StakePerTrader))

	ticker, err := m.exchange.GetTicker(ctx, market)
	if err != nil {
		return err
	}
	openRate := TargetBid(m.cfg, ticker)

	grossQuantity := spend.Div(openRate).Round(pricePrecision)
	fee := one.Sub(decimal.NewFromFloat(m.cfg.FeePercentage))
	netQuantity := spend.Mul(fee).Div(openRate).Round(pricePrecision)

	orderID, err := m.exchange.Buy(ctx, market, grossQuantity, openRate)
	if err != nil {
		return err
	}

	m.notifier.Send(fmt.Sprintf("Buying %s of %s at %s (bid %s, ask %s, last %s)",
		grossQuantity, market, openRate, ticker.Bid, ticker.Ask, ticker.Last))
	m.logger.Info("Buy order placed",
		zap.String("market", market),
		zap.String("order_id", orderID),
		zap.String("open_rate", openRate.String()),
	)

	now := m.clock()
	trade := &models.Trade{
		PartitionKey: models.PartitionTrade,
		RowKey:       models.NewTradeRowKey(now),
		TraderID:     trader.RowKey,
		Market:       market,
		StakeAmount:  spend,
		OpenRate:     openRate,
		Quantity:     netQuantity,
		BuyOrderID:   &orderID,
		OpenOrderID:  &orderID,
		OpenDate:     now,
		IsOpen:       true,
		IsBuying:     true,
		StrategyUsed: m.strategy.Name(),
		SellType:     models.SellTypeNone,
	}
	b.trades.Insert(trade)

	trader.IsBusy = true
	trader.LastUpdated = now
	b.traders.Replace(trader)
	return nil
}
