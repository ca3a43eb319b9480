package manager

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"mynt-trade-bot-go/internal/models"
	"mynt-trade-bot-go/internal/strategy"
)

// findBuyOpportunities filters the venue's markets down to tradable
// candidates and returns, in descending base-volume order, the markets the
// strategy currently advises buying.
func (m *Manager) findBuyOpportunities(ctx context.Context, activeTrades []*models.Trade) ([]string, error) {
	summaries, err := m.exchange.GetMarketSummaries(ctx)
	if err != nil {
		return nil, err
	}

	held := make(map[string]struct{}, len(activeTrades))
	for _, trade := range activeTrades {
		held[trade.Market] = struct{}{}
	}
	alwaysTrade := toSet(m.cfg.AlwaysTradeList)
	blacklist := toSet(m.cfg.MarketBlacklist)
	quote := strings.ToUpper(m.cfg.QuoteCurrency)

	var candidates []exchangeSummary
	for _, summary := range summaries {
		if strings.ToUpper(summary.CurrencyPair.Quote) != quote {
			continue
		}
		_, always := alwaysTrade[summary.CurrencyPair.Base]
		if summary.BaseVolume < m.cfg.MinimumVolume && !always {
			continue
		}
		if _, ok := held[summary.MarketName]; ok {
			continue
		}
		if _, ok := blacklist[summary.CurrencyPair.Base]; ok {
			continue
		}
		candidates = append(candidates, exchangeSummary{name: summary.MarketName, volume: summary.BaseVolume})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].volume > candidates[j].volume
	})

	var markets []string
	for _, candidate := range candidates {
		if m.adviseMarket(ctx, candidate.name) == strategy.AdviceBuy {
			markets = append(markets, candidate.name)
		}
	}

	m.logger.Info("Buy scan complete",
		zap.Int("markets_considered", len(candidates)),
		zap.Int("buy_signals", len(markets)),
	)
	return markets, nil
}

type exchangeSummary struct {
	name   string
	volume float64
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// adviseMarket asks the strategy for advice on one market. Any failure along
// the way is treated as no signal so a single bad market cannot starve the
// cycle.
func (m *Manager) adviseMarket(ctx context.Context, market string) strategy.TradeAdvice {
	since := strategy.MinimumDateTime(m.strategy, m.clock())
	candles, err := m.exchange.GetTickerHistory(ctx, market, since, m.strategy.IdealPeriod())
	if err != nil {
		m.logger.Warn("Could not fetch candles", zap.String("market", market), zap.Error(err))
		return strategy.AdviceHold
	}

	forecast, err := m.strategy.Forecast(candles)
	if err != nil {
		m.logger.Warn("Strategy evaluation failed", zap.String("market", market), zap.Error(err))
		return strategy.AdviceHold
	}
	return forecast.Advice
}
