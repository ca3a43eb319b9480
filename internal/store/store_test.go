package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mynt-trade-bot-go/internal/models"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Trade{}, &models.Trader{}))
	return NewStore(db, zap.NewNop()), db
}

func makeTrade(openedAt time.Time, market string, open bool) *models.Trade {
	return &models.Trade{
		PartitionKey: models.PartitionTrade,
		RowKey:       models.NewTradeRowKey(openedAt),
		TraderID:     "trader-1",
		Market:       market,
		OpenDate:     openedAt,
		IsOpen:       open,
		SellType:     models.SellTypeNone,
	}
}

func TestActiveTrades_NewestFirst(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	base := time.Date(2018, 3, 14, 12, 0, 0, 0, time.UTC)
	batch := st.NewBatch()
	batch.Insert(makeTrade(base, "ETH/BTC", true))
	batch.Insert(makeTrade(base.Add(time.Hour), "LTC/BTC", true))
	batch.Insert(makeTrade(base.Add(2*time.Hour), "XRP/BTC", false))
	require.NoError(t, st.Execute(ctx, batch))

	trades, err := st.ActiveTrades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "LTC/BTC", trades[0].Market)
	assert.Equal(t, "ETH/BTC", trades[1].Market)
}

func TestExecute_ReplaceUpdatesRow(t *testing.T) {
	st, db := setupStore(t)
	ctx := context.Background()

	trade := makeTrade(time.Date(2018, 3, 14, 12, 0, 0, 0, time.UTC), "ETH/BTC", true)
	batch := st.NewBatch()
	batch.Insert(trade)
	require.NoError(t, st.Execute(ctx, batch))

	trade.IsOpen = false
	trade.CloseProfit = decimal.NewNullDecimal(decimal.NewFromFloat(0.000681))
	batch = st.NewBatch()
	batch.Replace(trade)
	require.NoError(t, st.Execute(ctx, batch))

	var stored models.Trade
	require.NoError(t, db.First(&stored, "row_key = ?", trade.RowKey).Error)
	assert.False(t, stored.IsOpen)
	require.True(t, stored.CloseProfit.Valid)
	assert.True(t, stored.CloseProfit.Decimal.Equal(decimal.NewFromFloat(0.000681)))
}

func TestExecute_FailedBatchRollsBack(t *testing.T) {
	st, db := setupStore(t)
	ctx := context.Background()

	opened := time.Date(2018, 3, 14, 12, 0, 0, 0, time.UTC)
	existing := makeTrade(opened, "ETH/BTC", true)
	batch := st.NewBatch()
	batch.Insert(existing)
	require.NoError(t, st.Execute(ctx, batch))

	// Second op collides on the primary key; the first must not survive.
	batch = st.NewBatch()
	batch.Insert(makeTrade(opened.Add(time.Hour), "LTC/BTC", true))
	batch.Insert(makeTrade(opened, "XRP/BTC", true))
	assert.Error(t, st.Execute(ctx, batch))

	var count int64
	require.NoError(t, db.Model(&models.Trade{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestExecute_DrainsBatchOnSuccess(t *testing.T) {
	st, _ := setupStore(t)
	ctx := context.Background()

	batch := st.NewBatch()
	batch.Insert(makeTrade(time.Date(2018, 3, 14, 12, 0, 0, 0, time.UTC), "ETH/BTC", true))
	require.NoError(t, st.Execute(ctx, batch))
	assert.Zero(t, batch.Len())

	// Re-executing the drained batch is a no-op.
	require.NoError(t, st.Execute(ctx, batch))
}

func TestSaveTrader_ImmediateWrite(t *testing.T) {
	st, db := setupStore(t)
	ctx := context.Background()

	trader := &models.Trader{
		PartitionKey:   models.PartitionTrader,
		RowKey:         "trader-1",
		CurrentBalance: decimal.NewFromFloat(0.01),
		StakeAmount:    decimal.NewFromFloat(0.01),
		IsBusy:         true,
		LastUpdated:    time.Date(2018, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.SaveTrader(ctx, trader))

	trader.IsBusy = false
	require.NoError(t, st.SaveTrader(ctx, trader))

	var stored models.Trader
	require.NoError(t, db.First(&stored, "row_key = ?", "trader-1").Error)
	assert.False(t, stored.IsBusy)

	traders, err := st.Traders(ctx)
	require.NoError(t, err)
	require.Len(t, traders, 1)
}
