package exchange

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestDryRun_OrdersFillOnNextPoll(t *testing.T) {
	dryRun := NewDryRun(nil, zap.NewNop())

	id, err := dryRun.Buy(context.Background(), "ETH/BTC", mustDec(t, "0.1942"), mustDec(t, "0.0515"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	order, err := dryRun.GetOrder(context.Background(), id, "ETH/BTC")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusFilled, order.Status)
	assert.Equal(t, "0.1942", order.Quantity.String())
	assert.Equal(t, "0.0515", order.Price.String())
}

func TestDryRun_CancelBeforePollStaysCancelled(t *testing.T) {
	dryRun := NewDryRun(nil, zap.NewNop())

	id, err := dryRun.Sell(context.Background(), "ETH/BTC", mustDec(t, "0.1942"), mustDec(t, "0.055"))
	require.NoError(t, err)

	require.NoError(t, dryRun.CancelOrder(context.Background(), id, "ETH/BTC"))

	order, err := dryRun.GetOrder(context.Background(), id, "ETH/BTC")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, order.Status)
}

func TestDryRun_UnknownOrder(t *testing.T) {
	dryRun := NewDryRun(nil, zap.NewNop())

	_, err := dryRun.GetOrder(context.Background(), "missing", "ETH/BTC")
	assert.Error(t, err)
	assert.Error(t, dryRun.CancelOrder(context.Background(), "missing", "ETH/BTC"))
}

func TestDryRun_BalanceIsAlwaysSufficient(t *testing.T) {
	dryRun := NewDryRun(nil, zap.NewNop())

	balance, err := dryRun.GetBalance(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "BTC", balance.Currency)
	assert.True(t, balance.Available.GreaterThan(mustDec(t, "1000")))
}
