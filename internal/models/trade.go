package models

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PartitionTrade tags rows in the trade table.
const PartitionTrade = "TRADE"

// Trade represents one round-trip position attempt. It is created when a buy
// order is placed and becomes terminal when IsOpen flips to false.
type Trade struct {
	PartitionKey string `gorm:"primaryKey;size:16" json:"partition_key"`
	RowKey       string `gorm:"primaryKey;size:32" json:"row_key"`

	TraderID string `gorm:"index;not null" json:"trader_id"`
	Market   string `gorm:"index;not null" json:"market"`

	StakeAmount        decimal.Decimal     `gorm:"type:numeric(30,10)" json:"stake_amount"`
	OpenRate           decimal.Decimal     `gorm:"type:numeric(30,10)" json:"open_rate"`
	CloseRate          decimal.NullDecimal `gorm:"type:numeric(30,10)" json:"close_rate"`
	Quantity           decimal.Decimal     `gorm:"type:numeric(30,10)" json:"quantity"`
	CloseProfit        decimal.NullDecimal `gorm:"type:numeric(30,10)" json:"close_profit"`
	CloseProfitPercent decimal.NullDecimal `gorm:"type:numeric(30,10)" json:"close_profit_percent"`

	BuyOrderID  *string `json:"buy_order_id"`
	SellOrderID *string `json:"sell_order_id"`
	OpenOrderID *string `json:"open_order_id"`

	OpenDate  time.Time  `json:"open_date"`
	CloseDate *time.Time `json:"close_date"`

	IsOpen    bool `gorm:"index" json:"is_open"`
	IsBuying  bool `json:"is_buying"`
	IsSelling bool `json:"is_selling"`

	StopLossRate decimal.NullDecimal `gorm:"type:numeric(30,10)" json:"stop_loss_rate"`

	StrategyUsed string   `json:"strategy_used"`
	SellType     SellType `gorm:"size:32" json:"sell_type"`
}

// NewTradeRowKey derives a row key from the inverse of the given timestamp so
// that ascending key order yields newest trades first.
func NewTradeRowKey(t time.Time) string {
	return fmt.Sprintf("%019d", math.MaxInt64-t.UnixNano())
}

// IsHeld reports whether the position is held with no order outstanding on the
// venue, or carries only a pre-placed immediate take-profit sell.
func (t *Trade) IsHeld() bool {
	return t.IsOpen && (t.OpenOrderID == nil || t.SellType == SellTypeImmediate)
}

// HasOpenBuyOrder reports whether the outstanding order (if any) is the buy.
func (t *Trade) HasOpenBuyOrder() bool {
	return t.OpenOrderID != nil && t.SellOrderID == nil
}

// HasOpenSellOrder reports whether the outstanding order (if any) is a sell.
func (t *Trade) HasOpenSellOrder() bool {
	return t.OpenOrderID != nil && t.SellOrderID != nil
}
