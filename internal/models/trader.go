package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartitionTrader tags rows in the trader table.
const PartitionTrader = "TRADER"

// Trader is one capital slot. Traders are created in bulk at first boot and
// never destroyed; IsBusy toggles as trades open and close against the slot.
type Trader struct {
	PartitionKey string `gorm:"primaryKey;size:16" json:"partition_key"`
	RowKey       string `gorm:"primaryKey;size:64" json:"row_key"`

	CurrentBalance decimal.Decimal `gorm:"type:numeric(30,10)" json:"current_balance"`
	StakeAmount    decimal.Decimal `gorm:"type:numeric(30,10)" json:"stake_amount"`
	IsBusy         bool            `json:"is_busy"`
	LastUpdated    time.Time       `json:"last_updated"`
}
