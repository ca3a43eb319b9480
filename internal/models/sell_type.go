package models

// SellType records why a position was (or is being) closed.
type SellType string

const (
	SellTypeNone                    SellType = "None"
	SellTypeStopLoss                SellType = "StopLoss"
	SellTypeTrailingStopLoss        SellType = "TrailingStopLoss"
	SellTypeTrailingStopLossUpdated SellType = "TrailingStopLossUpdated"
	SellTypeTimed                   SellType = "Timed"
	SellTypeStrategy                SellType = "Strategy"
	SellTypeImmediate               SellType = "Immediate"
	SellTypeCancelled               SellType = "Cancelled"
)
