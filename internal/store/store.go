package store

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mynt-trade-bot-go/internal/models"
)

// Store is the persistence layer for the trade and trader tables. Reads are
// plain queries; writes issued during a cycle are accumulated in Batch values
// and flushed in a single transaction per table.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a Store on top of an opened database.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("store")}
}

// ActiveTrades returns all open trades, newest first (row keys are derived
// from a descending timestamp, so ascending key order is newest-first).
func (s *Store) ActiveTrades(ctx context.Context) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := s.db.WithContext(ctx).
		Where("partition_key = ? AND is_open = ?", models.PartitionTrade, true).
		Order("row_key asc").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}

// Trades returns all trades, newest first, optionally filtered by extra
// query conditions.
func (s *Store) Trades(ctx context.Context, conds ...interface{}) ([]*models.Trade, error) {
	var trades []*models.Trade
	q := s.db.WithContext(ctx).
		Where("partition_key = ?", models.PartitionTrade).
		Order("row_key asc")
	if len(conds) > 0 {
		q = q.Where(conds[0], conds[1:]...)
	}
	if err := q.Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// Traders returns the full trader roster.
func (s *Store) Traders(ctx context.Context) ([]*models.Trader, error) {
	var traders []*models.Trader
	err := s.db.WithContext(ctx).
		Where("partition_key = ?", models.PartitionTrader).
		Order("row_key asc").
		Find(&traders).Error
	if err != nil {
		return nil, err
	}
	return traders, nil
}

// SaveTrader writes a single trader row immediately, outside any batch. Used
// when a release must be visible to reads later in the same cycle.
func (s *Store) SaveTrader(ctx context.Context, trader *models.Trader) error {
	return s.db.WithContext(ctx).Save(trader).Error
}

// opKind distinguishes batched operations.
type opKind int

const (
	opInsert opKind = iota
	opReplace
)

type op struct {
	kind opKind
	row  interface{}
}

// Batch accumulates write operations for one table. Operations are applied in
// the order they were added when the batch is executed.
type Batch struct {
	ops []op
}

// NewBatch creates an empty write batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{}
}

// Insert queues a row creation.
func (b *Batch) Insert(row interface{}) {
	b.ops = append(b.ops, op{kind: opInsert, row: row})
}

// Replace queues a full-row replacement keyed by the row's primary key.
func (b *Batch) Replace(row interface{}) {
	b.ops = append(b.ops, op{kind: opReplace, row: row})
}

// Len returns the number of queued operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Execute applies all queued operations inside one transaction. An empty
// batch is a no-op. The batch is drained on success so it can be reused.
func (s *Store) Execute(ctx context.Context, b *Batch) error {
	if b == nil || len(b.ops) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range b.ops {
			switch o.kind {
			case opInsert:
				if err := tx.Create(o.row).Error; err != nil {
					return err
				}
			case opReplace:
				if err := tx.Save(o.row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("Flushed write batch", zap.Int("ops", len(b.ops)))
	b.ops = b.ops[:0]
	return nil
}
