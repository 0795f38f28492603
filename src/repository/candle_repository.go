package repository

import (
	"context"

	"sentimentpipeline/src/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CandleRepository struct {
	db *gorm.DB
}

func NewCandleRepository(db *gorm.DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// Upsert writes one candle, updating prices when the (pair, timestamp)
// row already exists. Redeliveries therefore converge on one row.
func (r *CandleRepository) Upsert(ctx context.Context, m model.RawMarketDataMessage) error {
	row := model.NewCandleArchiveFromMessage(m)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair"}, {Name: "timestamp"}},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
		}).
		Create(&row).Error
}

// Latest returns the most recent archived candle for pair, or nil when
// none exists.
func (r *CandleRepository) Latest(ctx context.Context, pair string) (*model.CandleArchive, error) {
	var row model.CandleArchive
	err := r.db.WithContext(ctx).
		Where("pair = ?", pair).
		Order("timestamp DESC").
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
