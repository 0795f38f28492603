package repository

import (
	"context"
	"time"

	"sentimentpipeline/src/model"

	"gorm.io/gorm"
)

// SignalRepository keeps the append-only history of cached signals.
type SignalRepository struct {
	db *gorm.DB
}

func NewSignalRepository(db *gorm.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

func (r *SignalRepository) Insert(ctx context.Context, sig model.SentimentSignalMessage) error {
	row := model.NewSignalArchiveFromMessage(sig)
	return r.db.WithContext(ctx).Create(&row).Error
}

// Recent returns up to limit signals for pair since fromUTC, newest
// first.
func (r *SignalRepository) Recent(ctx context.Context, pair string, fromUTC time.Time, limit int) ([]model.SignalArchive, error) {
	var rows []model.SignalArchive
	err := r.db.WithContext(ctx).
		Where("pair = ? AND signal_at >= ?", pair, fromUTC.UTC()).
		Order("signal_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
