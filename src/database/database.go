// Package database connects the optional archive store. The connection
// is constructed once and passed to repositories explicitly; there is
// no package-level handle.
package database

import (
	"fmt"
	"time"

	"sentimentpipeline/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the archive database and runs migrations.
func Connect(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.LogLevel(cfg.GormLogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect archive database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if err := db.AutoMigrate(
		&model.CandleArchive{},
		&model.SignalArchive{},
	); err != nil {
		return nil, fmt.Errorf("run archive migrations: %w", err)
	}

	logger.Info("[database] archive connection established")
	return db, nil
}
