// File: database/postgres.go

package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stockpulse/stockpulseapi/api/analytics"
	"github.com/stockpulse/stockpulseapi/api/instrument"
	"github.com/stockpulse/stockpulseapi/api/session"
	"github.com/stockpulse/stockpulseapi/config"
	"github.com/stockpulse/stockpulseapi/shared/zaplogger"
)

// ConnectPostgres connects to a Postgres database and returns a GORM database object
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	zaplogger.Info(config.SingleLine)
	zaplogger.Info("Initializing Postgres")

	// Set up GORM logger
	var logLevel logger.LogLevel
	switch cfg.PostgresLogLevel {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	default:
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	// Open database connection
	db, err := gorm.Open(postgres.Open(cfg.PostgresDsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %v", err)
	}
	zaplogger.Info("  * connected")
	zaplogger.Info("  * checking tables")

	// AutoMigrate will create tables and add/modify columns
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %v", err)
	}

	// Verify that the tables are created
	if err := verifyTables(db); err != nil {
		return nil, err
	}

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&session.SessionModel{},
		&instrument.InstrumentModel{},
		&instrument.WatchInstrument{},
		&analytics.PriceHistoryModel{},
	)
}

func verifyTables(db *gorm.DB) error {
	tables := []struct {
		name  string
		model interface{}
	}{
		{session.SessionsTableName, &session.SessionModel{}},
		{instrument.InstrumentsTableName, &instrument.InstrumentModel{}},
		{instrument.WatchInstrumentsTableName, &instrument.WatchInstrument{}},
		{analytics.PriceHistoryTableName, &analytics.PriceHistoryModel{}},
	}

	for _, table := range tables {
		if db.Migrator().HasTable(table.model) {
			zaplogger.Info("    - " + table.name + " ✔")
		} else {
			return fmt.Errorf("failed to create table: " + table.name)
		}
	}

	return nil
}
