// Package db opens the SQL database behind the sqlkv storage backend and
// keeps its schema up to date.
package db

import (
	"fmt"
	"log"
	"time"

	"github.com/diewo77/freelance-pro/internal/config"
	"github.com/diewo77/freelance-pro/internal/storage/sqlkv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Attempts and delay of the connection retry loop, to give Postgres time to start.
var (
	connectAttempts = 5
	connectDelay    = 2 * time.Second
)

// Open connects to the database selected by driver ("sqlite" or "postgres").
func Open(driver string, cfg config.StorageConfig, dev bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	case "postgres":
		dsn := NormalizeDSN(cfg.Database.RawDSN)
		if dsn == "" {
			dsn = cfg.Database.DSN()
		}
		log.Printf("Connecting to database: host=%s port=%d dbname=%s user=%s",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, cfg.Database.User)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if dev {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var db *gorm.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.Printf("Database connection attempt %d/%d failed, retrying...", i+1, connectAttempts)
		time.Sleep(connectDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// Migrate runs AutoMigrate for the key-value tables.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(sqlkv.Models()...); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	return nil
}
