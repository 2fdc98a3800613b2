// Package backend selects a storage implementation from configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diewo77/freelance-pro/internal/config"
	"github.com/diewo77/freelance-pro/internal/db"
	"github.com/diewo77/freelance-pro/internal/storage"
	"github.com/diewo77/freelance-pro/internal/storage/filekv"
	"github.com/diewo77/freelance-pro/internal/storage/memkv"
	"github.com/diewo77/freelance-pro/internal/storage/s3kv"
	"github.com/diewo77/freelance-pro/internal/storage/sqlkv"
)

func noop() error { return nil }

// Open returns the storage selected by cfg.Storage.Driver and a function
// releasing its resources.
//
//	memory   process-local map (default)
//	file     JSON file at STORAGE_FILE
//	sqlite   SQLITE_PATH through gorm
//	postgres DB_* or DATABASE_DSN through gorm
//	s3       S3_* bucket
//	none     unavailable storage; stores serve the seed data only
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, func() error, error) {
	sc := cfg.Storage
	switch storage.Driver(sc.Driver) {
	case storage.DriverMemory:
		return memkv.New().Session(), noop, nil
	case storage.DriverFile:
		s, err := filekv.New(sc.File, filekv.WithPollInterval(sc.PollInterval), filekv.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case storage.DriverSQLite, storage.DriverPostgres:
		conn, err := db.Open(sc.Driver, sc, cfg.App.Dev)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, nil, err
		}
		if cfg.App.Migrations {
			if err := db.Migrate(conn); err != nil {
				sqlDB.Close()
				return nil, nil, err
			}
		}
		s := sqlkv.New(conn, sqlkv.WithPollInterval(sc.PollInterval), sqlkv.WithLogger(logger))
		return s, sqlDB.Close, nil
	case storage.DriverS3:
		s, err := s3kv.New(ctx, s3kv.Config{
			Bucket:          sc.S3.Bucket,
			Region:          sc.S3.Region,
			Endpoint:        sc.S3.Endpoint,
			Prefix:          sc.S3.Prefix,
			PathStyle:       sc.S3.PathStyle,
			AccessKeyID:     sc.S3.AccessKeyID,
			SecretAccessKey: sc.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case storage.DriverNone:
		return storage.Unavailable{}, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", sc.Driver)
	}
}
