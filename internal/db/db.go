// Package db opens the local database that holds sessions, drafts, list
// snapshots and the audit trail.
package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/eventdesk/internal/config"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/models"
)

const connectAttempts = 5

// Connect opens the configured database. Postgres gets a few attempts so
// the dashboard can start alongside its database container.
func Connect(cfg config.DatabaseConfig, log *zap.Logger, logLevel string) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.NewGorm(log, logger.GormLevel(logLevel))}

	switch cfg.Driver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.DSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %q: %w", cfg.DSN, err)
		}
		return db, nil
	case "postgres":
		dsn := NormalizeDSN(cfg.DSN)
		var (
			db  *gorm.DB
			err error
		)
		for i := 1; i <= connectAttempts; i++ {
			db, err = gorm.Open(postgres.Open(dsn), gcfg)
			if err == nil {
				return db, nil
			}
			log.Warn("database not ready", zap.Int("attempt", i), zap.Int("of", connectAttempts), zap.Error(err))
			time.Sleep(2 * time.Second)
		}
		return nil, fmt.Errorf("connect postgres: %w", err)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// Migrate creates or updates the local tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Session{},
		&models.Draft{},
		&models.Snapshot{},
		&models.AuditEntry{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Ping checks the underlying connection, for readiness probes.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
