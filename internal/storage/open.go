package storage

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open connects to a relational database through GORM. Driver errors are
// translated so duplicate keys surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", driver, err)
	}
	return db, nil
}

// New returns a ready Store for the driver. Relational stores are migrated
// before they are returned; the *gorm.DB is nil for the memory driver.
func New(driver, dsn string, log *slog.Logger) (Store, *gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	if driver == DriverMemory {
		log.Info("using in-memory product store")
		return NewMemoryStore(), nil, nil
	}

	db, err := Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	store := NewGormStore(db)
	if err := store.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("storage: migrate: %w", err)
	}
	log.Info("product store ready", "driver", driver)
	return store, db, nil
}
