package database

import (
	"fmt"
	"os"
	"path/filepath"

	"creatorvault/internal/config"
)

// NewDatabaseFromConfig opens the database named by cfg and migrates it to
// the latest schema.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, instanceID string) (*SQLDatabase, error) {
	var (
		db  *SQLDatabase
		err error
	)
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		db, err = OpenSQLite(filepath.Join(cfg.DataDir, instanceID+".db"))
	case "memory":
		db, err = OpenSQLite(":memory:")
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres database")
		}
		db, err = OpenPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return db, nil
}

// DatabasePath returns where a sqlite database for instanceID lives, or ""
// for other types.
func DatabasePath(cfg config.DatabaseConfig, instanceID string) string {
	if cfg.Type != "sqlite" || cfg.DataDir == "" {
		return ""
	}
	return filepath.Join(cfg.DataDir, instanceID+".db")
}
