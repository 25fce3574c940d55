package database

import (
	"fmt"

	"minicloud/internal/config"
)

// NewDatabaseFromConfig creates a database based on the database config type.
func NewDatabaseFromConfig(cfg *config.Config) (*SQLiteDatabase, error) {
	switch cfg.Database.Type {
	case "sqlite", "":
		return NewSQLiteDatabase(cfg.DatabasePath())
	case "memory":
		return NewSQLiteDatabase(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Database.Type)
	}
}
