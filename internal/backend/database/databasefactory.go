package database

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrDatabaseUnavailable is returned when the preview store cannot be reached.
var ErrDatabaseUnavailable = errors.New("preview store is not reachable")

const (
	TypeSQLite = "sqlite"
	TypeRedis  = "redis"
)

func NewDatabase(databaseType, connectionString string) (database DatabaseService, err error) {
	switch databaseType {
	case TypeSQLite:
		database, err = NewSQLiteDatabase(connectionString)
	case TypeRedis:
		database, err = NewRedisDatabase(connectionString)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}
	if err != nil {
		return nil, err
	}

	if !database.DoesDatabaseExist() {
		_ = database.Close()
		return nil, fmt.Errorf("%w: %s", ErrDatabaseUnavailable, databaseType)
	}

	// Ensure the schema exists (idempotent), important for in-memory SQLite
	slog.Debug("initializing preview store", "type", databaseType)
	if err = database.CreateDatabase(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return database, nil
}
