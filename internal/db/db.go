// Package db provides the SQLite connection and schema for ringclock.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Device info - LED layout reported by WLED controllers, keyed by address
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS device_info (
			address TEXT PRIMARY KEY,
			led_count INTEGER NOT NULL,
			max_segments INTEGER NOT NULL,
			effect_count INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create device_info table: %w", err)
	}

	// Delivery ledger - append-only history of update attempts
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS delivery_ledger (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device TEXT NOT NULL,
			outcome TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			hour INTEGER NOT NULL,
			minute INTEGER NOT NULL,
			error TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_device_ts ON delivery_ledger(device, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("failed to create delivery_ledger table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
