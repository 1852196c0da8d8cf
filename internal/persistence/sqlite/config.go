// SPDX-License-Identifier: MIT

// Package sqlite opens the catalog database: a single local SQLite file
// holding the curated streaming_services table. There is no writer
// contention to speak of (the catalog is refreshed out-of-band, not by
// this process), but Open still enforces WAL mode and a busy_timeout so a
// concurrent external refresh never surfaces as a "database is locked"
// error to a request in flight.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds the pool and PRAGMA settings applied to every connection
// Open hands out.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns the settings cmd/server opens the catalog database
// with: a generous busy_timeout and a pool sized for read concurrency
// (the catalog is read-heavy and rarely written).
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 25,
	}
}

// Open opens the catalog database at dbPath, applying WAL mode,
// busy_timeout, NORMAL synchronous durability, and foreign key
// enforcement to every pooled connection via DSN-level PRAGMAs (the only
// way to guarantee they apply uniformly across database/sql's pool rather
// than just the first connection).
func Open(dbPath string, cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		dbPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}
