// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/morganforge/scmlite-tui/internal/api"
)

// Schema creates the telemetry history table.
const Schema = `
CREATE TABLE IF NOT EXISTS telemetry (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id INTEGER NOT NULL,
	battery_level REAL NOT NULL,
	sensor_temperature REAL NOT NULL,
	route_from TEXT NOT NULL,
	route_to TEXT NOT NULL,
	record_ts INTEGER NOT NULL,
	stored_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);

CREATE INDEX IF NOT EXISTS idx_telemetry_device ON telemetry(device_id, record_ts DESC);
CREATE INDEX IF NOT EXISTS idx_telemetry_ts ON telemetry(record_ts DESC);
`

// Store is the local telemetry history database.
type Store struct {
	db         *sql.DB
	retainRows int
}

// Open opens (creating if needed) the history database at path.
// retainRows bounds the table size; zero disables pruning.
func Open(path string, retainRows int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db, retainRows: retainRows}, nil
}

// Append records a batch of rendered telemetry. Pruning runs after the
// insert so the retention cap holds between calls.
func (s *Store) Append(ctx context.Context, records []api.DeviceRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO telemetry (device_id, battery_level, sensor_temperature, route_from, route_to, record_ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.DeviceID, rec.BatteryLevel, rec.SensorTemperature,
			rec.RouteFrom, rec.RouteTo, rec.Timestamp,
		); err != nil {
			return err
		}
	}

	if s.retainRows > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM telemetry WHERE id NOT IN (
				SELECT id FROM telemetry ORDER BY id DESC LIMIT ?
			)
		`, s.retainRows); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Recent returns the newest records for a device, newest first. The
// "all" selection returns records across every device.
func (s *Store) Recent(ctx context.Context, selection string, limit int) ([]api.DeviceRecord, error) {
	query := `
		SELECT device_id, battery_level, sensor_temperature, route_from, route_to, record_ts
		FROM telemetry
	`
	args := []any{}
	if selection != "all" {
		query += " WHERE device_id = ?"
		args = append(args, selection)
	}
	query += " ORDER BY record_ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.DeviceRecord
	for rows.Next() {
		var rec api.DeviceRecord
		if err := rows.Scan(
			&rec.DeviceID, &rec.BatteryLevel, &rec.SensorTemperature,
			&rec.RouteFrom, &rec.RouteTo, &rec.Timestamp,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM telemetry").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
