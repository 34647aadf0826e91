// Package journal implements a write-only diagnostic event log for the
// relay: every tunnel registration, teardown, and auth failure is
// appended here for later inspection through the management API. It is
// never read back to reconstruct tunnel state at startup; tunnels
// remain entirely in-memory and do not survive a relay restart.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Journal wraps a SQLite database used purely as an append-only event
// log.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the event log at path and runs pending
// migrations.
func Open(path string) (*Journal, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("journal: migration source: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(j.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("journal: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("journal: migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("journal: run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordEvent implements relay.EventRecorder: it appends one event row,
// logging (not failing the caller) if the write itself fails.
func (j *Journal) RecordEvent(kind, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _ = j.db.ExecContext(ctx,
		`INSERT INTO tunnel_events (id, kind, detail) VALUES (?, ?, ?)`,
		uuid.New().String(), kind, detail,
	)
}

// EventRecord is one row of the diagnostic event log.
type EventRecord struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// Recent returns up to limit of the most recently recorded events,
// newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]EventRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, detail, created_at FROM tunnel_events ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query recent events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		if err := rows.Scan(&e.ID, &e.Kind, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
