package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quantmind-br/tytm/internal/core"
	_ "modernc.org/sqlite"
)

// DB is the history journal with separate read/write pools
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// New opens (creating if needed) the journal at dbPath
func New(ctx context.Context, dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %w", core.ErrDatabase, err)
	}

	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: open write connection: %w", core.ErrDatabase, err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("%w: open read connection: %w", core.ErrDatabase, err)
	}
	read.SetMaxOpenConns(4)
	read.SetMaxIdleConns(2)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	db := &DB{
		write: write,
		read:  read,
		path:  dbPath,
	}

	if err := db.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %w", core.ErrDatabase, err)
	}

	return db, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Close closes both database connections
func (db *DB) Close() error {
	writeErr := db.write.Close()
	readErr := db.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

func (db *DB) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    theme_id TEXT NOT NULL,
    action TEXT NOT NULL,
    version TEXT,
    subs TEXT,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_theme ON events(theme_id);

CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    description TEXT
);
	`

	if _, err := db.write.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: create schema: %w", core.ErrDatabase, err)
	}
	return nil
}

// Event is one lifecycle change of an installed theme
type Event struct {
	ID        int64       `json:"id"`
	ThemeID   string      `json:"theme_id"`
	Action    core.Action `json:"action"`
	Version   string      `json:"version,omitempty"`
	Subs      []string    `json:"subs"`
	CreatedAt time.Time   `json:"created_at"`
}

// Record appends an event to the journal. A zero CreatedAt is set to now.
func (db *DB) Record(ctx context.Context, event *Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	subs := event.Subs
	if subs == nil {
		subs = []string{}
	}
	subsJSON, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("%w: marshal subs: %w", core.ErrDatabase, err)
	}

	query := `
INSERT INTO events (theme_id, action, version, subs, created_at)
VALUES (?, ?, ?, ?, ?)
	`

	result, err := db.write.ExecContext(ctx, query,
		event.ThemeID,
		string(event.Action),
		event.Version,
		string(subsJSON),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert event: %w", core.ErrDatabase, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: read event id: %w", core.ErrDatabase, err)
	}
	event.ID = id
	return nil
}

// List returns events newest first. An empty themeID lists every theme;
// limit <= 0 means no limit.
func (db *DB) List(ctx context.Context, themeID string, limit int) ([]Event, error) {
	query := `
SELECT id, theme_id, action, version, subs, created_at
FROM events
WHERE (? = '' OR theme_id = ?)
ORDER BY created_at DESC, id DESC
	`
	args := []any{themeID, themeID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query events: %w", core.ErrDatabase, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var action, subsJSON string
		var version sql.NullString

		if err := rows.Scan(&event.ID, &event.ThemeID, &action, &version, &subsJSON, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan event: %w", core.ErrDatabase, err)
		}
		event.Action = core.Action(action)
		event.Version = version.String

		if err := json.Unmarshal([]byte(subsJSON), &event.Subs); err != nil {
			return nil, fmt.Errorf("%w: unmarshal subs: %w", core.ErrDatabase, err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows error: %w", core.ErrDatabase, err)
	}

	return events, nil
}

// Clear deletes every event and returns how many were removed
func (db *DB) Clear(ctx context.Context) (int64, error) {
	result, err := db.write.ExecContext(ctx, "DELETE FROM events")
	if err != nil {
		return 0, fmt.Errorf("%w: clear events: %w", core.ErrDatabase, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: check rows affected: %w", core.ErrDatabase, err)
	}
	return rows, nil
}
