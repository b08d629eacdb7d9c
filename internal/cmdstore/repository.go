// Package cmdstore provides persistent local storage for dispatched commands.
//
// When a user dispatches a command, the CLI tracks it locally so that if the
// process is interrupted (Ctrl+C, crash, etc.) the wait can be resumed on the
// next invocation with "agentctl commands --resume".
//
// Storage is backed by a SQLite database at ~/.config/agentctl/agentctl.db
// (or the platform-equivalent path returned by os.UserConfigDir).
package cmdstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	appDir = "agentctl"
	dbFile = "agentctl.db"
)

// terminalStatuses mirrors the canonical terminal set; records outside it
// are considered pending and eligible for resume.
const terminalStatuses = "('succeeded', 'failed', 'cancelled')"

// pathOverride, when non-empty, replaces the default database path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the database path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override. Intended for testing.
func ResetPath() { pathOverride = "" }

// Repository defines the persistence interface for command records.
type Repository interface {
	// Save inserts or updates a record. On insert (ID == 0), an ID is
	// assigned to the record.
	Save(record *Record) error

	// Get retrieves a single record by ID.
	Get(id int64) (*Record, error)

	// ListPending returns all records whose status is not terminal,
	// ordered by creation time (newest first).
	ListPending() ([]Record, error)

	// ListRecent returns the most recent n records regardless of status,
	// ordered by creation time (newest first).
	ListRecent(n int) ([]Record, error)

	// DeleteOlderThan removes terminal records older than d.
	// Returns the number of records removed.
	DeleteOlderThan(d time.Duration) (int64, error)

	// Close releases database resources.
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// DefaultPath returns the default database path.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cmdstore: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, dbFile), nil
}

// Open creates or opens the command repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenAt(path string) (*SQLiteRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cmdstore: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("cmdstore: failed to open database: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

// migrate creates the commands table if it doesn't exist.
func (r *SQLiteRepository) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS commands (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			command_id    TEXT    NOT NULL,
			agent_id      TEXT    NOT NULL,
			command_type  TEXT    NOT NULL DEFAULT '',
			status        TEXT    NOT NULL DEFAULT 'pending',
			error_message TEXT    NOT NULL DEFAULT '',
			created_at    TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at    TEXT    NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_commands_status ON commands(status);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("cmdstore: migration failed: %w", err)
	}
	return nil
}

// Save inserts a new record (ID == 0) or updates an existing one.
func (r *SQLiteRepository) Save(record *Record) error {
	record.UpdatedAt = time.Now().UTC()

	if record.ID == 0 {
		if record.CreatedAt.IsZero() {
			record.CreatedAt = record.UpdatedAt
		}
		result, err := r.db.Exec(`
			INSERT INTO commands (command_id, agent_id, command_type, status, error_message, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.CommandID, record.AgentID, record.CommandType, record.Status,
			record.ErrorMessage,
			record.CreatedAt.Format(time.RFC3339Nano), record.UpdatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("cmdstore: insert failed: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("cmdstore: failed to get last insert ID: %w", err)
		}
		record.ID = id
		return nil
	}

	result, err := r.db.Exec(`
		UPDATE commands SET command_id=?, agent_id=?, command_type=?, status=?,
		       error_message=?, updated_at=?
		WHERE id=?`,
		record.CommandID, record.AgentID, record.CommandType, record.Status,
		record.ErrorMessage,
		record.UpdatedAt.Format(time.RFC3339Nano), record.ID,
	)
	if err != nil {
		return fmt.Errorf("cmdstore: update failed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("cmdstore: record with ID %d not found", record.ID)
	}
	return nil
}

// Get retrieves a single record by ID.
func (r *SQLiteRepository) Get(id int64) (*Record, error) {
	row := r.db.QueryRow(`
		SELECT id, command_id, agent_id, command_type, status, error_message, created_at, updated_at
		FROM commands WHERE id = ?`, id)

	record, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cmdstore: query failed: %w", err)
	}
	return record, nil
}

// ListPending returns all records whose status is not terminal.
func (r *SQLiteRepository) ListPending() ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT id, command_id, agent_id, command_type, status, error_message, created_at, updated_at
		FROM commands WHERE status NOT IN ` + terminalStatuses + ` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("cmdstore: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListRecent returns the most recent n records regardless of status.
func (r *SQLiteRepository) ListRecent(n int) ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT id, command_id, agent_id, command_type, status, error_message, created_at, updated_at
		FROM commands ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("cmdstore: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// DeleteOlderThan removes terminal records older than d.
func (r *SQLiteRepository) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-d).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`
		DELETE FROM commands WHERE status IN ` + terminalStatuses + ` AND updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cmdstore: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// scanRow scans a single row into a Record.
func scanRow(row *sql.Row) (*Record, error) {
	var record Record
	var createdStr, updatedStr string
	err := row.Scan(
		&record.ID, &record.CommandID, &record.AgentID, &record.CommandType,
		&record.Status, &record.ErrorMessage, &createdStr, &updatedStr,
	)
	if err != nil {
		return nil, err
	}
	record.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	record.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return &record, nil
}

// scanRows scans multiple rows into Records.
func scanRows(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var record Record
		var createdStr, updatedStr string
		err := rows.Scan(
			&record.ID, &record.CommandID, &record.AgentID, &record.CommandType,
			&record.Status, &record.ErrorMessage, &createdStr, &updatedStr,
		)
		if err != nil {
			return nil, fmt.Errorf("cmdstore: scan failed: %w", err)
		}
		record.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		record.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		records = append(records, record)
	}
	return records, rows.Err()
}
