// Package ledger stores parsed entries per source in an in-memory SQLite
// database. Entries live only for the process lifetime; sequences are
// append-only except for explicit clears.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/setevik/loglens/internal/entry"
	_ "github.com/mattn/go-sqlite3"
)

// Ledger wraps the SQLite connection holding per-source entry sequences.
type Ledger struct {
	db *sql.DB
}

// Open creates a fresh in-memory ledger.
func Open() (*Ledger, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	// A single connection: with :memory: every connection would otherwise
	// get its own empty database, and one writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating ledger: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append extends a source's sequence with new entries and returns the
// number stored.
func (l *Ledger) Append(sourceID string, entries []entry.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(seq), 0) FROM entries WHERE source_id = ?`, sourceID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("reading sequence for %s: %w", sourceID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (source_id, seq, id, timestamp, level, message, raw, line_number, context, stack_trace, channel)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		seq++

		var ts string
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.UTC().Format(time.RFC3339Nano)
		}

		var stackJSON string
		if len(e.StackTrace) > 0 {
			b, err := json.Marshal(e.StackTrace)
			if err != nil {
				b = []byte("[]")
			}
			stackJSON = string(b)
		}

		if _, err := stmt.Exec(
			sourceID, seq,
			e.ID, ts, int(e.Level), e.Message, e.Raw, e.LineNumber,
			string(e.Context), stackJSON, e.Channel,
		); err != nil {
			return fmt.Errorf("inserting entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Entries returns a source's sequence in append order. A positive limit
// returns only the most recent entries, still in original order. Unknown
// source ids yield an empty result.
func (l *Ledger) Entries(sourceID string, limit int) ([]entry.Entry, error) {
	query := `SELECT id, timestamp, level, message, raw, line_number, context, stack_trace, channel
		FROM entries WHERE source_id = ? ORDER BY seq`
	args := []interface{}{sourceID}

	if limit > 0 {
		query = `SELECT id, timestamp, level, message, raw, line_number, context, stack_trace, channel
			FROM (SELECT * FROM entries WHERE source_id = ? ORDER BY seq DESC LIMIT ?)
			ORDER BY seq`
		args = append(args, limit)
	}

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []entry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear empties a source's sequence without touching other sources.
func (l *Ledger) Clear(sourceID string) error {
	_, err := l.db.Exec(`DELETE FROM entries WHERE source_id = ?`, sourceID)
	if err != nil {
		return fmt.Errorf("clearing entries for %s: %w", sourceID, err)
	}
	return nil
}

// Count returns the number of stored entries for a source.
func (l *Ledger) Count(sourceID string) (int, error) {
	var n int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM entries WHERE source_id = ?`, sourceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting entries for %s: %w", sourceID, err)
	}
	return n, nil
}

func scanEntry(rows *sql.Rows) (entry.Entry, error) {
	var e entry.Entry
	var ts, context, stackJSON, channel sql.NullString
	var level int

	err := rows.Scan(
		&e.ID, &ts, &level, &e.Message, &e.Raw, &e.LineNumber,
		&context, &stackJSON, &channel,
	)
	if err != nil {
		return entry.Entry{}, fmt.Errorf("scanning entry row: %w", err)
	}

	e.Level = entry.Level(level)
	e.Channel = channel.String
	if ts.String != "" {
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts.String)
	}
	if context.String != "" {
		e.Context = json.RawMessage(context.String)
	}
	if stackJSON.String != "" {
		_ = json.Unmarshal([]byte(stackJSON.String), &e.StackTrace)
	}

	return e, nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			source_id   TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			id          TEXT NOT NULL,
			timestamp   TEXT,
			level       INTEGER NOT NULL,
			message     TEXT NOT NULL,
			raw         TEXT NOT NULL,
			line_number INTEGER NOT NULL,
			context     TEXT,
			stack_trace TEXT,
			channel     TEXT,
			PRIMARY KEY (source_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(source_id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Debug("ledger schema up to date")
	return nil
}
