// Package sqlite is the default local persistence backend: a key-value
// table holding the serialized tracker state and an append-only credit
// journal.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/foundation-app/foundation/internal/domain"
)

// FileName is the database file created inside the data directory.
const FileName = "foundation.db"

// DB wraps the SQLite handle. It implements domain.KVStore and domain.Journal.
type DB struct {
	db           *sql.DB
	journalLimit int
}

// Open creates dir if needed, opens dir/foundation.db, and applies the schema.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// SetJournalLimit caps the journal at n rows (0 = unbounded).
func (db *DB) SetJournalLimit(n int) { db.journalLimit = n }

// Close releases the database handle.
func (db *DB) Close() error { return db.db.Close() }

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS credit_journal (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   TEXT NOT NULL,
			type        TEXT NOT NULL,
			delta       TEXT NOT NULL,
			balance     TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_timestamp ON credit_journal(timestamp)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ─── Key-Value Operations ───────────────────────────────────────────────────

// Get returns the value stored under key.
func (db *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := db.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Put inserts or replaces the value under key.
func (db *DB) Put(ctx context.Context, key string, value []byte) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = datetime('now')
	`, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// ─── Credit Journal ─────────────────────────────────────────────────────────

// Append records a balance change.
func (db *DB) Append(ctx context.Context, e domain.JournalEntry) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO credit_journal (timestamp, type, delta, balance, description)
		VALUES (?, ?, ?, ?, ?)
	`, e.Timestamp.UTC().Format(time.RFC3339Nano), string(e.Type), e.Delta.String(), e.Balance.String(), e.Description)
	if err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	if db.journalLimit > 0 {
		return db.prune(ctx, db.journalLimit)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A limit below one
// returns nothing.
func (db *DB) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, timestamp, type, delta, balance, description
		FROM credit_journal ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []domain.JournalEntry
	for rows.Next() {
		var (
			e                   domain.JournalEntry
			ts, typ, delta, bal string
		)
		if err := rows.Scan(&e.ID, &ts, &typ, &delta, &bal, &e.Description); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		e.Type = domain.TransactionType(typ)
		e.Delta, _ = decimal.NewFromString(delta)
		e.Balance, _ = decimal.NewFromString(bal)
		out = append(out, e)
	}
	return out, rows.Err()
}

// prune keeps only the newest keep journal rows.
func (db *DB) prune(ctx context.Context, keep int) error {
	_, err := db.db.ExecContext(ctx, `
		DELETE FROM credit_journal
		WHERE id NOT IN (SELECT id FROM credit_journal ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return fmt.Errorf("prune journal: %w", err)
	}
	return nil
}
