package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 50 * time.Millisecond
	busyRetryMaxBackoff     = 800 * time.Millisecond
)

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// SQLiteStore keeps every channel's ledger in one SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the ledger database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ForChannel returns the ledger view for channel.
func (s *SQLiteStore) ForChannel(_ context.Context, channel, _ string) (Ledger, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, errors.New("channel is required")
	}
	return &sqliteLedger{store: s, channel: channel}, nil
}

// Channels lists the channels that have at least one record.
func (s *SQLiteStore) Channels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT channel FROM ledger_records ORDER BY channel`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var ch string
		if err := rows.Scan(&ch); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (move %s aside to start a new ledger)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

type sqliteLedger struct {
	store   *SQLiteStore
	channel string
}

func (l *sqliteLedger) Merge(ctx context.Context, records []Record) error {
	batch := MergeRecords(nil, records)
	if len(batch) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		return l.mergeTx(ctx, batch)
	})
}

func (l *sqliteLedger) mergeTx(ctx context.Context, batch []Record) error {
	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var revision int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(revision), 0) FROM ledger_records WHERE channel = ?`, l.channel,
	).Scan(&revision); err != nil {
		return fmt.Errorf("read ledger revision: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO ledger_records (
            channel, video_id, upload_date, video_url, scraped_at, status, reason, detail, revision
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (channel, video_id, upload_date) DO UPDATE SET
            video_url = excluded.video_url,
            scraped_at = excluded.scraped_at,
            status = excluded.status,
            reason = excluded.reason,
            detail = excluded.detail,
            revision = excluded.revision`)
	if err != nil {
		return fmt.Errorf("prepare merge: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch {
		revision++
		if _, err := stmt.ExecContext(ctx,
			l.channel, rec.VideoID, rec.UploadDate, rec.VideoURL, rec.ScrapeDate(),
			string(rec.Status), string(rec.Reason), rec.Detail, revision,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", rec.VideoID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

func (l *sqliteLedger) Lookup(ctx context.Context, videoID string) (Status, bool, error) {
	var raw string
	err := l.store.db.QueryRowContext(ctx,
		`SELECT status FROM ledger_records WHERE channel = ? AND video_id = ? ORDER BY revision DESC LIMIT 1`,
		l.channel, videoID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", videoID, err)
	}
	status, err := ParseStatus(raw)
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

func (l *sqliteLedger) List(ctx context.Context) ([]Record, error) {
	rows, err := l.store.db.QueryContext(ctx, `
        SELECT video_id, upload_date, video_url, scraped_at, status, reason, detail
        FROM ledger_records WHERE channel = ? ORDER BY revision`, l.channel)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec                   Record
			scraped, status, reas string
		)
		if err := rows.Scan(&rec.VideoID, &rec.UploadDate, &rec.VideoURL, &scraped, &status, &reas, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.Status, err = ParseStatus(status); err != nil {
			return nil, err
		}
		rec.Reason = Reason(reas)
		rec.ScrapedAt = parseScrapeDate(scraped)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func parseScrapeDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(ScrapeDateLayout, value, time.Local)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
