package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Store is the SQLite metadata database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) metadata.db in dataDir.
// If dataDir is empty, defaults to ~/.recall/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// HistoryStore returns a HistoryStore interface backed by this store.
func (s *Store) HistoryStore() driven.HistoryStore {
	return &historyStore{db: s.db}
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== History Store ====================

// historyStore implements driven.HistoryStore.
type historyStore struct {
	db *sql.DB
}

// Ensure historyStore implements the interface.
var _ driven.HistoryStore = (*historyStore)(nil)

// SaveAnswer records an answered question.
func (s *historyStore) SaveAnswer(ctx context.Context, entry domain.HistoryEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO answers (query, answer, origin, failed, asked_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Query, entry.Answer, string(entry.Origin), entry.Failed,
		entry.AskedAt.UnixMilli(), entry.Duration.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("saving answer: %w", err)
	}
	return res.LastInsertId()
}

// ListAnswers returns the most recent answers, newest first.
func (s *historyStore) ListAnswers(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, answer, origin, failed, asked_at, duration_ms
		FROM answers ORDER BY id DESC LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			e        domain.HistoryEntry
			origin   string
			askedAt  int64
			duration int64
		)
		if err := rows.Scan(&e.ID, &e.Query, &e.Answer, &origin, &e.Failed, &askedAt, &duration); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		e.Origin = domain.Origin(origin)
		e.AskedAt = time.UnixMilli(askedAt)
		e.Duration = time.Duration(duration) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveIngest records an ingestion attempt.
func (s *historyStore) SaveIngest(ctx context.Context, r domain.IngestRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ingests (via, kind, source_id, state, fingerprint, chunks, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(r.Via), string(r.Kind), r.SourceID, string(r.State), string(r.Fingerprint),
		r.Chunks, r.Message, r.CreatedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("saving ingest record: %w", err)
	}
	return res.LastInsertId()
}

// ListIngests returns the most recent ingestion records, newest first.
func (s *historyStore) ListIngests(ctx context.Context, limit int) ([]domain.IngestRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, via, kind, source_id, state, fingerprint, chunks, message, created_at
		FROM ingests ORDER BY id DESC LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing ingest records: %w", err)
	}
	defer rows.Close()

	var records []domain.IngestRecord
	for rows.Next() {
		var (
			r                             domain.IngestRecord
			via, kind, state, fingerprint string
			createdAt                     int64
		)
		if err := rows.Scan(&r.ID, &via, &kind, &r.SourceID, &state, &fingerprint,
			&r.Chunks, &r.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning ingest record: %w", err)
		}
		r.Via = domain.IngestVia(via)
		r.Kind = domain.SourceKind(kind)
		r.State = domain.IngestState(state)
		r.Fingerprint = domain.Fingerprint(fingerprint)
		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
