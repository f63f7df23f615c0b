package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// IndexFile is the database file name inside each kind directory.
const IndexFile = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT    NOT NULL UNIQUE,
    source_id   TEXT    NOT NULL,
    fingerprint TEXT    NOT NULL,
    position    INTEGER NOT NULL,
    content     TEXT    NOT NULL,
    embedding   BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_fingerprint ON chunks(fingerprint);
`

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store opens per-kind vector indexes under a base directory.
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Path returns the index database path for kind.
func (s *Store) Path(kind domain.SourceKind) string {
	return filepath.Join(s.baseDir, string(kind), IndexFile)
}

// Exists reports whether the index file for kind is present.
func (s *Store) Exists(kind domain.SourceKind) bool {
	_, err := os.Stat(s.Path(kind))
	return err == nil
}

// errUninitialised marks an index file whose schema or stamp was never committed.
var errUninitialised = errors.New("index has no embedding stamp")

// Open opens an existing index. It returns domain.ErrIndexNotFound when
// the kind has never been written, including when an earlier Create left
// the file behind without committing its schema. Create is idempotent, so
// the next ingest finishes the job.
func (s *Store) Open(ctx context.Context, kind domain.SourceKind) (driven.VectorIndex, error) {
	if !s.Exists(kind) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, kind)
	}

	db, err := openDB(s.Path(kind))
	if err != nil {
		return nil, err
	}

	stamp, err := readStamp(ctx, db)
	if errors.Is(err, errUninitialised) {
		db.Close()
		return nil, fmt.Errorf("%w: %s index was never initialised", domain.ErrIndexNotFound, kind)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading %s index metadata: %w", kind, err)
	}
	return &Index{db: db, kind: kind, stamp: stamp}, nil
}

// Create creates the index for kind, stamped with the embedder identity.
// If the index already exists its original stamp is kept.
func (s *Store) Create(
	ctx context.Context, kind domain.SourceKind, stamp domain.EmbeddingStamp,
) (driven.VectorIndex, error) {
	path := s.Path(kind)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating %s index directory: %w", kind, err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(ctx, db, stamp); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising %s index: %w", kind, err)
	}

	actual, err := readStamp(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading %s index metadata: %w", kind, err)
	}
	return &Index{db: db, kind: kind, stamp: actual}, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	return db, nil
}

func initSchema(ctx context.Context, db *sql.DB, stamp domain.EmbeddingStamp) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return err
	}
	const insert = `INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)`
	if _, err := tx.ExecContext(ctx, insert, "model", stamp.Model); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insert, "dimensions", strconv.Itoa(stamp.Dimensions)); err != nil {
		return err
	}
	return tx.Commit()
}

func readStamp(ctx context.Context, db *sql.DB) (domain.EmbeddingStamp, error) {
	var tables int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'meta'`,
	).Scan(&tables); err != nil {
		return domain.EmbeddingStamp{}, err
	}
	if tables == 0 {
		return domain.EmbeddingStamp{}, errUninitialised
	}

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return domain.EmbeddingStamp{}, err
	}
	defer rows.Close()

	var stamp domain.EmbeddingStamp
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return stamp, err
		}
		switch key {
		case "model":
			stamp.Model = value
		case "dimensions":
			stamp.Dimensions, _ = strconv.Atoi(value)
		}
	}
	if err := rows.Err(); err != nil {
		return stamp, err
	}
	if stamp.Model == "" {
		return stamp, errUninitialised
	}
	return stamp, nil
}

// Index is one open per-kind vector index.
type Index struct {
	db    *sql.DB
	kind  domain.SourceKind
	stamp domain.EmbeddingStamp
}

// Stamp returns the embedding identity the index was created with.
func (x *Index) Stamp() domain.EmbeddingStamp {
	return x.stamp
}

// Add inserts all chunks in one transaction. Either every chunk is
// stored or none is.
func (x *Index) Add(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source_id, fingerprint, position, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if x.stamp.Dimensions > 0 && len(c.Embedding) != x.stamp.Dimensions {
			return fmt.Errorf("%w: chunk has %d dimensions, index has %d",
				domain.ErrEmbeddingMismatch, len(c.Embedding), x.stamp.Dimensions)
		}
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx, id, c.SourceID, string(c.Fingerprint), c.Position,
			c.Content, float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// Search returns the k chunks nearest to query by squared L2 distance,
// nearest first.
func (x *Index) Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT seq, id, source_id, fingerprint, position, content, embedding FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("scanning index: %w", err)
	}
	defer rows.Close()

	var result domain.RetrievalResult
	for rows.Next() {
		var (
			c           domain.Chunk
			fingerprint string
			blob        []byte
		)
		if err := rows.Scan(&c.Sequence, &c.ID, &c.SourceID, &fingerprint, &c.Position, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("reading chunk: %w", err)
		}
		c.Kind = x.kind
		c.Fingerprint = domain.Fingerprint(fingerprint)
		c.Embedding = bytesToFloat32Slice(blob)
		result = append(result, domain.ScoredChunk{Chunk: c, Distance: domain.SquaredL2(query, c.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Distance < result[j].Distance
	})
	if k > 0 && len(result) > k {
		result = result[:k]
	}
	return result, nil
}

// Count returns the number of stored chunks.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (x *Index) Close() error {
	return x.db.Close()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
