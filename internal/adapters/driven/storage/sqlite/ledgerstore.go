package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure LedgerStore implements the interface.
var _ driven.LedgerStore = (*LedgerStore)(nil)

// LedgerStore is a SQLite-backed ingestion ledger.
type LedgerStore struct {
	db   *sql.DB
	path string
}

// NewLedgerStore creates a new SQLite ledger store at the specified
// data directory. If dataDir is empty, defaults to ~/.ragline/data/ledger.db.
func NewLedgerStore(dataDir string) (*LedgerStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragline", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ledger.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &LedgerStore{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// migrate runs all pending migrations.
func (s *LedgerStore) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Record inserts or replaces the ledger entry for a source.
func (s *LedgerStore) Record(ctx context.Context, entry driven.LedgerEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_ledger (source_id, run_id, chunk_count, embedding_model, dimensions, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			run_id = excluded.run_id,
			chunk_count = excluded.chunk_count,
			embedding_model = excluded.embedding_model,
			dimensions = excluded.dimensions,
			ingested_at = excluded.ingested_at
	`, entry.SourceID, entry.RunID, entry.ChunkCount, entry.EmbeddingModel,
		entry.Dimensions, entry.IngestedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording ledger entry for %q: %w", entry.SourceID, err)
	}
	return nil
}

// Get returns the entry for a source, or domain.ErrNotFound.
func (s *LedgerStore) Get(ctx context.Context, sourceID string) (driven.LedgerEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_id, run_id, chunk_count, embedding_model, dimensions, ingested_at
		FROM ingest_ledger
		WHERE source_id = ?
	`, sourceID)

	entry, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return driven.LedgerEntry{}, fmt.Errorf("%w: source %q", domain.ErrNotFound, sourceID)
		}
		return driven.LedgerEntry{}, fmt.Errorf("getting ledger entry for %q: %w", sourceID, err)
	}
	return entry, nil
}

// List returns all entries ordered by most recent ingestion first.
func (s *LedgerStore) List(ctx context.Context) ([]driven.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, run_id, chunk_count, embedding_model, dimensions, ingested_at
		FROM ingest_ledger
		ORDER BY ingested_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []driven.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger entries: %w", err)
	}
	return entries, nil
}

// Delete removes the entry for a source. Unknown sources are a no-op.
func (s *LedgerStore) Delete(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM ingest_ledger WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("deleting ledger entry for %q: %w", sourceID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *LedgerStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *LedgerStore) Path() string {
	return s.path
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanLedgerEntry(row scanner) (driven.LedgerEntry, error) {
	var entry driven.LedgerEntry
	var ingestedAt string

	err := row.Scan(&entry.SourceID, &entry.RunID, &entry.ChunkCount,
		&entry.EmbeddingModel, &entry.Dimensions, &ingestedAt)
	if err != nil {
		return driven.LedgerEntry{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, ingestedAt)
	if err != nil {
		return driven.LedgerEntry{}, fmt.Errorf("parsing ingested_at %q: %w", ingestedAt, err)
	}
	entry.IngestedAt = ts
	return entry, nil
}
