package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"sealedger/internal/attest/models"
)

// PostgresStore persists commit journal entries. Entries are append-only;
// there is no update path.
type PostgresStore struct {
	db *sql.DB
}

// Open connects and applies the schema. The journal is a single table so a
// migration tool would be ceremony; the DDL is idempotent.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	store := &PostgresStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an existing connection, for tests that manage the
// database lifecycle themselves.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the journal schema. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS commit_journal (
			id            UUID PRIMARY KEY,
			submission_id TEXT NOT NULL,
			doc_hash      TEXT NOT NULL,
			line_hash     TEXT NOT NULL,
			score         INT  NOT NULL,
			tx_hash       TEXT NOT NULL,
			sender        TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS commit_journal_doc_hash_idx ON commit_journal (doc_hash);
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate commit journal: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, entry Entry) error {
	const query = `
		INSERT INTO commit_journal (id, submission_id, doc_hash, line_hash, score, tx_hash, sender, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.SubmissionID,
		entry.DocHash.String(),
		entry.LineHash.String(),
		entry.Score,
		entry.TxHash,
		entry.Sender,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByDocHash(ctx context.Context, docHash models.Digest) ([]Entry, error) {
	const query = `
		SELECT id, submission_id, doc_hash, line_hash, score, tx_hash, sender, created_at
		FROM commit_journal
		WHERE doc_hash = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, docHash.String())
	if err != nil {
		return nil, fmt.Errorf("query journal entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
		SELECT id, submission_id, doc_hash, line_hash, score, tx_hash, sender, created_at
		FROM commit_journal
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			docHash  string
			lineHash string
		)
		if err := rows.Scan(&e.ID, &e.SubmissionID, &docHash, &lineHash, &e.Score, &e.TxHash, &e.Sender, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.DocHash = models.Digest(docHash)
		e.LineHash = models.Digest(lineHash)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}
