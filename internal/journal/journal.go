// Package journal provides durable storage for committed document
// revisions. Uses SQLite with WAL mode for concurrent read access.
//
// The journal is a pure history: the document store never reads from it
// on the hot path, and an unavailable journal degrades to in-memory
// editing with a logged warning, not a failure.
package journal

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/strata3d/strata/internal/docstore"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added seq index
const currentSchemaVersion = 1

// Journal is an append-only SQLite log of document revisions. It
// implements docstore.Journal.
type Journal struct {
	db *sql.DB
}

// Revision is one stored document state, as read back from the log.
type Revision struct {
	ID        string
	Seq       int64
	Source    string
	Hash      string
	Body      []byte
	CreatedAt string
}

// Open creates or opens a journal database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Append implements docstore.Journal.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a replayed append
// of an already-stored revision is silently ignored.
func (j *Journal) Append(rev docstore.Revision) error {
	_, err := j.db.Exec(`
		INSERT INTO revisions (id, seq, source, hash, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rev.ID,
		rev.Seq,
		rev.Source,
		rev.Hash,
		rev.Body,
	)
	if err != nil {
		return fmt.Errorf("append revision: %w", err)
	}
	return nil
}

// History returns the most recent revisions, newest first, up to limit.
// A limit of zero or less returns everything.
func (j *Journal) History(limit int) ([]Revision, error) {
	query := `
		SELECT id, seq, source, hash, body, created_at
		FROM revisions
		ORDER BY seq DESC, created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.ID, &rev.Seq, &rev.Source, &rev.Hash, &rev.Body, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Revision returns the stored revision with the given id.
func (j *Journal) Revision(id string) (Revision, error) {
	var rev Revision
	err := j.db.QueryRow(`
		SELECT id, seq, source, hash, body, created_at
		FROM revisions
		WHERE id = ?
	`, id).Scan(&rev.ID, &rev.Seq, &rev.Source, &rev.Hash, &rev.Body, &rev.CreatedAt)
	if err == sql.ErrNoRows {
		return Revision{}, fmt.Errorf("revision %q not found", id)
	}
	if err != nil {
		return Revision{}, fmt.Errorf("read revision: %w", err)
	}
	return rev, nil
}

// Len returns the number of stored revisions.
func (j *Journal) Len() (int, error) {
	var n int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM revisions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}
	return n, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
