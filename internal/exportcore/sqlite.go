package exportcore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/repoindexer/repoindexer/internal/model"
)

// SQLiteEncoder writes an IndexResult into a SQLite database with an FTS5
// virtual table over chunk text, grounded on the teacher's
// vectorstore/sqlite.Store.initSchema (documents + documents_fts + sync
// triggers), repurposed here from a single vector-document table to three
// plain tables (files, chunks, secret_findings) with FTS5 kept only for
// chunk text search.
type SQLiteEncoder struct {
	db *sql.DB
}

// NewSQLiteEncoder opens (or creates) the database at path. path may be
// ":memory:".
func NewSQLiteEncoder(path string) (*SQLiteEncoder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("exportcore: open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	e := &SQLiteEncoder{db: db}
	if err := e.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return e, nil
}

func (e *SQLiteEncoder) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		size_bytes INTEGER NOT NULL,
		content_hash TEXT NOT NULL,
		language TEXT,
		executable INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		token_count INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		total_chunks INTEGER NOT NULL,
		origin TEXT,
		text TEXT NOT NULL
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
		id UNINDEXED,
		text,
		tokenize='porter unicode61'
	);

	CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
		INSERT INTO chunks_fts(id, text) VALUES (new.id, new.text);
	END;

	CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
		DELETE FROM chunks_fts WHERE id = old.id;
	END;

	CREATE TABLE IF NOT EXISTS secret_findings (
		path TEXT NOT NULL,
		line INTEGER NOT NULL,
		rule_id TEXT NOT NULL,
		excerpt TEXT
	);
	`
	_, err := e.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("exportcore: init sqlite schema: %w", err)
	}
	return nil
}

func (e *SQLiteEncoder) Encode(result *model.IndexResult) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("exportcore: begin sqlite tx: %w", err)
	}
	defer tx.Rollback()

	for _, f := range result.Files {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO files (path, size_bytes, content_hash, language, executable) VALUES (?, ?, ?, ?, ?)`,
			f.Path, f.SizeBytes, f.ContentHash, f.Language, boolToInt(f.Executable),
		); err != nil {
			return fmt.Errorf("exportcore: insert file %s: %w", f.Path, err)
		}
	}
	for _, c := range result.Chunks {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO chunks (id, path, start_line, end_line, token_count, chunk_index, total_chunks, origin, text) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Metadata.Path, c.Metadata.StartLine, c.Metadata.EndLine, c.Metadata.TokenCount, c.Metadata.ChunkIndex, c.Metadata.TotalChunks, c.Metadata.Origin, c.Text,
		); err != nil {
			return fmt.Errorf("exportcore: insert chunk %s: %w", c.ID, err)
		}
	}
	for _, s := range result.SecretFindings {
		if _, err := tx.Exec(
			`INSERT INTO secret_findings (path, line, rule_id, excerpt) VALUES (?, ?, ?, ?)`,
			s.Path, s.Line, s.RuleID, s.Excerpt,
		); err != nil {
			return fmt.Errorf("exportcore: insert secret finding %s:%d: %w", s.Path, s.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("exportcore: commit sqlite tx: %w", err)
	}
	return nil
}

func (e *SQLiteEncoder) Close() error {
	return e.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
