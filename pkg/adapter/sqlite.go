package adapter

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	_ "modernc.org/sqlite"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLite keeps generations in a single database file. Rows of one
// generation are replaced as a whole on every write.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at dbPath
func NewSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", dbPath))
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", dbPath))
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to create tables", goerr.V("path", dbPath))
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// DB exposes the connection for read access
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// WriteGeneration replaces all rows of gen in one transaction
func (s *SQLite) WriteGeneration(ctx context.Context, gen model.Generation, queries []*model.Query, corpus []*model.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"queries", "corpus", "gold_refs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE generation = ?", string(gen)); err != nil {
			return goerr.Wrap(err, "failed to clear table", goerr.V("table", table), goerr.V("generation", gen))
		}
	}

	qStmt, err := tx.PrepareContext(ctx, `INSERT INTO queries
		(generation, position, question_id, question, gold_answer, source_dataset, question_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare query insert")
	}
	defer qStmt.Close()

	refStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO gold_refs
		(generation, question_id, doc_id) VALUES (?, ?, ?)`)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare gold ref insert")
	}
	defer refStmt.Close()

	for i, q := range queries {
		if _, err := qStmt.ExecContext(ctx, string(gen), i, string(q.QuestionID), q.Question, q.GoldAnswer, string(q.Source), string(q.QuestionType)); err != nil {
			return goerr.Wrap(err, "failed to insert query", goerr.V("question_id", q.QuestionID))
		}
		for _, id := range q.GoldDocIDs {
			if _, err := refStmt.ExecContext(ctx, string(gen), string(q.QuestionID), string(id)); err != nil {
				return goerr.Wrap(err, "failed to insert gold ref", goerr.V("question_id", q.QuestionID), goerr.V("doc_id", id))
			}
		}
	}

	dStmt, err := tx.PrepareContext(ctx, `INSERT INTO corpus
		(generation, position, doc_id, content, original_source, original_id, is_gold)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare document insert")
	}
	defer dStmt.Close()

	for i, d := range corpus {
		if _, err := dStmt.ExecContext(ctx, string(gen), i, string(d.DocID), d.Content, string(d.OriginalSource), d.OriginalID, d.IsGold); err != nil {
			return goerr.Wrap(err, "failed to insert document", goerr.V("doc_id", d.DocID))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit generation", goerr.V("generation", gen))
	}
	return nil
}
