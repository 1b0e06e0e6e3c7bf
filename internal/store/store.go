// Package store persists the symbol graph in SQLite: nodes, edges, file
// records, the FTS5 keyword index, and the TF-IDF term tables that back
// semantic search.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a SQLite connection pool plus the capability probe result.
type Store struct {
	db      *sql.DB
	hasFTS5 bool
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting the per-entity
// write helpers run standalone or as part of a larger transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Open creates (or reuses) the database at path, applying pragmas tuned for
// a single-writer embedded workload and running the schema migration.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA cache_size = -65536",
		"PRAGMA mmap_size = 268435456",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	hasFTS5, err := migrate(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db, hasFTS5: hasFTS5}, nil
}

// HasKeywordIndex reports whether the fts5 module was available at open
// time; callers use it to decide whether keyword search can skip straight
// to the LIKE fallback.
func (s *Store) HasKeywordIndex() bool {
	return s.hasFTS5
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Reset drops every row from every table, leaving the schema intact.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []string{"tfidf_idf", "tfidf_terms", "edges", "nodes", "files"}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	if s.hasFTS5 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM nodes_fts"); err != nil {
			return fmt.Errorf("clear nodes_fts: %w", err)
		}
	}
	return tx.Commit()
}

// Vacuum reclaims free space after large deletes (e.g. after Reset or a
// bulk re-index of a renamed tree).
func (s *Store) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Stats summarizes the current store contents.
type Stats struct {
	FileCount int
	NodeCount int
	EdgeCount int
	ByKind    map[string]int
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByKind: map[string]int{}}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&st.FileCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&st.NodeCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM edges").Scan(&st.EdgeCount); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM nodes GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		st.ByKind[kind] = count
	}
	return st, rows.Err()
}
