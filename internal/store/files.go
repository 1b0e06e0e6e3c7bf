package store

import (
	"context"
	"database/sql"

	"github.com/heefoo/codexray/internal/model"
)

func (s *Store) UpsertFile(ctx context.Context, f model.FileRecord) error {
	return s.upsertFile(ctx, s.db, f)
}

func (s *Store) upsertFile(ctx context.Context, exec execer, f model.FileRecord) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO files (path, hash, language, indexed_at, symbol_count, line_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			language = excluded.language,
			indexed_at = excluded.indexed_at,
			symbol_count = excluded.symbol_count,
			line_count = excluded.line_count
	`, f.Path, f.Hash, f.Language, f.IndexedAt, f.SymbolCount, f.LineCount)
	return err
}

// GetFile returns the stored record for path, or nil if it isn't tracked.
func (s *Store) GetFile(ctx context.Context, path string) (*model.FileRecord, error) {
	var f model.FileRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT path, hash, language, indexed_at, symbol_count, line_count FROM files WHERE path = ?", path,
	).Scan(&f.Path, &f.Hash, &f.Language, &f.IndexedAt, &f.SymbolCount, &f.LineCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// AllFiles returns every tracked file record, used by incremental sync to
// detect deletions (tracked paths no longer present on disk).
func (s *Store) AllFiles(ctx context.Context) ([]model.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, hash, language, indexed_at, symbol_count, line_count FROM files")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FileRecord
	for rows.Next() {
		var f model.FileRecord
		if err := rows.Scan(&f.Path, &f.Hash, &f.Language, &f.IndexedAt, &f.SymbolCount, &f.LineCount); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) deleteFile(ctx context.Context, exec execer, path string) error {
	_, err := exec.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path)
	return err
}

// DeleteFile removes a file and, by foreign-key cascade, every node and
// edge that belonged to it.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	return s.deleteFile(ctx, s.db, path)
}

// GetFileTree groups tracked files by directory for the overview report.
func (s *Store) GetFileTree(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tree := map[string][]string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		dir := dirOf(path)
		tree[dir] = append(tree[dir], path)
	}
	return tree, rows.Err()
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
