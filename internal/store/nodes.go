package store

import (
	"context"
	"database/sql"

	"github.com/heefoo/codexray/internal/model"
)

func (s *Store) upsertNode(ctx context.Context, exec execer, n model.Node) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO nodes (id, kind, name, qualified_name, file_path, start_line, end_line,
			language, signature, docstring, exported, complexity, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			qualified_name = excluded.qualified_name,
			file_path = excluded.file_path,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			language = excluded.language,
			signature = excluded.signature,
			docstring = excluded.docstring,
			exported = excluded.exported,
			complexity = excluded.complexity,
			metadata = excluded.metadata
	`, n.ID, string(n.Kind), n.Name, n.QualifiedName, n.FilePath, n.StartLine, n.EndLine,
		n.Language, n.Signature, n.Docstring, boolToInt(n.Exported), n.Complexity, n.Metadata)
	return err
}

func (s *Store) deleteNodesByFile(ctx context.Context, exec execer, filePath string) error {
	_, err := exec.ExecContext(ctx, "DELETE FROM nodes WHERE file_path = ?", filePath)
	return err
}

const nodeColumns = "id, kind, name, qualified_name, file_path, start_line, end_line, language, signature, docstring, exported, complexity, metadata"
const nodeColumnsPrefixed = "n.id, n.kind, n.name, n.qualified_name, n.file_path, n.start_line, n.end_line, n.language, n.signature, n.docstring, n.exported, n.complexity, n.metadata"

func scanNode(row interface{ Scan(...interface{}) error }) (model.Node, error) {
	var n model.Node
	var kind string
	var exported int
	err := row.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.StartLine, &n.EndLine,
		&n.Language, &n.Signature, &n.Docstring, &exported, &n.Complexity, &n.Metadata)
	n.Kind = model.NodeKind(kind)
	n.Exported = exported != 0
	return n, err
}

// GetNode fetches a single node by id, or nil if it doesn't exist.
func (s *Store) GetNode(ctx context.Context, id string) (*model.Node, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNodesByFile returns every node belonging to a file, ordered by start
// line so callers get a stable top-to-bottom listing.
func (s *Store) GetNodesByFile(ctx context.Context, filePath string) ([]model.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE file_path = ? ORDER BY start_line", filePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

// nameOrderedQuery appends the exported-first, then file_path-ascending
// ordering every GetNodesByName tier shares, so the reference resolver's
// stable tie-break and the MCP ambiguity list see deterministic candidate
// order instead of whatever order SQLite happens to return rows in.
const nameOrderedQuery = " ORDER BY exported DESC, file_path ASC LIMIT ?"

// GetNodesByName performs the tiered name lookup used by the reference
// resolver: exact name match first, then qualified-name suffix match, then
// a bare qualified-name substring match, each tier capped independently at
// limit and ordered exported DESC, file_path ASC.
func (s *Store) GetNodesByName(ctx context.Context, name string, limit int) ([]model.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE name = ?"+nameOrderedQuery, name, limit)
	if err != nil {
		return nil, err
	}
	exact, err := collectNodes(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(exact) >= limit {
		return exact, nil
	}

	seen := make(map[string]bool, len(exact))
	for _, n := range exact {
		seen[n.ID] = true
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE qualified_name LIKE ?"+nameOrderedQuery, "%."+name, limit)
	if err != nil {
		return nil, err
	}
	suffix, err := collectNodes(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	for _, n := range suffix {
		if len(exact) >= limit {
			break
		}
		if !seen[n.ID] {
			seen[n.ID] = true
			exact = append(exact, n)
		}
	}
	if len(exact) >= limit {
		return exact, nil
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE qualified_name LIKE ?"+nameOrderedQuery, "%"+name+"%", limit)
	if err != nil {
		return nil, err
	}
	fuzzy, err := collectNodes(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	for _, n := range fuzzy {
		if len(exact) >= limit {
			break
		}
		if !seen[n.ID] {
			seen[n.ID] = true
			exact = append(exact, n)
		}
	}
	return exact, nil
}

// GetChildren returns the nodes directly linked under parentID via
// has_method, has_property, or contains edges, ordered by start line.
func (s *Store) GetChildren(ctx context.Context, parentID string) ([]model.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumnsPrefixed+` FROM nodes n
		JOIN edges e ON e.target_id = n.id
		WHERE e.source_id = ? AND e.kind IN (?, ?, ?)
		ORDER BY n.start_line
	`, parentID, string(model.EdgeHasMethod), string(model.EdgeHasProperty), string(model.EdgeContains))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

func collectNodes(rows *sql.Rows) ([]model.Node, error) {
	var out []model.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
