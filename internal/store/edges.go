package store

import (
	"context"
	"database/sql"

	"github.com/heefoo/codexray/internal/model"
)

// UpsertResolvedEdge inserts a single edge produced by the reference
// resolver outside of a per-file UpdateFile batch (the resolver runs once
// over the whole pass's unresolved references, after every file's own
// nodes and edges are already committed).
func (s *Store) UpsertResolvedEdge(ctx context.Context, e model.Edge) error {
	return s.upsertEdge(ctx, s.db, e)
}

func (s *Store) upsertEdge(ctx context.Context, exec execer, e model.Edge) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO edges (id, source_id, target_id, kind, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET metadata = excluded.metadata
	`, e.ID, e.SourceID, e.TargetID, string(e.Kind), e.Metadata)
	return err
}

// deleteEdgesByFile removes every edge whose source or target node belongs
// to filePath. It is also implied by deleteNodesByFile's ON DELETE CASCADE,
// but UpdateFile calls it explicitly first so that an edge originating from
// another file but pointing at a node about to be replaced in this file is
// cleared even when id collisions would otherwise let a stale row survive.
func (s *Store) deleteEdgesByFile(ctx context.Context, exec execer, filePath string) error {
	_, err := exec.ExecContext(ctx, `
		DELETE FROM edges WHERE source_id IN (SELECT id FROM nodes WHERE file_path = ?)
		   OR target_id IN (SELECT id FROM nodes WHERE file_path = ?)
	`, filePath, filePath)
	return err
}

const edgeColumns = "id, source_id, target_id, kind, metadata"

func scanEdge(row interface{ Scan(...interface{}) error }) (model.Edge, error) {
	var e model.Edge
	var kind string
	err := row.Scan(&e.ID, &e.SourceID, &e.TargetID, &kind, &e.Metadata)
	e.Kind = model.EdgeKind(kind)
	return e, err
}

func collectEdges(rows *sql.Rows) ([]model.Edge, error) {
	var out []model.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetCallers returns nodes with a "calls" edge targeting id.
func (s *Store) GetCallers(ctx context.Context, id string) ([]model.Node, error) {
	return s.neighborsIn(ctx, id, model.EdgeCalls)
}

// GetCallees returns nodes targeted by a "calls" edge from id.
func (s *Store) GetCallees(ctx context.Context, id string) ([]model.Node, error) {
	return s.neighborsOut(ctx, id, model.EdgeCalls)
}

// GetDependencies returns every node id points to, across all edge kinds,
// grouped by kind.
func (s *Store) GetDependencies(ctx context.Context, id string) (map[model.EdgeKind][]model.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.kind, `+nodeColumnsPrefixed+` FROM nodes n
		JOIN edges e ON e.target_id = n.id
		WHERE e.source_id = ?
		ORDER BY e.kind, n.id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return groupNodesByKind(rows)
}

// GetDependents returns every node that points to id, across all edge
// kinds, grouped by kind — the reverse of GetDependencies.
func (s *Store) GetDependents(ctx context.Context, id string) (map[model.EdgeKind][]model.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.kind, `+nodeColumnsPrefixed+` FROM nodes n
		JOIN edges e ON e.source_id = n.id
		WHERE e.target_id = ?
		ORDER BY e.kind, n.id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return groupNodesByKind(rows)
}

func groupNodesByKind(rows *sql.Rows) (map[model.EdgeKind][]model.Node, error) {
	out := map[model.EdgeKind][]model.Node{}
	for rows.Next() {
		var kind string
		n, err := scanNodeWithLeadingKind(rows, &kind)
		if err != nil {
			return nil, err
		}
		out[model.EdgeKind(kind)] = append(out[model.EdgeKind(kind)], n)
	}
	return out, rows.Err()
}

func scanNodeWithLeadingKind(rows *sql.Rows, edgeKind *string) (model.Node, error) {
	var n model.Node
	var kind string
	var exported int
	err := rows.Scan(edgeKind, &n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.StartLine, &n.EndLine,
		&n.Language, &n.Signature, &n.Docstring, &exported, &n.Complexity, &n.Metadata)
	n.Kind = model.NodeKind(kind)
	n.Exported = exported != 0
	return n, err
}

func (s *Store) neighborsOut(ctx context.Context, id string, kind model.EdgeKind) ([]model.Node, error) {
	return s.neighborsOutKinds(ctx, id, kind)
}

func (s *Store) neighborsIn(ctx context.Context, id string, kind model.EdgeKind) ([]model.Node, error) {
	return s.neighborsInKinds(ctx, id, kind)
}

func (s *Store) neighborsOutKinds(ctx context.Context, id string, kinds ...model.EdgeKind) ([]model.Node, error) {
	placeholders, args := kindArgs(kinds)
	args = append([]interface{}{id}, args...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumnsPrefixed+` FROM nodes n
		JOIN edges e ON e.target_id = n.id
		WHERE e.source_id = ? AND e.kind IN (`+placeholders+`)
		ORDER BY n.id
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

func (s *Store) neighborsInKinds(ctx context.Context, id string, kinds ...model.EdgeKind) ([]model.Node, error) {
	placeholders, args := kindArgs(kinds)
	args = append([]interface{}{id}, args...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumnsPrefixed+` FROM nodes n
		JOIN edges e ON e.source_id = n.id
		WHERE e.target_id = ? AND e.kind IN (`+placeholders+`)
		ORDER BY n.id
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

// adjacency returns the outgoing and incoming edges for id restricted to
// kinds, used by the graph algorithms that need raw edges rather than node
// projections (impact radius; cycle detection loads its edges through
// loadAdjacency instead).
func (s *Store) adjacency(ctx context.Context, id string, kinds []model.EdgeKind) ([]model.Edge, []model.Edge, error) {
	placeholders, args := kindArgs(kinds)
	args = append([]interface{}{id}, args...)
	outRows, err := s.db.QueryContext(ctx,
		"SELECT "+edgeColumns+" FROM edges WHERE source_id = ? AND kind IN ("+placeholders+") ORDER BY target_id", args...)
	if err != nil {
		return nil, nil, err
	}
	out, err := collectEdges(outRows)
	outRows.Close()
	if err != nil {
		return nil, nil, err
	}

	inRows, err := s.db.QueryContext(ctx,
		"SELECT "+edgeColumns+" FROM edges WHERE target_id = ? AND kind IN ("+placeholders+") ORDER BY source_id", args...)
	if err != nil {
		return nil, nil, err
	}
	in, err := collectEdges(inRows)
	inRows.Close()
	if err != nil {
		return nil, nil, err
	}
	return out, in, nil
}

func kindArgs(kinds []model.EdgeKind) (string, []interface{}) {
	placeholders := ""
	args := make([]interface{}, len(kinds))
	for i, k := range kinds {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args[i] = string(k)
	}
	return placeholders, args
}
