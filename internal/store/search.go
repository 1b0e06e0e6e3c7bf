package store

import (
	"context"
	"strings"

	"github.com/heefoo/codexray/internal/model"
)

// SearchNodes performs keyword search: an fts5 prefix-match query when the
// keyword index is available, a plain LIKE scan otherwise. Both paths are
// used transparently by callers; SearchNodes picks one itself so the Query
// Engine never has to know which index actually backs it.
func (s *Store) SearchNodes(ctx context.Context, query string, limit int) ([]model.Node, error) {
	if s.hasFTS5 {
		nodes, err := s.searchNodesFTS(ctx, query, limit)
		if err == nil {
			return nodes, nil
		}
		// A malformed fts5 query string (stray punctuation, a bare
		// operator) falls back to LIKE rather than surfacing a syntax
		// error to the caller.
	}
	return s.searchNodesLike(ctx, query, limit)
}

func (s *Store) searchNodesFTS(ctx context.Context, query string, limit int) ([]model.Node, error) {
	match := ftsMatchQuery(query)
	if match == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumnsPrefixed+` FROM nodes_fts f
		JOIN nodes n ON n.id = f.id
		WHERE nodes_fts MATCH ?
		ORDER BY bm25(nodes_fts)
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

func (s *Store) searchNodesLike(ctx context.Context, query string, limit int) ([]model.Node, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes
		WHERE name LIKE ? OR qualified_name LIKE ? OR signature LIKE ? OR docstring LIKE ?
		ORDER BY name
		LIMIT ?
	`, pattern, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

// ftsMatchQuery turns free text into an fts5 MATCH expression: each
// word-like token becomes a prefix term, joined with implicit AND.
func ftsMatchQuery(query string) string {
	var terms []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			terms = append(terms, cur.String()+"*")
			cur.Reset()
		}
	}
	for _, r := range query {
		if isWordRune(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return strings.Join(terms, " ")
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}
