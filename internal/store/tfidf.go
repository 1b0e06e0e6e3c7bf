package store

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/heefoo/codexray/internal/model"
	"github.com/heefoo/codexray/internal/tokenizer"
)

const (
	sourceName          = "name"
	sourceQualifiedName = "qualified_name"
	sourceSignature     = "signature"
	sourceDocstring     = "docstring"
)

func sourceWeight(source string) float64 {
	switch source {
	case sourceName:
		return 4
	case sourceSignature:
		return 2
	case sourceDocstring:
		return 1.5
	default:
		return 1
	}
}

// RebuildTFIDF truncates the token and IDF tables and recomputes them from
// every node currently in the store.
func (s *Store) RebuildTFIDF(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tfidf_terms"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tfidf_idf"); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, "SELECT "+nodeColumns+" FROM nodes")
	if err != nil {
		return err
	}
	nodes, err := collectNodes(rows)
	rows.Close()
	if err != nil {
		return err
	}

	df := map[string]int{}
	for _, n := range nodes {
		seen := map[string]bool{}
		fields := map[string]string{
			sourceName:          n.Name,
			sourceQualifiedName: n.QualifiedName,
			sourceSignature:     n.Signature,
			sourceDocstring:     n.Docstring,
		}
		for source, text := range fields {
			counts := tokenCounts(text)
			if len(counts) == 0 {
				continue
			}
			maxCount := 0
			for _, c := range counts {
				if c > maxCount {
					maxCount = c
				}
			}
			for token, count := range counts {
				tf := float64(count) / float64(maxCount)
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO tfidf_terms (node_id, token, source, tf)
					VALUES (?, ?, ?, ?)
					ON CONFLICT(node_id, token, source) DO UPDATE SET tf = excluded.tf
				`, n.ID, token, source, tf); err != nil {
					return fmt.Errorf("insert term %s/%s: %w", n.ID, token, err)
				}
				if !seen[token] {
					seen[token] = true
					df[token]++
				}
			}
		}
	}

	total := float64(len(nodes))
	for token, count := range df {
		idf := math.Log((total+1)/(float64(count)+1)) + 1
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tfidf_idf (token, idf, df)
			VALUES (?, ?, ?)
			ON CONFLICT(token) DO UPDATE SET idf = excluded.idf, df = excluded.df
		`, token, idf, count); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RefreshTFIDFForNodes recomputes term rows scoped to a set of node ids
// (a watch-mode refresh after a single file changes) without touching the
// corpus-wide IDF cache, which is only rebuilt on a full RebuildTFIDF.
func (s *Store) RefreshTFIDFForNodes(ctx context.Context, nodes []model.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, n := range nodes {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tfidf_terms WHERE node_id = ?", n.ID); err != nil {
			return err
		}
		fields := map[string]string{
			sourceName:          n.Name,
			sourceQualifiedName: n.QualifiedName,
			sourceSignature:     n.Signature,
			sourceDocstring:     n.Docstring,
		}
		for source, text := range fields {
			counts := tokenCounts(text)
			if len(counts) == 0 {
				continue
			}
			maxCount := 0
			for _, c := range counts {
				if c > maxCount {
					maxCount = c
				}
			}
			for token, count := range counts {
				tf := float64(count) / float64(maxCount)
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO tfidf_terms (node_id, token, source, tf)
					VALUES (?, ?, ?, ?)
					ON CONFLICT(node_id, token, source) DO UPDATE SET tf = excluded.tf
				`, n.ID, token, source, tf); err != nil {
					return err
				}
			}
		}
	}
	return tx.Commit()
}

func tokenCounts(text string) map[string]int {
	counts := map[string]int{}
	for _, tok := range tokenizer.Tokenize(text) {
		counts[tok]++
	}
	return counts
}

// totalNodeCount is used by SemanticSearch to compute the default IDF for
// query tokens absent from the corpus.
func (s *Store) totalNodeCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&n)
	return n, err
}

type scoredNode struct {
	id    string
	score float64
}

// SemanticSearch scores every node that shares at least one token with the
// query against the TF-IDF index, returning the top limit matches.
func (s *Store) SemanticSearch(ctx context.Context, query string, limit int) ([]model.Node, error) {
	tokens := tokenizer.Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	total, err := s.totalNodeCount(ctx)
	if err != nil {
		return nil, err
	}
	defaultIDF := math.Log(float64(total) + 1)

	idf := make(map[string]float64, len(tokens))
	placeholders, args := stringArgs(tokens)
	rows, err := s.db.QueryContext(ctx, "SELECT token, idf FROM tfidf_idf WHERE token IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var token string
		var v float64
		if err := rows.Scan(&token, &v); err != nil {
			rows.Close()
			return nil, err
		}
		idf[token] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	scores := map[string]float64{}
	termRows, err := s.db.QueryContext(ctx,
		"SELECT node_id, token, source, tf FROM tfidf_terms WHERE token IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	for termRows.Next() {
		var nodeID, token, source string
		var tf float64
		if err := termRows.Scan(&nodeID, &token, &source, &tf); err != nil {
			termRows.Close()
			return nil, err
		}
		tokenIDF, ok := idf[token]
		if !ok {
			tokenIDF = defaultIDF
		}
		scores[nodeID] += tf * tokenIDF * sourceWeight(source)
	}
	termRows.Close()
	if err := termRows.Err(); err != nil {
		return nil, err
	}

	ranked := make([]scoredNode, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, scoredNode{id: id, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]model.Node, 0, len(ranked))
	for _, r := range ranked {
		n, err := s.GetNode(ctx, r.id)
		if err != nil {
			return nil, err
		}
		if n != nil {
			out = append(out, *n)
		}
	}
	return out, nil
}

func stringArgs(values []string) (string, []interface{}) {
	placeholders := ""
	args := make([]interface{}, len(values))
	for i, v := range values {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args[i] = v
	}
	return placeholders, args
}

func less(a, b scoredNode) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.id < b.id
}
