// Package resolver turns the extractor's unresolved name references into
// concrete edges by scoring candidate nodes the same way a careful human
// reviewer would pick the right match: prefer the same file, then the same
// directory, then a shared path, and prefer exported symbols.
package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/heefoo/codexray/internal/model"
)

// Store is the subset of the graph store the resolver needs, kept narrow
// so it can be exercised with a fake in tests without pulling in sqlite.
type Store interface {
	GetNodesByName(ctx context.Context, name string, limit int) ([]model.Node, error)
	GetNode(ctx context.Context, id string) (*model.Node, error)
}

const candidateLimit = 10

// Resolve scores candidates for every unresolved reference and returns the
// edges to upsert, deduplicated by computed edge id.
func Resolve(ctx context.Context, store Store, refs []model.UnresolvedRef) ([]model.Edge, error) {
	seen := map[string]bool{}
	var edges []model.Edge

	for _, ref := range refs {
		origin, err := store.GetNode(ctx, ref.SourceNodeID)
		if err != nil {
			return nil, err
		}
		if origin == nil {
			continue
		}

		candidates, err := store.GetNodesByName(ctx, ref.ReferencedName, candidateLimit)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			continue
		}

		best, ok := pickBest(*origin, ref, candidates)
		if !ok || best.ID == origin.ID {
			continue
		}

		e := model.Edge{SourceID: origin.ID, TargetID: best.ID, Kind: ref.Kind}
		e.ID = model.EdgeID(e.SourceID, e.TargetID, e.Kind)
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		edges = append(edges, e)
	}
	return edges, nil
}

type scored struct {
	node  model.Node
	score int
}

func pickBest(origin model.Node, ref model.UnresolvedRef, candidates []model.Node) (model.Node, bool) {
	scoredCandidates := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		scoredCandidates = append(scoredCandidates, scored{node: c, score: score(origin, ref, c)})
	}

	sort.SliceStable(scoredCandidates, func(i, j int) bool {
		if scoredCandidates[i].score != scoredCandidates[j].score {
			return scoredCandidates[i].score > scoredCandidates[j].score
		}
		return len(scoredCandidates[i].node.FilePath) < len(scoredCandidates[j].node.FilePath)
	})

	if len(scoredCandidates) == 0 {
		return model.Node{}, false
	}
	return scoredCandidates[0].node, true
}

func score(origin model.Node, ref model.UnresolvedRef, candidate model.Node) int {
	total := 0
	if candidate.Name == ref.ReferencedName {
		total += 10
	}

	switch {
	case candidate.FilePath == ref.FilePath:
		total += 8
	case dirOf(candidate.FilePath) == dirOf(ref.FilePath):
		total += 5
	default:
		total += sharedPrefixScore(candidate.FilePath, ref.FilePath)
	}

	if candidate.Exported {
		total += 3
	}

	if ref.Kind == model.EdgeImports {
		switch candidate.Kind {
		case model.KindClass, model.KindInterface, model.KindNamespace:
			total += 2
		}
	}

	return total
}

// sharedPrefixScore awards up to +3 for shared leading path segments
// between two files that don't live in the same directory.
func sharedPrefixScore(a, b string) int {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	shared := 0
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			break
		}
		shared++
	}
	if shared > 3 {
		shared = 3
	}
	return shared
}

func dirOf(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[:idx]
	}
	return "."
}
