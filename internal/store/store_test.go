package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heefoo/codexray/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mkNode(kind model.NodeKind, file, name string, line int) model.Node {
	n := model.Node{
		Kind: kind, Name: name, FilePath: file, StartLine: line, EndLine: line + 1,
		Language: "go", Exported: true, Complexity: 1,
	}
	n.ID = model.NodeID(kind, file, name, line)
	n.QualifiedName = model.QualifiedName(file, name)
	return n
}

func TestUpdateFileAtomicReplace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	caller := mkNode(model.KindFunction, "a.go", "caller", 1)
	callee := mkNode(model.KindFunction, "a.go", "callee", 5)
	edge := model.Edge{SourceID: caller.ID, TargetID: callee.ID, Kind: model.EdgeCalls}
	edge.ID = model.EdgeID(edge.SourceID, edge.TargetID, edge.Kind)

	file := model.FileRecord{Path: "a.go", Hash: "h1", Language: "go", IndexedAt: 1, SymbolCount: 2, LineCount: 10}
	require.NoError(t, s.UpdateFile(ctx, file, []model.Node{caller, callee}, []model.Edge{edge}))

	got, err := s.GetNodesByFile(ctx, "a.go")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	callers, err := s.GetCallers(ctx, callee.ID)
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, caller.ID, callers[0].ID)

	// Re-running with a smaller node set must remove the stale node and
	// its edges, not just add the new set on top.
	solo := mkNode(model.KindFunction, "a.go", "solo", 1)
	require.NoError(t, s.UpdateFile(ctx, file, []model.Node{solo}, nil))

	got, err = s.GetNodesByFile(ctx, "a.go")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "solo", got[0].Name)

	_, err = s.GetNode(ctx, caller.ID)
	require.NoError(t, err)
	n, err := s.GetNode(ctx, caller.ID)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestDeleteFileCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n1 := mkNode(model.KindFunction, "b.go", "f1", 1)
	n2 := mkNode(model.KindFunction, "b.go", "f2", 5)
	e := model.Edge{SourceID: n1.ID, TargetID: n2.ID, Kind: model.EdgeCalls}
	e.ID = model.EdgeID(e.SourceID, e.TargetID, e.Kind)

	file := model.FileRecord{Path: "b.go", Hash: "h", Language: "go"}
	require.NoError(t, s.UpdateFile(ctx, file, []model.Node{n1, n2}, []model.Edge{e}))
	require.NoError(t, s.DeleteFile(ctx, "b.go"))

	nodes, err := s.GetNodesByFile(ctx, "b.go")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	callers, err := s.GetCallers(ctx, n2.ID)
	require.NoError(t, err)
	assert.Empty(t, callers)
}

func TestSearchNodesLikeFallback(t *testing.T) {
	s := openTestStore(t)
	s.hasFTS5 = false // force the LIKE path regardless of the build's fts5 availability
	ctx := context.Background()

	n := mkNode(model.KindFunction, "c.go", "ParseConfig", 1)
	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "c.go", Hash: "h"}, []model.Node{n}, nil))

	results, err := s.SearchNodes(ctx, "ParseConfig", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ParseConfig", results[0].Name)
}

func TestSearchNodesFTS5TriggersStayInSync(t *testing.T) {
	s := openTestStore(t)
	if !s.hasFTS5 {
		t.Skip("fts5 module not available in this build")
	}
	ctx := context.Background()

	n := mkNode(model.KindFunction, "c.go", "ParseConfig", 1)
	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "c.go", Hash: "h"}, []model.Node{n}, nil))

	results, err := s.SearchNodes(ctx, "ParseConfig", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ParseConfig", results[0].Name)

	// Re-indexing the file deletes and re-inserts the node under the same
	// id; the delete and insert triggers must keep the fts5 table in sync
	// with the new name.
	renamed := mkNode(model.KindFunction, "c.go", "LoadConfig", 1)
	renamed.ID = n.ID
	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "c.go", Hash: "h2"}, []model.Node{renamed}, nil))

	results, err = s.SearchNodes(ctx, "LoadConfig", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = s.SearchNodes(ctx, "ParseConfig", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSemanticSearchRanksNameMatchesHighest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	byName := mkNode(model.KindFunction, "d.go", "validate", 1)
	byDoc := mkNode(model.KindFunction, "d.go", "other", 5)
	byDoc.Docstring = "validate the input thoroughly"

	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "d.go", Hash: "h"}, []model.Node{byName, byDoc}, nil))
	require.NoError(t, s.RebuildTFIDF(ctx))

	results, err := s.SemanticSearch(ctx, "validate", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "validate", results[0].Name)
}

func TestImpactRadiusExcludesStartAndRespectsDepth(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := mkNode(model.KindFunction, "e.go", "a", 1)
	b := mkNode(model.KindFunction, "e.go", "b", 5)
	c := mkNode(model.KindFunction, "e.go", "c", 9)
	ab := model.Edge{SourceID: a.ID, TargetID: b.ID, Kind: model.EdgeCalls}
	ab.ID = model.EdgeID(ab.SourceID, ab.TargetID, ab.Kind)
	bc := model.Edge{SourceID: b.ID, TargetID: c.ID, Kind: model.EdgeCalls}
	bc.ID = model.EdgeID(bc.SourceID, bc.TargetID, bc.Kind)

	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "e.go", Hash: "h"}, []model.Node{a, b, c}, []model.Edge{ab, bc}))

	entries, err := s.GetImpactRadius(ctx, c.ID, 5)
	require.NoError(t, err)
	ids := map[string]int{}
	for _, e := range entries {
		ids[e.Node.ID] = e.Distance
	}
	assert.Equal(t, 1, ids[b.ID])
	assert.Equal(t, 2, ids[a.ID])

	shallow, err := s.GetImpactRadius(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Len(t, shallow, 1)
}

func TestFindCircularDeps(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := mkNode(model.KindModule, "f.go", "a", 1)
	b := mkNode(model.KindModule, "g.go", "b", 1)
	ab := model.Edge{SourceID: a.ID, TargetID: b.ID, Kind: model.EdgeImports}
	ab.ID = model.EdgeID(ab.SourceID, ab.TargetID, ab.Kind)
	ba := model.Edge{SourceID: b.ID, TargetID: a.ID, Kind: model.EdgeImports}
	ba.ID = model.EdgeID(ba.SourceID, ba.TargetID, ba.Kind)

	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "f.go", Hash: "h"}, []model.Node{a}, nil))
	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "g.go", Hash: "h"}, []model.Node{b}, nil))
	require.NoError(t, s.upsertEdge(ctx, s.db, ab))
	require.NoError(t, s.upsertEdge(ctx, s.db, ba))

	cycles, err := s.FindCircularDeps(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cycles)
}

func TestGetNodesByNameOrdersAndCoversAllTiers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exportedExact := mkNode(model.KindFunction, "y.go", "Run", 1)
	unexportedExact := mkNode(model.KindFunction, "x.go", "Run", 1)
	unexportedExact.Exported = false
	suffix := mkNode(model.KindMethod, "z.go", "run", 5)
	suffix.QualifiedName = "Worker.run"
	fuzzy := mkNode(model.KindFunction, "w.go", "preRunHook", 1)
	fuzzy.QualifiedName = "preRunHook"

	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "y.go", Hash: "h"}, []model.Node{exportedExact}, nil))
	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "x.go", Hash: "h"}, []model.Node{unexportedExact}, nil))
	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "z.go", Hash: "h"}, []model.Node{suffix}, nil))
	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "w.go", Hash: "h"}, []model.Node{fuzzy}, nil))

	results, err := s.GetNodesByName(ctx, "Run", 10)
	require.NoError(t, err)
	require.Len(t, results, 4)

	// Exact matches come first, exported before unexported, then the
	// suffix tier, then the bare-substring tier.
	assert.Equal(t, exportedExact.ID, results[0].ID)
	assert.Equal(t, unexportedExact.ID, results[1].ID)
	assert.Equal(t, suffix.ID, results[2].ID)
	assert.Equal(t, fuzzy.ID, results[3].ID)
}

func TestGetNodesByNameRespectsLimitAcrossTiers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exact := mkNode(model.KindFunction, "a.go", "run", 1)
	fuzzy := mkNode(model.KindFunction, "b.go", "preRun", 1)
	fuzzy.QualifiedName = "preRun"

	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "a.go", Hash: "h"}, []model.Node{exact}, nil))
	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "b.go", Hash: "h"}, []model.Node{fuzzy}, nil))

	results, err := s.GetNodesByName(ctx, "run", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, exact.ID, results[0].ID)
}

func TestFindDeadCode(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	used := mkNode(model.KindFunction, "h.go", "used", 1)
	unused := mkNode(model.KindFunction, "h.go", "unused", 5)
	caller := mkNode(model.KindFunction, "h.go", "caller", 9)
	e := model.Edge{SourceID: caller.ID, TargetID: used.ID, Kind: model.EdgeCalls}
	e.ID = model.EdgeID(e.SourceID, e.TargetID, e.Kind)

	require.NoError(t, s.UpdateFile(ctx, model.FileRecord{Path: "h.go", Hash: "h"}, []model.Node{used, unused, caller}, []model.Edge{e}))

	dead, err := s.FindDeadCode(ctx, DeadCodeFilter{Kinds: []model.NodeKind{model.KindFunction}, ExportedOnly: true})
	require.NoError(t, err)
	names := map[string]bool{}
	for _, n := range dead {
		names[n.Name] = true
	}
	assert.True(t, names["unused"])
	assert.True(t, names["caller"]) // nothing calls caller either
	assert.False(t, names["used"])
}
