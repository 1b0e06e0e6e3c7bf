package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heefoo/codexray/internal/model"
)

type fakeStore struct {
	nodes map[string]model.Node
}

func (f *fakeStore) GetNode(_ context.Context, id string) (*model.Node, error) {
	if n, ok := f.nodes[id]; ok {
		return &n, nil
	}
	return nil, nil
}

func (f *fakeStore) GetNodesByName(_ context.Context, name string, limit int) ([]model.Node, error) {
	var out []model.Node
	for _, n := range f.nodes {
		if n.Name == name {
			out = append(out, n)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func TestResolvePrefersSameFile(t *testing.T) {
	origin := model.Node{ID: "origin", FilePath: "a/b.go", Name: "caller"}
	sameFile := model.Node{ID: "same", FilePath: "a/b.go", Name: "target"}
	otherFile := model.Node{ID: "other", FilePath: "x/y.go", Name: "target", Exported: true}

	store := &fakeStore{nodes: map[string]model.Node{
		"origin": origin, "same": sameFile, "other": otherFile,
	}}

	refs := []model.UnresolvedRef{{SourceNodeID: "origin", ReferencedName: "target", Kind: model.EdgeCalls, FilePath: "a/b.go"}}
	edges, err := Resolve(context.Background(), store, refs)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "same", edges[0].TargetID)
}

func TestResolveDropsReferenceWithNoCandidates(t *testing.T) {
	origin := model.Node{ID: "origin", FilePath: "a.go", Name: "caller"}
	store := &fakeStore{nodes: map[string]model.Node{"origin": origin}}

	refs := []model.UnresolvedRef{{SourceNodeID: "origin", ReferencedName: "missing", Kind: model.EdgeCalls}}
	edges, err := Resolve(context.Background(), store, refs)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestResolveSkipsSelfReference(t *testing.T) {
	origin := model.Node{ID: "origin", FilePath: "a.go", Name: "recurse"}
	store := &fakeStore{nodes: map[string]model.Node{"origin": origin}}

	refs := []model.UnresolvedRef{{SourceNodeID: "origin", ReferencedName: "recurse", Kind: model.EdgeCalls, FilePath: "a.go"}}
	edges, err := Resolve(context.Background(), store, refs)
	require.NoError(t, err)
	assert.Empty(t, edges)
}
