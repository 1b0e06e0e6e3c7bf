package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heefoo/codexray/internal/store"
)

func newTestIndexer(t *testing.T) (*Indexer, *store.Store, string) {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return &Indexer{Root: root, Store: st, MaxFileSize: 1 << 20}, st, root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestFullIndexExtractsAndResolves(t *testing.T) {
	idx, st, root := newTestIndexer(t)
	ctx := context.Background()

	writeFile(t, root, "a.go", "package main\n\nfunc caller() {\n\tcallee()\n}\n\nfunc callee() {\n}\n")

	res, err := idx.FullIndex(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesIndexed)
	assert.Empty(t, res.Errors)
	assert.GreaterOrEqual(t, res.EdgesCreated, 1)
	assert.GreaterOrEqual(t, res.NodesCreated, 2)

	nodes, err := st.GetNodesByFile(ctx, "a.go")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(nodes), 2)

	file, err := st.GetFile(ctx, "a.go")
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.NotZero(t, file.IndexedAt)
}

func TestFullIndexSkipsUnchangedFiles(t *testing.T) {
	idx, _, root := newTestIndexer(t)
	ctx := context.Background()

	writeFile(t, root, "a.go", "package main\n\nfunc f() {}\n")
	_, err := idx.FullIndex(ctx, false)
	require.NoError(t, err)

	res, err := idx.FullIndex(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesSkipped)
	assert.Equal(t, 0, res.FilesIndexed)
}

func TestSyncRemovesDeletedFiles(t *testing.T) {
	idx, st, root := newTestIndexer(t)
	ctx := context.Background()

	writeFile(t, root, "a.go", "package main\n\nfunc f() {}\n")
	_, err := idx.FullIndex(ctx, false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "a.go")))

	res, err := idx.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesDeleted)

	nodes, err := st.GetNodesByFile(ctx, "a.go")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestDiscoverFilesRespectsIgnoreSet(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main\n")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")
	writeFile(t, root, "vendor/lib.go", "package lib\n")

	files, err := discoverFiles(root, nil, 0)
	require.NoError(t, err)
	assert.Contains(t, files, "src/main.go")
	assert.NotContains(t, files, "node_modules/pkg/index.js")
	assert.NotContains(t, files, "vendor/lib.go")
}

func TestDiscoverFilesRespectsUserExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "generated/types.go", "package generated\n")
	writeFile(t, root, "src/main.go", "package main\n")

	files, err := discoverFiles(root, []string{"generated/**"}, 0)
	require.NoError(t, err)
	assert.Contains(t, files, "src/main.go")
	assert.NotContains(t, files, "generated/types.go")
}
