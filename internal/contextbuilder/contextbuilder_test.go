package contextbuilder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heefoo/codexray/internal/indexer"
	"github.com/heefoo/codexray/internal/query"
	"github.com/heefoo/codexray/internal/store"
)

func newTestBuilder(t *testing.T) (*Builder, string) {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(root, "auth.go"), []byte(
		"package auth\n\nfunc AuthenticateUser() bool {\n\treturn checkToken()\n}\n\nfunc checkToken() bool {\n\treturn true\n}\n",
	), 0o644))

	idx := &indexer.Indexer{Root: root, Store: st, MaxFileSize: 1 << 20}
	_, err = idx.FullIndex(context.Background(), false)
	require.NoError(t, err)

	return &Builder{Engine: query.New(st), Root: root}, root
}

func TestBuildRanksExactNameMatchHighest(t *testing.T) {
	b, _ := newTestBuilder(t)

	result, err := b.Build(context.Background(), Request{Query: "authenticate user"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Symbols)
	assert.Equal(t, "AuthenticateUser", result.Symbols[0].Node.Name)
}

func TestBuildExpandsToDependencies(t *testing.T) {
	b, _ := newTestBuilder(t)

	result, err := b.Build(context.Background(), Request{Query: "authenticate"})
	require.NoError(t, err)

	var names []string
	for _, sym := range result.Symbols {
		names = append(names, sym.Node.Name)
	}
	assert.Contains(t, names, "checkToken")
}

func TestBuildIncludesCodeSnippet(t *testing.T) {
	b, _ := newTestBuilder(t)

	result, err := b.Build(context.Background(), Request{Query: "authenticate user", IncludeCode: true})
	require.NoError(t, err)
	require.NotEmpty(t, result.Symbols)
	assert.Contains(t, result.Symbols[0].Code, "func AuthenticateUser")
}

func TestBuildRespectsMaxNodes(t *testing.T) {
	b, _ := newTestBuilder(t)

	result, err := b.Build(context.Background(), Request{Query: "authenticate user", MaxNodes: 1})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Symbols), 1)
}

func TestFormatLinesGroupsByFile(t *testing.T) {
	b, _ := newTestBuilder(t)

	result, err := b.Build(context.Background(), Request{Query: "authenticate user"})
	require.NoError(t, err)

	out := FormatLines(result)
	assert.Contains(t, out, "auth.go:")
	assert.Contains(t, out, "AuthenticateUser")
}

func TestFormatCompactRoundTrips(t *testing.T) {
	b, _ := newTestBuilder(t)

	result, err := b.Build(context.Background(), Request{Query: "authenticate user"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Symbols)

	text := FormatCompact(result)
	parsed, err := ParseCompact(text)
	require.NoError(t, err)
	require.Len(t, parsed, len(result.Symbols))

	for i, sym := range result.Symbols {
		assert.Equal(t, sym.Node.Kind, parsed[i].Kind)
		assert.Equal(t, sym.Node.QualifiedName, parsed[i].QualifiedName)
		assert.Equal(t, sym.Node.FilePath, parsed[i].FilePath)
		assert.Equal(t, sym.Node.StartLine, parsed[i].StartLine)
		assert.Equal(t, sym.Node.EndLine, parsed[i].EndLine)
		assert.Equal(t, sym.Score, parsed[i].Score)
	}
}
