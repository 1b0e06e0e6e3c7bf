package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	return root
}

func TestInstallAddsGitignoreAndHook(t *testing.T) {
	root := initRepo(t)
	require.NoError(t, Install(root))

	gitignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(gitignore), ".codexray/")

	status, err := Status(root)
	require.NoError(t, err)
	assert.True(t, status.Installed)
	assert.True(t, status.Executable)
}

func TestInstallPreservesExistingHookContent(t *testing.T) {
	root := initRepo(t)
	hookPath := preCommitPath(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(hookPath), 0o755))
	require.NoError(t, os.WriteFile(hookPath, []byte("#!/bin/sh\necho custom-check\n"), 0o755))

	require.NoError(t, Install(root))

	data, err := os.ReadFile(hookPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "echo custom-check")
	assert.Contains(t, string(data), "codexray sync --quiet")
}

func TestInstallIsIdempotent(t *testing.T) {
	root := initRepo(t)
	require.NoError(t, Install(root))
	require.NoError(t, Install(root))

	data, err := os.ReadFile(preCommitPath(root))
	require.NoError(t, err)
	assert.Equal(t, 1, countOccurrences(string(data), markerBegin))
}

func TestRemoveStripsOnlyMarkedBlock(t *testing.T) {
	root := initRepo(t)
	require.NoError(t, Install(root))
	require.NoError(t, Remove(root))

	data, err := os.ReadFile(preCommitPath(root))
	require.NoError(t, err)
	assert.Contains(t, string(data), "#!/bin/sh")

	status, err := Status(root)
	require.NoError(t, err)
	assert.False(t, status.Installed)
}

func TestInstallFailsOutsideGitRepo(t *testing.T) {
	root := t.TempDir()
	assert.Error(t, Install(root))
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}
