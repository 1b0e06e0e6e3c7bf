package indexer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/heefoo/codexray/internal/lang"
)

// defaultIgnoreNames are directory/file basenames skipped unconditionally,
// regardless of user configuration.
var defaultIgnoreNames = map[string]bool{
	".git": true, ".svn": true, ".hg": true,
	"node_modules": true, "vendor": true, "__pycache__": true,
	".venv": true, "venv": true, "target": true, "build": true,
	"dist": true, ".idea": true, ".vscode": true, ".codexray": true,
}

// defaultIgnoreGlobs are basename glob patterns skipped unconditionally.
var defaultIgnoreGlobs = []string{"*.min.js", "*.min.css", "*.map"}

// discoverFiles walks root and returns every supported, non-excluded file
// path relative to root, skipping files larger than maxFileSize.
func discoverFiles(root string, excludes []string, maxFileSize int64) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && (defaultIgnoreNames[info.Name()] || matchesExclude(rel, excludes)) {
				return filepath.SkipDir
			}
			return nil
		}

		if defaultIgnoreGlobMatch(info.Name()) || matchesExclude(rel, excludes) {
			return nil
		}
		if !lang.IsSupported(path) {
			return nil
		}
		if maxFileSize > 0 && info.Size() > maxFileSize {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

func defaultIgnoreGlobMatch(name string) bool {
	for _, pattern := range defaultIgnoreGlobs {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// matchesExclude checks a project-relative path against user-supplied
// doublestar patterns from config.json's exclude field.
func matchesExclude(relPath string, excludes []string) bool {
	for _, pattern := range excludes {
		pattern = strings.TrimPrefix(pattern, "./")
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, filepath.Base(relPath)); ok {
			return true
		}
	}
	return false
}
