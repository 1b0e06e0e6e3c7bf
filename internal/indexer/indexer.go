// Package indexer drives full indexing, incremental sync, and watch mode:
// walking the tree, hashing and parsing changed files, running the symbol
// extractor and reference resolver, and keeping the TF-IDF index current.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/heefoo/codexray/internal/extractor"
	"github.com/heefoo/codexray/internal/lang"
	"github.com/heefoo/codexray/internal/model"
	"github.com/heefoo/codexray/internal/resolver"
)

// Store is everything the indexer needs from the graph store.
type Store interface {
	resolver.Store
	GetFile(ctx context.Context, path string) (*model.FileRecord, error)
	AllFiles(ctx context.Context) ([]model.FileRecord, error)
	UpdateFile(ctx context.Context, file model.FileRecord, nodes []model.Node, edges []model.Edge) error
	DeleteFile(ctx context.Context, path string) error
	RebuildTFIDF(ctx context.Context) error
	RefreshTFIDFForNodes(ctx context.Context, nodes []model.Node) error
	GetNodesByFile(ctx context.Context, filePath string) ([]model.Node, error)
	UpsertResolvedEdge(ctx context.Context, e model.Edge) error
}

// Indexer ties the tree walk, extractor, and resolver to a Store.
type Indexer struct {
	Root        string
	Store       Store
	Excludes    []string
	MaxFileSize int64

	mu sync.Mutex // serializes full index / sync / watch writes against each other
}

// Result summarizes one indexing pass.
type Result struct {
	FilesIndexed int
	FilesSkipped int
	FilesDeleted int
	NodesCreated int
	EdgesCreated int
	Errors       []FileError
}

// FileError records a single file's failure without aborting the batch.
type FileError struct {
	Path string
	Err  error
}

// FullIndex walks the tree and (re)indexes every file; when force is
// false, files whose stored hash is unchanged are skipped.
func (idx *Indexer) FullIndex(ctx context.Context, force bool) (*Result, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	paths, err := discoverFiles(idx.Root, idx.Excludes, idx.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	res := &Result{}
	var allUnresolved []model.UnresolvedRef

	for _, rel := range paths {
		changed, unresolved, err := idx.indexOneFile(ctx, rel, force, res)
		if err != nil {
			res.Errors = append(res.Errors, FileError{Path: rel, Err: err})
			continue
		}
		if changed {
			res.FilesIndexed++
			allUnresolved = append(allUnresolved, unresolved...)
		} else {
			res.FilesSkipped++
		}
	}

	if err := idx.resolveAndCount(ctx, allUnresolved, res); err != nil {
		return res, err
	}
	if err := idx.Store.RebuildTFIDF(ctx); err != nil {
		return res, fmt.Errorf("rebuild tfidf: %w", err)
	}
	return res, nil
}

// Sync compares the tracked file set against disk: deletes records for
// files no longer present, then re-extracts any new or changed file.
func (idx *Indexer) Sync(ctx context.Context) (*Result, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tracked, err := idx.Store.AllFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracked files: %w", err)
	}
	trackedByPath := make(map[string]model.FileRecord, len(tracked))
	for _, f := range tracked {
		trackedByPath[f.Path] = f
	}

	current, err := discoverFiles(idx.Root, idx.Excludes, idx.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	currentSet := make(map[string]bool, len(current))
	for _, p := range current {
		currentSet[p] = true
	}

	res := &Result{}
	for path := range trackedByPath {
		if !currentSet[path] {
			if err := idx.Store.DeleteFile(ctx, path); err != nil {
				res.Errors = append(res.Errors, FileError{Path: path, Err: err})
				continue
			}
			res.FilesDeleted++
		}
	}

	var allUnresolved []model.UnresolvedRef
	for _, rel := range current {
		changed, unresolved, err := idx.indexOneFile(ctx, rel, false, res)
		if err != nil {
			res.Errors = append(res.Errors, FileError{Path: rel, Err: err})
			continue
		}
		if changed {
			res.FilesIndexed++
			allUnresolved = append(allUnresolved, unresolved...)
		} else {
			res.FilesSkipped++
		}
	}

	if err := idx.resolveAndCount(ctx, allUnresolved, res); err != nil {
		return res, err
	}
	if err := idx.Store.RebuildTFIDF(ctx); err != nil {
		return res, fmt.Errorf("rebuild tfidf: %w", err)
	}
	return res, nil
}

// indexOneFile hashes, and if necessary re-extracts, a single file. It
// returns whether the file's content actually changed and the unresolved
// references produced by extraction (empty when unchanged). Node and edge
// counts for the pass are tallied into res as they're produced.
func (idx *Indexer) indexOneFile(ctx context.Context, relPath string, force bool, res *Result) (bool, []model.UnresolvedRef, error) {
	fullPath := filepath.Join(idx.Root, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return false, nil, fmt.Errorf("read %s: %w", relPath, err)
	}

	hash := shortHash(content)
	if !force {
		if existing, err := idx.Store.GetFile(ctx, relPath); err == nil && existing != nil && existing.Hash == hash {
			return false, nil, nil
		}
	}

	language := lang.DetectLanguage(fullPath)
	result, err := extractFile(ctx, content, relPath, language)
	if err != nil {
		return false, nil, fmt.Errorf("extract %s: %w", relPath, err)
	}

	record := model.FileRecord{
		Path:        relPath,
		Hash:        hash,
		Language:    string(language),
		IndexedAt:   time.Now().Unix(),
		SymbolCount: len(result.Nodes),
		LineCount:   strings.Count(string(content), "\n") + 1,
	}
	if err := idx.Store.UpdateFile(ctx, record, result.Nodes, result.Edges); err != nil {
		return false, nil, fmt.Errorf("store %s: %w", relPath, err)
	}
	res.NodesCreated += len(result.Nodes)
	res.EdgesCreated += len(result.Edges)
	return true, result.Unresolved, nil
}

func extractFile(ctx context.Context, content []byte, relPath string, language lang.Name) (*extractor.Result, error) {
	tree, err := lang.Parse(ctx, content, language)
	if err != nil {
		return nil, err
	}
	return extractor.Extract(tree, content, relPath, string(language)), nil
}

func (idx *Indexer) resolveAndCount(ctx context.Context, unresolved []model.UnresolvedRef, res *Result) error {
	if len(unresolved) == 0 {
		return nil
	}
	edges, err := resolver.Resolve(ctx, idx.Store, unresolved)
	if err != nil {
		return fmt.Errorf("resolve references: %w", err)
	}
	res.EdgesCreated += len(edges)
	for _, e := range edges {
		if err := idx.Store.UpsertResolvedEdge(ctx, e); err != nil {
			return fmt.Errorf("store resolved edge %s: %w", e.ID, err)
		}
	}
	return nil
}

func shortHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])[:16]
}
