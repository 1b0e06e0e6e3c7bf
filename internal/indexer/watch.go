package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/heefoo/codexray/internal/lang"
)

const debounceInterval = 300 * time.Millisecond

// WatchErrorFunc receives a per-file failure during watch mode; it never
// aborts the watcher.
type WatchErrorFunc func(path string, err error)

// Watch observes the tree for add/change/unlink events, debounces each
// path individually by 300ms, then re-extracts just that file: the
// resolver runs only against that file's references, and the TF-IDF index
// is refreshed only for that file's nodes rather than a full rebuild.
func (idx *Indexer) Watch(ctx context.Context, onError WatchErrorFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, idx.Root, idx.Excludes); err != nil {
		return err
	}

	var mu sync.Mutex
	timers := map[string]*time.Timer{}

	schedule := func(relPath string, deleted bool) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[relPath]; ok {
			t.Stop()
		}
		timers[relPath] = time.AfterFunc(debounceInterval, func() {
			mu.Lock()
			delete(timers, relPath)
			mu.Unlock()

			if deleted {
				if err := idx.handleWatchDelete(ctx, relPath); err != nil && onError != nil {
					onError(relPath, err)
				}
				return
			}
			if err := idx.handleWatchChange(ctx, relPath); err != nil && onError != nil {
				onError(relPath, err)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			rel, relErr := filepath.Rel(idx.Root, event.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if matchesExclude(rel, idx.Excludes) || defaultIgnoreNames[filepath.Base(rel)] {
				continue
			}
			if !lang.IsSupported(event.Name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				schedule(rel, false)
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				schedule(rel, true)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError("", err)
			}
		}
	}
}

func (idx *Indexer) handleWatchChange(ctx context.Context, relPath string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	res := &Result{}
	_, unresolved, err := idx.indexOneFile(ctx, relPath, true, res)
	if err != nil {
		return err
	}
	if err := idx.resolveAndCount(ctx, unresolved, res); err != nil {
		return err
	}
	nodes, err := idx.Store.GetNodesByFile(ctx, relPath)
	if err != nil {
		return err
	}
	return idx.Store.RefreshTFIDFForNodes(ctx, nodes)
}

func (idx *Indexer) handleWatchDelete(ctx context.Context, relPath string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.Store.DeleteFile(ctx, relPath)
}

func addDirsRecursive(fw *fsnotify.Watcher, root string, excludes []string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && (defaultIgnoreNames[info.Name()] || matchesExclude(rel, excludes)) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
