package store

import (
	"context"
	"fmt"

	"github.com/heefoo/codexray/internal/model"
)

// UpdateFile atomically replaces one file's nodes and edges: delete the
// file's prior edges and nodes, upsert the file record, then upsert the
// fresh nodes and edges, all inside a single transaction so a reader never
// observes a file half-updated.
func (s *Store) UpdateFile(ctx context.Context, file model.FileRecord, nodes []model.Node, edges []model.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.deleteEdgesByFile(ctx, tx, file.Path); err != nil {
		return fmt.Errorf("delete edges for %s: %w", file.Path, err)
	}
	if err := s.deleteNodesByFile(ctx, tx, file.Path); err != nil {
		return fmt.Errorf("delete nodes for %s: %w", file.Path, err)
	}
	if err := s.upsertFile(ctx, tx, file); err != nil {
		return fmt.Errorf("upsert file %s: %w", file.Path, err)
	}
	for _, n := range nodes {
		if err := s.upsertNode(ctx, tx, n); err != nil {
			return fmt.Errorf("upsert node %s: %w", n.ID, err)
		}
	}
	for _, e := range edges {
		if err := s.upsertEdge(ctx, tx, e); err != nil {
			return fmt.Errorf("upsert edge %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteNodesByFile and DeleteEdgesByFile expose the per-file deletion
// primitives directly, for callers that need to clear a file's nodes or
// edges without DeleteFile's removal of the file record itself.
// Incremental sync removes vanished files through DeleteFile.
func (s *Store) DeleteNodesByFile(ctx context.Context, filePath string) error {
	return s.deleteNodesByFile(ctx, s.db, filePath)
}

func (s *Store) DeleteEdgesByFile(ctx context.Context, filePath string) error {
	return s.deleteEdgesByFile(ctx, s.db, filePath)
}
