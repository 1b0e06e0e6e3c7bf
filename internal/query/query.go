// Package query is the single entry point the CLI dispatcher and the MCP
// tool surface call into: it wraps the graph store's query primitives with
// the defaults and limit-trimming the external interface promises.
package query

import (
	"context"

	"github.com/heefoo/codexray/internal/model"
	"github.com/heefoo/codexray/internal/store"
)

const defaultLimit = 20

// Engine answers keyword/semantic search, graph traversal, and report
// queries against a Store.
type Engine struct {
	Store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{Store: s}
}

func (e *Engine) SearchNodes(ctx context.Context, query string, limit int) ([]model.Node, error) {
	return e.Store.SearchNodes(ctx, query, orDefault(limit))
}

func (e *Engine) SemanticSearch(ctx context.Context, query string, limit int) ([]model.Node, error) {
	return e.Store.SemanticSearch(ctx, query, orDefault(limit))
}

func (e *Engine) GetNode(ctx context.Context, id string) (*model.Node, error) {
	return e.Store.GetNode(ctx, id)
}

func (e *Engine) GetNodesByName(ctx context.Context, name string, limit int) ([]model.Node, error) {
	return e.Store.GetNodesByName(ctx, name, orDefault(limit))
}

func (e *Engine) GetCallers(ctx context.Context, id string, limit int) ([]model.Node, error) {
	nodes, err := e.Store.GetCallers(ctx, id)
	return truncate(nodes, limit), err
}

func (e *Engine) GetCallees(ctx context.Context, id string, limit int) ([]model.Node, error) {
	nodes, err := e.Store.GetCallees(ctx, id)
	return truncate(nodes, limit), err
}

func (e *Engine) GetDependencies(ctx context.Context, id string) (map[model.EdgeKind][]model.Node, error) {
	return e.Store.GetDependencies(ctx, id)
}

func (e *Engine) GetDependents(ctx context.Context, id string) (map[model.EdgeKind][]model.Node, error) {
	return e.Store.GetDependents(ctx, id)
}

func (e *Engine) GetChildren(ctx context.Context, id string) ([]model.Node, error) {
	return e.Store.GetChildren(ctx, id)
}

const defaultImpactDepth = 3

func (e *Engine) GetImpactRadius(ctx context.Context, id string, maxDepth int) ([]store.ImpactEntry, error) {
	if maxDepth <= 0 {
		maxDepth = defaultImpactDepth
	}
	return e.Store.GetImpactRadius(ctx, id, maxDepth)
}

const defaultPathDepth = 10

func (e *Engine) FindPath(ctx context.Context, fromID, toID string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 {
		maxDepth = defaultPathDepth
	}
	return e.Store.FindPath(ctx, fromID, toID, maxDepth)
}

func (e *Engine) FindCircularDeps(ctx context.Context) ([][]string, error) {
	return e.Store.FindCircularDeps(ctx)
}

func (e *Engine) FindDeadCode(ctx context.Context, filter store.DeadCodeFilter) ([]model.Node, error) {
	return e.Store.FindDeadCode(ctx, filter)
}

const defaultHotspotLimit = 10

func (e *Engine) FindHotspots(ctx context.Context, limit int) ([]store.Hotspot, error) {
	if limit <= 0 {
		limit = defaultHotspotLimit
	}
	return e.Store.FindHotspots(ctx, limit)
}

func (e *Engine) GetComplexityReport(ctx context.Context, threshold int) ([]model.Node, error) {
	return e.Store.GetComplexityReport(ctx, threshold)
}

func (e *Engine) GetFileTree(ctx context.Context) (map[string][]string, error) {
	return e.Store.GetFileTree(ctx)
}

func (e *Engine) GetStats(ctx context.Context) (*store.Stats, error) {
	return e.Store.Stats(ctx)
}

func (e *Engine) Reset(ctx context.Context) error {
	return e.Store.Reset(ctx)
}

func (e *Engine) Vacuum(ctx context.Context) error {
	return e.Store.Vacuum(ctx)
}

func (e *Engine) Close() error {
	return e.Store.Close()
}

func orDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func truncate(nodes []model.Node, limit int) []model.Node {
	limit = orDefault(limit)
	if len(nodes) > limit {
		return nodes[:limit]
	}
	return nodes
}
