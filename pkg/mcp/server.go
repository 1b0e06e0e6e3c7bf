// Package mcp exposes the query engine and context builder over the Model
// Context Protocol for the `serve` CLI verb: every tool is a thin decode/
// call/marshal wrapper, so AI coding assistants driving this engine see
// sixteen tools backed directly by the query engine and context builder.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/heefoo/codexray/internal/contextbuilder"
	"github.com/heefoo/codexray/internal/engineerr"
	"github.com/heefoo/codexray/internal/model"
	"github.com/heefoo/codexray/internal/query"
	"github.com/heefoo/codexray/internal/store"
)

// Server wraps a query Engine and a Context Builder behind the canonical
// MCP tool set.
type Server struct {
	engine  *query.Engine
	builder *contextbuilder.Builder
	mcp     *server.MCPServer
}

// New constructs the MCP server and registers every tool.
func New(engine *query.Engine, builder *contextbuilder.Builder) *Server {
	s := &Server{engine: engine, builder: builder}
	s.mcp = server.NewMCPServer("codexray", "0.1.0", server.WithToolCapabilities(true))
	s.registerTools()
	return s
}

// ServeStdio runs the server over stdio until the transport closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "search_symbols",
		Description: "Keyword search over symbol names, qualified names, signatures, and docstrings. Use to locate a symbol by approximate name.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{"type": "string", "description": "Search text"},
				"limit": map[string]interface{}{"type": "integer", "description": "Max results, default 20"},
			},
			Required: []string{"query"},
		},
	}, s.handleSearchSymbols)

	s.mcp.AddTool(mcp.Tool{
		Name:        "semantic_search",
		Description: "TF-IDF ranked search over symbol text, weighted toward name matches over docstring matches. Use for conceptual queries that don't name an exact identifier.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
				"limit": map[string]interface{}{"type": "integer"},
			},
			Required: []string{"query"},
		},
	}, s.handleSemanticSearch)

	s.mcp.AddTool(mcp.Tool{
		Name:        "build_context",
		Description: "Assemble a scored, graph-expanded bundle of symbols relevant to a task description, with source snippets and caller/callee names. Use before making a code change to gather the surrounding context.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query":        map[string]interface{}{"type": "string"},
				"max_nodes":    map[string]interface{}{"type": "integer"},
				"include_code": map[string]interface{}{"type": "boolean"},
			},
			Required: []string{"query"},
		},
	}, s.handleBuildContext)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_node",
		Description: "Look up a single symbol by id or by name. If name matches more than one symbol and file_path isn't specific enough to disambiguate, returns a candidate list instead of guessing.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id":        map[string]interface{}{"type": "string"},
				"name":      map[string]interface{}{"type": "string"},
				"file_path": map[string]interface{}{"type": "string", "description": "Optional substring filter to disambiguate name matches"},
			},
		},
	}, s.handleGetNode)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_callers",
		Description: "List symbols that call the given symbol.",
		InputSchema: idArgSchema("Symbol to inspect"),
	}, s.handleGetCallers)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_callees",
		Description: "List symbols called by the given symbol.",
		InputSchema: idArgSchema("Symbol to inspect"),
	}, s.handleGetCallees)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_impact_radius",
		Description: "Reverse dependency walk: everything that would be affected by a change to this symbol, up to max_depth hops.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id":        map[string]interface{}{"type": "string"},
				"max_depth": map[string]interface{}{"type": "integer", "description": "default 3"},
			},
			Required: []string{"id"},
		},
	}, s.handleImpactRadius)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_dependencies",
		Description: "List every symbol this symbol depends on, grouped by relationship kind (calls, imports, extends, ...).",
		InputSchema: idArgSchema("Symbol to inspect"),
	}, s.handleGetDependencies)

	s.mcp.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Shortest path between two symbols over the undirected union of all relationships.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"from_id":   map[string]interface{}{"type": "string"},
				"to_id":     map[string]interface{}{"type": "string"},
				"max_depth": map[string]interface{}{"type": "integer", "description": "default 10"},
			},
			Required: []string{"from_id", "to_id"},
		},
	}, s.handleFindPath)

	s.mcp.AddTool(mcp.Tool{
		Name:        "find_circular_deps",
		Description: "Report import/call/extends/implements cycles, capped at 20.",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}},
	}, s.handleFindCircularDeps)

	s.mcp.AddTool(mcp.Tool{
		Name:        "find_dead_code",
		Description: "Symbols of the given kinds with no incoming reference of a kind that would keep them reachable.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kinds":         map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				"exported_only": map[string]interface{}{"type": "boolean", "description": "When false, also restrict results to non-exported symbols"},
			},
		},
	}, s.handleFindDeadCode)

	s.mcp.AddTool(mcp.Tool{
		Name:        "find_hotspots",
		Description: "Symbols ranked by combined in-degree and out-degree, the most heavily connected points in the graph.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"limit": map[string]interface{}{"type": "integer", "description": "default 10"}},
		},
	}, s.handleFindHotspots)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_complexity_report",
		Description: "Symbols at or above a cyclomatic complexity threshold, descending.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"threshold": map[string]interface{}{"type": "integer", "description": "default 10"}},
		},
	}, s.handleComplexityReport)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_file_tree",
		Description: "Tracked files grouped by directory.",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}},
	}, s.handleFileTree)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_status",
		Description: "Index size: file, node, and edge counts, with a per-kind node breakdown.",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}},
	}, s.handleStatus)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_overview",
		Description: "Combined status and file tree, a starting point for orienting in an unfamiliar codebase.",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}},
	}, s.handleOverview)
}

func idArgSchema(desc string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"id": map[string]interface{}{"type": "string", "description": desc},
		},
		Required: []string{"id"},
	}
}

func (s *Server) handleSearchSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, _ := req.Params.Arguments["query"].(string)
	if q == "" {
		return errorResult("query is required")
	}
	nodes, err := s.engine.SearchNodes(ctx, q, intArg(req, "limit", 0))
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{"results": nodes, "count": len(nodes)})
}

func (s *Server) handleSemanticSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, _ := req.Params.Arguments["query"].(string)
	if q == "" {
		return errorResult("query is required")
	}
	nodes, err := s.engine.SemanticSearch(ctx, q, intArg(req, "limit", 0))
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{"results": nodes, "count": len(nodes)})
}

func (s *Server) handleBuildContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, _ := req.Params.Arguments["query"].(string)
	if q == "" {
		return errorResult("query is required")
	}
	includeCode, _ := req.Params.Arguments["include_code"].(bool)
	result, err := s.builder.Build(ctx, contextbuilder.Request{
		Query:       q,
		MaxNodes:    intArg(req, "max_nodes", 0),
		IncludeCode: includeCode,
	})
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(result)
}

func (s *Server) handleGetNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.Params.Arguments["id"].(string)
	name, _ := req.Params.Arguments["name"].(string)
	filePath, _ := req.Params.Arguments["file_path"].(string)

	if id != "" {
		n, err := s.engine.GetNode(ctx, id)
		if err != nil {
			return errorResult(err.Error())
		}
		if n == nil {
			return errorResult(engineerr.ErrNotFound.Error())
		}
		return jsonResult(n)
	}
	if name == "" {
		return errorResult("id or name is required")
	}

	candidates, err := s.engine.GetNodesByName(ctx, name, 20)
	if err != nil {
		return errorResult(err.Error())
	}
	if filePath != "" {
		filtered := candidates[:0]
		for _, c := range candidates {
			if strings.Contains(c.FilePath, filePath) {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}
	switch len(candidates) {
	case 0:
		return errorResult(engineerr.ErrNotFound.Error())
	case 1:
		return jsonResult(candidates[0])
	default:
		ambiguous := engineerr.NewAmbiguousError(name, toCandidates(candidates))
		return jsonResult(map[string]interface{}{
			"error":      true,
			"message":    ambiguous.Error(),
			"candidates": ambiguous.Candidates,
		})
	}
}

func toCandidates(nodes []model.Node) []engineerr.Candidate {
	out := make([]engineerr.Candidate, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, engineerr.Candidate{
			Kind:          string(n.Kind),
			QualifiedName: n.QualifiedName,
			FilePath:      n.FilePath,
			StartLine:     n.StartLine,
		})
	}
	return out
}

func (s *Server) handleGetCallers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.Params.Arguments["id"].(string)
	nodes, err := s.engine.GetCallers(ctx, id, 0)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{"results": nodes, "count": len(nodes)})
}

func (s *Server) handleGetCallees(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.Params.Arguments["id"].(string)
	nodes, err := s.engine.GetCallees(ctx, id, 0)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{"results": nodes, "count": len(nodes)})
}

func (s *Server) handleImpactRadius(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.Params.Arguments["id"].(string)
	if id == "" {
		return errorResult("id is required")
	}
	entries, err := s.engine.GetImpactRadius(ctx, id, intArg(req, "max_depth", 0))
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{"results": entries, "count": len(entries)})
}

func (s *Server) handleGetDependencies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.Params.Arguments["id"].(string)
	deps, err := s.engine.GetDependencies(ctx, id)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(deps)
}

func (s *Server) handleFindPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, _ := req.Params.Arguments["from_id"].(string)
	to, _ := req.Params.Arguments["to_id"].(string)
	if from == "" || to == "" {
		return errorResult("from_id and to_id are required")
	}
	path, err := s.engine.FindPath(ctx, from, to, intArg(req, "max_depth", 0))
	if err != nil {
		return errorResult(err.Error())
	}
	if path == nil {
		return jsonResult(map[string]interface{}{"reachable": false})
	}
	return jsonResult(map[string]interface{}{"reachable": true, "path": path})
}

func (s *Server) handleFindCircularDeps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycles, err := s.engine.FindCircularDeps(ctx)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{"cycles": cycles, "count": len(cycles)})
}

func (s *Server) handleFindDeadCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.DeadCodeFilter{}
	if kinds, ok := req.Params.Arguments["kinds"].([]interface{}); ok {
		for _, k := range kinds {
			if ks, ok := k.(string); ok {
				filter.Kinds = append(filter.Kinds, model.NodeKind(ks))
			}
		}
	}
	if exportedOnly, ok := req.Params.Arguments["exported_only"].(bool); ok {
		filter.ExportedOnly = exportedOnly
	}
	nodes, err := s.engine.FindDeadCode(ctx, filter)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{"results": nodes, "count": len(nodes)})
}

func (s *Server) handleFindHotspots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hotspots, err := s.engine.FindHotspots(ctx, intArg(req, "limit", 0))
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{"results": hotspots, "count": len(hotspots)})
}

func (s *Server) handleComplexityReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threshold := intArg(req, "threshold", 10)
	nodes, err := s.engine.GetComplexityReport(ctx, threshold)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{"results": nodes, "count": len(nodes)})
}

func (s *Server) handleFileTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tree, err := s.engine.GetFileTree(ctx)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(tree)
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.GetStats(ctx)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(stats)
}

func (s *Server) handleOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.GetStats(ctx)
	if err != nil {
		return errorResult(err.Error())
	}
	tree, err := s.engine.GetFileTree(ctx)
	if err != nil {
		return errorResult(err.Error())
	}
	dirs := make([]string, 0, len(tree))
	for d := range tree {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return jsonResult(map[string]interface{}{"stats": stats, "directories": dirs, "file_tree": tree})
}

func intArg(req mcp.CallToolRequest, key string, fallback int) int {
	switch v := req.Params.Arguments[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(data)}},
	}, nil
}

func errorResult(msg string) (*mcp.CallToolResult, error) {
	data, _ := json.MarshalIndent(map[string]interface{}{"error": true, "message": msg}, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(data)}},
		IsError: true,
	}, nil
}
