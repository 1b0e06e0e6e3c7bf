package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heefoo/codexray/internal/contextbuilder"
	"github.com/heefoo/codexray/internal/query"
	"github.com/heefoo/codexray/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	eng := query.New(st)
	builder := &contextbuilder.Builder{Engine: eng, Root: root}
	return New(eng, builder)
}

func TestErrorResultIsValidJSON(t *testing.T) {
	result, err := errorResult("boom")
	if err != nil {
		t.Fatalf("errorResult should not return error, got: %v", err)
	}
	if !result.IsError {
		t.Error("expected IsError true")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &parsed); err != nil {
		t.Fatalf("result text should be valid JSON: %v", err)
	}
	if parsed["message"] != "boom" {
		t.Errorf("expected message %q, got %v", "boom", parsed["message"])
	}
}

func TestSearchSymbolsRequiresQuery(t *testing.T) {
	s := newTestServer(t)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{}

	result, err := s.handleSearchSymbols(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result when query is missing")
	}
}

func TestGetNodeReportsNotFound(t *testing.T) {
	s := newTestServer(t)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"id": "missing"}

	result, err := s.handleGetNode(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for a missing id")
	}
}
