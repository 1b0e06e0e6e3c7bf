// Package contextbuilder assembles a scored, graph-expanded bundle of
// symbols relevant to a natural-language query, enriched with source
// snippets and caller/callee names, for the `context` CLI verb and the
// `build_context` MCP tool.
package contextbuilder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/heefoo/codexray/internal/model"
	"github.com/heefoo/codexray/internal/query"
	"github.com/heefoo/codexray/internal/tokenizer"
)

const (
	DefaultMaxNodes      = 25
	DefaultMaxCodeLength = 500
	keywordSearchLimit   = 50
	expansionSeedCount   = 10
	maxNeighborNames     = 5
)

var priorityPrefixes = []string{"main", "index", "app", "server", "handler", "controller", "route", "api"}

// Request configures a single context build.
type Request struct {
	Query       string
	MaxNodes    int
	MaxCode     int
	IncludeCode bool
	Kind        model.NodeKind // empty: no kind filter
	FilePath    string         // substring filter, empty: no filter
}

// Symbol is one enriched node in the result.
type Symbol struct {
	Node    model.Node
	Score   float64
	Code    string
	Callers []string
	Callees []string
}

// Result is the full context build output.
type Result struct {
	Query   string
	Symbols []Symbol
}

// Builder builds context bundles against a query Engine, reading source
// snippets from files rooted at Root.
type Builder struct {
	Engine *query.Engine
	Root   string
}

func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	maxNodes := req.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	maxCode := req.MaxCode
	if maxCode <= 0 {
		maxCode = DefaultMaxCodeLength
	}

	keywords := tokenizer.Tokenize(req.Query)
	scores := map[string]float64{}
	byID := map[string]model.Node{}

	for _, kw := range keywords {
		candidates, err := b.Engine.SearchNodes(ctx, kw, keywordSearchLimit)
		if err != nil {
			return nil, err
		}
		for _, n := range candidates {
			if req.Kind != "" && n.Kind != req.Kind {
				continue
			}
			if req.FilePath != "" && !strings.Contains(n.FilePath, req.FilePath) {
				continue
			}
			s := keywordScore(n, kw)
			if s > scores[n.ID] {
				scores[n.ID] = s
			}
			byID[n.ID] = n
		}
	}

	ranked := rankedIDs(scores)
	seedCount := expansionSeedCount
	if seedCount > len(ranked) {
		seedCount = len(ranked)
	}
	for _, id := range ranked[:seedCount] {
		if err := b.expand(ctx, id, scores, byID); err != nil {
			return nil, err
		}
	}

	ranked = rankedIDs(scores)
	if len(ranked) > maxNodes {
		ranked = ranked[:maxNodes]
	}

	symbols := make([]Symbol, 0, len(ranked))
	for _, id := range ranked {
		n := byID[id]
		sym := Symbol{Node: n, Score: scores[id]}
		if req.IncludeCode {
			sym.Code = b.readSnippet(n, maxCode)
		}
		callers, err := b.Engine.GetCallers(ctx, id, maxNeighborNames)
		if err != nil {
			return nil, err
		}
		callees, err := b.Engine.GetCallees(ctx, id, maxNeighborNames)
		if err != nil {
			return nil, err
		}
		sym.Callers = qualifiedNames(callers)
		sym.Callees = qualifiedNames(callees)
		symbols = append(symbols, sym)
	}

	return &Result{Query: req.Query, Symbols: symbols}, nil
}

func (b *Builder) expand(ctx context.Context, id string, scores map[string]float64, byID map[string]model.Node) error {
	deps, err := b.Engine.GetDependencies(ctx, id)
	if err != nil {
		return err
	}
	for _, nodes := range deps {
		for _, n := range nodes {
			addIfAbsent(scores, byID, n, 0.5)
		}
	}

	dependents, err := b.Engine.GetDependents(ctx, id)
	if err != nil {
		return err
	}
	for _, nodes := range dependents {
		for _, n := range nodes {
			addIfAbsent(scores, byID, n, 0.4)
		}
	}
	return nil
}

func addIfAbsent(scores map[string]float64, byID map[string]model.Node, n model.Node, score float64) {
	if _, ok := scores[n.ID]; ok {
		return
	}
	scores[n.ID] = score
	byID[n.ID] = n
}

func rankedIDs(scores map[string]float64) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func keywordScore(n model.Node, keyword string) float64 {
	score := 0.0
	lowerName := strings.ToLower(n.Name)
	lowerKeyword := strings.ToLower(keyword)

	if lowerName == lowerKeyword {
		score += 10
	} else if strings.Contains(lowerName, lowerKeyword) {
		score += 5
	}
	if strings.Contains(strings.ToLower(n.QualifiedName), lowerKeyword) {
		score += 3
	}
	if strings.Contains(strings.ToLower(n.Signature), lowerKeyword) {
		score += 2
	}
	if strings.Contains(strings.ToLower(n.Docstring), lowerKeyword) {
		score += 2
	}
	if n.Exported {
		score += 2
	}
	switch n.Kind {
	case model.KindClass, model.KindInterface, model.KindComponent:
		score += 1
	}
	for _, prefix := range priorityPrefixes {
		if strings.HasPrefix(lowerName, prefix) {
			score += 1
			break
		}
	}
	return score
}

func qualifiedNames(nodes []model.Node) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.QualifiedName)
	}
	return names
}

// readSnippet slices [start_line-1, end_line) from disk and truncates to
// maxLen characters with a trailing ellipsis marker.
func (b *Builder) readSnippet(n model.Node, maxLen int) string {
	data, err := os.ReadFile(filepath.Join(b.Root, n.FilePath))
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	start := n.StartLine - 1
	end := n.EndLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	snippet := strings.Join(lines[start:end], "\n")
	if len(snippet) > maxLen {
		snippet = snippet[:maxLen] + "…"
	}
	return snippet
}

// FormatLines renders a structured-document view: one section per file,
// symbols listed with their 1-based inclusive line range.
func FormatLines(result *Result) string {
	byFile := map[string][]Symbol{}
	var files []string
	for _, sym := range result.Symbols {
		if _, ok := byFile[sym.Node.FilePath]; !ok {
			files = append(files, sym.Node.FilePath)
		}
		byFile[sym.Node.FilePath] = append(byFile[sym.Node.FilePath], sym)
	}
	sort.Strings(files)

	var b strings.Builder
	for _, file := range files {
		b.WriteString(file)
		b.WriteString(":\n")
		for _, sym := range byFile[file] {
			b.WriteString("  ")
			b.WriteString(string(sym.Node.Kind))
			b.WriteString(" ")
			b.WriteString(sym.Node.QualifiedName)
			b.WriteString(" (lines ")
			b.WriteString(strconv.Itoa(sym.Node.StartLine))
			b.WriteString("-")
			b.WriteString(strconv.Itoa(sym.Node.EndLine))
			b.WriteString(")\n")
		}
	}
	return b.String()
}

// CompactSymbol is the subset of a Symbol that survives a round trip
// through FormatCompact/ParseCompact.
type CompactSymbol struct {
	Kind          model.NodeKind
	QualifiedName string
	FilePath      string
	StartLine     int
	EndLine       int
	Score         float64
}

// FormatCompact renders the single-line-per-symbol listing: one
// tab-separated record per line, ordered the same as result.Symbols.
func FormatCompact(result *Result) string {
	var b strings.Builder
	for _, sym := range result.Symbols {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%d\t%d\t%s\n",
			sym.Node.Kind, sym.Node.QualifiedName, sym.Node.FilePath,
			sym.Node.StartLine, sym.Node.EndLine, strconv.FormatFloat(sym.Score, 'g', -1, 64))
	}
	return b.String()
}

// ParseCompact reverses FormatCompact, reconstructing the symbol list it
// encoded. It is the parse-back half of the compact format's round trip.
func ParseCompact(text string) ([]CompactSymbol, error) {
	var out []CompactSymbol
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			return nil, fmt.Errorf("contextbuilder: malformed compact line %q", line)
		}
		start, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("contextbuilder: bad start line %q: %w", fields[3], err)
		}
		end, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("contextbuilder: bad end line %q: %w", fields[4], err)
		}
		score, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return nil, fmt.Errorf("contextbuilder: bad score %q: %w", fields[5], err)
		}
		out = append(out, CompactSymbol{
			Kind:          model.NodeKind(fields[0]),
			QualifiedName: fields[1],
			FilePath:      fields[2],
			StartLine:     start,
			EndLine:       end,
			Score:         score,
		})
	}
	return out, nil
}
