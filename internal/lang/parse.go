package lang

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parse drives an incremental tree-sitter parser over source bytes for the
// given language and returns the resulting concrete syntax tree. The tree
// exposes indexed child access, named-field lookup, and byte/line/column
// ranges via the smacker/go-tree-sitter Node API directly; callers walk it
// without an intermediate representation.
func Parse(ctx context.Context, source []byte, name Name) (*sitter.Tree, error) {
	grammar := Grammar(name)
	if grammar == nil {
		return nil, fmt.Errorf("lang: no grammar for %q", name)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("lang: parse failed: %w", err)
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("lang: parser produced no tree")
	}
	return tree, nil
}
