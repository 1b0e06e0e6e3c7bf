package extractor

import (
	"context"
	"testing"

	"github.com/heefoo/codexray/internal/lang"
	"github.com/heefoo/codexray/internal/model"
)

func extractSource(t *testing.T, source string, language lang.Name) *Result {
	t.Helper()
	tree, err := lang.Parse(context.Background(), []byte(source), language)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return Extract(tree, []byte(source), "a."+string(language), string(language))
}

func TestBasicCallEdge(t *testing.T) {
	src := `package main

func caller() {
	callee()
}

func callee() {
}
`
	r := extractSource(t, src, lang.Go)

	var caller, callee *model.Node
	for i := range r.Nodes {
		switch r.Nodes[i].Name {
		case "caller":
			caller = &r.Nodes[i]
		case "callee":
			callee = &r.Nodes[i]
		}
	}
	if caller == nil || callee == nil {
		t.Fatalf("expected both caller and callee nodes, got %+v", r.Nodes)
	}
	if caller.Kind != model.KindFunction || callee.Kind != model.KindFunction {
		t.Fatalf("expected function kind, got caller=%s callee=%s", caller.Kind, callee.Kind)
	}

	found := false
	for _, ref := range r.Unresolved {
		if ref.SourceNodeID == caller.ID && ref.ReferencedName == "callee" && ref.Kind == model.EdgeCalls {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an unresolved call reference from caller to callee, got %+v", r.Unresolved)
	}
}

func TestPythonMethodPromotion(t *testing.T) {
	src := `class Greeter:
    def greet(self):
        pass

def standalone():
    pass
`
	r := extractSource(t, src, lang.Python)

	var greet, standalone *model.Node
	for i := range r.Nodes {
		switch r.Nodes[i].Name {
		case "greet":
			greet = &r.Nodes[i]
		case "standalone":
			standalone = &r.Nodes[i]
		}
	}
	if greet == nil || standalone == nil {
		t.Fatalf("expected both greet and standalone nodes, got %+v", r.Nodes)
	}
	if greet.Kind != model.KindMethod {
		t.Fatalf("expected greet to be promoted to method, got %s", greet.Kind)
	}
	if standalone.Kind != model.KindFunction {
		t.Fatalf("expected standalone to remain a function, got %s", standalone.Kind)
	}
}

func TestHookAndTestNaming(t *testing.T) {
	src := `function useCounter() {}
function testSomething() {}
`
	r := extractSource(t, src, lang.JavaScript)

	kinds := map[string]model.NodeKind{}
	for _, n := range r.Nodes {
		kinds[n.Name] = n.Kind
	}
	if kinds["useCounter"] != model.KindHook {
		t.Fatalf("expected useCounter to be a hook, got %s", kinds["useCounter"])
	}
	if kinds["testSomething"] != model.KindTest {
		t.Fatalf("expected testSomething to be a test, got %s", kinds["testSomething"])
	}
}

func TestComponentNaming(t *testing.T) {
	src := `function Button() {}
`
	r := extractSource(t, src, lang.TypeScript)
	var button *model.Node
	for i := range r.Nodes {
		if r.Nodes[i].Name == "Button" {
			button = &r.Nodes[i]
		}
	}
	if button == nil {
		t.Fatalf("expected Button node, got %+v", r.Nodes)
	}
	if button.Kind != model.KindComponent {
		t.Fatalf("expected Button to be a component, got %s", button.Kind)
	}
}
