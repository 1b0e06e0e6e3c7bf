// Package extractor walks a parsed syntax tree and lowers it into the
// uniform node/edge/unresolved-reference schema shared by every language.
package extractor

import (
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/heefoo/codexray/internal/model"
)

// Result is everything a single file's extraction produces.
type Result struct {
	Nodes     []model.Node
	Edges     []model.Edge
	Unresolved []model.UnresolvedRef
}

var (
	complexityPattern = regexp.MustCompile(`\b(if|else|for|while|switch|case|catch|match)\b`)
	importPathPattern = regexp.MustCompile(`(?:from\s+"([^"]+)"|import\s+"([^"]+)"|require\(\s*["']([^"']+)["']\s*\)|use\s+([\w:./\\-]+))`)

	componentNamePattern = regexp.MustCompile(`^[A-Z]`)
	hookNamePattern      = regexp.MustCompile(`^use[A-Z]`)
	testNamePattern      = regexp.MustCompile(`(?i)^(test|it|describe|spec)`)
)

const (
	maxSignatureLen = 300
	maxDocstringLen = 500
)

// Extract walks the tree in pre-order and returns every node, edge, and
// unresolved reference for the file.
func Extract(tree *sitter.Tree, content []byte, filePath string, language string) *Result {
	r := &Result{}
	root := tree.RootNode()

	fileNode := model.Node{
		Kind:          model.KindModule,
		Name:          fileBaseName(filePath),
		FilePath:      filePath,
		StartLine:     1,
		EndLine:       int(root.EndPoint().Row) + 1,
		Language:      language,
		Exported:      true,
		Complexity:    1,
	}
	fileNode.ID = model.NodeID(fileNode.Kind, filePath, fileNode.Name, fileNode.StartLine)
	fileNode.QualifiedName = model.QualifiedName(filePath, fileNode.Name)
	r.Nodes = append(r.Nodes, fileNode)

	rules := RulesFor(language)
	w := &walker{
		result:   r,
		content:  content,
		filePath: filePath,
		language: language,
		rules:    rules,
	}
	if rules != nil {
		w.walk(root, fileNode.ID)
	} else {
		w.walkGeneric(root, fileNode.ID)
	}
	return r
}

func fileBaseName(filePath string) string {
	base := filepath.Base(filePath)
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	return base
}

type walker struct {
	result   *Result
	content  []byte
	filePath string
	language string
	rules    *langRules
}

func (w *walker) text(node *sitter.Node) string {
	return node.Content(w.content)
}

func (w *walker) walk(node *sitter.Node, parentSymbolID string) {
	nodeType := node.Type()

	if rawKind, ok := w.rules.rawKind(nodeType); ok {
		if name, ok := discoverName(node, w.content); ok {
			kind := rawKind
			if kind == model.KindFunction && w.hasClassBodyParent(node) {
				kind = model.KindMethod
			}
			if kind == model.KindFunction {
				if (w.language == "typescript" || w.language == "javascript") && componentNamePattern.MatchString(name) {
					kind = model.KindComponent
				} else if hookNamePattern.MatchString(name) {
					kind = model.KindHook
				} else if testNamePattern.MatchString(name) {
					kind = model.KindTest
				}
			}

			startLine := int(node.StartPoint().Row) + 1
			endLine := int(node.EndPoint().Row) + 1
			n := model.Node{
				Kind:          kind,
				Name:          name,
				FilePath:      w.filePath,
				StartLine:     startLine,
				EndLine:       endLine,
				Language:      w.language,
				Signature:     signature(node, w.content),
				Docstring:     docstring(node, w.rules, w.content),
				Exported:      isExported(node, w.content),
				Complexity:    complexity(node, w.content),
			}
			n.ID = model.NodeID(n.Kind, n.FilePath, n.Name, n.StartLine)
			n.QualifiedName = model.QualifiedName(n.FilePath, n.Name)
			w.result.Nodes = append(w.result.Nodes, n)

			if parentSymbolID != "" {
				w.emitContains(parentSymbolID, n.ID)
			}

			w.walkChildren(node, n.ID)
			return
		}
	}

	if w.rules.call[nodeType] {
		w.emitUnresolvedCall(node, parentSymbolID)
	}
	if w.rules.imports[nodeType] {
		w.emitUnresolvedImports(node, parentSymbolID)
	}
	if w.rules.extends[nodeType] {
		w.emitUnresolvedExtends(node, parentSymbolID)
	}

	w.walkChildren(node, parentSymbolID)
}

// hasClassBodyParent reports whether node's immediate syntactic parent is
// one of the language's class-body node types, implementing the literal
// "parent is a class body" refinement rule.
func (w *walker) hasClassBodyParent(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil || !w.rules.classBody[parent.Type()] {
		return false
	}
	// Python's generic indented-suite node ("block") wraps every
	// compound statement body, not just classes, so it additionally
	// requires the grandparent to actually be a class.
	if parent.Type() == "block" {
		grandparent := parent.Parent()
		return grandparent != nil && w.rules.class[grandparent.Type()]
	}
	return true
}

func (w *walker) walkChildren(node *sitter.Node, parentSymbolID string) {
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		w.walk(child, parentSymbolID)
	}
}

func (w *walker) emitContains(parentID, childID string) {
	e := model.Edge{SourceID: parentID, TargetID: childID, Kind: model.EdgeContains}
	e.ID = model.EdgeID(e.SourceID, e.TargetID, e.Kind)
	w.result.Edges = append(w.result.Edges, e)
}

func (w *walker) emitUnresolvedCall(node *sitter.Node, sourceID string) {
	if sourceID == "" {
		return
	}
	name := calleeName(node, w.content)
	if name == "" {
		return
	}
	w.result.Unresolved = append(w.result.Unresolved, model.UnresolvedRef{
		SourceNodeID:   sourceID,
		ReferencedName: name,
		Kind:           model.EdgeCalls,
		FilePath:       w.filePath,
	})
}

func (w *walker) emitUnresolvedImports(node *sitter.Node, sourceID string) {
	if sourceID == "" {
		return
	}
	text := w.text(node)
	m := importPathPattern.FindStringSubmatch(text)
	if m == nil {
		return
	}
	var path string
	for _, g := range m[1:] {
		if g != "" {
			path = g
			break
		}
	}
	if path == "" {
		return
	}
	w.result.Unresolved = append(w.result.Unresolved, model.UnresolvedRef{
		SourceNodeID:   sourceID,
		ReferencedName: path,
		Kind:           model.EdgeImports,
		FilePath:       w.filePath,
	})
}

func (w *walker) emitUnresolvedExtends(node *sitter.Node, sourceID string) {
	if sourceID == "" {
		return
	}
	kind := model.EdgeExtends
	if strings.Contains(strings.ToLower(node.Type()), "implement") {
		kind = model.EdgeImplements
	}
	for _, name := range identifierNames(node, w.content) {
		w.result.Unresolved = append(w.result.Unresolved, model.UnresolvedRef{
			SourceNodeID:   sourceID,
			ReferencedName: name,
			Kind:           kind,
			FilePath:       w.filePath,
		})
	}
}

// walkGeneric handles languages with no dedicated rule table: any node
// whose type contains "function" or "method" is treated as a function
// symbol, mirroring the dedicated extractors' conventions.
func (w *walker) walkGeneric(node *sitter.Node, parentSymbolID string) {
	nodeType := node.Type()
	if strings.Contains(nodeType, "function") || strings.Contains(nodeType, "method") {
		if name, ok := discoverName(node, w.content); ok {
			startLine := int(node.StartPoint().Row) + 1
			n := model.Node{
				Kind:       model.KindFunction,
				Name:       name,
				FilePath:   w.filePath,
				StartLine:  startLine,
				EndLine:    int(node.EndPoint().Row) + 1,
				Language:   w.language,
				Signature:  signature(node, w.content),
				Exported:   isExported(node, w.content),
				Complexity: complexity(node, w.content),
			}
			n.ID = model.NodeID(n.Kind, n.FilePath, n.Name, n.StartLine)
			n.QualifiedName = model.QualifiedName(n.FilePath, n.Name)
			w.result.Nodes = append(w.result.Nodes, n)
			if parentSymbolID != "" {
				w.emitContains(parentSymbolID, n.ID)
			}
			count := int(node.ChildCount())
			for i := 0; i < count; i++ {
				if c := node.Child(i); c != nil && c.IsNamed() {
					w.walkGeneric(c, n.ID)
				}
			}
			return
		}
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		if c := node.Child(i); c != nil && c.IsNamed() {
			w.walkGeneric(c, parentSymbolID)
		}
	}
}

func identifierNames(node *sitter.Node, content []byte) []string {
	var names []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		t := n.Type()
		if t == "identifier" || t == "type_identifier" || t == "constant" || t == "scoped_identifier" {
			names = append(names, n.Content(content))
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			if c := n.Child(i); c != nil && c.IsNamed() {
				walk(c)
			}
		}
	}
	walk(node)
	return names
}
