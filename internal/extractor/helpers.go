package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var nameFields = []string{"name", "identifier", "type_identifier", "property_name"}
var nameChildTypes = map[string]bool{"identifier": true, "type_identifier": true, "property_identifier": true}

// discoverName finds a symbol's display name following the tiered rule:
// named-field children first, then a direct named child of a known
// identifier-like type, then one more level of search for "identifier".
func discoverName(node *sitter.Node, content []byte) (string, bool) {
	for _, field := range nameFields {
		if n := node.ChildByFieldName(field); n != nil {
			return n.Content(content), true
		}
	}

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		c := node.NamedChild(i)
		if c != nil && nameChildTypes[c.Type()] {
			return c.Content(content), true
		}
	}

	for i := 0; i < count; i++ {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		nc := int(c.NamedChildCount())
		for j := 0; j < nc; j++ {
			gc := c.NamedChild(j)
			if gc != nil && gc.Type() == "identifier" {
				return gc.Content(content), true
			}
		}
	}

	return "", false
}

// isExported implements the two-part exported heuristic: an enclosing
// export/declaration wrapper, or a literal pub/public/export prefix on
// the symbol's own source text.
func isExported(node *sitter.Node, content []byte) bool {
	if parent := node.Parent(); parent != nil {
		t := strings.ToLower(parent.Type())
		if strings.Contains(t, "export") || strings.Contains(t, "public") {
			return true
		}
	}
	start := node.StartByte()
	end := start + 20
	if int(end) > len(content) {
		end = uint32(len(content))
	}
	prefix := string(content[start:end])
	return strings.HasPrefix(prefix, "pub ") || strings.HasPrefix(prefix, "public ") || strings.HasPrefix(prefix, "export ")
}

// signature takes the substring from symbol start to the first "{",
// falling back to the first ":" within 200 chars, then the first line.
func signature(node *sitter.Node, content []byte) string {
	text := node.Content(content)
	var sig string
	if idx := strings.IndexByte(text, '{'); idx >= 0 {
		sig = text[:idx]
	} else if idx := strings.IndexByte(text, ':'); idx >= 0 && idx < 200 {
		sig = text[:idx]
	} else if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		sig = text[:idx]
	} else {
		sig = text
	}
	sig = strings.TrimSpace(sig)
	return truncate(sig, maxSignatureLen)
}

// docstring prefers a preceding comment-like sibling, then a leading
// string-expression child.
func docstring(node *sitter.Node, rules *langRules, content []byte) string {
	if rules != nil {
		if prev := node.PrevNamedSibling(); prev != nil && rules.comment[prev.Type()] {
			return truncate(cleanComment(prev.Content(content)), maxDocstringLen)
		}
	}
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		if strings.Contains(c.Type(), "string") {
			return truncate(cleanComment(c.Content(content)), maxDocstringLen)
		}
		// only the leading child counts
		break
	}
	return ""
}

func cleanComment(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"///", "//!", "//", "/**", "/*", "#", ";;", ";"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	s = strings.TrimSuffix(s, "*/")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

var complexityOperators = []string{"&&", "||", "?"}

func complexity(node *sitter.Node, content []byte) int {
	text := node.Content(content)
	n := 1
	n += len(complexityPattern.FindAllString(text, -1))
	for _, op := range complexityOperators {
		n += strings.Count(text, op)
	}
	if n > 100 {
		n = 100
	}
	return n
}

var calleeFields = []string{"function", "name", "method"}

// calleeName extracts the callee's textual name from a call-like node,
// trying common tree-sitter field names before falling back to the last
// identifier among its children.
func calleeName(node *sitter.Node, content []byte) string {
	for _, field := range calleeFields {
		if n := node.ChildByFieldName(field); n != nil {
			return lastSegment(n.Content(content))
		}
	}
	count := int(node.NamedChildCount())
	for i := count - 1; i >= 0; i-- {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		if c.Type() == "identifier" || c.Type() == "type_identifier" || c.Type() == "property_identifier" {
			return c.Content(content)
		}
	}
	return ""
}

// lastSegment strips a member/namespace prefix (a.b.callee, a::b::callee)
// so that e.g. "obj.method()" resolves against the bare method name.
func lastSegment(s string) string {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"::", "."} {
		if idx := strings.LastIndex(s, sep); idx >= 0 {
			s = s[idx+len(sep):]
		}
	}
	return s
}
