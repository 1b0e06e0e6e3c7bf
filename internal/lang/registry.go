// Package lang maps file extensions to language descriptors and lazily
// loads the corresponding tree-sitter grammar, caching it for reuse. The
// registry and grammar cache are process-wide, initialized lazily, and
// intended for single-threaded reuse per the concurrency model: a single
// store/indexer drives one call at a time.
package lang

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/heefoo/codexray/internal/lang/grammars/clojure_lang"
	"github.com/heefoo/codexray/internal/lang/grammars/commonlisp_lang"
	"github.com/heefoo/codexray/internal/lang/grammars/julia_lang"
)

// Name is a registry language name, used throughout the extractor to pick
// per-language node classification rules.
type Name string

const (
	Go         Name = "go"
	Python     Name = "python"
	JavaScript Name = "javascript"
	TypeScript Name = "typescript"
	TSX        Name = "tsx"
	Rust       Name = "rust"
	Java       Name = "java"
	C          Name = "c"
	Cpp        Name = "cpp"
	Ruby       Name = "ruby"
	Clojure    Name = "clojure"
	CommonLisp Name = "commonlisp"
	Julia      Name = "julia"
	Unknown    Name = ""
)

// extensions maps a recognized file extension (including the leading dot)
// to its language name. An extension absent from this table yields
// Unknown and the file is silently skipped.
var extensions = map[string]Name{
	".go":    Go,
	".py":    Python,
	".pyw":   Python,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".mjs":   JavaScript,
	".cjs":   JavaScript,
	".ts":    TypeScript,
	".mts":   TypeScript,
	".tsx":   TSX,
	".rs":    Rust,
	".java":  Java,
	".c":     C,
	".h":     C,
	".cpp":   Cpp,
	".cc":    Cpp,
	".cxx":   Cpp,
	".hpp":   Cpp,
	".hh":    Cpp,
	".rb":    Ruby,
	".clj":   Clojure,
	".cljs":  Clojure,
	".cljc":  Clojure,
	".lisp":  CommonLisp,
	".lsp":   CommonLisp,
	".cl":    CommonLisp,
	".jl":    Julia,
}

// DetectLanguage returns the registry name for a file path's extension, or
// Unknown if the extension isn't recognized.
func DetectLanguage(path string) Name {
	ext := strings.ToLower(filepath.Ext(path))
	return extensions[ext]
}

// IsSupported reports whether a file path's extension is registered.
func IsSupported(path string) bool {
	return DetectLanguage(path) != Unknown
}

var (
	cacheMu sync.Mutex
	cache   = map[Name]*sitter.Language{}
)

// Grammar returns the cached tree-sitter grammar for a language name,
// loading it on first use.
func Grammar(name Name) *sitter.Language {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if g, ok := cache[name]; ok {
		return g
	}
	var g *sitter.Language
	switch name {
	case Go:
		g = golang.GetLanguage()
	case Python:
		g = python.GetLanguage()
	case JavaScript:
		g = javascript.GetLanguage()
	case TypeScript:
		g = typescript.GetLanguage()
	case TSX:
		g = tsx.GetLanguage()
	case Rust:
		g = rust.GetLanguage()
	case Java:
		g = java.GetLanguage()
	case C:
		g = c.GetLanguage()
	case Cpp:
		g = cpp.GetLanguage()
	case Ruby:
		g = ruby.GetLanguage()
	case Clojure:
		g = clojure_lang.GetLanguage()
	case CommonLisp:
		g = commonlisp_lang.GetLanguage()
	case Julia:
		g = julia_lang.GetLanguage()
	default:
		return nil
	}
	cache[name] = g
	return g
}
