package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Node is a single extracted symbol.
type Node struct {
	ID            string
	Kind          NodeKind
	Name          string
	QualifiedName string
	FilePath      string
	StartLine     int
	EndLine       int
	Language      string
	Signature     string
	Docstring     string
	Exported      bool
	Complexity    int
	Metadata      string // free-form, JSON-encoded by callers that need structure
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	ID       string
	SourceID string
	TargetID string
	Kind     EdgeKind
	Metadata string
}

// UnresolvedRef is a textual reference discovered during extraction, not
// yet tied to a concrete target node.
type UnresolvedRef struct {
	SourceNodeID   string
	ReferencedName string
	Kind           EdgeKind
	FilePath       string
}

// FileRecord tracks the indexed state of one source file.
type FileRecord struct {
	Path        string
	Hash        string
	Language    string
	IndexedAt   int64
	SymbolCount int
	LineCount   int
}

// NodeID computes the first 16 hex chars of SHA-256 over
// (kind, file_path, name, start_line), per the identifier discipline.
func NodeID(kind NodeKind, filePath, name string, startLine int) string {
	h := sha256.New()
	h.Write([]byte(string(kind)))
	h.Write([]byte(filePath))
	h.Write([]byte(name))
	h.Write([]byte(strconv.Itoa(startLine)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// EdgeID computes the first 16 hex chars of SHA-256 over
// (source_id, "->", target_id, ":", kind).
func EdgeID(sourceID, targetID string, kind EdgeKind) string {
	h := sha256.New()
	h.Write([]byte(sourceID))
	h.Write([]byte("->"))
	h.Write([]byte(targetID))
	h.Write([]byte(":"))
	h.Write([]byte(string(kind)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

var entryPointStems = map[string]bool{"index": true, "main": true, "mod": true}

// QualifiedName derives the dotted qualified name for a symbol: the last
// three path segments (extension stripped, entry-point stems dropped when
// they are the final segment), joined by "." with the symbol name.
func QualifiedName(filePath, name string) string {
	filePath = strings.ReplaceAll(filePath, "\\", "/")
	segments := strings.Split(strings.Trim(filePath, "/"), "/")
	if len(segments) > 3 {
		segments = segments[len(segments)-3:]
	}
	if len(segments) > 0 {
		last := segments[len(segments)-1]
		if dot := strings.LastIndex(last, "."); dot > 0 {
			last = last[:dot]
		}
		segments[len(segments)-1] = last
		if entryPointStems[strings.ToLower(last)] {
			segments = segments[:len(segments)-1]
		}
	}
	parts := make([]string, 0, len(segments)+1)
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, name)
	return strings.Join(parts, ".")
}
