// Package tokenizer splits identifiers and prose into normalized tokens
// for the TF-IDF index and query normalization. The fts5 keyword index
// uses SQLite's own tokenizer, not this one.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = buildStopWords()

func buildStopWords() map[string]bool {
	words := []string{
		// English articles, pronouns, auxiliaries
		"a", "an", "the", "this", "that", "these", "those",
		"i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us", "them",
		"my", "your", "his", "its", "our", "their",
		"is", "am", "are", "was", "were", "be", "been", "being",
		"do", "does", "did", "have", "has", "had",
		"will", "would", "shall", "should", "can", "could", "may", "might", "must",
		"and", "or", "but", "if", "of", "to", "in", "on", "at", "for", "with", "as", "by",
		"not", "no", "so", "than", "then", "there", "here", "what", "which", "who", "whom",
		// programming-noise words
		"get", "set", "let", "var", "const", "return", "void", "null", "true", "false",
		"undefined", "import", "export", "from", "require", "function", "class",
		"interface", "type", "enum", "struct",
		// task-query action verbs
		"fix", "add", "create", "make", "build", "implement", "change", "update",
		"modify", "write", "code", "file", "files", "method",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

const replaceChars = "_-./\\:"

// Tokenize runs the six-step deterministic pipeline and returns the
// resulting tokens in source order (duplicates are not removed; callers
// that need a set or counts do that aggregation themselves).
func Tokenize(s string) []string {
	s = splitCamelCase(s)
	s = replacePunctuation(s)
	s = strings.ToLower(s)

	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 1 || len(f) >= 40 {
			continue
		}
		if stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func splitCamelCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func replacePunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(replaceChars, r) {
			return ' '
		}
		return r
	}, s)
}
