package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenizeCamelCase(t *testing.T) {
	got := Tokenize("authenticateUserToken")
	want := []string{"authenticate", "user", "token"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizePunctuationAndStopwords(t *testing.T) {
	got := Tokenize("fix the get_user_by-id.handler")
	want := []string{"user", "id", "handler"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizeLengthBounds(t *testing.T) {
	got := Tokenize("a ab " + repeat("x", 41))
	if len(got) != 1 || got[0] != "ab" {
		t.Fatalf("expected only 'ab' to survive length bounds, got %v", got)
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	s := "renderDashboard validateToken"
	first := Tokenize(s)
	second := Tokenize(joinTokens(first))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("tokenizer is not stable across re-application: %v vs %v", first, second)
	}
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

func joinTokens(tokens []string) string {
	out := ""
	for i, tok := range tokens {
		if i > 0 {
			out += " "
		}
		out += tok
	}
	return out
}
