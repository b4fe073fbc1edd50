package query

import (
	"errors"
	"testing"

	internalErrors "harshagw/searchcore/internal/errors"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "single term",
			input: "mock",
			expected: []Token{
				{Type: TokenTerm, Value: "mock", Pos: 0},
				{Type: TokenEOF, Pos: 4},
			},
		},
		{
			name:  "multiple terms",
			input: "mock entity",
			expected: []Token{
				{Type: TokenTerm, Value: "mock", Pos: 0},
				{Type: TokenTerm, Value: "entity", Pos: 5},
				{Type: TokenEOF, Pos: 11},
			},
		},
		{
			name:  "AND operator",
			input: "entity AND action",
			expected: []Token{
				{Type: TokenTerm, Value: "entity", Pos: 0},
				{Type: TokenAnd, Value: "AND", Pos: 7},
				{Type: TokenTerm, Value: "action", Pos: 11},
				{Type: TokenEOF, Pos: 17},
			},
		},
		{
			name:  "OR operator",
			input: "entity OR action",
			expected: []Token{
				{Type: TokenTerm, Value: "entity", Pos: 0},
				{Type: TokenOr, Value: "OR", Pos: 7},
				{Type: TokenTerm, Value: "action", Pos: 10},
				{Type: TokenEOF, Pos: 16},
			},
		},
		{
			name:  "lowercase operators are terms",
			input: "a and b",
			expected: []Token{
				{Type: TokenTerm, Value: "a", Pos: 0},
				{Type: TokenTerm, Value: "and", Pos: 2},
				{Type: TokenTerm, Value: "b", Pos: 6},
				{Type: TokenEOF, Pos: 7},
			},
		},
		{
			name:  "quoted phrase",
			input: `"mock text"`,
			expected: []Token{
				{Type: TokenQuoted, Value: "mock text", Pos: 0},
				{Type: TokenEOF, Pos: 11},
			},
		},
		{
			name:  "quote splits a bare word",
			input: `foo"bar"`,
			expected: []Token{
				{Type: TokenTerm, Value: "foo", Pos: 0},
				{Type: TokenQuoted, Value: "bar", Pos: 3},
				{Type: TokenEOF, Pos: 8},
			},
		},
		{
			name:  "extra whitespace",
			input: "  mock \t entity  ",
			expected: []Token{
				{Type: TokenTerm, Value: "mock", Pos: 2},
				{Type: TokenTerm, Value: "entity", Pos: 9},
				{Type: TokenEOF, Pos: 17},
			},
		},
		{
			name:     "empty",
			input:    "",
			expected: []Token{{Type: TokenEOF, Pos: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tokens) != len(tt.expected) {
				t.Fatalf("got %d tokens %v, want %d %v", len(tokens), tokens, len(tt.expected), tt.expected)
			}
			for i, tok := range tokens {
				if tok != tt.expected[i] {
					t.Errorf("token[%d] = %+v, want %+v", i, tok, tt.expected[i])
				}
			}
		})
	}
}

func TestTokenize_UnterminatedQuote(t *testing.T) {
	_, err := Tokenize(`entity "mock text`)
	if err == nil {
		t.Fatal("expected error for unterminated quote")
	}
	if !errors.Is(err, internalErrors.ErrUnterminatedQuote) {
		t.Errorf("expected ErrUnterminatedQuote, got %v", err)
	}

	var perr *internalErrors.ParseError
	if !errors.As(err, &perr) || perr.Position != 7 {
		t.Errorf("expected ParseError at position 7, got %v", err)
	}
}

func TestToken_String(t *testing.T) {
	if s := (Token{Type: TokenTerm, Value: "mock"}).String(); s != "TERM(mock)" {
		t.Errorf("got %q", s)
	}
	if s := (Token{Type: TokenEOF}).String(); s != "EOF" {
		t.Errorf("got %q", s)
	}
}
