package analysis

import (
	"strings"
	"unicode"
)

// Token is one analyzed term and its position in the source text.
type Token struct {
	Term     string
	Position uint64
}

// Analyzer defines the interface for text analysis.
type Analyzer interface {
	Analyze(text string) []Token
}

// Simple performs basic tokenization: lowercasing and splitting on non-alphanumeric.
type Simple struct{}

func NewSimple() *Simple {
	return &Simple{}
}

// Analyze tokenizes text into tokens with positions.
func (a *Simple) Analyze(text string) []Token {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = Token{Term: w, Position: uint64(i)}
	}
	return tokens
}

// Terms returns only the terms of Analyze(text).
func Terms(a Analyzer, text string) []string {
	tokens := a.Analyze(text)
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
	}
	return terms
}
