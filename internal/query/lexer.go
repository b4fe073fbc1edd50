package query

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	internalErrors "harshagw/searchcore/internal/errors"
)

type TokenType int

const (
	TokenTerm TokenType = iota
	TokenQuoted
	TokenAnd
	TokenOr
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenTerm:
		return "TERM"
	case TokenQuoted:
		return "QUOTED"
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

func (t Token) String() string {
	if t.Value != "" {
		return fmt.Sprintf("%s(%s)", t.Type, t.Value)
	}
	return t.Type.String()
}

// Lexer tokenizes a query string.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, pos: 0}
}

// Tokenize tokenizes a query string into tokens ending with TokenEOF.
func Tokenize(query string) ([]Token, error) {
	lexer := NewLexer(query)
	return lexer.TokenizeAll()
}

// TokenizeAll returns all tokens from the input.
func (l *Lexer) TokenizeAll() ([]Token, error) {
	var tokens []Token
	for {
		token, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
		if token.Type == TokenEOF {
			break
		}
	}
	return tokens, nil
}

// NextToken returns the next token.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	if l.input[l.pos] == '"' {
		return l.readQuoted()
	}
	return l.readWord(), nil
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// readQuoted reads up to the next '"'. Quotes do not nest or escape.
func (l *Lexer) readQuoted() (Token, error) {
	open := l.pos
	l.pos++
	start := l.pos

	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.pos++
	}

	if l.pos >= len(l.input) {
		return Token{}, internalErrors.NewParseError(internalErrors.ErrUnterminatedQuote, open, l.input[open:])
	}

	value := l.input[start:l.pos]
	l.pos++

	return Token{Type: TokenQuoted, Value: value, Pos: open}, nil
}

func (l *Lexer) readWord() Token {
	start := l.pos

	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsSpace(r) || r == '"' {
			break
		}
		l.pos += size
	}

	word := l.input[start:l.pos]
	switch word {
	case "AND":
		return Token{Type: TokenAnd, Value: word, Pos: start}
	case "OR":
		return Token{Type: TokenOr, Value: word, Pos: start}
	}

	return Token{Type: TokenTerm, Value: word, Pos: start}
}
