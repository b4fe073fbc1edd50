package query

import (
	internalErrors "harshagw/searchcore/internal/errors"
)

// Parser parses tokens into a query AST.
//
//	query    := term_seq (("AND"|"OR") term_seq)*
//	term_seq := term term*
//	term     := quoted_term | bare_term
//
// Operators are left-associative with equal precedence.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// Parse tokenizes and parses a query string.
func Parse(query string) (QueryNode, error) {
	tokens, err := Tokenize(query)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// Parse parses the tokens into a query AST.
func (p *Parser) Parse() (QueryNode, error) {
	if p.current().Type == TokenEOF {
		return nil, internalErrors.NewParseError(internalErrors.ErrEmptyQuery, p.current().Pos, "")
	}

	root, err := p.parseQuery()
	if err != nil {
		return nil, err
	}

	if tok := p.current(); tok.Type != TokenEOF {
		return nil, unexpected(tok)
	}

	return root, nil
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		var end int
		if len(p.tokens) > 0 {
			end = p.tokens[len(p.tokens)-1].Pos
		}
		return Token{Type: TokenEOF, Pos: end}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	token := p.current()
	p.pos++
	return token
}

func (p *Parser) parseQuery() (QueryNode, error) {
	left, err := p.parseTermSeq()
	if err != nil {
		return nil, err
	}

	for {
		var op Operator
		switch p.current().Type {
		case TokenAnd:
			op = OpAnd
		case TokenOr:
			op = OpOr
		default:
			return left, nil
		}
		p.advance()

		right, err := p.parseTermSeq()
		if err != nil {
			return nil, err
		}
		left = NewBooleanQueryNode(op, left, right)
	}
}

// parseTermSeq folds adjacent terms into a MultipleTermNode chain.
func (p *Parser) parseTermSeq() (QueryNode, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	if !isTerm(p.current()) {
		return NewSimpleQueryNode(first), nil
	}

	var seq Term = first
	for isTerm(p.current()) {
		next, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		seq = NewMultipleTermNode(seq, next)
	}
	return seq.(*MultipleTermNode), nil
}

func (p *Parser) parseTerm() (Term, error) {
	token := p.current()

	switch token.Type {
	case TokenQuoted:
		p.advance()
		return NewQuotedNode(token.Value), nil
	case TokenTerm:
		p.advance()
		return NewTermNode(token.Value), nil
	default:
		return nil, unexpected(token)
	}
}

func isTerm(t Token) bool {
	return t.Type == TokenTerm || t.Type == TokenQuoted
}

func unexpected(t Token) error {
	value := t.Value
	if t.Type == TokenEOF {
		value = "end of query"
	}
	return internalErrors.NewParseError(internalErrors.ErrUnexpectedToken, t.Pos, value)
}
