package keyword

import (
	"fmt"
	"strings"
)

// SyntaxError is a recoverable input error: the query is not run.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("keyword %q: %s at position %d", e.Input, e.Msg, e.Pos+1)
}

// Parse turns keyword text into an expression. Blank text yields nil,
// which matches everything.
func Parse(input string) (*Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	p := newParser(input)
	expr := p.parseExpression()
	if p.err == nil && p.curTok.Type != TokenEOF {
		p.fail(p.curTok, "unexpected %q", p.curTok.Value)
	}
	if p.err != nil {
		return nil, p.err
	}
	return expr, nil
}

type Parser struct {
	input   string
	l       *Lexer
	curTok  Token
	peekTok Token
	err     *SyntaxError
}

func newParser(input string) *Parser {
	p := &Parser{input: input, l: NewLexer(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

// fail keeps the first error only; later ones are usually noise.
func (p *Parser) fail(tok Token, format string, args ...any) {
	if p.err == nil {
		p.err = &SyntaxError{Input: p.input, Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
	}
}

// Expression -> Term { OR Term }
func (p *Parser) parseExpression() *Expr {
	left := p.parseTerm()

	for p.err == nil && p.curTok.Type == TokenOr {
		p.nextToken() // eat OR
		right := p.parseTerm()
		if p.err != nil {
			return nil
		}
		left = join(KindOr, left, right)
	}
	return left
}

// Term -> Factor { [AND] Factor }
func (p *Parser) parseTerm() *Expr {
	left := p.parseFactor()

	for p.err == nil {
		switch p.curTok.Type {
		case TokenAnd:
			p.nextToken() // eat AND
		case TokenWord, TokenField, TokenNot, TokenLParen, TokenError:
			// implicit AND; a lexer error is reported by parseFactor
		default:
			return left
		}
		right := p.parseFactor()
		if p.err != nil {
			return nil
		}
		left = join(KindAnd, left, right)
	}
	return left
}

// Factor -> ( Expression ) | NOT Factor | Filter
func (p *Parser) parseFactor() *Expr {
	switch p.curTok.Type {
	case TokenLParen:
		open := p.curTok
		p.nextToken() // eat (
		exp := p.parseExpression()
		if p.err != nil {
			return nil
		}
		if p.curTok.Type != TokenRParen {
			p.fail(open, "unbalanced parenthesis")
			return nil
		}
		p.nextToken() // eat )
		return exp

	case TokenNot:
		p.nextToken() // eat NOT
		right := p.parseFactor()
		if p.err != nil {
			return nil
		}
		return &Expr{Kind: KindNot, Nodes: []*Expr{right}}

	default:
		return p.parseFilter()
	}
}

// Filter -> FIELD: VALUE | VALUE
func (p *Parser) parseFilter() *Expr {
	field := FieldAny
	switch p.curTok.Type {
	case TokenField:
		f, ok := fieldNames[strings.ToLower(p.curTok.Value)]
		if !ok {
			p.fail(p.curTok, "unknown field %q", p.curTok.Value)
			return nil
		}
		field = f
		p.nextToken() // eat field
		if p.curTok.Type == TokenError {
			p.fail(p.curTok, "%s", p.curTok.Value)
			return nil
		}
		if p.curTok.Type != TokenWord {
			p.fail(p.curTok, "missing value for %s", field)
			return nil
		}
	case TokenWord:
	case TokenError:
		p.fail(p.curTok, "%s", p.curTok.Value)
		return nil
	case TokenEOF:
		p.fail(p.curTok, "unexpected end of input")
		return nil
	default:
		p.fail(p.curTok, "unexpected %q", p.curTok.Value)
		return nil
	}

	tok := p.curTok
	p.nextToken() // eat value
	if strings.TrimSpace(tok.Value) == "" {
		p.fail(tok, "empty value")
		return nil
	}
	e, err := newFilter(field, tok.Value)
	if err != nil {
		p.fail(tok, "%v", err)
		return nil
	}
	return e
}
