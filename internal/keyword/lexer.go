package keyword

import (
	"unicode"
)

type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF
	TokenWord
	TokenField
	TokenAnd
	TokenOr
	TokenNot
	TokenLParen
	TokenRParen
)

type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

type Lexer struct {
	input []rune
	pos   int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	switch l.input[l.pos] {
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}
	case '"':
		return l.readQuoted()
	}

	// read up to whitespace, a paren, a quote, or the colon that ends a field name
	for l.pos < len(l.input) && !isDelimiter(l.input[l.pos]) {
		if l.input[l.pos] == ':' {
			word := string(l.input[start:l.pos])
			l.pos++
			return Token{Type: TokenField, Value: word, Pos: start}
		}
		l.pos++
	}

	word := string(l.input[start:l.pos])
	// operators are upper case only: "war and peace" stays three words
	switch word {
	case "AND":
		return Token{Type: TokenAnd, Value: word, Pos: start}
	case "OR":
		return Token{Type: TokenOr, Value: word, Pos: start}
	case "NOT":
		return Token{Type: TokenNot, Value: word, Pos: start}
	}
	return Token{Type: TokenWord, Value: word, Pos: start}
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '"'
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) readQuoted() Token {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{Type: TokenError, Value: "unterminated quote", Pos: start}
	}
	value := string(l.input[start+1 : l.pos])
	l.pos++ // closing quote
	return Token{Type: TokenWord, Value: value, Pos: start}
}
