package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrec/internal/catalog"
)

var (
	dune = &catalog.Book{Title: "Dune", Authors: []string{"Frank Herbert"}, Genre: "Sci-Fi", FirstPublishYear: 1965}
	emma = &catalog.Book{Title: "Emma", Authors: []string{"Jane Austen"}, Genre: "Romance", FirstPublishYear: 1815}
	omen = &catalog.Book{Title: "Good Omens", Authors: []string{"Terry Pratchett", "Neil Gaiman"}, Genre: "Fantasy", FirstPublishYear: 1990}
	war  = &catalog.Book{Title: "Война и мир", Authors: []string{"Лев Толстой"}, Genre: "Роман", FirstPublishYear: 1869}
	epic = &catalog.Book{Title: "Beowulf", Genre: "Epic", FirstPublishYear: 1000}
)

func TestLexer(t *testing.T) {
	l := NewLexer(`author:"Jane Austen" AND (NOT year:1815) or`)
	want := []Token{
		{Type: TokenField, Value: "author", Pos: 0},
		{Type: TokenWord, Value: "Jane Austen", Pos: 7},
		{Type: TokenAnd, Value: "AND", Pos: 21},
		{Type: TokenLParen, Value: "(", Pos: 25},
		{Type: TokenNot, Value: "NOT", Pos: 26},
		{Type: TokenField, Value: "year", Pos: 30},
		{Type: TokenWord, Value: "1815", Pos: 35},
		{Type: TokenRParen, Value: ")", Pos: 39},
		{Type: TokenWord, Value: "or", Pos: 41},
		{Type: TokenEOF, Pos: 43},
	}
	for i, w := range want {
		assert.Equal(t, w, l.NextToken(), "token %d", i)
	}
}

func TestParseBlank(t *testing.T) {
	for _, in := range []string{"", "   ", "\t"} {
		e, err := Parse(in)
		require.NoError(t, err)
		assert.Nil(t, e)
		assert.True(t, e.Match(dune))
	}
}

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"dune", `any:"dune"`},
		{"Title:Dune", `title:"Dune"`},
		{`author:"jane austen"`, `author:"jane austen"`},
		{"war and peace", `(any:"war" AND any:"and" AND any:"peace")`},
		{"a OR b OR c", `(any:"a" OR any:"b" OR any:"c")`},
		{"a b OR c", `((any:"a" AND any:"b") OR any:"c")`},
		{"a (b OR c)", `(any:"a" AND (any:"b" OR any:"c"))`},
		{"NOT genre:fantasy", `NOT genre:"fantasy"`},
		{"author: herbert", `author:"herbert"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`"unterminated`, "unterminated quote"},
		{`author:"unterminated`, "unterminated quote"},
		{`dune "abc`, "unterminated quote"},
		{`dune OR title:"abc`, "unterminated quote"},
		{"(dune", "unbalanced parenthesis"},
		{"dune)", `unexpected ")"`},
		{"isbn:123", `unknown field "isbn"`},
		{"year:nineteen", "year must be a number"},
		{"title:", "missing value for title"},
		{"dune AND", "unexpected end of input"},
		{"NOT", "unexpected end of input"},
		{`""`, "empty value"},
		{"OR dune", `unexpected "OR"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Msg, tt.msg)
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		input string
		want  []*catalog.Book
	}{
		{"dune", []*catalog.Book{dune}},
		{"AUSTEN", []*catalog.Book{emma}},
		{"gaiman", []*catalog.Book{omen}},
		{"romance", []*catalog.Book{emma}},
		{"author:e", []*catalog.Book{dune, emma, omen}},
		{"title:e", []*catalog.Book{dune, emma, omen, epic}},
		{"genre:fi", []*catalog.Book{dune}},
		{"year:1990", []*catalog.Book{omen}},
		{"title:emma OR year:1965", []*catalog.Book{dune, emma}},
		{"NOT genre:fantasy title:o", []*catalog.Book{epic}},
		{"толстой", []*catalog.Book{war}},
		{`"good omens"`, []*catalog.Book{omen}},
		{"author:x", nil},
		{"1965", []*catalog.Book{dune}},
		{"18", []*catalog.Book{emma, war}},
	}
	all := []*catalog.Book{dune, emma, omen, war, epic}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input)
			require.NoError(t, err)
			var got []*catalog.Book
			for _, b := range all {
				if e.Match(b) {
					got = append(got, b)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
