// Package keyword implements the keyword filter: a small query language
// over title, author, genre and year.
//
//	dune                   any field contains "dune"
//	author:"jane austen"   an author contains the phrase
//	genre:romance year:1815
//	title:emma OR (author:herbert AND NOT genre:fantasy)
//
// Matching is a case-insensitive substring test except for year, which is
// an exact number. Juxtaposed terms are joined with AND.
package keyword

import (
	"fmt"
	"strconv"
	"strings"

	"bookrec/internal/catalog"
	"bookrec/internal/fold"
)

type Field int

const (
	FieldAny Field = iota
	FieldTitle
	FieldAuthor
	FieldGenre
	FieldYear
)

var fieldNames = map[string]Field{
	"any":    FieldAny,
	"title":  FieldTitle,
	"author": FieldAuthor,
	"genre":  FieldGenre,
	"year":   FieldYear,
}

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldAuthor:
		return "author"
	case FieldGenre:
		return "genre"
	case FieldYear:
		return "year"
	default:
		return "any"
	}
}

type Kind int

const (
	KindFilter Kind = iota
	KindAnd
	KindOr
	KindNot
)

// Expr is a node of a parsed keyword expression. A nil *Expr matches
// every book.
type Expr struct {
	Kind  Kind
	Field Field
	Value string // as typed
	Nodes []*Expr

	folded string
	year   int
}

func newFilter(field Field, value string) (*Expr, error) {
	e := &Expr{Kind: KindFilter, Field: field, Value: value, folded: fold.String(value)}
	if field == FieldYear {
		y, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("year must be a number, got %q", value)
		}
		e.year = y
	}
	return e, nil
}

func join(kind Kind, left, right *Expr) *Expr {
	if left.Kind == kind {
		left.Nodes = append(left.Nodes, right)
		return left
	}
	return &Expr{Kind: kind, Nodes: []*Expr{left, right}}
}

// Match reports whether b satisfies the expression.
func (e *Expr) Match(b *catalog.Book) bool {
	if e == nil {
		return true
	}

	switch e.Kind {
	case KindAnd:
		for _, n := range e.Nodes {
			if !n.Match(b) {
				return false
			}
		}
		return true
	case KindOr:
		for _, n := range e.Nodes {
			if n.Match(b) {
				return true
			}
		}
		return false
	case KindNot:
		return !e.Nodes[0].Match(b)
	}

	switch e.Field {
	case FieldTitle:
		return e.contains(b.Title)
	case FieldGenre:
		return e.contains(b.Genre)
	case FieldYear:
		return b.FirstPublishYear == e.year
	case FieldAuthor:
		return e.anyAuthor(b)
	default:
		return e.contains(b.Title) || e.contains(b.Genre) || e.anyAuthor(b) ||
			strings.Contains(strconv.Itoa(b.FirstPublishYear), e.folded)
	}
}

func (e *Expr) contains(s string) bool {
	return strings.Contains(fold.String(s), e.folded)
}

func (e *Expr) anyAuthor(b *catalog.Book) bool {
	for _, a := range b.Authors {
		if e.contains(a) {
			return true
		}
	}
	return false
}

// String renders the canonical form, e.g. `(title:"dune" OR author:"herbert")`.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindNot:
		return "NOT " + e.Nodes[0].String()
	case KindAnd, KindOr:
		op := " AND "
		if e.Kind == KindOr {
			op = " OR "
		}
		parts := make([]string, len(e.Nodes))
		for i, n := range e.Nodes {
			parts[i] = n.String()
		}
		return "(" + strings.Join(parts, op) + ")"
	}
	return fmt.Sprintf("%s:%q", e.Field, e.Value)
}
