// Package selection holds the user's current filter and sort choices.
// The presentation layer owns and mutates a State; the query engine only
// reads snapshots of it.
package selection

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"bookrec/internal/keyword"
)

type SortKey int

const (
	Alphabetical SortKey = iota
	Year
)

func (k SortKey) String() string {
	if k == Year {
		return "year"
	}
	return "alphabetical"
}

func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alpha", "alphabet", "alphabetical", "title":
		return Alphabetical, nil
	case "year":
		return Year, nil
	}
	return Alphabetical, &ValidationError{Field: "sort", Value: s, Err: fmt.Errorf("want alpha or year")}
}

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, &ValidationError{Field: "order", Value: s, Err: fmt.Errorf("want asc or desc")}
}

// ValidationError is a recoverable input error. The query is not run and
// the state is left unchanged.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ParseYear parses a year bound. Blank text means unbounded (nil).
func ParseYear(field, text string) (*int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	y, err := strconv.Atoi(text)
	if err != nil {
		return nil, &ValidationError{Field: field, Value: text, Err: fmt.Errorf("not an integer")}
	}
	return &y, nil
}

type State struct {
	// OnlySelectedGenres turns the genre set into a filter. When false the
	// selected genres are ignored; when true with no genres selected
	// nothing matches.
	OnlySelectedGenres bool

	YearFrom  *int
	YearTo    *int
	Sort      SortKey
	Direction Direction

	genres      map[string]struct{}
	authors     map[string]struct{}
	keywordText string
	keyword     *keyword.Expr
}

// New returns a state with no filters, sorted alphabetically ascending.
func New() *State {
	return &State{
		genres:  make(map[string]struct{}),
		authors: make(map[string]struct{}),
	}
}

func (s *State) ensure() {
	if s.genres == nil {
		s.genres = make(map[string]struct{})
	}
	if s.authors == nil {
		s.authors = make(map[string]struct{})
	}
}

func (s *State) ToggleGenre(g string) (selected bool) {
	s.ensure()
	return toggle(s.genres, g)
}

func (s *State) SetGenres(genres ...string) {
	s.ensure()
	clear(s.genres)
	for _, g := range genres {
		s.genres[g] = struct{}{}
	}
}

func (s *State) HasGenre(g string) bool {
	_, ok := s.genres[g]
	return ok
}

func (s *State) SelectedGenres() []string { return slices.Sorted(maps.Keys(s.genres)) }

// ToggleAuthor adds a new author or removes one already selected. Asking
// the user to confirm a removal is up to the caller.
func (s *State) ToggleAuthor(a string) (added bool) {
	s.ensure()
	return toggle(s.authors, a)
}

func (s *State) ClearAuthors() { clear(s.authors) }

func (s *State) HasAuthor(a string) bool {
	_, ok := s.authors[a]
	return ok
}

func (s *State) AuthorCount() int { return len(s.authors) }

func (s *State) SelectedAuthors() []string { return slices.Sorted(maps.Keys(s.authors)) }

func toggle(set map[string]struct{}, v string) bool {
	if _, ok := set[v]; ok {
		delete(set, v)
		return false
	}
	set[v] = struct{}{}
	return true
}

// SetYearFrom parses and stores the lower bound; on error the state is unchanged.
func (s *State) SetYearFrom(text string) error {
	y, err := ParseYear("year_from", text)
	if err != nil {
		return err
	}
	s.YearFrom = y
	return nil
}

// SetYearTo parses and stores the upper bound; on error the state is unchanged.
func (s *State) SetYearTo(text string) error {
	y, err := ParseYear("year_to", text)
	if err != nil {
		return err
	}
	s.YearTo = y
	return nil
}

// SetYearRange validates both bounds before touching either.
func (s *State) SetYearRange(fromText, toText string) error {
	from, err := ParseYear("year_from", fromText)
	if err != nil {
		return err
	}
	to, err := ParseYear("year_to", toText)
	if err != nil {
		return err
	}
	s.YearFrom, s.YearTo = from, to
	return nil
}

// SetKeyword parses and stores the keyword filter; on error the state is unchanged.
func (s *State) SetKeyword(text string) error {
	expr, err := keyword.Parse(text)
	if err != nil {
		return err
	}
	s.keywordText = strings.TrimSpace(text)
	s.keyword = expr
	return nil
}

func (s *State) Keyword() string { return s.keywordText }

// KeywordExpr is the parsed keyword filter, nil when unset.
func (s *State) KeywordExpr() *keyword.Expr { return s.keyword }

// Snapshot returns a deep copy that later mutations of s do not affect.
func (s *State) Snapshot() State {
	c := *s
	c.genres = maps.Clone(s.genres)
	c.authors = maps.Clone(s.authors)
	if s.YearFrom != nil {
		y := *s.YearFrom
		c.YearFrom = &y
	}
	if s.YearTo != nil {
		y := *s.YearTo
		c.YearTo = &y
	}
	// parsed keyword expressions are never mutated after Parse
	return c
}

// Summary describes the state in one line for display and logs.
func (s *State) Summary() string {
	var b strings.Builder
	if s.OnlySelectedGenres {
		fmt.Fprintf(&b, "genres=[%s]", strings.Join(s.SelectedGenres(), ", "))
	} else {
		b.WriteString("genres=any")
	}
	if len(s.authors) > 0 {
		fmt.Fprintf(&b, " authors=[%s]", strings.Join(s.SelectedAuthors(), ", "))
	}
	if s.YearFrom != nil || s.YearTo != nil {
		fmt.Fprintf(&b, " years=%s..%s", bound(s.YearFrom), bound(s.YearTo))
	}
	if s.keyword != nil {
		fmt.Fprintf(&b, " keyword=%s", s.keyword)
	}
	fmt.Fprintf(&b, " sort=%s %s", s.Sort, s.Direction)
	return b.String()
}

func bound(y *int) string {
	if y == nil {
		return "*"
	}
	return strconv.Itoa(*y)
}
