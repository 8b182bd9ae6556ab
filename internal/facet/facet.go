// Package facet derives the distinct genres and authors of a catalog, the
// values offered as filter choices.
package facet

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"bookrec/internal/catalog"
	"bookrec/internal/fold"
)

// DefaultSuggestionLimit caps author suggestions.
const DefaultSuggestionLimit = 20

type Index struct {
	genres    []string
	authors   []string
	genreSet  map[string]struct{}
	authorSet map[string]struct{}
}

func Build(c *catalog.Catalog) *Index {
	books := c.Books()
	genres := lo.Uniq(lo.Map(books, func(b *catalog.Book, _ int) string { return b.Genre }))
	authors := lo.Uniq(lo.FlatMap(books, func(b *catalog.Book, _ int) []string { return b.Authors }))
	sortFolded(genres)
	sortFolded(authors)

	return &Index{
		genres:    genres,
		authors:   authors,
		genreSet:  lo.SliceToMap(genres, func(g string) (string, struct{}) { return g, struct{}{} }),
		authorSet: lo.SliceToMap(authors, func(a string) (string, struct{}) { return a, struct{}{} }),
	}
}

func sortFolded(values []string) {
	slices.SortFunc(values, func(a, b string) int {
		if c := fold.Compare(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

func (x *Index) Genres() []string { return slices.Clone(x.genres) }

func (x *Index) Authors() []string { return slices.Clone(x.authors) }

func (x *Index) HasGenre(g string) bool {
	_, ok := x.genreSet[g]
	return ok
}

func (x *Index) HasAuthor(a string) bool {
	_, ok := x.authorSet[a]
	return ok
}

// SuggestAuthors returns authors whose name contains input, ignoring case,
// in facet order. Blank input suggests nothing. limit <= 0 means
// DefaultSuggestionLimit.
func (x *Index) SuggestAuthors(input string, limit int) []string {
	q := strings.TrimSpace(input)
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	var out []string
	for _, a := range x.authors {
		if fold.Contains(a, q) {
			out = append(out, a)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// MatchGenre resolves user input to a known genre, ignoring case.
func (x *Index) MatchGenre(input string) (string, bool) {
	return matchFolded(x.genres, x.genreSet, input)
}

// MatchAuthor resolves user input to a known author, ignoring case.
func (x *Index) MatchAuthor(input string) (string, bool) {
	return matchFolded(x.authors, x.authorSet, input)
}

func matchFolded(values []string, set map[string]struct{}, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if _, ok := set[input]; ok {
		return input, true
	}
	return lo.Find(values, func(v string) bool { return fold.Compare(v, input) == 0 })
}
