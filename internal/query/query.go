// Package query filters and sorts the catalog for a selection state.
package query

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"bookrec/internal/catalog"
	"bookrec/internal/fold"
	"bookrec/internal/logger"
	"bookrec/internal/metrics"
	"bookrec/internal/selection"
)

// Result is the ordered list of matching books. The books are references
// into the catalog and must not be modified.
type Result struct {
	Books []*catalog.Book
}

func (r Result) Len() int { return len(r.Books) }

// Matches reports whether b passes every filter of st.
func Matches(b *catalog.Book, st *selection.State) bool {
	if st.OnlySelectedGenres && !st.HasGenre(b.Genre) {
		return false
	}
	if st.YearFrom != nil && b.FirstPublishYear < *st.YearFrom {
		return false
	}
	if st.YearTo != nil && b.FirstPublishYear > *st.YearTo {
		return false
	}
	if st.AuthorCount() > 0 && !hasAnyAuthor(b, st) {
		return false
	}
	return st.KeywordExpr().Match(b)
}

func hasAnyAuthor(b *catalog.Book, st *selection.State) bool {
	for _, a := range b.Authors {
		if st.HasAuthor(a) {
			return true
		}
	}
	return false
}

// Run applies st to c. It is a pure function of its inputs: books come out
// in the order given by st.Sort and st.Direction, ties keep catalog order.
func Run(c *catalog.Catalog, st selection.State) Result {
	var books []*catalog.Book
	for _, b := range c.Books() {
		if Matches(b, &st) {
			books = append(books, b)
		}
	}
	sortBooks(books, st.Sort, st.Direction)
	return Result{Books: books}
}

type keyed struct {
	book *catalog.Book
	key  string
}

func sortBooks(books []*catalog.Book, key selection.SortKey, dir selection.Direction) {
	sign := 1
	if dir == selection.Descending {
		sign = -1
	}

	if key == selection.Year {
		slices.SortStableFunc(books, func(a, b *catalog.Book) int {
			return sign * cmp.Compare(a.FirstPublishYear, b.FirstPublishYear)
		})
		return
	}

	// fold each title once instead of on every comparison
	ks := make([]keyed, len(books))
	for i, b := range books {
		ks[i] = keyed{book: b, key: fold.String(b.Title)}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return sign * cmp.Compare(a.key, b.key)
	})
	for i := range ks {
		books[i] = ks[i].book
	}
}

// Engine runs queries against one catalog and records each run.
type Engine struct {
	catalog *catalog.Catalog
	metrics *metrics.Metrics
}

func NewEngine(c *catalog.Catalog, m *metrics.Metrics) *Engine {
	return &Engine{catalog: c, metrics: m}
}

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Run snapshots st and queries the catalog with it.
func (e *Engine) Run(ctx context.Context, st *selection.State) Result {
	defer logger.Track(ctx, "query")()
	start := time.Now()

	snap := st.Snapshot()
	res := Run(e.catalog, snap)

	e.metrics.ObserveQuery(time.Since(start), res.Len())
	logger.For(ctx).WithFields(logrus.Fields{
		"selection": snap.Summary(),
		"results":   res.Len(),
	}).Debug("query.run")
	return res
}
