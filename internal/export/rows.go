package export

import (
	"strconv"

	"github.com/samber/lo"

	"bookrec/internal/catalog"
)

// Header is the fixed first row of every export.
var Header = []string{"Title", "Author", "Genre", "Year"}

// Row is a book as displayed: authors joined with ", ", year as text.
type Row struct {
	Title  string
	Author string
	Genre  string
	Year   string
}

func RowFor(b *catalog.Book) Row {
	return Row{
		Title:  b.Title,
		Author: b.FullAuthors(),
		Genre:  b.Genre,
		Year:   strconv.Itoa(b.FirstPublishYear),
	}
}

// RowsFor projects books into display rows, keeping their order.
func RowsFor(books []*catalog.Book) []Row {
	return lo.Map(books, func(b *catalog.Book, _ int) Row { return RowFor(b) })
}

func (r Row) Values() []string {
	return []string{r.Title, r.Author, r.Genre, r.Year}
}

func rowFromValues(values []string) Row {
	padded := make([]string, len(Header))
	copy(padded, values)
	return Row{Title: padded[0], Author: padded[1], Genre: padded[2], Year: padded[3]}
}
