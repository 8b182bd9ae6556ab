// Package catalog loads the immutable book collection a session works on.
package catalog

import (
	"slices"
	"strings"
)

// Book is one catalog record. Title and Genre are never empty after a
// successful load; Authors may be.
type Book struct {
	Title            string   `json:"title"`
	Authors          []string `json:"author"`
	Genre            string   `json:"genre"`
	FirstPublishYear int      `json:"first_publish_year"`
}

// FullAuthors joins the author list for display.
func (b *Book) FullAuthors() string {
	return strings.Join(b.Authors, ", ")
}

// Catalog is an ordered, read-only sequence of books.
type Catalog struct {
	books []Book
}

// New copies books into a catalog, preserving order.
func New(books []Book) *Catalog {
	c := &Catalog{books: make([]Book, len(books))}
	for i, b := range books {
		b.Authors = slices.Clone(b.Authors)
		c.books[i] = b
	}
	return c
}

func (c *Catalog) Len() int { return len(c.books) }

func (c *Catalog) At(i int) *Book { return &c.books[i] }

// Books returns references to every book in catalog order. Callers must
// treat the books as read-only.
func (c *Catalog) Books() []*Book {
	out := make([]*Book, len(c.books))
	for i := range c.books {
		out[i] = &c.books[i]
	}
	return out
}
