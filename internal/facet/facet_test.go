package facet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"bookrec/internal/catalog"
)

func sample() *catalog.Catalog {
	return catalog.New([]catalog.Book{
		{Title: "Dune", Authors: []string{"Frank Herbert"}, Genre: "Sci-Fi", FirstPublishYear: 1965},
		{Title: "Emma", Authors: []string{"Jane Austen"}, Genre: "Romance", FirstPublishYear: 1815},
		{Title: "Persuasion", Authors: []string{"Jane Austen"}, Genre: "romance", FirstPublishYear: 1817},
		{Title: "Good Omens", Authors: []string{"Terry Pratchett", "Neil Gaiman"}, Genre: "Fantasy", FirstPublishYear: 1990},
		{Title: "Beowulf", Authors: nil, Genre: "Epic", FirstPublishYear: 1000},
	})
}

func TestBuild(t *testing.T) {
	x := Build(sample())

	assert.Equal(t, []string{"Epic", "Fantasy", "Romance", "romance", "Sci-Fi"}, x.Genres())
	assert.Equal(t, []string{"Frank Herbert", "Jane Austen", "Neil Gaiman", "Terry Pratchett"}, x.Authors())
	assert.True(t, x.HasGenre("Sci-Fi"))
	assert.False(t, x.HasGenre("sci-fi"))
	assert.True(t, x.HasAuthor("Neil Gaiman"))
	assert.False(t, x.HasAuthor("Nobody"))
}

func TestBuildEmptyCatalog(t *testing.T) {
	x := Build(catalog.New(nil))
	assert.Empty(t, x.Genres())
	assert.Empty(t, x.Authors())
	assert.Nil(t, x.SuggestAuthors("a", 0))
}

func TestSuggestAuthors(t *testing.T) {
	x := Build(sample())

	tests := []struct {
		input string
		limit int
		want  []string
	}{
		{"", 0, nil},
		{"   ", 0, nil},
		{"AUSTEN", 0, []string{"Jane Austen"}},
		{" an ", 0, []string{"Frank Herbert", "Jane Austen", "Neil Gaiman"}},
		{"an", 2, []string{"Frank Herbert", "Jane Austen"}},
		{"tolkien", 0, nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q/%d", tt.input, tt.limit), func(t *testing.T) {
			assert.Equal(t, tt.want, x.SuggestAuthors(tt.input, tt.limit))
		})
	}
}

func TestSuggestAuthorsDefaultCap(t *testing.T) {
	var books []catalog.Book
	for i := 0; i < 30; i++ {
		books = append(books, catalog.Book{
			Title:   fmt.Sprintf("Book %d", i),
			Authors: []string{fmt.Sprintf("Author %02d", i)},
			Genre:   "Misc",
		})
	}
	x := Build(catalog.New(books))

	got := x.SuggestAuthors("author", 0)
	assert.Len(t, got, DefaultSuggestionLimit)
	assert.Equal(t, "Author 00", got[0])
	assert.Equal(t, "Author 19", got[19])
}

func TestMatch(t *testing.T) {
	x := Build(sample())

	g, ok := x.MatchGenre("sci-fi")
	assert.True(t, ok)
	assert.Equal(t, "Sci-Fi", g)

	g, ok = x.MatchGenre("romance")
	assert.True(t, ok)
	assert.Equal(t, "romance", g, "exact match wins over folded match")

	a, ok := x.MatchAuthor(" jane austen ")
	assert.True(t, ok)
	assert.Equal(t, "Jane Austen", a)

	_, ok = x.MatchAuthor("Leo Tolstoy")
	assert.False(t, ok)
}
