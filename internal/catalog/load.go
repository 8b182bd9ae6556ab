package catalog

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

type Options struct {
	// StripMarkup removes HTML tags and entities from titles, genres and
	// author names, e.g. `<i>Dune</i>` loads as `Dune`.
	StripMarkup bool
}

// Load reads a catalog, choosing the format by file extension.
func Load(path string, opts Options) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, &LoadError{Source: path, Err: err}
		}
		defer f.Close()
		return LoadJSON(f, path, opts)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(path, opts)
	default:
		return nil, &LoadError{Source: path, Err: fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))}
	}
}

var strictPolicy = bluemonday.StrictPolicy()

func stripMarkup(s string) string {
	// bluemonday escapes what it keeps; the catalog wants plain text.
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// finish applies load options and checks record invariants shared by all sources.
func finish(books []Book, source string, opts Options) (*Catalog, error) {
	var problems []string
	for i := range books {
		b := &books[i]
		if b.Authors == nil {
			b.Authors = []string{}
		}
		if opts.StripMarkup {
			b.Title = stripMarkup(b.Title)
			b.Genre = stripMarkup(b.Genre)
			for j, a := range b.Authors {
				b.Authors[j] = stripMarkup(a)
			}
		}
		if strings.TrimSpace(b.Title) == "" {
			problems = append(problems, fmt.Sprintf("%d.title: empty", i))
		}
		if strings.TrimSpace(b.Genre) == "" {
			problems = append(problems, fmt.Sprintf("%d.genre: empty", i))
		}
	}
	if len(problems) > 0 {
		return nil, &LoadError{Source: source, Problems: problems}
	}
	return New(books), nil
}
