package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const bookSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["title", "author", "genre", "first_publish_year"],
    "properties": {
      "title":  {"type": "string", "minLength": 1},
      "author": {"type": "array", "items": {"type": "string"}},
      "genre":  {"type": "string", "minLength": 1},
      "first_publish_year": {"type": "integer"}
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(bookSchema))
})

// LoadJSON reads a JSON array of books. The whole document is checked
// against the schema first so every violation is reported at once.
func LoadJSON(r io.Reader, source string, opts Options) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile book schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("malformed json: %w", err)}
	}
	if !res.Valid() {
		problems := make([]string, 0, len(res.Errors()))
		for _, re := range res.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
		}
		return nil, &LoadError{Source: source, Problems: problems}
	}

	var raw []jsonBook
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("decode: %w", err)}
	}

	books := make([]Book, len(raw))
	var problems []string
	for i, rb := range raw {
		year, err := wholeNumber(rb.FirstPublishYear)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%d.first_publish_year: %v", i, err))
			continue
		}
		books[i] = Book{Title: rb.Title, Authors: rb.Authors, Genre: rb.Genre, FirstPublishYear: year}
	}
	if len(problems) > 0 {
		return nil, &LoadError{Source: source, Problems: problems}
	}
	return finish(books, source, opts)
}

// jsonBook keeps the year as written; the schema accepts any whole number,
// including 1965.0 and 1e3.
type jsonBook struct {
	Title            string      `json:"title"`
	Authors          []string    `json:"author"`
	Genre            string      `json:"genre"`
	FirstPublishYear json.Number `json:"first_publish_year"`
}

func wholeNumber(n json.Number) (int, error) {
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not a whole number", n)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%s is out of range", n)
	}
	return int(f), nil
}
