package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
)

var schemaStatements = []string{
	`CREATE TABLE books (
		id                 INTEGER PRIMARY KEY,
		title              TEXT    NOT NULL CHECK (title <> ''),
		genre              TEXT    NOT NULL CHECK (genre <> ''),
		first_publish_year INTEGER NOT NULL
	)`,
	`CREATE TABLE book_authors (
		book_id  INTEGER NOT NULL REFERENCES books(id),
		position INTEGER NOT NULL,
		name     TEXT    NOT NULL,
		PRIMARY KEY (book_id, position)
	)`,
}

// LoadSQLite reads a catalog stored with the schema written by WriteSQLite.
// Catalog order is books.id order; author order is book_authors.position.
func LoadSQLite(path string, opts Options) (*Catalog, error) {
	// the driver would silently create a missing file
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer db.Close()

	books, err := readBooks(db)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	return finish(books, path, opts)
}

func readBooks(db *sql.DB) ([]Book, error) {
	rows, err := db.Query(`SELECT id, title, genre, first_publish_year FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []Book
	index := make(map[int64]int)
	for rows.Next() {
		var (
			id int64
			b  Book
		)
		if err := rows.Scan(&id, &b.Title, &b.Genre, &b.FirstPublishYear); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		index[id] = len(books)
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}

	arows, err := db.Query(`SELECT book_id, name FROM book_authors ORDER BY book_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var (
			id   int64
			name string
		)
		if err := arows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("author %q references unknown book %d", name, id)
		}
		books[i].Authors = append(books[i].Authors, name)
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors: %w", err)
	}
	return books, nil
}

// WriteSQLite stores c in a new SQLite file. An existing file is never
// overwritten, and a failed write leaves no file behind.
func WriteSQLite(path string, c *Catalog) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("write catalog %s: %w", path, fs.ErrExist)
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("write catalog %s: %w", path, statErr)
	}
	// runs after db.Close below
	defer func() {
		if err != nil {
			_ = os.Remove(path)
			_ = os.Remove(path + "-journal")
		}
	}()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	bookStmt, err := tx.Prepare(`INSERT INTO books (id, title, genre, first_publish_year) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare books: %w", err)
	}
	defer bookStmt.Close()

	authorStmt, err := tx.Prepare(`INSERT INTO book_authors (book_id, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare authors: %w", err)
	}
	defer authorStmt.Close()

	for i, b := range c.Books() {
		id := i + 1
		if _, err = bookStmt.Exec(id, b.Title, b.Genre, b.FirstPublishYear); err != nil {
			return fmt.Errorf("insert %q: %w", b.Title, err)
		}
		for pos, name := range b.Authors {
			if _, err = authorStmt.Exec(id, pos, name); err != nil {
				return fmt.Errorf("insert author %q: %w", name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
