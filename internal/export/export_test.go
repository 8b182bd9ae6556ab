package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bookrec/internal/catalog"
	"bookrec/internal/metrics"
)

func sampleBooks() []*catalog.Book {
	c := catalog.New([]catalog.Book{
		{Title: "Good Omens", Authors: []string{"Terry Pratchett", "Neil Gaiman"}, Genre: "Fantasy", FirstPublishYear: 1990},
		{Title: "Dune", Authors: []string{"Frank Herbert"}, Genre: "Sci-Fi", FirstPublishYear: 1965},
		{Title: "Beowulf", Authors: nil, Genre: "Epic", FirstPublishYear: 1000},
		{Title: "1984", Authors: []string{"George Orwell"}, Genre: "Dystopia", FirstPublishYear: 1949},
		{Title: "Война и мир, том 1", Authors: []string{"Лев Толстой"}, Genre: "Роман", FirstPublishYear: 1869},
	})
	return c.Books()
}

func TestRowsFor(t *testing.T) {
	rows := RowsFor(sampleBooks())
	require.Len(t, rows, 5)
	assert.Equal(t, Row{Title: "Good Omens", Author: "Terry Pratchett, Neil Gaiman", Genre: "Fantasy", Year: "1990"}, rows[0])
	assert.Equal(t, Row{Title: "Beowulf", Author: "", Genre: "Epic", Year: "1000"}, rows[2])
	assert.Empty(t, RowsFor(nil))
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"out.xlsx", "out.csv"} {
		t.Run(name, func(t *testing.T) {
			rows := RowsFor(sampleBooks())
			path := filepath.Join(t.TempDir(), name)

			e := &Exporter{}
			written, err := e.Save(path, rows)
			require.NoError(t, err)
			require.True(t, written)

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
}

func TestRoundTripLargeYears(t *testing.T) {
	books := catalog.New([]catalog.Book{
		{Title: "Far future", Authors: []string{"A"}, Genre: "Sci-Fi", FirstPublishYear: 9007199254740993},
		{Title: "Edge", Authors: []string{"B"}, Genre: "Sci-Fi", FirstPublishYear: 999999999999999},
		{Title: "Deep past", Authors: []string{"C"}, Genre: "Myth", FirstPublishYear: -1000000000000000},
		{Title: "BC", Authors: []string{"D"}, Genre: "Myth", FirstPublishYear: -500},
	}).Books()

	for _, name := range []string{"big.xlsx", "big.csv"} {
		t.Run(name, func(t *testing.T) {
			rows := RowsFor(books)
			path := filepath.Join(t.TempDir(), name)
			_, err := (&Exporter{}).Save(path, rows)
			require.NoError(t, err)

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
}

func TestRoundTripEmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	written, err := (&Exporter{}).Save(path, nil)
	require.NoError(t, err)
	require.True(t, written)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestXLSXLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xlsx")
	_, err := (&Exporter{}).Save(path, RowsFor(sampleBooks()[:2]))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheetName}, f.GetSheetList())
	rows, err := f.GetRows(DefaultSheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Title", "Author", "Genre", "Year"},
		{"Good Omens", "Terry Pratchett, Neil Gaiman", "Fantasy", "1990"},
		{"Dune", "Frank Herbert", "Sci-Fi", "1965"},
	}, rows)
}

func TestCustomSheetName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named.xlsx")
	_, err := (&Exporter{SheetName: "Reading list"}).Save(path, RowsFor(sampleBooks()))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Reading list"}, f.GetSheetList())
}

func TestSaveDefaultsToXLSX(t *testing.T) {
	base := filepath.Join(t.TempDir(), "reading-list")
	written, err := (&Exporter{}).Save(base, RowsFor(sampleBooks()))
	require.NoError(t, err)
	require.True(t, written)

	_, err = os.Stat(base + ".xlsx")
	assert.NoError(t, err)

	got, err := Read(base)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestSaveCancelled(t *testing.T) {
	m := metrics.New()
	e := &Exporter{Metrics: m}

	for _, path := range []string{"", "   "} {
		written, err := e.Save(path, RowsFor(sampleBooks()))
		require.NoError(t, err)
		assert.False(t, written)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues(metrics.ExportCancelled)))
}

func TestSaveErrors(t *testing.T) {
	m := metrics.New()
	e := &Exporter{Metrics: m}

	_, err := e.Save(filepath.Join(t.TempDir(), "missing-dir", "out.xlsx"), RowsFor(sampleBooks()))
	var xe *Error
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, "save", xe.Op)

	_, err = e.Save(filepath.Join(t.TempDir(), "missing-dir", "out.csv"), RowsFor(sampleBooks()))
	require.ErrorAs(t, err, &xe)

	_, err = e.Save(filepath.Join(t.TempDir(), "out.pdf"), RowsFor(sampleBooks()))
	require.ErrorAs(t, err, &xe)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues(metrics.ExportError)))
}

func TestProgress(t *testing.T) {
	var calls [][2]int
	e := &Exporter{Progress: func(done, total int) { calls = append(calls, [2]int{done, total}) }}

	_, err := e.Save(filepath.Join(t.TempDir(), "p.csv"), RowsFor(sampleBooks()[:3]))
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestReadRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c,d\n1,2,3,4\n"), 0644))

	_, err := Read(path)
	var xe *Error
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, "read", xe.Op)
}
