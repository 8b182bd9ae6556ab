package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"bookrec/internal/export"
)

// maximum display width per column
var columnCaps = []int{48, 36, 20, 6}

const separator = " | "

// RenderTable prints rows under the export header, padding each column by
// display width so wide scripts line up.
func RenderTable(w io.Writer, rows []export.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	widths := make([]int, len(export.Header))
	for i, h := range export.Header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i, v := range r.Values() {
			widths[i] = max(widths[i], min(runewidth.StringWidth(v), columnCaps[i]))
		}
	}

	writeLine(w, export.Header, widths)
	total := len(separator) * (len(widths) - 1)
	for _, wd := range widths {
		total += wd
	}
	fmt.Fprintln(w, strings.Repeat("-", total))
	for _, r := range rows {
		writeLine(w, r.Values(), widths)
	}
	fmt.Fprintf(w, "\n%d book(s) found.\n", len(rows))
}

func writeLine(w io.Writer, values []string, widths []int) {
	cells := make([]string, len(values))
	for i, v := range values {
		v = runewidth.Truncate(v, widths[i], "…")
		if i == len(values)-1 {
			// no trailing padding on the last column
			cells[i] = v
			continue
		}
		cells[i] = runewidth.FillRight(v, widths[i])
	}
	fmt.Fprintln(w, strings.Join(cells, separator))
}
