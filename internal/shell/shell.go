// Package shell is the terminal front end: an interactive command loop
// over a selection state, plus the table renderer shared with one-shot mode.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"bookrec/internal/export"
	"bookrec/internal/facet"
	"bookrec/internal/fold"
	"bookrec/internal/logger"
	"bookrec/internal/query"
	"bookrec/internal/selection"
)

const prompt = "bookrec> "

type Options struct {
	HistoryFile       string
	SuggestionLimit   int
	ProgressThreshold int
	// ExportDir is prepended to relative save paths.
	ExportDir string
}

// Shell owns the selection state and the last query result.
type Shell struct {
	ctx      context.Context
	engine   *query.Engine
	facets   *facet.Index
	exporter *export.Exporter
	opts     Options
	out      io.Writer

	// Ask reads one answer from the user. Run wires it to the line editor;
	// tests replace it.
	Ask func(prompt string) (string, error)

	state *selection.State
	last  *query.Result
}

func New(ctx context.Context, engine *query.Engine, facets *facet.Index, exporter *export.Exporter, out io.Writer, opts Options) *Shell {
	if opts.SuggestionLimit <= 0 {
		opts.SuggestionLimit = facet.DefaultSuggestionLimit
	}
	return &Shell{
		ctx:      ctx,
		engine:   engine,
		facets:   facets,
		exporter: exporter,
		opts:     opts,
		out:      out,
		Ask:      func(string) (string, error) { return "", io.EOF },
		state:    selection.New(),
	}
}

// State exposes the live selection state.
func (s *Shell) State() *selection.State { return s.state }

// Run reads commands until exit, EOF or a terminal error.
func (s *Shell) Run() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(s.Complete)
	s.Ask = line.Prompt

	s.readHistory(line)
	defer s.writeHistory(line)

	fmt.Fprintf(s.out, "bookrec: %d books loaded, type help for commands\n", s.engine.Catalog().Len())
	for {
		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := s.Execute(input)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (s *Shell) readHistory(line *liner.State) {
	if s.opts.HistoryFile == "" {
		return
	}
	f, err := os.Open(s.opts.HistoryFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := line.ReadHistory(f); err != nil {
		logger.For(s.ctx).WithError(err).Warn("shell.history.read")
	}
}

func (s *Shell) writeHistory(line *liner.State) {
	if s.opts.HistoryFile == "" {
		return
	}
	f, err := os.Create(s.opts.HistoryFile)
	if err != nil {
		logger.For(s.ctx).WithError(err).Warn("shell.history.write")
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		logger.For(s.ctx).WithError(err).Warn("shell.history.write")
	}
}

// Execute runs one command line. Input errors are returned and leave the
// state as it was; quit is true for exit and quit.
func (s *Shell) Execute(input string) (quit bool, err error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	log := logger.For(s.ctx).WithFields(logrus.Fields{"command": name, "arg": arg})
	log.Debug("shell.command")

	switch name {
	case "help", "?":
		fmt.Fprint(s.out, helpText)
	case "genres":
		s.listGenres()
	case "genre":
		err = s.toggleGenre(arg)
	case "only":
		err = s.setOnly(arg)
	case "authors":
		s.listAuthors()
	case "suggest":
		s.suggest(arg)
	case "author":
		err = s.toggleAuthor(arg)
	case "from":
		err = s.state.SetYearFrom(unbounded(arg))
	case "to":
		err = s.state.SetYearTo(unbounded(arg))
	case "sort":
		err = s.setSort(arg)
	case "order":
		err = s.setOrder(arg)
	case "keyword":
		err = s.state.SetKeyword(arg)
	case "run":
		s.run()
	case "save":
		err = s.save(arg)
	case "state":
		fmt.Fprintln(s.out, s.state.Summary())
	case "reset":
		s.state = selection.New()
		s.last = nil
		fmt.Fprintln(s.out, "selection cleared")
	case "exit", "quit":
		return true, nil
	default:
		err = fmt.Errorf("unknown command %q (try help)", name)
	}

	if err != nil {
		log.WithError(err).Debug("shell.command.rejected")
	}
	return false, err
}

// unbounded maps "-" to the blank text that clears a year bound.
func unbounded(arg string) string {
	if arg == "-" {
		return ""
	}
	return arg
}

func (s *Shell) listGenres() {
	mode := "off"
	if s.state.OnlySelectedGenres {
		mode = "on"
	}
	fmt.Fprintf(s.out, "only selected genres: %s\n", mode)
	for _, g := range s.facets.Genres() {
		mark := " "
		if s.state.HasGenre(g) {
			mark = "x"
		}
		fmt.Fprintf(s.out, "  [%s] %s\n", mark, g)
	}
}

func (s *Shell) toggleGenre(arg string) error {
	if arg == "" {
		return errors.New("usage: genre <name>")
	}
	g, ok := s.facets.MatchGenre(arg)
	if !ok {
		return fmt.Errorf("unknown genre %q", arg)
	}
	if s.state.ToggleGenre(g) {
		fmt.Fprintf(s.out, "genre %s selected\n", g)
	} else {
		fmt.Fprintf(s.out, "genre %s deselected\n", g)
	}
	return nil
}

func (s *Shell) setOnly(arg string) error {
	switch strings.ToLower(arg) {
	case "on", "yes", "true", "1":
		s.state.OnlySelectedGenres = true
	case "off", "no", "false", "0":
		s.state.OnlySelectedGenres = false
	default:
		return &selection.ValidationError{Field: "only", Value: arg, Err: errors.New("want on or off")}
	}
	return nil
}

func (s *Shell) listAuthors() {
	authors := s.state.SelectedAuthors()
	if len(authors) == 0 {
		fmt.Fprintln(s.out, "no authors selected")
		return
	}
	for _, a := range authors {
		fmt.Fprintf(s.out, "  %s\n", a)
	}
}

func (s *Shell) suggest(arg string) {
	names := s.facets.SuggestAuthors(arg, s.opts.SuggestionLimit)
	if len(names) == 0 {
		fmt.Fprintln(s.out, "no matching authors")
		return
	}
	for _, a := range names {
		fmt.Fprintf(s.out, "  %s\n", a)
	}
}

func (s *Shell) toggleAuthor(arg string) error {
	if arg == "" {
		return errors.New("usage: author <name>")
	}
	a, ok := s.facets.MatchAuthor(arg)
	if !ok {
		if hint := s.facets.SuggestAuthors(arg, 3); len(hint) > 0 {
			return fmt.Errorf("unknown author %q (did you mean %s?)", arg, strings.Join(hint, ", "))
		}
		return fmt.Errorf("unknown author %q", arg)
	}

	if s.state.HasAuthor(a) && !s.confirm(fmt.Sprintf("Remove author %s? [y/N] ", a)) {
		fmt.Fprintf(s.out, "author %s kept\n", a)
		return nil
	}
	if s.state.ToggleAuthor(a) {
		fmt.Fprintf(s.out, "author %s added\n", a)
	} else {
		fmt.Fprintf(s.out, "author %s removed\n", a)
	}
	return nil
}

func (s *Shell) confirm(question string) bool {
	answer, err := s.Ask(question)
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (s *Shell) setSort(arg string) error {
	k, err := selection.ParseSortKey(arg)
	if err != nil {
		return err
	}
	s.state.Sort = k
	return nil
}

func (s *Shell) setOrder(arg string) error {
	d, err := selection.ParseDirection(arg)
	if err != nil {
		return err
	}
	s.state.Direction = d
	return nil
}

func (s *Shell) run() {
	res := s.engine.Run(s.ctx, s.state)
	s.last = &res
	RenderTable(s.out, export.RowsFor(res.Books))
}

// save exports the last result, running the query first when there is
// none. Without an argument the path is asked for; a blank answer cancels.
func (s *Shell) save(arg string) error {
	path := arg
	if path == "" {
		answer, err := s.Ask("Save as (.xlsx or .csv, empty to cancel): ")
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
			return err
		}
		path = strings.TrimSpace(answer)
	}
	if path != "" && s.opts.ExportDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.opts.ExportDir, path)
	}

	if s.last == nil {
		res := s.engine.Run(s.ctx, s.state)
		s.last = &res
	}
	rows := export.RowsFor(s.last.Books)

	e := *s.exporter
	e.Log = logger.For(s.ctx)
	var bar *progressbar.ProgressBar
	if s.opts.ProgressThreshold > 0 && len(rows) >= s.opts.ProgressThreshold {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetWriter(s.out),
			progressbar.OptionSetDescription("exporting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetRenderBlankState(true),
		)
		e.Progress = func(done, _ int) { _ = bar.Set(done) }
	}

	written, err := e.Save(path, rows)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(s.out)
	}
	if err != nil {
		return err
	}
	if !written {
		fmt.Fprintln(s.out, "export cancelled")
		return nil
	}
	resolved, _, _ := export.ResolvePath(path)
	fmt.Fprintf(s.out, "saved %d book(s) to %s\n", len(rows), resolved)
	return nil
}

var commands = []string{
	"help", "genres", "genre", "only", "authors", "suggest", "author",
	"from", "to", "sort", "order", "keyword", "run", "save", "state", "reset", "exit", "quit",
}

// Complete offers command names, then genre or author names for the
// commands that take them. Matching ignores case.
func (s *Shell) Complete(line string) []string {
	name, arg, hasArg := strings.Cut(line, " ")
	if !hasArg {
		return withPrefix(commands, name, "")
	}

	var values []string
	switch strings.ToLower(name) {
	case "genre":
		values = s.facets.Genres()
	case "author", "suggest":
		values = s.facets.Authors()
	case "only":
		values = []string{"on", "off"}
	case "sort":
		values = []string{"alpha", "year"}
	case "order":
		values = []string{"asc", "desc"}
	default:
		return nil
	}
	return withPrefix(values, strings.TrimLeft(arg, " "), name+" ")
}

func withPrefix(values []string, prefix, lead string) []string {
	p := fold.String(prefix)
	var out []string
	for _, v := range values {
		if strings.HasPrefix(fold.String(v), p) {
			out = append(out, lead+v)
		}
	}
	return out
}

const helpText = `commands:
  genres                 list genres ([x] = selected)
  genre <name>           select or deselect a genre
  only on|off            restrict results to the selected genres
  authors                list selected authors
  suggest <text>         authors whose name contains text
  author <name>          add an author, or remove one after confirmation
  from <year|->          lower year bound, - clears
  to <year|->            upper year bound, - clears
  sort alpha|year        sort key
  order asc|desc         sort direction
  keyword [expr]         keyword filter, e.g. dune OR author:"le guin"; blank clears
  run                    run the query and show the results
  save [path]            export the last result to .xlsx or .csv
  state                  show the current selection
  reset                  clear the selection
  exit, quit             leave
`
