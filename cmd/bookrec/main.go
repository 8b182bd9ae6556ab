package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"bookrec/internal/catalog"
	"bookrec/internal/config"
	"bookrec/internal/export"
	"bookrec/internal/facet"
	"bookrec/internal/logger"
	"bookrec/internal/metrics"
	"bookrec/internal/query"
	"bookrec/internal/selection"
	"bookrec/internal/shell"
)

// listFlag collects repeated flags, each of which may be a comma list.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

type options struct {
	configPath  string
	catalogPath string

	genres     listFlag
	onlyGenres bool
	authors    listFlag
	from, to   string
	sort       string
	order      string
	keyword    string
	exportPath string
	list       string
}

// oneShotFlags switch the program from the shell to a single query.
var oneShotFlags = map[string]bool{
	"genre": true, "only-genres": true, "author": true, "from": true, "to": true,
	"sort": true, "order": true, "keyword": true, "export": true, "list": true,
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "convert" {
		os.Exit(convert(os.Args[2:]))
	}

	var o options
	fs := flag.NewFlagSet("bookrec", flag.ExitOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	fs.StringVar(&o.catalogPath, "catalog", "", "Catalog file (.json or .db), overrides config")
	fs.Var(&o.genres, "genre", "Genre to select (repeatable, comma separated)")
	fs.BoolVar(&o.onlyGenres, "only-genres", false, "Only show books of the selected genres")
	fs.Var(&o.authors, "author", "Author to select (repeatable, comma separated)")
	fs.StringVar(&o.from, "from", "", "Earliest first publish year")
	fs.StringVar(&o.to, "to", "", "Latest first publish year")
	fs.StringVar(&o.sort, "sort", "alpha", "Sort by alpha or year")
	fs.StringVar(&o.order, "order", "asc", "Sort direction asc or desc")
	fs.StringVar(&o.keyword, "keyword", "", `Keyword filter, e.g. 'dune OR author:"le guin"'`)
	fs.StringVar(&o.exportPath, "export", "", "Write the result to this .xlsx or .csv file")
	fs.StringVar(&o.list, "list", "", "Print the catalog's genres or authors and exit")
	fs.Parse(os.Args[1:])

	oneShot := false
	fs.Visit(func(f *flag.Flag) {
		if oneShotFlags[f.Name] {
			oneShot = true
		}
	})

	os.Exit(run(o, oneShot))
}

func setup(o options) (*config.Config, io.Closer, error) {
	path, explicit := config.Resolve(o.configPath)
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, nil, err
	}
	if o.catalogPath != "" {
		cfg.Catalog.Path = o.catalogPath
	}
	closer, err := logger.Setup(cfg.Logging.Level, cfg.Logging.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}

func run(o options, oneShot bool) int {
	cfg, closer, err := setup(o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookrec: %v\n", err)
		return 2
	}
	defer closer.Close()

	ctx := logger.NewSession(context.Background())
	log := logger.For(ctx)

	m := metrics.New()
	defer func() {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.WithError(err).Warn("metrics.textfile")
		}
	}()

	done := logger.Track(ctx, "catalog.load")
	c, err := catalog.Load(cfg.Catalog.Path, catalog.Options{StripMarkup: cfg.Catalog.StripMarkup})
	done()
	if err != nil {
		var le *catalog.LoadError
		if errors.As(err, &le) && len(le.Problems) > 0 {
			for _, p := range le.Problems {
				log.WithField("source", le.Source).Error(p)
			}
		}
		log.WithError(err).Error("catalog.load")
		return 1
	}
	m.SetCatalogSize(c.Len())
	log.WithFields(logrus.Fields{"path": cfg.Catalog.Path, "books": c.Len()}).Info("catalog.loaded")

	facets := facet.Build(c)
	engine := query.NewEngine(c, m)
	exporter := &export.Exporter{SheetName: cfg.Export.SheetName, Metrics: m}

	if o.list != "" {
		return list(facets, o.list)
	}
	if oneShot {
		return runOnce(ctx, o, engine, facets, exporter)
	}

	sh := shell.New(ctx, engine, facets, exporter, os.Stdout, shell.Options{
		HistoryFile:       cfg.Shell.HistoryFile,
		SuggestionLimit:   cfg.Shell.SuggestionLimit,
		ProgressThreshold: cfg.Export.ProgressThreshold,
		ExportDir:         cfg.Export.DefaultDir,
	})
	if err := sh.Run(); err != nil {
		log.WithError(err).Error("shell")
		return 1
	}
	return 0
}

func list(facets *facet.Index, what string) int {
	var values []string
	switch strings.ToLower(what) {
	case "genres", "genre":
		values = facets.Genres()
	case "authors", "author":
		values = facets.Authors()
	default:
		fmt.Fprintf(os.Stderr, "bookrec: -list wants genres or authors, got %q\n", what)
		return 2
	}
	for _, v := range values {
		fmt.Println(v)
	}
	return 0
}

// buildState turns the one-shot flags into a selection. Names are resolved
// against the catalog the same way the shell resolves them.
func buildState(o options, facets *facet.Index) (*selection.State, error) {
	st := selection.New()

	for _, g := range o.genres {
		name, ok := facets.MatchGenre(g)
		if !ok {
			return nil, fmt.Errorf("unknown genre %q", g)
		}
		st.ToggleGenre(name)
	}
	st.OnlySelectedGenres = o.onlyGenres

	for _, a := range o.authors {
		name, ok := facets.MatchAuthor(a)
		if !ok {
			return nil, fmt.Errorf("unknown author %q", a)
		}
		if !st.HasAuthor(name) {
			st.ToggleAuthor(name)
		}
	}

	if err := st.SetYearRange(o.from, o.to); err != nil {
		return nil, err
	}
	var err error
	if st.Sort, err = selection.ParseSortKey(o.sort); err != nil {
		return nil, err
	}
	if st.Direction, err = selection.ParseDirection(o.order); err != nil {
		return nil, err
	}
	if err := st.SetKeyword(o.keyword); err != nil {
		return nil, err
	}
	return st, nil
}

func runOnce(ctx context.Context, o options, engine *query.Engine, facets *facet.Index, exporter *export.Exporter) int {
	st, err := buildState(o, facets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookrec: %v\n", err)
		return 2
	}

	res := engine.Run(ctx, st)
	rows := export.RowsFor(res.Books)
	shell.RenderTable(os.Stdout, rows)

	if o.exportPath == "" {
		return 0
	}
	exporter.Log = logger.For(ctx)
	if _, err := exporter.Save(o.exportPath, rows); err != nil {
		fmt.Fprintf(os.Stderr, "bookrec: %v\n", err)
		return 1
	}
	return 0
}

func convert(args []string) int {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	strip := fs.Bool("strip-markup", false, "Strip HTML markup from titles, authors and genres")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: bookrec convert [-strip-markup] <in.json> <out.db>")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	in, out := fs.Arg(0), fs.Arg(1)

	c, err := catalog.Load(in, catalog.Options{StripMarkup: *strip})
	if err != nil {
		logrus.WithError(err).Error("convert.load")
		return 1
	}
	if err := catalog.WriteSQLite(out, c); err != nil {
		logrus.WithError(err).Error("convert.write")
		return 1
	}
	logrus.WithFields(logrus.Fields{"in": in, "out": out, "books": c.Len()}).Info("convert.done")
	return 0
}
