// Command csvfilter loads CSV files and filters their rows.
//
// Usage:
//
//	csvfilter query -file vendas.csv -where estado=SP -where preço=378.02 -tol 0.01
//	csvfilter serve [-load vendas.csv ...]
//
// Configuration is read from the environment (and a .env file, if present).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/csvfilter/internal/config"
	"github.com/JonMunkholm/csvfilter/internal/core"
	"github.com/JonMunkholm/csvfilter/internal/logging"
	"github.com/JonMunkholm/csvfilter/internal/render"
	"github.com/JonMunkholm/csvfilter/internal/web"
	"github.com/joho/godotenv"
)

const usage = `usage: csvfilter <command> [flags]

commands:
  query   filter a CSV file and print the matching rows
  serve   start the HTTP API
`

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars).
	// A missing file is not an error.
	_ = godotenv.Overload()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "csvfilter: %v\n", err)
		return 1
	}

	closeLogs := logging.Setup(stderr, cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.SeqURL)
	defer closeLogs()

	switch args[0] {
	case "query":
		err = runQuery(ctx, cfg, args[1:], stdout, stderr)
	case "serve":
		err = runServe(ctx, cfg, args[1:], stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "csvfilter: unknown command %q\n%s", args[0], usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if errors.Is(err, errUsage) {
		return 2
	}
	if err != nil {
		slog.Debug("command failed", "error", err)
		fmt.Fprintf(stderr, "csvfilter: %v\n", err)
		if core.IsUserFacing(err) {
			fmt.Fprintf(stderr, "%s\n", core.FormatUserError(err))
		}
		return 1
	}
	return 0
}

// errUsage reports a command line that failed flag parsing.
var errUsage = errors.New("usage error")

// newLoader builds a loader from the load configuration.
func newLoader(cfg *config.Config) *core.Loader {
	return &core.Loader{
		Delimiter: cfg.Load.DelimiterRune(),
		Coercions: core.CoercionsFor(cfg.Load.TemporalColumns, cfg.Load.NumericColumns),
		MaxBytes:  cfg.Load.MaxFileSize,
	}
}

// whereFlags collects repeated -where column=value flags in order.
type whereFlags struct {
	columns []string
	values  []string
}

func (w *whereFlags) String() string {
	pairs := make([]string, len(w.columns))
	for i := range w.columns {
		pairs[i] = w.columns[i] + "=" + w.values[i]
	}
	return strings.Join(pairs, ",")
}

func (w *whereFlags) Set(s string) error {
	col, val, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return fmt.Errorf("want column=value, got %q", s)
	}
	w.columns = append(w.columns, col)
	w.values = append(w.values, val)
	return nil
}

// optionalFloat is a float flag that remembers whether it was set.
type optionalFloat struct {
	value *float64
}

func (f *optionalFloat) String() string {
	if f.value == nil {
		return ""
	}
	return fmt.Sprint(*f.value)
}

func (f *optionalFloat) Set(s string) error {
	var v float64
	if _, err := fmt.Sscan(s, &v); err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	f.value = &v
	return nil
}

func runQuery(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		where         whereFlags
		tol           = optionalFloat{value: cfg.Filter.FloatTol}
		file          = fs.String("file", "", "CSV file to load (or first argument)")
		caseSensitive = fs.Bool("case-sensitive", !cfg.Filter.CaseInsensitive, "compare text case-sensitively")
		noStrip       = fs.Bool("no-strip", !cfg.Filter.Strip, "keep surrounding whitespace when comparing text")
		parallel      = fs.Bool("parallel", cfg.Filter.Parallel, "evaluate constraints concurrently")
		formatName    = fs.String("format", "csv", "output format: csv, json or html")
		countOnly     = fs.Bool("count", false, "print only the number of matching rows")
	)
	fs.Var(&where, "where", "column=value constraint (repeatable)")
	fs.Var(&tol, "tol", "absolute numeric tolerance (default exact)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}

	path := *file
	switch {
	case path != "" && fs.NArg() > 0:
		fmt.Fprintf(stderr, "query: file given twice (-file %s and %s)\n", path, fs.Arg(0))
		return errUsage
	case fs.NArg() > 1:
		fmt.Fprintf(stderr, "query: expected one file, got %d\n", fs.NArg())
		return errUsage
	case fs.NArg() == 1:
		path = fs.Arg(0)
	}
	if path == "" {
		fmt.Fprintln(stderr, "query: -file is required")
		fs.Usage()
		return errUsage
	}

	format, err := render.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	proc := core.NewProcessor(path, newLoader(cfg))
	t, err := proc.Load(ctx)
	if err != nil {
		return err
	}

	opts := core.Options{
		CaseInsensitive: !*caseSensitive,
		Strip:           !*noStrip,
		FloatTol:        tol.value,
		Parallel:        *parallel,
	}
	out, err := proc.Filter(where.columns, t.ParseTargets(where.columns, where.values), opts)
	if err != nil {
		return err
	}

	if *countOnly {
		_, err = fmt.Fprintln(stdout, out.NumRows())
		return err
	}
	if format == render.FormatCSV {
		return render.WriteCSV(stdout, out, cfg.Load.DelimiterRune())
	}
	return render.Write(ctx, stdout, out, format)
}

// loadList collects repeated -load flags.
type loadList []string

func (l *loadList) String() string     { return strings.Join(*l, ",") }
func (l *loadList) Set(s string) error { *l = append(*l, s); return nil }

func runServe(ctx context.Context, cfg *config.Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var preload loadList
	fs.Var(&preload, "load", "CSV file to load at startup (repeatable)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}

	slog.Info("configuration loaded", "config", cfg.String())

	loader := newLoader(cfg)
	catalog := core.NewCatalog()
	for _, path := range append(preload, fs.Args()...) {
		t, err := loader.Load(ctx, path)
		if err != nil {
			return err
		}
		if err := catalog.Add(t); err != nil {
			return err
		}
	}
	slog.Info("datasets preloaded", "count", catalog.Count())

	go catalog.StartExpiry(ctx, core.ExpiryConfig{TTL: cfg.Server.DatasetTTL})

	server := web.NewServer(catalog, loader, cfg)

	// Graceful shutdown. done closes once in-flight loads have drained.
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	slog.Info("server stopped")
	return nil
}
