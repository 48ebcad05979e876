// Command juniper-search answers Korean scripture queries from the command
// line and serves them over HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/JuniperSearch/core/books"
	"github.com/FocuswithJustin/JuniperSearch/core/corpus"
	"github.com/FocuswithJustin/JuniperSearch/core/errors"
	"github.com/FocuswithJustin/JuniperSearch/core/result"
	"github.com/FocuswithJustin/JuniperSearch/core/search"
	"github.com/FocuswithJustin/JuniperSearch/internal/api"
	"github.com/FocuswithJustin/JuniperSearch/internal/config"
	"github.com/FocuswithJustin/JuniperSearch/internal/formats"
	"github.com/FocuswithJustin/JuniperSearch/internal/logging"
	"github.com/FocuswithJustin/JuniperSearch/internal/metrics"
	"github.com/FocuswithJustin/JuniperSearch/internal/validation"

	// Register every corpus format.
	_ "github.com/FocuswithJustin/JuniperSearch/internal/embedded"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `short:"c" help:"YAML configuration file" type:"path"`
	Corpus    string `help:"Corpus file, overrides corpus.path" type:"path"`
	Format    string `help:"Corpus format, overrides extension detection"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (json, text)"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Serve   ServeCmd   `cmd:"" help:"Start the search API server"`
	Query   QueryCmd   `cmd:"" help:"Evaluate one query"`
	Read    ReadCmd    `cmd:"" help:"Print a verse range of one chapter"`
	Books   BooksCmd   `cmd:"" help:"List the canon and corpus coverage"`
	Convert ConvertCmd `cmd:"" help:"Convert a corpus between formats"`
	Formats FormatsCmd `cmd:"" help:"List corpus formats or detect the format of a file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// settings resolves the configuration file and flag overrides, and sets up
// logging on w.
func (g *Globals) settings(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Corpus != "" {
		cfg.Corpus.Path = g.Corpus
	}
	if g.Format != "" {
		cfg.Corpus.Format = g.Format
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	format, _ := logging.ParseFormat(cfg.Logging.Format)
	logging.InitLoggerTo(w, level, format)
	return cfg, nil
}

// loadStrict reads the configured corpus and fails on any error.
func loadStrict(cfg *config.Config) (*corpus.Corpus, error) {
	start := time.Now()
	c, err := formats.LoadStrict(cfg.Corpus.Path, cfg.Corpus.Format)
	if err != nil {
		return nil, errors.Wrap(err, "load corpus")
	}
	logging.CorpusLoaded(cfg.Corpus.Path, cfg.Corpus.Format, c.Len(), c.Fingerprint(),
		"duration_ms", time.Since(start).Milliseconds())
	return c, nil
}

func newEngine(cfg *config.Config, c *corpus.Corpus) *search.Engine {
	return search.New(c,
		search.WithLimit(cfg.Search.Limit),
		search.WithObserver(func(query string, out search.Outcome, took time.Duration) {
			logging.QueryEvaluated(context.Background(), query, string(out.Intent), len(out.Items), took)
		}),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ServeCmd starts the HTTP API.
type ServeCmd struct {
	Host    string   `help:"Listen host, overrides server.host"`
	Port    int      `help:"Listen port, overrides server.port" default:"-1"`
	Origins []string `name:"origin" help:"Allowed CORS and websocket origin (repeatable)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.settings(os.Stdout)
	if err != nil {
		return err
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port >= 0 {
		cfg.Server.Port = c.Port
	}
	if len(c.Origins) > 0 {
		cfg.Server.AllowedOrigins = c.Origins
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	// A missing or broken corpus still starts the server; /health reports
	// it as degraded.
	start := time.Now()
	corp := formats.Load(cfg.Corpus.Path, cfg.Corpus.Format, logging.GetLogger())
	logging.CorpusLoaded(cfg.Corpus.Path, cfg.Corpus.Format, corp.Len(), corp.Fingerprint(),
		"duration_ms", time.Since(start).Milliseconds())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := search.New(corp, search.WithLimit(cfg.Search.Limit))
	srv := api.New(cfg, engine, api.WithMetrics(metrics.New()), api.WithVersion(version))
	return srv.Run(ctx)
}

// QueryCmd evaluates one query.
type QueryCmd struct {
	Query  []string `arg:"" optional:"" help:"Query words, joined with spaces"`
	Limit  int      `help:"Keyword result cap (0 uses search.limit)"`
	Output string   `short:"o" help:"Output format" enum:"json,text" default:"json"`
}

func (c *QueryCmd) Run(g *Globals, out io.Writer) error {
	cfg, err := g.settings(os.Stderr)
	if err != nil {
		return err
	}
	query := strings.Join(c.Query, " ")
	if err := validation.ValidateQuery(query); err != nil {
		return err
	}
	corp, err := loadStrict(cfg)
	if err != nil {
		return err
	}

	limit := cfg.Search.Limit
	if c.Limit > 0 {
		limit = min(c.Limit, cfg.Search.MaxLimit)
	}
	outcome := newEngine(cfg, corp).EvaluateWithLimit(query, limit)

	if c.Output == "text" {
		return writeItems(out, outcome.Items)
	}
	return writeJSON(out, result.Response{Items: outcome.Items})
}

// writeItems prints items for a terminal. Per-verse items repeat the block
// body and are skipped.
func writeItems(w io.Writer, items []result.Item) error {
	for _, it := range items {
		switch {
		case it.FullBody != "":
			fmt.Fprintln(w, it.Title)
			for _, line := range strings.Split(it.FullBody, "\n") {
				fmt.Fprintln(w, "  "+line)
			}
			fmt.Fprintln(w, "  -- "+it.FooterText)
		case it.Valid && it.Icon == nil:
			continue
		case it.Valid:
			fmt.Fprintln(w, it.Title)
		default:
			fmt.Fprintf(w, "%s: %s\n", it.Title, it.Subtitle)
		}
	}
	return nil
}

// ReadCmd prints verses start..end of one chapter.
type ReadCmd struct {
	Book    string `arg:"" help:"Book code or name"`
	Chapter int    `arg:"" help:"Chapter number"`
	Start   int    `arg:"" help:"First verse"`
	End     int    `arg:"" optional:"" help:"Last verse (defaults to start)"`
	Output  string `short:"o" help:"Output format" enum:"json,text" default:"text"`
}

func (c *ReadCmd) Run(g *Globals, out io.Writer) error {
	cfg, err := g.settings(os.Stderr)
	if err != nil {
		return err
	}
	if err := validation.ValidateBook(c.Book); err != nil {
		return err
	}
	corp, err := loadStrict(cfg)
	if err != nil {
		return err
	}

	var end *int
	if c.End > 0 {
		end = &c.End
	}
	p, err := newEngine(cfg, corp).ReadRange(c.Book, c.Chapter, c.Start, end)
	if err != nil {
		return err
	}

	if c.Output == "json" {
		return writeJSON(out, p)
	}
	fmt.Fprintf(out, "%s %d장\n", p.Name, p.Chapter)
	for _, line := range p.Verses {
		fmt.Fprintf(out, "%d. %s\n", line.Verse, line.Text)
	}
	return nil
}

// BooksCmd lists the canon with per-book corpus coverage.
type BooksCmd struct {
	Output string `short:"o" help:"Output format" enum:"json,text" default:"text"`
}

type bookRow struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Chapters int    `json:"chapters"`
	Verses   int    `json:"verses"`
}

func (c *BooksCmd) Run(g *Globals, out io.Writer) error {
	cfg, err := g.settings(os.Stderr)
	if err != nil {
		return err
	}
	corp, err := loadStrict(cfg)
	if err != nil {
		return err
	}

	canon := books.All()
	rows := make([]bookRow, 0, len(canon))
	for _, b := range canon {
		row := bookRow{Code: b.Code, Name: b.Name}
		if cb, ok := corp.Book(b.Code); ok {
			row.Chapters = len(cb.Chapters())
			row.Verses = cb.Len()
		}
		rows = append(rows, row)
	}

	if c.Output == "json" {
		return writeJSON(out, rows)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tCHAPTERS\tVERSES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Code, r.Name, r.Chapters, humanize.Comma(int64(r.Verses)))
	}
	stats := corp.Stats()
	fmt.Fprintf(tw, "\t%d books\t%s\t%s\n", stats.Books,
		humanize.Comma(int64(stats.Chapters)), humanize.Comma(int64(stats.Verses)))
	return tw.Flush()
}

// ConvertCmd rewrites a corpus in another format.
type ConvertCmd struct {
	In   string `arg:"" help:"Input corpus" type:"existingfile"`
	Out  string `arg:"" help:"Output corpus" type:"path"`
	From string `help:"Input format, overrides extension detection"`
	To   string `help:"Output format, overrides extension detection"`
}

func (c *ConvertCmd) Run(g *Globals, out io.Writer) error {
	if _, err := g.settings(os.Stderr); err != nil {
		return err
	}
	for _, p := range []string{c.In, c.Out} {
		if err := validation.ValidatePath(p); err != nil {
			return err
		}
	}

	corp, err := formats.LoadStrict(c.In, c.From)
	if err != nil {
		return errors.Wrapf(err, "load %s", c.In)
	}
	if err := formats.Write(c.Out, c.To, corp); err != nil {
		return errors.Wrapf(err, "write %s", c.Out)
	}

	info, err := os.Stat(c.Out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s verses to %s (%s)\n",
		humanize.Comma(int64(corp.Len())), c.Out, humanize.Bytes(uint64(info.Size())))
	fmt.Fprintf(out, "  Fingerprint: %s\n", corp.Fingerprint())
	return nil
}

// FormatsCmd lists registered formats, or reports which one claims a file.
type FormatsCmd struct {
	Path string `arg:"" optional:"" help:"File to detect"`
}

func (c *FormatsCmd) Run(g *Globals, out io.Writer) error {
	if c.Path == "" {
		for _, name := range formats.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}
	det := formats.Detect(c.Path, g.Format)
	if err := writeJSON(out, det); err != nil {
		return err
	}
	if !det.Detected {
		return errors.NewUnsupported("corpus format", c.Path+": "+det.Reason)
	}
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	fmt.Fprintf(out, "juniper-search version %s\n", version)
	return nil
}

func newParser(cli *CLI, out io.Writer, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("juniper-search"),
		kong.Description("Juniper Search - Korean scripture query engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Bind(&cli.Globals),
		kong.BindTo(out, (*io.Writer)(nil)),
	}, opts...)
	return kong.New(cli, opts...)
}

// run parses args and executes the selected command.
func run(args []string, out io.Writer) error {
	var cli CLI
	parser, err := newParser(&cli, out)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run()
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdout)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}
