package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/docopt/docopt-go"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/paveg/colframe/internal/config"
	cfio "github.com/paveg/colframe/internal/io"
	"github.com/paveg/colframe/internal/logging"
	cfmemory "github.com/paveg/colframe/internal/memory"
	"github.com/paveg/colframe/internal/monitoring"
	"github.com/paveg/colframe/internal/table"
	"github.com/paveg/colframe/internal/version"
)

const usage = `colframe.

Usage:
  colframe convert [options] INPUT OUTPUT
  colframe cat [options] INPUT
  colframe schema [options] INPUT
  colframe version [options]
  colframe -h | --help | --version

Commands:
  convert     Read INPUT and write it to OUTPUT in another format.
  cat         Print the rows of INPUT.
  schema      Print the column names and types of INPUT.
  version     Print build information.

Arguments:
  INPUT       file to read; the format follows the extension unless --from is given
  OUTPUT      file to write; the format follows the extension unless --to is given

Options:
  -h --help          show this help message and exit
  --from FORMAT      input format (arrow, arrows, parquet, csv, json, jsonl, bson)
  --to FORMAT        output format (arrow, arrows, parquet, csv, json, jsonl, bson)
  --select COLUMNS   comma-separated columns to keep, in order
  --sort KEYS        comma-separated sort columns; prefix a name with - for descending
  --limit N          maximum rows printed by cat [default: 20]
  --output TYPE      output type (text/json) [default: text]
  --config FILE      JSON or YAML configuration file; COLFRAME_* variables otherwise
  --stats            log the duration and size of each stage
  --verbose          log at debug level`

type Config struct {
	Convert bool `docopt:"convert"`
	Cat     bool `docopt:"cat"`
	Schema  bool `docopt:"schema"`
	Version bool `docopt:"version"`

	Input      string `docopt:"INPUT"`
	OutputPath string `docopt:"OUTPUT"`

	From    string `docopt:"--from"`
	To      string `docopt:"--to"`
	Select  string `docopt:"--select"`
	Sort    string `docopt:"--sort"`
	Limit   string `docopt:"--limit"`
	Output  string `docopt:"--output"`
	Config  string `docopt:"--config"`
	Stats   bool   `docopt:"--stats"`
	Verbose bool   `docopt:"--verbose"`
}

func main() {
	args, err := docopt.ParseArgs(usage, os.Args[1:], version.Version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := Config{}
	if err := args.Bind(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var output Output
	switch strings.ToLower(cfg.Output) {
	case "text":
		output = textOutput{}
	case "json":
		output = jsonOutput{w: os.Stdout}
	default:
		fmt.Fprintf(os.Stderr, "unknown output type %q\n", cfg.Output)
		os.Exit(1)
	}

	if err := run(cfg, output); err != nil {
		output.Error(err)
		os.Exit(1)
	}
}

// logOutput receives log lines, including --stats.
var logOutput io.Writer = os.Stderr

// env carries what every command needs once the configuration is loaded.
type env struct {
	mem     memory.Allocator
	logger  log.Logger
	metrics *monitoring.Collector
}

func setup(cfg Config) (env, error) {
	conf := config.LoadFromEnv()
	if cfg.Config != "" {
		var err error
		if conf, err = config.LoadFromFile(cfg.Config); err != nil {
			return env{}, err
		}
	}
	if cfg.Verbose {
		conf.LogLevel = "debug"
	}
	if err := conf.Validate(); err != nil {
		return env{}, fmt.Errorf("invalid configuration: %w", err)
	}
	config.SetGlobalConfig(conf)

	logger, err := logging.New(logOutput, conf)
	if err != nil {
		return env{}, err
	}
	for _, w := range conf.Warnings() {
		level.Warn(logger).Log("msg", w)
	}

	mem, err := cfmemory.NewAllocator(conf.Allocator)
	if err != nil {
		return env{}, err
	}
	return env{mem: mem, logger: logger, metrics: monitoring.NewCollector(cfg.Stats)}, nil
}

func run(cfg Config, output Output) error {
	if cfg.Version {
		output.Version(version.Info())
		return nil
	}

	e, err := setup(cfg)
	if err != nil {
		return err
	}

	if e.metrics.IsEnabled() {
		defer e.metrics.Log(e.logger)
	}

	t, err := e.metrics.Record("read", func() (*table.Table, error) {
		return load(e, cfg.Input, cfg.From)
	})
	if err != nil {
		return err
	}
	defer t.Release()

	src := t
	if t, err = e.metrics.Record("reshape", func() (*table.Table, error) { return reshape(src, cfg) }); err != nil {
		return err
	}
	defer t.Release()

	switch {
	case cfg.Schema:
		output.Schema(t.Schema())
	case cfg.Cat:
		limit, err := strconv.Atoi(cfg.Limit)
		if err != nil || limit < 0 {
			return fmt.Errorf("--limit must be a non-negative integer, got %q", cfg.Limit)
		}
		return output.Rows(t, limit)
	case cfg.Convert:
		err := e.metrics.Observe("write", t, func() error { return store(e, t, cfg.OutputPath, cfg.To) })
		if err != nil {
			return err
		}
		output.Text(fmt.Sprintf("wrote %d rows x %d columns to %s", t.Len(), t.Width(), cfg.OutputPath))
	}
	return nil
}

func resolveFormat(path, name string) (cfio.Format, error) {
	if name != "" {
		return cfio.ParseFormat(name)
	}
	return cfio.FormatFromPath(path)
}

func load(e env, path, format string) (*table.Table, error) {
	f, err := resolveFormat(path, format)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, err := cfio.NewReader(f, file, e.mem, e.logger)
	if err != nil {
		return nil, err
	}
	t, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

func store(e env, t *table.Table, path, format string) (err error) {
	f, err := resolveFormat(path, format)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := cfio.NewWriter(f, file, e.logger)
	if err != nil {
		return err
	}
	if err := w.Write(t); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// reshape applies --select and --sort. It always returns a table the
// caller owns, leaving t untouched.
func reshape(t *table.Table, cfg Config) (*table.Table, error) {
	out := t
	out.Retain()

	if cfg.Select != "" {
		selected, err := out.Select(splitList(cfg.Select)...)
		out.Release()
		if err != nil {
			return nil, err
		}
		out = selected
	}

	if cfg.Sort != "" {
		sorted, err := out.Sort(parseSortKeys(cfg.Sort), table.DefaultSortOptions())
		out.Release()
		if err != nil {
			return nil, err
		}
		out = sorted
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseSortKeys(s string) []table.SortKey {
	names := splitList(s)
	keys := make([]table.SortKey, len(names))
	for i, name := range names {
		if desc := strings.HasPrefix(name, "-"); desc {
			keys[i] = table.SortKey{Column: name[1:], Descending: true}
		} else {
			keys[i] = table.SortKey{Column: name}
		}
	}
	return keys
}
