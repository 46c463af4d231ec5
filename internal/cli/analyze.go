package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blastradius/pkg/cache"
	"github.com/matzehuels/blastradius/pkg/config"
	"github.com/matzehuels/blastradius/pkg/discovery"
	brerrors "github.com/matzehuels/blastradius/pkg/errors"
	"github.com/matzehuels/blastradius/pkg/httputil"
	"github.com/matzehuels/blastradius/pkg/integrations"
	"github.com/matzehuels/blastradius/pkg/integrations/librariesio"
	"github.com/matzehuels/blastradius/pkg/integrations/npm"
	"github.com/matzehuels/blastradius/pkg/observability"
	"github.com/matzehuels/blastradius/pkg/pipeline"
	"github.com/matzehuels/blastradius/pkg/render"
	"github.com/matzehuels/blastradius/pkg/report"
)

// Output formats.
const (
	formatCSV   = "csv"
	formatJSONL = "jsonl"
)

// analyzeFlags holds flag values. Flags that map onto config fields only
// override the config when set explicitly.
type analyzeFlags struct {
	configPath    string
	input         string
	output        string
	format        string
	graph         string
	metricsFile   string
	mongoURI      string
	cacheTTL      time.Duration
	retries       int
	concurrency   int
	maxDependents int
	includeDev    bool
	includePeer   bool
	disableScrape bool
	refresh       bool
	progressBar   bool
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [name@version...]",
		Short: "Estimate the blast radius of compromised package versions",
		Long: `Analyze discovers the direct dependents of each compromised package version
and writes one record per dependent.

Sources are given as name@version arguments, as a CSV file (--input) with a
package,version header, or both.`,
		Example: `  # Single compromised version, CSV to stdout
  blastradius analyze chalk@5.6.1

  # Several versions from a file, JSON Lines to a file, graph as SVG
  blastradius analyze --input compromised.csv --output out.jsonl --graph radius.svg

  # Include dev dependencies, cap discovery at 500 dependents
  blastradius analyze debug@4.4.2 --include-dev --max-dependents 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), cmd, args, &f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "config file (.toml, .yaml)")
	flags.StringVarP(&f.input, "input", "i", "", "CSV file of package,version rows")
	flags.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	flags.StringVarP(&f.format, "format", "f", "", "output format: csv or jsonl (default: from output extension, else csv)")
	flags.StringVar(&f.graph, "graph", "", "write the blast-radius graph (.svg or .dot)")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
	flags.StringVar(&f.mongoURI, "mongo-uri", "", "also insert records into MongoDB")
	flags.DurationVar(&f.cacheTTL, "cache-ttl", 0, "cache registry metadata for this long (0 disables)")
	flags.IntVar(&f.retries, "retries", 0, "HTTP retries after the first attempt")
	flags.IntVar(&f.concurrency, "concurrency", pipeline.DefaultConcurrency, "dependents analyzed in parallel")
	flags.IntVar(&f.maxDependents, "max-dependents", 0, "stop discovery after this many dependents (0 = unlimited)")
	flags.BoolVar(&f.includeDev, "include-dev", false, "consider devDependencies")
	flags.BoolVar(&f.includePeer, "include-peer", false, "consider peerDependencies")
	flags.BoolVar(&f.disableScrape, "disable-scrape", false, "skip the website scrape discovery stage")
	flags.BoolVar(&f.refresh, "refresh", false, "ignore cached metadata")
	flags.BoolVar(&f.progressBar, "progress-bar", false, "draw a progress bar when stderr is a terminal")

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, cmd *cobra.Command, args []string, f *analyzeFlags) error {
	cfg, err := c.loadConfig(cmd, f)
	if err != nil {
		return err
	}
	c.Logger.Debug("configuration", "effective", cfg.String())

	sources, err := collectSources(args, f.input)
	if err != nil {
		return err
	}

	format, err := outputFormat(f.format, f.output)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if f.metricsFile != "" {
		reg = prometheus.NewRegistry()
		prom := observability.NewPrometheus(reg)
		observability.SetHTTPHooks(prom)
		observability.SetDiscoveryHooks(prom)
		observability.SetAnalysisHooks(prom)
		defer observability.Reset()
	}

	store, err := c.openCache(ctx, cfg.Cache)
	if err != nil {
		return brerrors.Wrap(brerrors.ErrCodeInvalidConfig, err, "open cache")
	}
	defer store.Close()

	collector := report.NewCollector()
	sink, err := c.openSink(ctx, cfg, f.output, format, collector)
	if err != nil {
		return err
	}

	npmClient, agg := newDiscovery(cfg, store, c.Logger)
	runner := pipeline.NewRunner(npmClient, agg, sink, c.Logger)
	c.Logger.Info("starting run", "run_id", runner.RunID, "sources", len(sources))

	opts := pipeline.Options{
		IncludeDev:    cfg.Discovery.IncludeDev,
		IncludePeer:   cfg.Discovery.IncludePeer,
		MaxDependents: cfg.Discovery.MaxDependents,
		Concurrency:   cfg.Analysis.Concurrency,
		ProgressEvery: cfg.Analysis.ProgressEvery,
		TaskPause:     cfg.Analysis.TaskPause,
		Refresh:       f.refresh,
		Logger:        c.Logger,
	}
	if f.progressBar && isTerminal(c.Stderr) {
		bar := newBarReporter(c.Stderr)
		opts.Progress = bar.update
		defer bar.finish()
	}

	prog := newProgress(c.Logger)
	res, runErr := runner.Run(ctx, sources, opts)
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = brerrors.Wrap(brerrors.ErrCodeOutput, err, "close output")
	}
	if res != nil {
		prog.done(fmt.Sprintf("Analyzed %d of %d sources", len(res.Sources), len(sources)))
		printSummary(c.Stderr, report.Summarize(collector.Records()))
		for _, failed := range res.Failed {
			printError(c.Stderr, "%s: %s", failed.Source, brerrors.UserMessage(failed.Err))
		}
	}
	if runErr != nil {
		return runErr
	}

	if f.output != "" && f.output != "-" {
		printSuccess(c.Stderr, "Wrote %d records", len(collector.Records()))
		printFile(c.Stderr, f.output)
	}
	if f.graph != "" {
		if err := render.WriteFile(ctx, f.graph, collector.Records(), render.Options{}); err != nil {
			return err
		}
		printSuccess(c.Stderr, "Rendered blast-radius graph")
		printFile(c.Stderr, f.graph)
	}
	if reg != nil {
		if err := prometheus.WriteToTextfile(f.metricsFile, reg); err != nil {
			return brerrors.Wrap(brerrors.ErrCodeOutput, err, "write metrics %s", f.metricsFile)
		}
		printDetail(c.Stderr, "Metrics: %s", f.metricsFile)
	}
	return nil
}

// loadConfig layers defaults, the config file, the environment and explicit
// flags, in that order.
func (c *CLI) loadConfig(cmd *cobra.Command, f *analyzeFlags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv(c.LookupEnv)

	flags := cmd.Flags()
	if flags.Changed("retries") {
		cfg.HTTP.Retries = f.retries
	}
	if flags.Changed("concurrency") {
		cfg.Analysis.Concurrency = f.concurrency
	}
	if flags.Changed("max-dependents") {
		cfg.Discovery.MaxDependents = f.maxDependents
	}
	if flags.Changed("include-dev") {
		cfg.Discovery.IncludeDev = f.includeDev
	}
	if flags.Changed("include-peer") {
		cfg.Discovery.IncludePeer = f.includePeer
	}
	if flags.Changed("disable-scrape") {
		cfg.Discovery.DisableScrape = f.disableScrape
	}
	if flags.Changed("cache-ttl") {
		cfg.Cache.TTL = f.cacheTTL
	}
	if f.mongoURI != "" {
		cfg.Mongo.URI = f.mongoURI
	}
	return cfg, cfg.Validate()
}

// collectSources merges positional arguments and the input file.
func collectSources(args []string, input string) ([]pipeline.Source, error) {
	var sources []pipeline.Source
	for _, arg := range args {
		src, err := parseSourceArg(arg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if input != "" {
		file, err := os.Open(input)
		if err != nil {
			return nil, brerrors.Wrap(brerrors.ErrCodeInvalidInput, err, "open input")
		}
		defer file.Close()
		fromFile, err := readSources(file)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fromFile...)
	}
	if len(sources) == 0 {
		return nil, brerrors.New(brerrors.ErrCodeInvalidInput, "no sources: pass name@version arguments or --input")
	}
	return sources, nil
}

func outputFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".jsonl", ".ndjson":
			return formatJSONL, nil
		default:
			return formatCSV, nil
		}
	}
	switch strings.ToLower(format) {
	case formatCSV:
		return formatCSV, nil
	case formatJSONL, "ndjson":
		return formatJSONL, nil
	}
	return "", brerrors.New(brerrors.ErrCodeInvalidInput, "unsupported format %q (want csv or jsonl)", format)
}

// openSink builds the output sink fan-out: the primary stream, the optional
// MongoDB collection, and collector for the summary and graph.
func (c *CLI) openSink(ctx context.Context, cfg config.Config, output, format string, collector *report.Collector) (report.Sink, error) {
	var w io.Writer = report.KeepOpen(c.Stdout)
	if output != "" && output != "-" {
		file, err := os.Create(output)
		if err != nil {
			return nil, brerrors.Wrap(brerrors.ErrCodeOutput, err, "create output")
		}
		w = file
	}

	var primary report.Sink
	switch format {
	case formatJSONL:
		primary = report.NewJSONLSink(w)
	default:
		s, err := report.NewCSVSink(w)
		if err != nil {
			return nil, err
		}
		primary = s
	}

	sinks := []report.Sink{primary, collector}
	if cfg.Mongo.URI != "" {
		mongo, err := report.NewMongoSink(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			_ = primary.Close()
			return nil, err
		}
		c.Logger.Info("writing records to mongodb", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		sinks = append(sinks, mongo)
	}
	return report.NewMulti(sinks...), nil
}

// newDiscovery wires the fetch client, registry clients and the discovery
// cascade from cfg. Only registry metadata goes through store.
func newDiscovery(cfg config.Config, store cache.Cache, logger *log.Logger) (*npm.Client, *discovery.Aggregator) {
	fetcher := httputil.NewClient(httputil.Options{
		Retries:          cfg.HTTP.Retries,
		Timeout:          cfg.HTTP.Timeout,
		BackoffUnit:      cfg.HTTP.BackoffUnit,
		MaxRateLimitWait: cfg.HTTP.MaxRateLimitWait,
		UserAgent:        cfg.HTTP.UserAgent,
		AuthBase:         cfg.Registry.RegistryURL,
		Token:            cfg.Registry.Token,
		Logger:           logger,
	})

	npmClient := npm.NewClient(
		integrations.NewClient(fetcher, store, "npm", cfg.Cache.TTL, logger),
		npm.Endpoints{
			Registry: cfg.Registry.RegistryURL,
			Search:   cfg.Registry.SearchURL,
			Website:  cfg.Registry.WebsiteURL,
		},
	)
	lio := librariesio.NewClient(
		integrations.NewClient(fetcher, nil, "librariesio", 0, logger),
		cfg.Registry.LibrariesIOURL,
		cfg.Registry.LibrariesIOKey,
	)

	d := cfg.Discovery
	agg := discovery.NewAggregator(logger,
		&discovery.SearchStrategy{Client: npmClient, PageSize: d.SearchPageSize, Pause: d.SearchPause, Logger: logger},
		&discovery.LibrariesIOStrategy{Client: lio, PerPage: d.LibrariesIOPageSize, Pause: d.LibrariesIOPause, Logger: logger},
		&discovery.ScrapeStrategy{Client: npmClient, OffsetStep: d.ScrapeOffsetStep, Pause: d.ScrapePause, Disabled: d.DisableScrape, Logger: logger},
	)
	return npmClient, agg
}
