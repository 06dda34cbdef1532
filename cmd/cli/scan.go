package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ipintel/ipintel/pkg/cachestore"
	"github.com/ipintel/ipintel/pkg/config"
	"github.com/ipintel/ipintel/pkg/duration"
	"github.com/ipintel/ipintel/pkg/hosterrors"
	"github.com/ipintel/ipintel/pkg/identity"
	"github.com/ipintel/ipintel/pkg/input"
	"github.com/ipintel/ipintel/pkg/lookup"
	"github.com/ipintel/ipintel/pkg/metrics"
	"github.com/ipintel/ipintel/pkg/output"
	"github.com/ipintel/ipintel/pkg/ratelimit"
	"github.com/ipintel/ipintel/pkg/retry"
	"github.com/ipintel/ipintel/pkg/scanner"
	"github.com/ipintel/ipintel/pkg/ui"
)

func runScan(args []string) int {
	opts := config.Default()

	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	var targets, proxies input.StringSliceFlag
	var profilePath string
	var quiet bool

	fs.Var(&targets, "t", "target IP, CIDR, or hostname")
	fs.StringVar(&opts.TargetFile, "l", "", "target list file")
	fs.BoolVar(&opts.Resolve, "resolve", false, "resolve hostname targets")
	fs.IntVar(&opts.Workers, "w", opts.Workers, "concurrent workers")
	fs.IntVar(&opts.RequestsPerMinute, "rpm", opts.RequestsPerMinute, "requests per minute")
	fs.IntVar(&opts.RequestsPerSecond, "rps", 0, "requests per second smoothing")
	fs.DurationVar(&opts.DelayMin, "delay-min", 0, "random delay lower bound")
	fs.DurationVar(&opts.DelayMax, "delay-max", 0, "random delay upper bound")
	fs.IntVar(&opts.Identities, "identities", opts.Identities, "identity pool size")
	fs.Var(&proxies, "proxy", "proxy URL")
	fs.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "per-request timeout")
	fs.IntVar(&opts.MaxAttempts, "retries", opts.MaxAttempts, "attempt budget per target")
	fs.StringVar(&opts.CachePath, "cache", opts.CachePath, "cache path")
	fs.DurationVar(&opts.CacheTTL, "cache-ttl", opts.CacheTTL, "cache entry lifetime")
	fs.BoolVar(&opts.NoCache, "no-cache", false, "bypass the cache")
	fs.StringVar(&opts.BaseURL, "base-url", opts.BaseURL, "service base URL")
	fs.StringVar(&profilePath, "profile", "", "YAML profile")
	fs.StringVar(&opts.JSONLPath, "jsonl", "", "JSONL output path")
	fs.StringVar(&opts.CSVPath, "csv", "", "CSV output path")
	fs.StringVar(&opts.MetricsAddr, "metrics", "", "Prometheus listen address")
	fs.BoolVar(&quiet, "q", false, "quiet mode")
	fs.BoolVar(&opts.Verbose, "v", false, "verbose logging")
	fs.BoolVar(&opts.NoColor, "no-color", false, "disable color")
	fs.Parse(args)

	// Precedence: defaults, then profile, then flags. Flags already
	// parsed into opts, so a profile only fills what flags left alone.
	if profilePath != "" {
		profile, err := config.LoadProfile(profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		flagged := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { flagged[f.Name] = true })
		base := opts
		profile.Apply(&base)
		mergeUnflagged(&opts, base, flagged)
	}
	opts.Targets = targets
	opts.Proxies = append(opts.Proxies, proxies...)

	// Bare positional targets after flags.
	opts.Targets = append(opts.Targets, fs.Args()...)

	if err := opts.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ui.SetQuiet(quiet)
	ui.SetNoColor(opts.NoColor)

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if !opts.Verbose && quiet {
		logger = slog.New(slog.DiscardHandler)
	}

	return scan(opts, logger)
}

// mergeUnflagged copies profile-derived values into opts for every field
// whose flag was not set on the command line.
func mergeUnflagged(opts *config.Options, base config.Options, flagged map[string]bool) {
	if !flagged["w"] {
		opts.Workers = base.Workers
	}
	if !flagged["rpm"] {
		opts.RequestsPerMinute = base.RequestsPerMinute
	}
	if !flagged["rps"] {
		opts.RequestsPerSecond = base.RequestsPerSecond
	}
	if !flagged["delay-min"] {
		opts.DelayMin = base.DelayMin
	}
	if !flagged["delay-max"] {
		opts.DelayMax = base.DelayMax
	}
	if !flagged["identities"] {
		opts.Identities = base.Identities
	}
	if !flagged["proxy"] {
		opts.Proxies = base.Proxies
	}
	if !flagged["timeout"] {
		opts.Timeout = base.Timeout
	}
	if !flagged["retries"] {
		opts.MaxAttempts = base.MaxAttempts
	}
	if !flagged["cache"] {
		opts.CachePath = base.CachePath
	}
	if !flagged["cache-ttl"] {
		opts.CacheTTL = base.CacheTTL
	}
	if !flagged["no-cache"] {
		opts.NoCache = base.NoCache
	}
	if !flagged["base-url"] {
		opts.BaseURL = base.BaseURL
	}
	if !flagged["jsonl"] {
		opts.JSONLPath = base.JSONLPath
	}
	if !flagged["csv"] {
		opts.CSVPath = base.CSVPath
	}
	if !flagged["metrics"] {
		opts.MetricsAddr = base.MetricsAddr
	}
}

func scan(opts config.Options, logger *slog.Logger) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui.Banner(os.Stderr)

	// Targets.
	source := &input.TargetSource{
		Addrs:    opts.Targets,
		ListFile: opts.TargetFile,
		Stdin:    opts.TargetFile == "-" || len(opts.Targets) == 0,
		Logger:   logger,
	}
	if source.ListFile == "-" {
		source.ListFile = ""
	}
	if !opts.Resolve {
		source.Resolver = rejectResolver{}
	}
	targetCtx, targetCancel := context.WithTimeout(ctx, duration.ContextShort)
	targets, err := source.Targets(targetCtx)
	targetCancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "error: no targets; use -t, -l, or pipe addresses on stdin")
		return 1
	}

	// Cache.
	cachePath := opts.CachePath
	cacheTTL := opts.CacheTTL
	if opts.NoCache {
		cachePath = ""
	}
	store := cachestore.Open(cachestore.Config{
		Path:          cachePath,
		TTL:           cacheTTL,
		FlushInterval: duration.CacheFlushInterval,
	}, cachestore.WithLogger(logger))
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("cache flush failed", slog.String("error", err.Error()))
		}
	}()

	// Identities.
	pool, err := identity.NewPool(identity.Config{
		Size:    opts.Identities,
		Proxies: opts.Proxies,
		Timeout: opts.Timeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: identity pool: %v\n", err)
		return 1
	}
	defer pool.CloseIdleConnections()

	// Pipeline.
	governor := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: opts.RequestsPerMinute,
		RequestsPerSecond: opts.RequestsPerSecond,
		DelayMin:          opts.DelayMin,
		DelayMax:          opts.DelayMax,
		AdaptiveSlowdown:  true,
	})
	breaker := hosterrors.New(hosterrors.Config{
		Threshold: opts.OutageThreshold,
		Expiry:    duration.OutageExpiry,
	}, hosterrors.WithLogger(logger))
	stats := metrics.NewCollector()

	var prom *metrics.PromExporter
	if opts.MetricsAddr != "" {
		prom = metrics.NewPromExporter()
		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler())
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server failed", slog.String("error", err.Error()))
			}
		}()
		defer srv.Close()
	}

	exec, err := lookup.NewExecutor(lookup.ExecutorConfig{
		Client:  lookup.NewClient(opts.BaseURL, opts.Timeout),
		Cache:   store,
		Pool:    pool,
		Limiter: governor,
		Outage:  breaker,
		Stats:   stats,
		Prom:    prom,
		Retry: retry.Config{
			MaxAttempts: opts.MaxAttempts,
			Base:        duration.BackoffBase,
			Jitter:      duration.BackoffJitter,
		},
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Output sinks.
	sink, err := buildSink(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	scannerOpts := []scanner.Option{
		scanner.WithLogger(logger),
		scanner.WithStats(stats),
		scanner.WithResultHandler(func(res scanner.Result) {
			if err := sink.WriteResult(res); err != nil {
				logger.Warn("output write failed",
					slog.String("ip", res.IP), slog.String("error", err.Error()))
			}
		}),
	}
	s, err := scanner.New(scanner.Config{Workers: opts.Workers}, exec, scannerOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ui.ConfigLine(os.Stderr, "targets", fmt.Sprintf("%d", len(targets)))
	ui.ConfigLine(os.Stderr, "workers", fmt.Sprintf("%d", opts.Workers))
	ui.ConfigLine(os.Stderr, "rate", fmt.Sprintf("%d/min", opts.RequestsPerMinute))
	ui.ConfigLine(os.Stderr, "identities", fmt.Sprintf("%d", opts.Identities))

	run := s.Start(ctx, targets)

	// First interrupt stops cooperatively, second one aborts.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("interrupt received, finishing in-flight lookups")
			run.RequestStop()
		case <-run.Done():
			return
		}
		select {
		case <-sigCh:
			logger.Error("second interrupt, aborting")
			os.Exit(130)
		case <-run.Done():
		}
	}()

	report := run.Wait()

	if err := sink.Close(); err != nil {
		logger.Warn("output close failed", slog.String("error", err.Error()))
	}

	ui.Summary(os.Stderr, report)

	if report.StoppedEarly {
		return 130
	}
	return exitCode(report)
}

// exitCode distinguishes clean runs from runs with failed targets.
func exitCode(report scanner.Report) int {
	for _, res := range report.Results {
		if res.Err != nil {
			return 1
		}
	}
	return 0
}

func buildSink(opts config.Options) (output.Writer, error) {
	var writers []output.Writer
	if !ui.Quiet() {
		writers = append(writers, output.NewConsoleWriter(os.Stdout))
	}
	if opts.JSONLPath != "" {
		f, err := os.Create(opts.JSONLPath)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", opts.JSONLPath, err)
		}
		writers = append(writers, output.NewJSONLWriter(f))
	}
	if opts.CSVPath != "" {
		f, err := os.Create(opts.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", opts.CSVPath, err)
		}
		writers = append(writers, output.NewCSVWriter(f))
	}
	return output.NewMulti(writers...), nil
}

// rejectResolver refuses hostname targets when -resolve is off, so a
// typo'd IP is skipped with a warning instead of generating DNS traffic.
type rejectResolver struct{}

func (rejectResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return nil, fmt.Errorf("%q is not an IP address or CIDR range; pass -resolve to look up hostnames", host)
}
