package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/umputun/newsdigest/pkg/assembly"
	"github.com/umputun/newsdigest/pkg/cache"
	"github.com/umputun/newsdigest/pkg/config"
	"github.com/umputun/newsdigest/pkg/fingerprint"
	"github.com/umputun/newsdigest/pkg/llm"
	"github.com/umputun/newsdigest/pkg/pipeline"
	"github.com/umputun/newsdigest/pkg/repository"
	"github.com/umputun/newsdigest/pkg/scheduler"
	"github.com/umputun/newsdigest/pkg/scorer"
	"github.com/umputun/newsdigest/pkg/source"
	"github.com/umputun/newsdigest/server"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"CONFIG" default:"newsdigest.yml" description:"configuration file"`
	EnvFile string `long:"env-file" env:"ENV_FILE" default:".env" description:"optional file with environment variables"`
	Once    bool   `long:"once" description:"run the pipeline once and exit"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug)

	log.Printf("[INFO] starting newsdigest version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// app holds everything built from the configuration
type app struct {
	cfg       *config.Config
	repos     *repository.Repositories
	cache     *cache.Cache
	rss       *assembly.RSS
	kafka     *assembly.Kafka
	pipeline  *pipeline.Orchestrator
	scheduler *scheduler.Scheduler
}

func run(ctx context.Context, opts Opts) error {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.LLM.APIKey != "" {
		setupLog(opts.Debug, cfg.LLM.APIKey)
	}

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if opts.Once {
		report, err := a.scheduler.RunNow(ctx)
		if err != nil {
			return fmt.Errorf("pipeline run failed: %w", err)
		}
		log.Printf("[INFO] run %s done, %d items kept, %d dropped, %d cache hits",
			report.ID, report.Kept, report.TotalDropped(), report.CacheHits)
		return nil
	}

	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	if !cfg.Server.Enabled {
		<-ctx.Done()
		return nil
	}

	srv := server.New(a.serverParams(opts.Debug))
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// build makes all components from the configuration
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.repos = repos

	cacheOpts := cache.Options{DefaultTTL: cfg.Cache.TTL, MaxEntries: cfg.Cache.MaxEntries}
	if cfg.Cache.Persist {
		cacheOpts.Store = repos.Cache
	}
	a.cache = cache.New(cacheOpts)
	n, err := a.cache.Load(ctx)
	if err != nil {
		// the cache stays empty and usable
		log.Printf("[WARN] failed to load summary cache: %v", err)
	}
	log.Printf("[DEBUG] loaded %d cached summaries", n)

	var assemblers assembly.Chain
	if cfg.Assembly.RSS.Enabled {
		a.rss = assembly.NewRSS(assembly.RSSConfig{
			Path:        cfg.Assembly.RSS.Path,
			Title:       cfg.Assembly.RSS.Title,
			Link:        cfg.Assembly.RSS.Link,
			Description: cfg.Assembly.RSS.Description,
		})
		assemblers = append(assemblers, a.rss)
	}
	if cfg.Assembly.Kafka.Enabled {
		a.kafka = assembly.NewKafka(assembly.KafkaConfig{
			Brokers: cfg.Assembly.Kafka.Brokers,
			Topic:   cfg.Assembly.Kafka.Topic,
			Timeout: cfg.Assembly.Kafka.Timeout,
		})
		assemblers = append(assemblers, a.kafka)
	}

	params := pipeline.Params{
		Sources: cfg.Sources,
		Fetcher: source.NewRegistry(cfg.Fetch.Timeout),
		Scoring: scorer.Config{
			Weights:       cfg.Scoring.Weights,
			MaxAge:        cfg.Scoring.MaxAge,
			Keywords:      cfg.Scoring.Keywords,
			KeywordCap:    cfg.Scoring.KeywordCap,
			EngagementCap: cfg.Scoring.EngagementCap,
		},
		Fingerprinter: fingerprint.New(cfg.Dedup.TrackingParams...),
		Router:        llm.NewRouter(cfg.LLM),
		Summarizer:    llm.NewSummarizer(cfg.LLM),
		Cache:         a.cache,
		History:       repos.History,
		Assembler:     assemblers,
		RunStore:      repos.Run,

		MinScore:      cfg.Pipeline.MinScore,
		MaxItems:      cfg.Pipeline.MaxItems,
		Workers:       cfg.Pipeline.Workers,
		FetchWorkers:  cfg.Fetch.MaxWorkers,
		BusyPolicy:    cfg.Pipeline.BusyPolicy,
		DedupLookback: cfg.Dedup.Lookback,
		CacheTTL:      cfg.Cache.TTL,
		FetchRetry:    cfg.Fetch.Retry,
		LLMRetry:      cfg.LLM.Retry,
		FetchTimeout:  cfg.Fetch.Timeout,
		LLMTimeout:    cfg.LLM.Timeout,
		RunTimeout:    cfg.Pipeline.Timeout,
	}
	if cfg.Extraction.Enabled {
		params.Extractor = source.NewExtractor(cfg.Extraction.Timeout)
		params.ExtractTimeout = cfg.Extraction.Timeout
		params.ExtractMinLength = cfg.Extraction.MinTextLength
	}
	// status serves the stored report until the first run of this process finishes
	if last, lerr := repos.Run.LastRun(ctx); lerr != nil {
		log.Printf("[WARN] failed to load last run report: %v", lerr)
	} else {
		params.LastReport = last
	}
	a.pipeline = pipeline.New(params)

	a.scheduler = scheduler.NewScheduler(scheduler.Params{
		Runner:           a.pipeline,
		Cache:            a.cache,
		History:          repos.History,
		Interval:         cfg.Schedule.Interval,
		RunOnStart:       cfg.Schedule.RunOnStart,
		SweepInterval:    cfg.Cache.SweepInterval,
		HistoryRetention: cfg.Schedule.HistoryRetention,
	})

	log.Printf("[INFO] %d active sources, rss %v, kafka %v, extraction %v", len(cfg.ActiveSources()),
		cfg.Assembly.RSS.Enabled, cfg.Assembly.Kafka.Enabled, cfg.Extraction.Enabled)
	return a, nil
}

func (a *app) serverParams(dbg bool) server.Params {
	p := server.Params{
		Config: server.Config{
			Listen:  a.cfg.Server.Listen,
			Timeout: a.cfg.Server.Timeout,
			Version: revision,
			Debug:   dbg,
		},
		Pipeline: a.pipeline,
		Runs:     a.repos.Run,
		History:  a.repos.History,
		Cache:    a.cache,
	}
	if a.rss != nil {
		p.Digest = a.rss
	}
	return p
}

func (a *app) close() {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			log.Printf("[WARN] failed to close kafka writer: %v", err)
		}
	}
	if a.repos != nil {
		if err := a.repos.Close(); err != nil {
			log.Printf("[WARN] failed to close database: %v", err)
		}
	}
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
