package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/config"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/feed"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/fetch"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/filing"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/fx"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/mcp"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/pipeline"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/store"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/symbol"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures the standard logger based on the run mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
		return
	}
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// app holds the wired components
type app struct {
	fetcher   *fetch.Client
	processor *filing.Processor
	store     *store.Store
}

// build wires the components described by cfg
func build(cfg *config.Config) (*app, error) {
	policy, err := filing.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
		fetch.WithRateLimit(cfg.RequestsPerSecond),
		fetch.WithMaxSize(cfg.MaxPDFSize),
		fetch.WithLogger(cfg.NewLogger("Fetch")),
	)

	rates := fx.NewClient(cfg.FXBaseURL, cfg.FXTTL,
		fx.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
		fx.WithLogger(cfg.NewLogger("FX")),
	)

	extractor, err := filing.NewExtractor(policy, rates, cfg.NewLogger("Filing"))
	if err != nil {
		return nil, err
	}

	var symbols filing.SymbolResolver
	if cfg.SymbolTablePath != "" {
		table, err := symbol.LoadFile(cfg.SymbolTablePath, cfg.NewLogger("Symbol"))
		if err != nil {
			return nil, err
		}
		symbols = table
	}

	a := &app{
		fetcher:   fetcher,
		processor: filing.NewProcessor(fetcher, symbols, extractor, cfg.NewLogger("Processor")),
	}

	if cfg.DatabasePath != "" {
		a.store, err = store.Open(cfg.DatabasePath, store.WithLogger(cfg.NewLogger("Store")))
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
}

// period returns the feed period of a batch. Without a configured period
// the previous day up to now is listed.
func period(cfg *config.Config, now time.Time) (time.Time, time.Time, error) {
	if !cfg.HasPeriod() {
		return now.AddDate(0, 0, -1), now, nil
	}
	start, err := feed.ParseDate(cfg.PeriodStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := feed.ParseDate(cfg.PeriodEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// runBatch processes the configured announcements and writes the result
func runBatch(ctx context.Context, cfg *config.Config, a *app) error {
	opts := []pipeline.Option{pipeline.WithLogger(cfg.NewLogger("Pipeline"))}
	if a.store != nil {
		opts = append(opts, pipeline.WithStore(a.store))
	}
	runner := pipeline.New(a.processor, opts...)

	var (
		res *pipeline.Result
		err error
	)
	if len(cfg.URLs) > 0 {
		res, err = runner.Run(ctx, cfg.URLs)
	} else {
		start, end, perr := period(cfg, time.Now())
		if perr != nil {
			return perr
		}
		lister := feed.New(a.fetcher,
			feed.WithBaseURL(cfg.FeedBaseURL),
			feed.WithToken(cfg.FeedToken),
			feed.WithPageSize(cfg.FeedPageSize),
			feed.WithLogger(cfg.NewLogger("Feed")),
		)
		res, err = runner.RunPeriod(ctx, lister, start, end)
	}
	if err != nil {
		return err
	}

	log.Printf("Run %s: %d processed, %d excluded, %d failed, %d skipped, %d saved, %d flagged",
		res.RunID, res.Processed, res.Excluded, res.Failed, res.Skipped, res.Saved, len(res.Flagged))

	if cfg.OutputPath != "" {
		return pipeline.WriteJSON(cfg.OutputPath, res)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// runStdioMode serves the MCP tools until stdin closes
func runStdioMode(ctx context.Context, cfg *config.Config, a *app) error {
	var records mcp.RecordLister
	if a.store != nil {
		records = a.store
	}

	server, err := mcp.NewServer(cfg, a.processor, records, cfg.NewLogger("MCP"))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	a, err := build(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	if cfg.IsStdioMode() {
		err = runStdioMode(ctx, cfg, a)
	} else {
		err = runBatch(ctx, cfg, a)
	}
	stop()
	a.close()

	if err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("SGX Filings\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
