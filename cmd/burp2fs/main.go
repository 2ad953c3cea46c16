package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/haukened/burp2fs/internal/extract/common/clock"
	"github.com/haukened/burp2fs/internal/extract/common/log"
	"github.com/haukened/burp2fs/internal/extract/config"
	"github.com/haukened/burp2fs/internal/extract/domain"
	"github.com/haukened/burp2fs/internal/extract/gateways/archive"
	"github.com/haukened/burp2fs/internal/extract/repos/collisions"
	"github.com/haukened/burp2fs/internal/extract/repos/manifest"
	"github.com/haukened/burp2fs/internal/extract/repos/scopecache"
	"github.com/haukened/burp2fs/internal/extract/repos/scopelist"
	"github.com/haukened/burp2fs/internal/extract/services/extractor"
	"github.com/haukened/burp2fs/internal/extract/services/projector"
	"github.com/haukened/burp2fs/internal/extract/services/scope"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "burp2fs"

	// Expected distinct output paths per run
	defaultCollisionCapacity = 10000
)

// Application holds all the components of an extraction run
type Application struct {
	config    *config.AppConfig
	extractor *extractor.Extractor
	cache     scopecache.Cache
	manifest  *manifest.Store
	logger    log.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if _, err := os.Stat(opts.items); err != nil {
		fmt.Fprintf(stderr, "Error: File %s does not exist\n", opts.items)
		return 1
	}

	// Load configuration from defaults, file, environment and flags
	cfg, err := config.Load(config.LoadOptions{Path: opts.configPath, Overrides: opts.overrides})
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	// Configure global logging
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(stderr, "Logging configuration error: %v\n", err)
		return 1
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"items":      opts.items,
		"output_dir": cfg.OutputDir,
		"use_regex":  cfg.UseRegex,
	}, "Starting burp2fs")

	if opts.saveConfig {
		if err := cfg.Save(opts.configPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Configuration saved to %s\n", opts.configPath)
	}

	// Build application with all dependencies
	app, err := buildApplication(cfg, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error closing application")
		}
	}()

	// Setup cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := app.Run(ctx, opts.items)
	if summary != nil {
		printSummary(stdout, summary)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig, stdout io.Writer) (*Application, error) {
	logger := log.GetLogger()

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}

	policy := cfg.Policy(repos.extraIn, repos.extraOut)
	filter, err := scope.NewFilter(scope.FilterOptions{
		Policy: policy,
		Cache:  repos.cache,
		Logger: logger,
	})
	if err != nil {
		repos.close()
		return nil, fmt.Errorf("invalid scope configuration: %w", err)
	}

	log.Info(map[string]any{
		"mode":          policy.Mode.String(),
		"in_scope":      len(policy.InScopeDomains),
		"out_scope":     len(policy.OutScopeDomains),
		"extensions":    len(policy.UnwantedExtensions),
		"content_types": len(cfg.UnwantedContentTypes),
		"harden_paths":  cfg.HardenPaths,
		"scope_cache":   cfg.ScopeCacheSize,
		"manifest_db":   cfg.ManifestDB,
	}, "Scope policy configured")

	opts := extractor.Options{
		OutputDir:  cfg.OutputDir,
		Filter:     filter,
		Projector:  projector.New(cfg.HardenPaths),
		Content:    extractor.NewContentFilter(cfg.UnwantedContentTypes),
		Collisions: collisions.New(defaultCollisionCapacity, collisions.DefaultFPRate),
		Clock:      clock.RealClock{},
		Logger:     logger,
		OnResult:   progressPrinter(stdout),
	}
	if repos.manifest != nil {
		opts.Manifest = repos.manifest
	}

	return &Application{
		config:    cfg,
		extractor: extractor.New(opts),
		cache:     repos.cache,
		manifest:  repos.manifest,
		logger:    logger,
	}, nil
}

// repositories holds all repository implementations
type repositories struct {
	cache    scopecache.Cache
	manifest *manifest.Store
	extraIn  []string
	extraOut []string
}

func (r *repositories) close() {
	if r.manifest != nil {
		_ = r.manifest.Close()
	}
}

// buildRepositories loads scope list files and opens the caches and the manifest
func buildRepositories(cfg *config.AppConfig, logger log.Logger) (*repositories, error) {
	repos := &repositories{}

	var err error
	if cfg.InScopeFile != "" {
		if repos.extraIn, err = scopelist.LoadFile(cfg.InScopeFile, logger); err != nil {
			return nil, fmt.Errorf("failed to load in-scope file: %w", err)
		}
	}
	if cfg.OutScopeFile != "" {
		if repos.extraOut, err = scopelist.LoadFile(cfg.OutScopeFile, logger); err != nil {
			return nil, fmt.Errorf("failed to load out-of-scope file: %w", err)
		}
	}

	if repos.cache, err = scopecache.New(cfg.ScopeCacheSize); err != nil {
		return nil, fmt.Errorf("failed to create scope cache: %w", err)
	}

	if cfg.ManifestDB != "" {
		if repos.manifest, err = manifest.Open(cfg.ManifestDB); err != nil {
			return nil, fmt.Errorf("failed to open manifest: %w", err)
		}
		log.Info(map[string]any{"path": cfg.ManifestDB}, "Manifest database opened")
	}

	return repos, nil
}

// Run extracts every item of the archive at itemsPath.
func (app *Application) Run(ctx context.Context, itemsPath string) (*domain.RunSummary, error) {
	reader, err := archive.Open(itemsPath, app.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			app.logger.Warn(map[string]any{"error": err}, "Error closing archive")
		}
	}()

	summary, err := app.extractor.Run(ctx, reader)

	stats := app.cache.Stats()
	app.logger.Debug(map[string]any{
		"size":      stats.Size,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"evictions": stats.Evictions,
	}, "Scope cache statistics")
	return summary, err
}

// Close releases the manifest database, if open.
func (app *Application) Close() error {
	if app.manifest == nil {
		return nil
	}
	return app.manifest.Close()
}

// progressPrinter reports written files and failures as they happen.
func progressPrinter(w io.Writer) func(domain.ItemResult) {
	return func(r domain.ItemResult) {
		switch r.Outcome {
		case domain.OutcomeWritten:
			fmt.Fprintf(w, "Saved response to: %s\n", r.Path)
		case domain.OutcomeFailed:
			fmt.Fprintf(w, "Error processing item with URL %s: %v\n", r.URL, r.Err)
		}
	}
}

// printSummary writes the run totals and the per-domain breakdown.
func printSummary(w io.Writer, s *domain.RunSummary) {
	fmt.Fprintf(w, "\nProcessed %d items: %d written, %d out of scope, %d unwanted content, %d without response, %d failed\n",
		s.Total(),
		s.Count(domain.OutcomeWritten),
		s.Count(domain.OutcomeSkippedScope),
		s.Count(domain.OutcomeSkippedContent),
		s.Count(domain.OutcomeSkippedNoBody),
		s.Count(domain.OutcomeFailed),
	)
	fmt.Fprintf(w, "Bytes written: %d\n", s.BytesWritten)
	if s.Overwrites > 0 {
		fmt.Fprintf(w, "Overwritten files: %d (URLs differing only in query or fragment share a file)\n", s.Overwrites)
	}
	if len(s.Domains) == 0 {
		return
	}
	names := make([]string, 0, len(s.Domains))
	for name := range s.Domains {
		names = append(names, name)
	}
	slices.Sort(names)
	fmt.Fprintln(w, "Files per domain:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.Domains[name])
	}
}
