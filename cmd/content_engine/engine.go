package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/analysis"
	"github.com/jonathan/content-engine/internal/config"
	"github.com/jonathan/content-engine/internal/drafting"
	"github.com/jonathan/content-engine/internal/fetch"
	"github.com/jonathan/content-engine/internal/grounding"
	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/pipeline"
	"github.com/jonathan/content-engine/internal/search"
)

// Flags shared by every command that talks to providers.
var (
	flagConfigPath  string
	flagAPIKey      string
	flagSearchKey   string
	flagSearchCX    string
	flagDatabaseURL string
	flagSiteURL     string
	flagUseBrowser  bool
	flagVerbose     bool
)

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	cmd.Flags().StringVar(&flagSearchKey, "search-key", "", "Programmable Search API key (optional, defaults to GOOGLE_SEARCH_API_KEY)")
	cmd.Flags().StringVar(&flagSearchCX, "search-cx", "", "Programmable Search engine id (optional, defaults to GOOGLE_SEARCH_CX)")
	cmd.Flags().StringVar(&flagDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().StringVar(&flagSiteURL, "site-url", "", "Site base URL for generated breadcrumb markup")
	cmd.Flags().BoolVar(&flagUseBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print detailed debug information")
}

// resolveConfig merges config sources and checks the provider credentials:
// flags override the config file, which overrides the environment.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := resolveStoreConfig(cmd)
	if err != nil {
		return cfg, err
	}
	if cfg.GeminiAPIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	if cfg.SearchAPIKey == "" || cfg.SearchEngineID == "" {
		return cfg, fmt.Errorf("GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_CX (or --search-key/--search-cx) are required")
	}
	return cfg, nil
}

// resolveStoreConfig merges config sources without requiring provider
// credentials, for commands that only read job state.
func resolveStoreConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if flagConfigPath != "" {
		loaded, err := config.Load(flagConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("api-key") {
		cfg.GeminiAPIKey = flagAPIKey
	}
	if cmd.Flags().Changed("search-key") {
		cfg.SearchAPIKey = flagSearchKey
	}
	if cmd.Flags().Changed("search-cx") {
		cfg.SearchEngineID = flagSearchCX
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = flagDatabaseURL
	}
	if cmd.Flags().Changed("site-url") {
		cfg.SiteURL = flagSiteURL
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = flagUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = flagVerbose
	}

	return cfg.MergeWithDefaults(config.FromEnv()), nil
}

// newStore picks the job store backend: Postgres when a database URL is
// configured, in-memory otherwise.
func newStore(ctx context.Context, cfg config.Config) (jobs.Store, func(), error) {
	store, err := jobs.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	if pg, ok := store.(*jobs.PostgresStore); ok {
		cleanup = pg.Close
	}
	return store, cleanup, nil
}

// requirePersistentStore guards the per-stage commands: resuming a job in a
// later process only works with a durable backend.
func requirePersistentStore(cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("per-stage commands need a persistent job store; set DATABASE_URL or --db-url")
	}
	return nil
}

// newRunner wires the provider stack onto a store-backed pipeline runner.
// The returned cleanup closes the LLM client and the store.
func newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, jobs.Store, func(), error) {
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	client, err := llm.NewClient(ctx, nil, cfg.GeminiAPIKey)
	if err != nil {
		closeStore()
		return nil, nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	searcher, err := search.NewProvider(ctx, cfg.SearchAPIKey, cfg.SearchEngineID)
	if err != nil {
		_ = client.Close()
		closeStore()
		return nil, nil, nil, fmt.Errorf("failed to create search provider: %w", err)
	}

	runner := &pipeline.Runner{
		Store:     store,
		Search:    searcher,
		Fetch:     fetch.NewArticleFetcher(nil, cfg.UseBrowser, cfg.Verbose),
		Grounding: grounding.NewProvider(client, nil),
		Extractor: analysis.NewExtractor(client),
		Briefs:    analysis.NewBriefBuilder(client),
		Writer:    drafting.NewWriter(client),
		SiteURL:   cfg.SiteURL,
	}

	cleanup := func() {
		_ = client.Close()
		closeStore()
	}
	return runner, store, cleanup, nil
}

// stageBudget converts a configured per-stage budget in seconds, falling
// back to the given default.
func stageBudget(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
