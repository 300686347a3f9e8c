// Package config provides configuration loading and merging for the CLI and
// server. Precedence is flags over config file over environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config is the engine configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided
// via CLI flags.
type Config struct {
	// Provider credentials
	GeminiAPIKey   string `json:"gemini_api_key,omitempty"`   // Gemini API key
	SearchAPIKey   string `json:"search_api_key,omitempty"`   // Programmable Search API key
	SearchEngineID string `json:"search_engine_id,omitempty"` // Programmable Search engine id (cx)

	// Persistence
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty keeps jobs in memory

	// Output
	SiteURL string `json:"site_url,omitempty"` // Site base URL for generated breadcrumb markup

	// Server
	ListenAddr string `json:"listen_addr,omitempty"` // HTTP listen address, e.g. ":8080"

	// Behavior
	UseBrowser     bool `json:"use_browser,omitempty"`     // Use headless browser fallback for SPA sites
	Verbose        bool `json:"verbose,omitempty"`         // Print detailed debug information
	ResearchBudget int  `json:"research_budget,omitempty"` // Research stage budget in seconds
	BriefBudget    int  `json:"brief_budget,omitempty"`    // Brief stage budget in seconds
	DraftBudget    int  `json:"draft_budget,omitempty"`    // Draft stage budget in seconds
}

// Load reads configuration from a JSON file. Returns an error if the file
// cannot be read or parsed.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Used as the lowest
// precedence layer; godotenv loads .env before this runs.
func FromEnv() Config {
	return Config{
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		SearchAPIKey:   os.Getenv("GOOGLE_SEARCH_API_KEY"),
		SearchEngineID: os.Getenv("GOOGLE_SEARCH_CX"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SiteURL:        os.Getenv("SITE_URL"),
		ListenAddr:     os.Getenv("LISTEN_ADDR"),
		UseBrowser:     envBool("USE_BROWSER"),
		Verbose:        envBool("VERBOSE"),
	}
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// Validate checks that the configuration has usable values. It does not
// check for required fields; those are enforced by CLI flag validation
// after merging.
func (c *Config) Validate() error {
	for name, v := range map[string]int{
		"research_budget": c.ResearchBudget,
		"brief_budget":    c.BriefBudget,
		"draft_budget":    c.DraftBudget,
	} {
		if v < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", name)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Used to apply config file values over the environment layer.
// Bool fields cannot distinguish unset from false and are not merged; CLI
// flags always win for those.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.SearchAPIKey == "" {
		result.SearchAPIKey = defaults.SearchAPIKey
	}
	if result.SearchEngineID == "" {
		result.SearchEngineID = defaults.SearchEngineID
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SiteURL == "" {
		result.SiteURL = defaults.SiteURL
	}
	if result.ListenAddr == "" {
		result.ListenAddr = defaults.ListenAddr
	}
	if result.ResearchBudget == 0 {
		result.ResearchBudget = defaults.ResearchBudget
	}
	if result.BriefBudget == 0 {
		result.BriefBudget = defaults.BriefBudget
	}
	if result.DraftBudget == 0 {
		result.DraftBudget = defaults.DraftBudget
	}
	if !result.UseBrowser {
		result.UseBrowser = defaults.UseBrowser
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}
