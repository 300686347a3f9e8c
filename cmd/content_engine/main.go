// Package main provides the entry point for the content engine CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/metrics"
)

var rootCmd = &cobra.Command{
	Use:   "content_engine",
	Short: "Long-form content generation pipeline",
	Long:  "content_engine researches competitors, builds a content brief, drafts a long-form article, and audits the result. Jobs are chunked and resumable: a failed stage retries without redoing completed work.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()
	metrics.InitRatesFromEnv()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
