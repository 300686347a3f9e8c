package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/pipeline"
	"github.com/jonathan/content-engine/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes job and per-stage pipeline endpoints, an SSE run stream, and run metrics.`,
	RunE:  runServe,
}

func init() {
	addEngineFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to listen_addr config or :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.ListenAddr = serveAddr
	}

	ctx := context.Background()
	runner, store, cleanup, err := newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(server.Config{
		Addr:           cfg.ListenAddr,
		Store:          store,
		Runner:         runner,
		ResearchBudget: stageBudget(cfg.ResearchBudget, pipeline.DefaultResearchBudget),
		BriefBudget:    stageBudget(cfg.BriefBudget, pipeline.DefaultBriefBudget),
		DraftBudget:    stageBudget(cfg.DraftBudget, pipeline.DefaultDraftBudget),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
