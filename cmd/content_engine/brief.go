package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/observability"
	"github.com/jonathan/content-engine/internal/pipeline"
)

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Build the content brief from completed research",
	Long: `Analyzes the fetched competitor content and grounded facts into a content brief: outline, keyword plan, style profile, and word count target.

With --revise the brief is rebuilt (topic extraction is reused from cache); --words sets an explicit target.`,
	RunE: runBriefCmd,
}

var (
	briefJobID  string
	briefRevise bool
	briefWords  int
)

func init() {
	addEngineFlags(briefCmd)
	briefCmd.Flags().StringVar(&briefJobID, "job-id", "", "Job id (required)")
	briefCmd.Flags().BoolVar(&briefRevise, "revise", false, "Rebuild the brief, reusing cached topic extraction")
	briefCmd.Flags().IntVar(&briefWords, "words", 0, "Explicit word count target (500-6000, with --revise)")
	_ = briefCmd.MarkFlagRequired("job-id")
	rootCmd.AddCommand(briefCmd)
}

func runBriefCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := requirePersistentStore(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	runner, _, cleanup, err := newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := pipeline.BriefOptions{Revise: briefRevise, WordCountTarget: briefWords}
	brief, err := runner.RunBrief(ctx, briefJobID, opts, stageBudget(cfg.BriefBudget, pipeline.DefaultBriefBudget))
	if err != nil {
		return fmt.Errorf("brief failed: %w", err)
	}

	observability.NewPrinter(os.Stdout).PrintBrief(&brief)
	return nil
}
