package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/pipeline"
	"github.com/jonathan/content-engine/internal/types"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Write the draft from the finalized brief",
	Long: `Writes the article from the job's brief. --overrides points to a JSON file
of outline edits (patched, added, removed, or reordered sections) applied to
this draft only; the stored brief is not modified.`,
	RunE: runDraftCmd,
}

var (
	draftJobID     string
	draftOverrides string
	draftOutPath   string
)

func init() {
	addEngineFlags(draftCmd)
	draftCmd.Flags().StringVar(&draftJobID, "job-id", "", "Job id (required)")
	draftCmd.Flags().StringVar(&draftOverrides, "overrides", "", "Path to a JSON file of outline overrides")
	draftCmd.Flags().StringVarP(&draftOutPath, "out", "o", "", "Write the draft HTML to this file instead of stdout")
	_ = draftCmd.MarkFlagRequired("job-id")
	rootCmd.AddCommand(draftCmd)
}

func loadOverrides(path string) (*types.BriefOverrides, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}
	var overrides types.BriefOverrides
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse overrides JSON: %w", err)
	}
	return &overrides, nil
}

func runDraftCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := requirePersistentStore(cfg); err != nil {
		return err
	}

	overrides, err := loadOverrides(draftOverrides)
	if err != nil {
		return err
	}

	ctx := context.Background()
	runner, _, cleanup, err := newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	draft, err := runner.RunDraft(ctx, draftJobID, overrides, stageBudget(cfg.DraftBudget, pipeline.DefaultDraftBudget))
	if err != nil {
		return fmt.Errorf("draft failed: %w", err)
	}

	fmt.Printf("Draft: %d words, slug %q\n", draft.WordCount(), draft.SuggestedSlug)
	if draftOutPath != "" {
		if err := os.WriteFile(draftOutPath, []byte(draft.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write draft: %w", err)
		}
		fmt.Printf("Draft written to %s\n", draftOutPath)
		return nil
	}
	fmt.Println(draft.Content)
	return nil
}
