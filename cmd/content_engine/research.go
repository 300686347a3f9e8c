package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/observability"
	"github.com/jonathan/content-engine/internal/pipeline"
	"github.com/jonathan/content-engine/internal/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run the research stage for a job",
	Long: `Without --urls, lists ranked competitor sources for the keyword so you can pick which to fetch.
With --urls, fetches the selected sources and gathers grounded facts, persisting the research chunk.`,
	RunE: runResearchCmd,
}

var (
	researchKeyword   string
	researchSecondary []string
	researchJobID     string
	researchURLs      []string
)

func init() {
	addEngineFlags(researchCmd)
	researchCmd.Flags().StringVarP(&researchKeyword, "keyword", "k", "", "Primary keyword (required when creating a new job)")
	researchCmd.Flags().StringSliceVar(&researchSecondary, "secondary", nil, "Secondary keywords")
	researchCmd.Flags().StringVar(&researchJobID, "job-id", "", "Job id to create or resume (defaults to a new UUID)")
	researchCmd.Flags().StringSliceVar(&researchURLs, "urls", nil, "Selected source URLs to fetch")
	rootCmd.AddCommand(researchCmd)
}

func runResearchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := requirePersistentStore(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	runner, store, cleanup, err := newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	jobID := researchJobID
	if jobID == "" {
		if researchKeyword == "" {
			return fmt.Errorf("--keyword is required when creating a new job")
		}
		jobID = uuid.New().String()
	}

	printer := observability.NewPrinter(os.Stdout)

	if len(researchURLs) == 0 {
		input := pipelineInputForResearch(ctx, store, jobID)
		serp, err := runner.RunResearchSERP(ctx, jobID, input)
		if err != nil {
			return fmt.Errorf("search listing failed: %w", err)
		}
		printer.PrintSerpResults(serp)
		fmt.Printf("Job %s: rerun with --job-id %s --urls <url,...> to fetch selected sources\n", jobID, jobID)
		return nil
	}

	result, err := runner.RunResearchFetch(ctx, jobID, researchURLs,
		stageBudget(cfg.ResearchBudget, pipeline.DefaultResearchBudget))
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}
	fmt.Printf("Job %s: %d of %d sources fetched, %d grounded facts\n",
		jobID, result.Summary.ArticleCount, result.Summary.URLCount, result.Summary.CurrentDataFacts)
	return nil
}

// pipelineInputForResearch reuses the stored input when resuming a job and
// falls back to the research flags for a new one.
func pipelineInputForResearch(ctx context.Context, store jobs.Store, jobID string) types.PipelineInput {
	if job, err := store.GetJob(ctx, jobID); err == nil {
		return job.Input
	}
	return types.PipelineInput{
		PrimaryKeyword:    researchKeyword,
		SecondaryKeywords: researchSecondary,
	}
}
