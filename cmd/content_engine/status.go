package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/metrics"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a job's phase and chunk progress",
	Long: `Prints the job's phase and each chunk's status, attempts, and cost.
Completed chunk costs are summed as the sunk cost a retry would preserve.`,
	RunE: runStatusCmd,
}

var statusJobID string

func init() {
	addEngineFlags(statusCmd)
	statusCmd.Flags().StringVar(&statusJobID, "job-id", "", "Job id (required)")
	_ = statusCmd.MarkFlagRequired("job-id")
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveStoreConfig(cmd)
	if err != nil {
		return err
	}
	if err := requirePersistentStore(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	job, err := store.GetJob(ctx, statusJobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}

	fmt.Printf("Job %s\n", job.ID)
	fmt.Printf("  Keyword: %s\n", job.Input.PrimaryKeyword)
	fmt.Printf("  Phase:   %s\n", job.Phase)
	if job.ErrorMessage != "" {
		fmt.Printf("  Error:   %s\n", job.ErrorMessage)
	}
	fmt.Printf("  Updated: %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05"))

	fmt.Println("  Chunks:")
	for _, kind := range jobs.ChunkOrder {
		rec, ok := job.ChunkRecords[kind]
		if !ok {
			rec = jobs.ChunkRecord{Status: jobs.ChunkPending}
		}
		line := fmt.Sprintf("    %-12s %s", kind, rec.Status)
		if rec.AttemptCount > 1 {
			line += fmt.Sprintf(" (attempt %d)", rec.AttemptCount)
		}
		if rec.Cost != nil && rec.Cost.EstimatedCostUSD > 0 {
			line += fmt.Sprintf("  $%.4f", rec.Cost.EstimatedCostUSD)
		}
		if rec.ErrorMessage != "" {
			line += fmt.Sprintf("  %s", rec.ErrorMessage)
		}
		fmt.Println(line)
	}

	if sunk, _ := metrics.SumChunkCosts(job.CompletedCosts()); sunk > 0 {
		fmt.Printf("  Sunk cost: $%.4f (preserved on retry)\n", sunk)
	}
	return nil
}
