package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/observability"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Audit the draft and complete the job",
	Long: `Runs post-processing on the job's draft: FAQ answer length enforcement,
the content/SEO audit, fact cross-checking against grounded research, and
JSON-LD schema markup. Completing this stage marks the job completed.`,
	RunE: runValidateCmd,
}

var validateJobID string

func init() {
	addEngineFlags(validateCmd)
	validateCmd.Flags().StringVar(&validateJobID, "job-id", "", "Job id (required)")
	_ = validateCmd.MarkFlagRequired("job-id")
	rootCmd.AddCommand(validateCmd)
}

func runValidateCmd(cmd *cobra.Command, _ []string) error {
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

	output, err := runner.RunValidate(ctx, validateJobID)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintAuditResult(&output.AuditResult)
	printer.PrintFactCheck(&output.FactCheck)
	fmt.Printf("Job %s completed (audit score %d)\n", validateJobID, output.AuditResult.Score)
	return nil
}
