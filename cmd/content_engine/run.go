package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/observability"
	"github.com/jonathan/content-engine/internal/pipeline"
	"github.com/jonathan/content-engine/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full content pipeline end-to-end",
	Long: `Runs every stage in order: search listing -> source fetch + grounding -> brief -> draft -> audit.

Source URLs are picked from the top article-like search results unless --urls is given. The assembled result is written to stdout (or --out) as JSON.`,
	RunE: runPipelineCmd,
}

var (
	runKeyword   string
	runSecondary []string
	runIntent    []string
	runPreset    string
	runWords     int
	runURLs      []string
	runJobID     string
	runOutPath   string
)

func init() {
	addEngineFlags(runCommand)
	runCommand.Flags().StringVarP(&runKeyword, "keyword", "k", "", "Primary keyword to target (required)")
	runCommand.Flags().StringSliceVar(&runSecondary, "secondary", nil, "Secondary keywords")
	runCommand.Flags().StringSliceVar(&runIntent, "intent", nil, "Search intent (informational, commercial, transactional, navigational)")
	runCommand.Flags().StringVar(&runPreset, "length", "", "Word count preset (auto, concise, standard, in_depth, custom)")
	runCommand.Flags().IntVar(&runWords, "words", 0, "Custom word count target (500-6000, used with --length custom)")
	runCommand.Flags().StringSliceVar(&runURLs, "urls", nil, "Source URLs to fetch (defaults to top article results)")
	runCommand.Flags().StringVar(&runJobID, "job-id", "", "Job id to create or resume (defaults to a new UUID)")
	runCommand.Flags().StringVarP(&runOutPath, "out", "o", "", "Write the assembled result JSON to this file instead of stdout")
	_ = runCommand.MarkFlagRequired("keyword")
	rootCmd.AddCommand(runCommand)
}

func pipelineInput() types.PipelineInput {
	input := types.PipelineInput{
		PrimaryKeyword:    runKeyword,
		SecondaryKeywords: runSecondary,
		WordCountPreset:   types.WordCountPreset(runPreset),
		WordCountCustom:   runWords,
	}
	for _, intent := range runIntent {
		input.Intent = append(input.Intent, types.SearchIntent(strings.ToLower(intent)))
	}
	return input
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	runner, store, cleanup, err := newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	jobID := runJobID
	if jobID == "" {
		jobID = uuid.New().String()
	}
	if _, err := store.CreateJob(ctx, jobID, pipelineInput()); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	fmt.Printf("Job %s: generating %q\n", jobID, runKeyword)

	printer := observability.NewPrinter(os.Stdout)
	collector := metrics.NewCollector(jobID, runKeyword)
	runner.Metrics = collector

	start := time.Now()

	serp, err := runner.RunResearchSERP(ctx, jobID, pipelineInput())
	if err != nil {
		return fmt.Errorf("search listing failed: %w", err)
	}
	if cfg.Verbose {
		printer.PrintSerpResults(serp)
	}

	urls := runURLs
	if len(urls) == 0 {
		for _, r := range serp {
			if r.IsArticle {
				urls = append(urls, r.URL)
			}
			if len(urls) == pipeline.MaxSelectedURLs {
				break
			}
		}
	}
	if len(urls) == 0 {
		return fmt.Errorf("no article results to fetch; pass --urls")
	}

	research, err := runner.RunResearchFetch(ctx, jobID, urls, stageBudget(cfg.ResearchBudget, pipeline.DefaultResearchBudget))
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}
	fmt.Printf("Research: %d of %d sources fetched, %d grounded facts\n",
		research.Summary.ArticleCount, research.Summary.URLCount, research.Summary.CurrentDataFacts)

	brief, err := runner.RunBrief(ctx, jobID, pipeline.BriefOptions{}, stageBudget(cfg.BriefBudget, pipeline.DefaultBriefBudget))
	if err != nil {
		return fmt.Errorf("brief failed: %w", err)
	}
	if cfg.Verbose {
		printer.PrintBrief(&brief)
	}
	fmt.Printf("Brief: %d sections, %d word target\n", len(brief.Outline.Sections), brief.WordCount.Target)

	draft, err := runner.RunDraft(ctx, jobID, nil, stageBudget(cfg.DraftBudget, pipeline.DefaultDraftBudget))
	if err != nil {
		return fmt.Errorf("draft failed: %w", err)
	}
	fmt.Printf("Draft: %d words\n", draft.WordCount())

	validation, err := runner.RunValidate(ctx, jobID)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if cfg.Verbose {
		printer.PrintAuditResult(&validation.AuditResult)
		printer.PrintFactCheck(&validation.FactCheck)
	}

	result, err := runner.Result(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to assemble result: %w", err)
	}
	result.GenerationTimeMs = time.Since(start).Milliseconds()

	run := collector.FinishRun("completed", "")
	printer.PrintRunMetrics(&run)

	return writeResult(result, runOutPath)
}

func writeResult(result types.PipelineResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	fmt.Printf("Result written to %s\n", path)
	return nil
}
