package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/content-engine/internal/audit"
	"github.com/jonathan/content-engine/internal/budget"
	"github.com/jonathan/content-engine/internal/drafting"
	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/retry"
	"github.com/jonathan/content-engine/internal/types"
)

// RunDraft writes the article from the stored brief, with the user's outline
// overrides applied transiently: the persisted brief keeps the machine
// outline, and only the draft sees the edited one. Title and meta stay as
// placeholders; the user generates metadata from the finished content.
func (r *Runner) RunDraft(ctx context.Context, jobID string, overrides *types.BriefOverrides, total time.Duration) (types.DraftOutput, error) {
	if total <= 0 {
		total = DefaultDraftBudget
	}
	start := time.Now()

	job, err := r.Store.GetJob(ctx, jobID)
	if err != nil {
		return types.DraftOutput{}, err
	}
	raw, err := r.Store.GetChunkOutput(ctx, jobID, jobs.ChunkAnalysis)
	if err != nil {
		return types.DraftOutput{}, err
	}
	if raw == nil {
		return types.DraftOutput{}, ErrBriefNotCompleted
	}
	var brief types.Brief
	if err := json.Unmarshal(raw, &brief); err != nil {
		return types.DraftOutput{}, fmt.Errorf("decode brief: %w", err)
	}
	brief = MergeOverrides(brief, overrides)
	if len(brief.Outline.Sections) == 0 {
		return types.DraftOutput{}, ErrEmptyOutline
	}

	if err := r.Store.SetChunkRunning(ctx, jobID, jobs.ChunkDraft); err != nil {
		return types.DraftOutput{}, err
	}
	if err := r.Store.UpdatePhase(ctx, jobID, jobs.PhaseDrafting, nil); err != nil {
		return types.DraftOutput{}, err
	}
	r.startChunk(string(jobs.ChunkDraft))

	bud := budget.New(total)
	providers := map[string]types.ProviderUsage{}
	outcome := retry.Execute(ctx, "draft", retry.Expensive.WithTimeout(bud.Cap(retry.Expensive.Timeout)), func(ctx context.Context) (types.DraftProviderOutput, error) {
		draft, usage, err := r.Writer.WriteDraft(ctx, brief, job.Input.Intent)
		addModelUsage(providers, usage)
		r.recordCall(metrics.CallRecord{
			Provider:     metrics.RateKeyForModel(usage.Model),
			Endpoint:     "draft",
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
		})
		return draft, err
	})
	if !outcome.Success {
		return types.DraftOutput{}, r.failChunk(ctx, jobID, jobs.ChunkDraft,
			fmt.Errorf("draft failed: %w", outcome.Err))
	}
	written := outcome.Data

	output := types.DraftOutput{
		Title:               "Draft",
		MetaDescription:     "",
		SuggestedSlug:       drafting.SlugFromKeyword(brief.Keyword.Primary),
		Outline:             audit.ExtractH2s(written.Content),
		Content:             written.Content,
		SuggestedCategories: written.SuggestedCategories,
		SuggestedTags:       written.SuggestedTags,
	}

	cost := metrics.BuildChunkCost(providers, time.Since(start).Milliseconds())
	outputRaw, err := json.Marshal(output)
	if err != nil {
		return types.DraftOutput{}, err
	}
	if err := r.Store.SaveChunkOutput(ctx, jobID, jobs.ChunkDraft, outputRaw, &cost); err != nil {
		return types.DraftOutput{}, err
	}
	if err := r.Store.UpdatePhase(ctx, jobID, jobs.PhasePostProcessing, nil); err != nil {
		return types.DraftOutput{}, err
	}
	r.endChunk(string(jobs.ChunkDraft), metrics.ChunkCompleted)
	if r.Metrics != nil {
		r.Metrics.SetActualWordCount(output.WordCount())
	}
	log.Printf("[pipeline] job=%s: draft written (%d words, %d sections)",
		jobID, output.WordCount(), len(output.Outline))
	return output, nil
}
