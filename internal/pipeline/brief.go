package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/content-engine/internal/analysis"
	"github.com/jonathan/content-engine/internal/budget"
	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/retry"
	"github.com/jonathan/content-engine/internal/types"
)

// BriefOptions adjusts a brief run. Revise rebuilds the brief with a new
// explicit word count target instead of the one derived from job input.
type BriefOptions struct {
	Revise          bool
	WordCountTarget int
}

// RunBrief analyzes the fetched research and builds the content brief.
// Topic extraction is cached in its own chunk keyed by the source URL set,
// so revising the brief after an outline edit does not redo extraction.
func (r *Runner) RunBrief(ctx context.Context, jobID string, opts BriefOptions, total time.Duration) (types.Brief, error) {
	if total <= 0 {
		total = DefaultBriefBudget
	}
	start := time.Now()

	job, err := r.Store.GetJob(ctx, jobID)
	if err != nil {
		return types.Brief{}, err
	}
	raw, err := r.Store.GetChunkOutput(ctx, jobID, jobs.ChunkResearch)
	if err != nil {
		return types.Brief{}, err
	}
	if raw == nil {
		return types.Brief{}, ErrResearchNotCompleted
	}
	var research types.ResearchOutput
	if err := json.Unmarshal(raw, &research); err != nil {
		return types.Brief{}, fmt.Errorf("decode research output: %w", err)
	}

	bud := budget.New(total)
	if err := r.Store.SetChunkRunning(ctx, jobID, jobs.ChunkAnalysis); err != nil {
		return types.Brief{}, err
	}
	if err := r.Store.UpdatePhase(ctx, jobID, jobs.PhaseAnalyzing, nil); err != nil {
		return types.Brief{}, err
	}
	r.startChunk(string(jobs.ChunkAnalysis))

	providers := map[string]types.ProviderUsage{}
	hash := analysis.HashSourceURLs(research.Articles)
	extraction, cached := r.cachedExtraction(ctx, jobID, hash)
	if cached {
		log.Printf("[pipeline] job=%s: using cached extraction (%d topics)", jobID, len(extraction.Topics))
		r.recordCall(metrics.CallRecord{Provider: "gemini", Endpoint: "extraction", CacheHit: true})
	} else {
		outcome := retry.Execute(ctx, "topic-extraction", retry.Standard.WithTimeout(bud.Cap(60*time.Second)), func(ctx context.Context) (types.TopicExtraction, error) {
			extraction, usage, err := r.Extractor.ExtractTopics(ctx, research.Articles)
			addModelUsage(providers, usage)
			r.recordCall(metrics.CallRecord{
				Provider:     metrics.RateKeyForModel(usage.Model),
				Endpoint:     "extraction",
				InputTokens:  usage.InputTokens,
				OutputTokens: usage.OutputTokens,
			})
			return extraction, err
		})
		if !outcome.Success {
			return types.Brief{}, r.failChunk(ctx, jobID, jobs.ChunkAnalysis,
				fmt.Errorf("topic extraction failed: %w", outcome.Err))
		}
		extraction = outcome.Data
		cachePayload, err := json.Marshal(types.TopicExtractionCache{SourceURLHash: hash, Extraction: extraction})
		if err != nil {
			return types.Brief{}, err
		}
		if err := r.Store.SaveChunkOutput(ctx, jobID, jobs.ChunkTopicExtraction, cachePayload, nil); err != nil {
			return types.Brief{}, err
		}
	}

	// The extraction above is persisted, so stopping here leaves a state a
	// retry can resume cheaply instead of half-spending the brief call.
	if bud.Exhausted(5 * time.Second) {
		return types.Brief{}, r.failChunk(ctx, jobID, jobs.ChunkAnalysis,
			fmt.Errorf("time budget exhausted after topic extraction (%v of %v used)", bud.Elapsed().Round(time.Millisecond), total))
	}

	override := r.wordCountOverride(job.Input, opts)
	outcome := retry.Execute(ctx, "brief", retry.Standard.WithTimeout(bud.Cap(60*time.Second)), func(ctx context.Context) (types.Brief, error) {
		brief, usage, err := r.Briefs.BuildBrief(ctx, extraction, research.CurrentData, job.Input, override)
		addModelUsage(providers, usage)
		r.recordCall(metrics.CallRecord{
			Provider:     metrics.RateKeyForModel(usage.Model),
			Endpoint:     "brief",
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
		})
		return brief, err
	})
	if !outcome.Success {
		return types.Brief{}, r.failChunk(ctx, jobID, jobs.ChunkAnalysis,
			fmt.Errorf("brief construction failed: %w", outcome.Err))
	}
	brief := outcome.Data

	cost := metrics.BuildChunkCost(providers, time.Since(start).Milliseconds())
	briefRaw, err := json.Marshal(brief)
	if err != nil {
		return types.Brief{}, err
	}
	if err := r.Store.SaveChunkOutput(ctx, jobID, jobs.ChunkAnalysis, briefRaw, &cost); err != nil {
		return types.Brief{}, err
	}
	if err := r.Store.UpdatePhase(ctx, jobID, jobs.PhaseWaitingForReview, nil); err != nil {
		return types.Brief{}, err
	}
	r.endChunk(string(jobs.ChunkAnalysis), metrics.ChunkCompleted)
	if r.Metrics != nil {
		r.Metrics.SetTargetWordCount(brief.WordCount.Target)
	}
	log.Printf("[pipeline] job=%s: brief built (%d sections, target %d words)",
		jobID, len(brief.Outline.Sections), brief.WordCount.Target)
	return brief, nil
}

// cachedExtraction returns the stored extraction when its source URL hash
// matches the current research output.
func (r *Runner) cachedExtraction(ctx context.Context, jobID, hash string) (types.TopicExtraction, bool) {
	raw, err := r.Store.GetChunkOutput(ctx, jobID, jobs.ChunkTopicExtraction)
	if err != nil || raw == nil {
		return types.TopicExtraction{}, false
	}
	var cache types.TopicExtractionCache
	if err := json.Unmarshal(raw, &cache); err != nil {
		return types.TopicExtraction{}, false
	}
	if cache.SourceURLHash != hash || len(cache.Extraction.Topics) == 0 {
		return types.TopicExtraction{}, false
	}
	return cache.Extraction, true
}

func (r *Runner) wordCountOverride(input types.PipelineInput, opts BriefOptions) *types.WordCountOverride {
	if opts.Revise && opts.WordCountTarget >= 500 && opts.WordCountTarget <= 6000 {
		return &types.WordCountOverride{Target: opts.WordCountTarget, Note: types.WordCountGuidelineNote}
	}
	return types.ResolveWordCountOverride(input)
}

// failChunk records the stage failure (which also moves the job to phase
// failed) and returns the error for the caller.
func (r *Runner) failChunk(ctx context.Context, jobID string, kind jobs.ChunkKind, cause error) error {
	if err := r.Store.SetChunkFailed(ctx, jobID, kind, cause.Error()); err != nil {
		log.Printf("[pipeline] job=%s: recording %s failure: %v", jobID, kind, err)
	}
	r.endChunk(string(kind), metrics.ChunkFailed)
	return cause
}
