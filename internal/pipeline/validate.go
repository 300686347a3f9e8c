package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/content-engine/internal/audit"
	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/types"
)

// RunValidate runs the rule-based post-processing over the draft: FAQ answer
// caps, the audit score, JSON-LD markup, and the fact cross-check against the
// research data. Sub-checks report findings but never fail the stage; saving
// the postprocess chunk completes the job.
func (r *Runner) RunValidate(ctx context.Context, jobID string) (types.ValidationOutput, error) {
	start := time.Now()

	job, err := r.Store.GetJob(ctx, jobID)
	if err != nil {
		return types.ValidationOutput{}, err
	}
	draftRaw, err := r.Store.GetChunkOutput(ctx, jobID, jobs.ChunkDraft)
	if err != nil {
		return types.ValidationOutput{}, err
	}
	if draftRaw == nil {
		return types.ValidationOutput{}, ErrDraftNotCompleted
	}
	var draft types.DraftOutput
	if err := json.Unmarshal(draftRaw, &draft); err != nil {
		return types.ValidationOutput{}, fmt.Errorf("decode draft: %w", err)
	}
	if draft.Content == "" {
		return types.ValidationOutput{}, ErrDraftNotCompleted
	}

	// Research and brief are optional here: validation still runs when the
	// job was resumed without them, just with an empty fact set.
	currentData := types.EmptyCurrentData()
	if raw, err := r.Store.GetChunkOutput(ctx, jobID, jobs.ChunkResearch); err == nil && raw != nil {
		var research types.ResearchOutput
		if json.Unmarshal(raw, &research) == nil {
			currentData = research.CurrentData
		}
	}
	var extraValueThemes []string
	if raw, err := r.Store.GetChunkOutput(ctx, jobID, jobs.ChunkAnalysis); err == nil && raw != nil {
		var brief types.Brief
		if json.Unmarshal(raw, &brief) == nil {
			extraValueThemes = brief.ExtraValueThemes
		}
	}

	if err := r.Store.SetChunkRunning(ctx, jobID, jobs.ChunkPostprocess); err != nil {
		return types.ValidationOutput{}, err
	}
	r.startChunk(string(jobs.ChunkPostprocess))

	keyword := job.Input.PrimaryKeyword
	title := draft.Title
	if title == "" {
		title = keyword
	}

	enforcement, finalContent := audit.EnforceFAQLimit(draft.Content, audit.FAQAnswerMaxChars)
	auditResult := audit.Article(audit.Input{
		Title:            title,
		MetaDescription:  draft.MetaDescription,
		Content:          finalContent,
		Slug:             draft.SuggestedSlug,
		FocusKeyword:     keyword,
		ExtraValueThemes: extraValueThemes,
	})
	markup := audit.BuildSchemaMarkup(finalContent, title, draft.MetaDescription, draft.SuggestedSlug, keyword, r.SiteURL)
	factCheck := audit.VerifyFacts(finalContent, currentData, keyword)

	output := types.ValidationOutput{
		FAQEnforcement: enforcement,
		AuditResult:    auditResult,
		FactCheck:      factCheck,
		SchemaMarkup:   markup,
		FinalContent:   finalContent,
	}

	cost := metrics.BuildChunkCost(map[string]types.ProviderUsage{}, time.Since(start).Milliseconds())
	raw, err := json.Marshal(output)
	if err != nil {
		return types.ValidationOutput{}, err
	}
	// Saving the postprocess chunk moves the job to phase completed.
	if err := r.Store.SaveChunkOutput(ctx, jobID, jobs.ChunkPostprocess, raw, &cost); err != nil {
		return types.ValidationOutput{}, err
	}
	r.endChunk(string(jobs.ChunkPostprocess), metrics.ChunkCompleted)
	if r.Metrics != nil {
		r.Metrics.SetAuditScore(auditResult.Score)
		r.Metrics.SetHallucinations(len(factCheck.Hallucinations))
	}
	log.Printf("[pipeline] job=%s: validation complete (score %d, %d hallucinations, faq passed=%t)",
		jobID, auditResult.Score, len(factCheck.Hallucinations), enforcement.Passed)
	return output, nil
}
