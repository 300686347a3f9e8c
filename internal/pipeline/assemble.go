package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/content-engine/internal/audit"
	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/types"
)

// AssembleResult builds the externally visible result from the completed
// stage outputs. It only reads and derives; no stage work is redone here.
func AssembleResult(job *jobs.Job, research types.ResearchOutput, brief types.Brief, draft types.DraftOutput, validation types.ValidationOutput, generationTime time.Duration) types.PipelineResult {
	drift := CompareOutlines(brief.ExpectedH2s(), audit.ExtractH2s(draft.Content))
	return types.PipelineResult{
		Article: types.Article{
			Content:             validation.FinalContent,
			Outline:             drift.Actual,
			SuggestedSlug:       draft.SuggestedSlug,
			SuggestedCategories: emptyIfNil(draft.SuggestedCategories),
			SuggestedTags:       emptyIfNil(draft.SuggestedTags),
		},
		Title:            draft.Title,
		MetaDescription:  draft.MetaDescription,
		SourceURLs:       uniqueFactSources(research.CurrentData.Facts),
		AuditResult:      validation.AuditResult,
		SchemaMarkup:     validation.SchemaMarkup,
		FAQEnforcement:   validation.FAQEnforcement,
		FactCheck:        validation.FactCheck,
		PublishTracking:  types.PublishTracking{Keyword: job.Input.PrimaryKeyword},
		GenerationTimeMs: generationTime.Milliseconds(),
		BriefSummary:     brief.Summary(),
		OutlineDrift:     &drift,
	}
}

// Result loads the completed chunk outputs for a job and assembles them.
// Generation time is measured from job creation to its last update.
func (r *Runner) Result(ctx context.Context, jobID string) (types.PipelineResult, error) {
	job, err := r.Store.GetJob(ctx, jobID)
	if err != nil {
		return types.PipelineResult{}, err
	}

	var research types.ResearchOutput
	if err := r.loadChunk(ctx, jobID, jobs.ChunkResearch, &research); err != nil {
		return types.PipelineResult{}, err
	}
	var brief types.Brief
	if err := r.loadChunk(ctx, jobID, jobs.ChunkAnalysis, &brief); err != nil {
		return types.PipelineResult{}, err
	}
	var draft types.DraftOutput
	if err := r.loadChunk(ctx, jobID, jobs.ChunkDraft, &draft); err != nil {
		return types.PipelineResult{}, err
	}
	var validation types.ValidationOutput
	if err := r.loadChunk(ctx, jobID, jobs.ChunkPostprocess, &validation); err != nil {
		return types.PipelineResult{}, err
	}

	return AssembleResult(job, research, brief, draft, validation, job.UpdatedAt.Sub(job.CreatedAt)), nil
}

func (r *Runner) loadChunk(ctx context.Context, jobID string, kind jobs.ChunkKind, out any) error {
	raw, err := r.Store.GetChunkOutput(ctx, jobID, kind)
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("missing chunk output %q for job %s", kind, jobID)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode chunk %q for job %s: %w", kind, jobID, err)
	}
	return nil
}

// CompareOutlines reports drift between the planned and written top-level
// headings. Comparison is case- and whitespace-insensitive; the report is
// informational and passes as long as nothing planned is missing.
func CompareOutlines(expected, actual []string) types.OutlineDrift {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	normActual := make(map[string]bool, len(actual))
	for _, a := range actual {
		normActual[norm(a)] = true
	}
	normExpected := make(map[string]bool, len(expected))
	for _, e := range expected {
		normExpected[norm(e)] = true
	}

	missing := []string{}
	for _, e := range expected {
		if !normActual[norm(e)] {
			missing = append(missing, e)
		}
	}
	extra := []string{}
	for _, a := range actual {
		if !normExpected[norm(a)] {
			extra = append(extra, a)
		}
	}
	return types.OutlineDrift{
		Passed:   len(missing) == 0,
		Expected: emptyIfNil(expected),
		Actual:   emptyIfNil(actual),
		Missing:  missing,
		Extra:    extra,
	}
}

func uniqueFactSources(facts []types.CurrentFact) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, f := range facts {
		if f.Source != "" && !seen[f.Source] {
			seen[f.Source] = true
			out = append(out, f.Source)
		}
	}
	return out
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
