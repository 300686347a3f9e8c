package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/content-engine/internal/budget"
	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/retry"
	"github.com/jonathan/content-engine/internal/types"
)

// serpChunkOutput is the payload persisted by the listing stage.
type serpChunkOutput struct {
	Results []types.SerpResult `json:"results"`
}

// RunResearchSERP runs the search listing only and persists the candidates
// for source selection. It creates the job when it does not exist yet, and
// never touches the durable research chunk: the user picks URLs before any
// content is fetched.
func (r *Runner) RunResearchSERP(ctx context.Context, jobID string, input types.PipelineInput) ([]types.SerpResult, error) {
	keyword := strings.TrimSpace(input.PrimaryKeyword)
	if keyword == "" {
		return nil, ErrKeywordRequired
	}

	if _, err := r.Store.GetJob(ctx, jobID); errors.Is(err, jobs.ErrJobNotFound) {
		if _, err := r.Store.CreateJob(ctx, jobID, input); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	if err := r.Store.UpdatePhase(ctx, jobID, jobs.PhaseResearching, nil); err != nil {
		return nil, err
	}

	outcome := retry.Execute(ctx, "search", retry.Fast.WithTimeout(15*time.Second), func(ctx context.Context) ([]types.SerpResult, error) {
		return r.Search.Search(ctx, keyword, MaxSERPResults)
	})
	r.recordCall(metrics.CallRecord{Provider: "search", Endpoint: "search", DurationMs: outcome.Duration.Milliseconds()})

	// A failed listing is not fatal: the user can still supply URLs by hand,
	// so an empty candidate list is persisted rather than failing the job.
	results := outcome.Data
	if results == nil {
		results = []types.SerpResult{}
	}

	raw, err := json.Marshal(serpChunkOutput{Results: results})
	if err != nil {
		return nil, err
	}
	if err := r.Store.SaveChunkOutput(ctx, jobID, jobs.ChunkResearchSERP, raw, nil); err != nil {
		return nil, err
	}
	if err := r.Store.UpdatePhase(ctx, jobID, jobs.PhaseWaitingForReview, nil); err != nil {
		return nil, err
	}
	return results, nil
}

// ResearchFetchResult is the lightweight view returned after the research
// stage completes or is found already complete.
type ResearchFetchResult struct {
	Summary types.ResearchSummary `json:"summary"`
	URLs    []string              `json:"urls"`
	Titles  []string              `json:"titles"`
}

// RunResearchFetch fetches content for the selected URLs and gathers grounded
// current data, persisting both as the research chunk. The call is idempotent
// on the normalized URL set: re-running with the same selection returns the
// stored summary without any provider calls.
func (r *Runner) RunResearchFetch(ctx context.Context, jobID string, selectedURLs []string, total time.Duration) (ResearchFetchResult, error) {
	if total <= 0 {
		total = DefaultResearchBudget
	}
	start := time.Now()
	logStage("research_fetch", "research_fetch_start", map[string]any{
		"job_id": jobID, "selected_count": len(selectedURLs),
	})

	job, err := r.Store.GetJob(ctx, jobID)
	if err != nil {
		return ResearchFetchResult{}, err
	}
	keyword := strings.TrimSpace(job.Input.PrimaryKeyword)
	if keyword == "" {
		return ResearchFetchResult{}, ErrKeywordRequired
	}

	urls := selectedURLs
	if len(urls) > MaxSelectedURLs {
		urls = urls[:MaxSelectedURLs]
	}

	if existing, ok := r.completedResearch(ctx, jobID, urls); ok {
		result := summarizeResearch(existing)
		logStage("research_fetch", "research_fetch_idempotent", map[string]any{
			"job_id":             jobID,
			"article_count":      result.Summary.ArticleCount,
			"current_data_facts": result.Summary.CurrentDataFacts,
			"duration_ms":        time.Since(start).Milliseconds(),
		})
		return result, nil
	}

	if err := r.Store.SetChunkRunning(ctx, jobID, jobs.ChunkResearch); err != nil {
		return ResearchFetchResult{}, err
	}
	if err := r.Store.UpdatePhase(ctx, jobID, jobs.PhaseResearching, nil); err != nil {
		return ResearchFetchResult{}, err
	}
	r.startChunk(string(jobs.ChunkResearch))

	validated := r.checkURLs(ctx, urls)
	accessible := 0
	for _, v := range validated {
		if v.Accessible {
			accessible++
		}
	}
	if len(validated) > 0 && accessible == 0 {
		if err := r.Store.SetChunkFailed(ctx, jobID, jobs.ChunkResearch, ErrURLsNotAccessible.Error()); err != nil {
			return ResearchFetchResult{}, err
		}
		r.endChunk(string(jobs.ChunkResearch), metrics.ChunkFailed)
		logStage("research_fetch", "research_fetch_failed", map[string]any{
			"job_id": jobID, "reason": "urls_not_accessible", "duration_ms": time.Since(start).Milliseconds(),
		})
		return ResearchFetchResult{}, ErrURLsNotAccessible
	}
	if accessible < len(validated) {
		logStage("research_fetch", "research_fetch_url_validation", map[string]any{
			"job_id": jobID, "accessible": accessible, "total": len(validated),
		})
	}

	bud := budget.New(total)
	var (
		articles    []types.SourceArticle
		currentData = types.EmptyCurrentData()
		fetchMs     int64
		groundMs    int64
		groundUsage llm.Usage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t0 := time.Now()
		fctx, cancel := context.WithTimeout(gctx, bud.Cap(retry.Fast.Timeout))
		defer cancel()
		results := make([]types.SourceArticle, len(urls))
		fg, fgctx := errgroup.WithContext(fctx)
		for i, u := range urls {
			i, u := i, u
			fg.Go(func() error {
				results[i] = r.Fetch.FetchArticle(fgctx, u)
				return nil
			})
		}
		_ = fg.Wait()
		articles = results
		fetchMs = time.Since(t0).Milliseconds()
		return nil
	})
	g.Go(func() error {
		outcome := retry.Execute(gctx, "grounding", retry.Standard.WithTimeout(bud.Cap(retry.Standard.Timeout)), func(ctx context.Context) (types.CurrentData, error) {
			data, usage, err := r.Grounding.FetchCurrentData(ctx, keyword, job.Input.SecondaryKeywords)
			groundUsage = usage
			return data, err
		})
		groundMs = outcome.Duration.Milliseconds()
		// Grounding failure degrades to the empty payload; the piece is
		// written without current facts rather than failing research.
		if outcome.Success {
			currentData = outcome.Data
		}
		return nil
	})
	_ = g.Wait()

	r.recordCall(metrics.CallRecord{Provider: "fetch", Endpoint: "articles", DurationMs: fetchMs})
	r.recordCall(metrics.CallRecord{
		Provider:     metrics.RateKeyForModel(groundUsage.Model),
		Endpoint:     "grounding",
		DurationMs:   groundMs,
		InputTokens:  groundUsage.InputTokens,
		OutputTokens: groundUsage.OutputTokens,
	})

	output := types.ResearchOutput{
		SerpResults: serpResultsForSelection(urls, articles),
		Articles:    articles,
		CurrentData: currentData,
	}
	if output.FetchedArticleCount() == 0 {
		message := "We couldn't fetch content from the selected links. Try different sources or retry."
		if err := r.Store.SetChunkFailed(ctx, jobID, jobs.ChunkResearch, message); err != nil {
			return ResearchFetchResult{}, err
		}
		r.endChunk(string(jobs.ChunkResearch), metrics.ChunkFailed)
		logStage("research_fetch", "research_fetch_failed", map[string]any{
			"job_id": jobID, "reason": "no_articles_fetched", "duration_ms": time.Since(start).Milliseconds(),
		})
		return ResearchFetchResult{}, errors.New(message)
	}

	durationMs := time.Since(start).Milliseconds()
	providers := map[string]types.ProviderUsage{"fetch": {Calls: len(urls)}}
	addModelUsage(providers, groundUsage)
	cost := metrics.BuildChunkCost(providers, durationMs)

	raw, err := json.Marshal(output)
	if err != nil {
		return ResearchFetchResult{}, err
	}
	if err := r.Store.SaveChunkOutput(ctx, jobID, jobs.ChunkResearch, raw, &cost); err != nil {
		return ResearchFetchResult{}, err
	}
	if err := r.Store.UpdatePhase(ctx, jobID, jobs.PhaseWaitingForReview, nil); err != nil {
		return ResearchFetchResult{}, err
	}
	r.endChunk(string(jobs.ChunkResearch), metrics.ChunkCompleted)

	result := summarizeResearch(output)
	logStage("research_fetch", "research_fetch_complete", map[string]any{
		"job_id":             jobID,
		"article_count":      result.Summary.ArticleCount,
		"current_data_facts": result.Summary.CurrentDataFacts,
		"duration_ms":        durationMs,
	})
	return result, nil
}

// completedResearch returns the stored research output when it covers the
// same URL set as the current request.
func (r *Runner) completedResearch(ctx context.Context, jobID string, urls []string) (types.ResearchOutput, bool) {
	raw, err := r.Store.GetChunkOutput(ctx, jobID, jobs.ChunkResearch)
	if err != nil || raw == nil {
		return types.ResearchOutput{}, false
	}
	var existing types.ResearchOutput
	if err := json.Unmarshal(raw, &existing); err != nil || len(existing.SerpResults) == 0 {
		return types.ResearchOutput{}, false
	}
	stored := make([]string, 0, len(existing.SerpResults))
	for _, s := range existing.SerpResults {
		stored = append(stored, s.URL)
	}
	if !sameURLSet(stored, urls) {
		return types.ResearchOutput{}, false
	}
	return existing, true
}

func sameURLSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// serpResultsForSelection rebuilds the persisted listing from the selected
// URLs, titled from the fetched articles where available.
func serpResultsForSelection(urls []string, articles []types.SourceArticle) []types.SerpResult {
	out := make([]types.SerpResult, 0, len(urls))
	for i, u := range urls {
		title := u
		if i < len(articles) && articles[i].Title != "" {
			title = articles[i].Title
		}
		out = append(out, types.SerpResult{URL: u, Title: title, Position: i + 1, IsArticle: true})
	}
	return out
}

func summarizeResearch(output types.ResearchOutput) ResearchFetchResult {
	result := ResearchFetchResult{
		Summary: types.ResearchSummary{
			URLCount:         len(output.SerpResults),
			ArticleCount:     output.FetchedArticleCount(),
			CurrentDataFacts: len(output.CurrentData.Facts),
		},
	}
	for _, s := range output.SerpResults {
		result.URLs = append(result.URLs, s.URL)
		result.Titles = append(result.Titles, s.Title)
	}
	return result
}
