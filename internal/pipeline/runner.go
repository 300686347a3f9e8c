// Package pipeline orchestrates the resumable generation stages over a job
// store: search listing, competitor research, brief construction, drafting,
// and validation. Each stage persists its output as a chunk, so a failed or
// interrupted run resumes from the last completed stage instead of starting
// over.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jonathan/content-engine/internal/fetch"
	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/types"
)

const (
	// MaxSERPResults is how many listing results are offered for source
	// selection after the search stage.
	MaxSERPResults = 9
	// MaxSelectedURLs caps how many selected sources the research stage
	// fetches.
	MaxSelectedURLs = 3
)

// Per-stage wall-clock defaults, applied when the caller passes zero.
const (
	DefaultResearchBudget = 45 * time.Second
	DefaultBriefBudget    = 90 * time.Second
	DefaultDraftBudget    = 180 * time.Second
)

// Stage precondition errors. These surface before any chunk state changes,
// so the caller can retry with corrected input.
var (
	ErrKeywordRequired      = errors.New("primary keyword is required")
	ErrResearchNotCompleted = errors.New("research not completed")
	ErrBriefNotCompleted    = errors.New("brief not completed")
	ErrDraftNotCompleted    = errors.New("draft not completed")
	ErrEmptyOutline         = errors.New("outline has no sections after applying overrides")
	ErrURLsNotAccessible    = errors.New("selected URLs are not accessible")
)

// Searcher lists ranked competitor results for a keyword.
type Searcher interface {
	Search(ctx context.Context, keyword string, max int) ([]types.SerpResult, error)
}

// Fetcher retrieves one competitor article. A failed fetch is reported via
// FetchSuccess on the article, never as an error.
type Fetcher interface {
	FetchArticle(ctx context.Context, url string) types.SourceArticle
}

// Grounder gathers current, attributed facts for the keyword set.
type Grounder interface {
	FetchCurrentData(ctx context.Context, primaryKeyword string, secondaryKeywords []string) (types.CurrentData, llm.Usage, error)
}

// TopicExtractor analyzes fetched competitor articles.
type TopicExtractor interface {
	ExtractTopics(ctx context.Context, articles []types.SourceArticle) (types.TopicExtraction, llm.Usage, error)
}

// BriefBuilder turns extraction output plus grounded facts into a brief.
type BriefBuilder interface {
	BuildBrief(ctx context.Context, extraction types.TopicExtraction, currentData types.CurrentData, input types.PipelineInput, override *types.WordCountOverride) (types.Brief, llm.Usage, error)
}

// DraftWriter writes the article from a finalized brief.
type DraftWriter interface {
	WriteDraft(ctx context.Context, brief types.Brief, intents []types.SearchIntent) (types.DraftProviderOutput, llm.Usage, error)
}

// URLChecker validates reachability of candidate source URLs.
type URLChecker func(ctx context.Context, urls []string) []types.ValidatedSourceURL

// Runner executes pipeline stages against a job store. All dependencies are
// injected; a nil CheckURLs falls back to HEAD requests and a nil Metrics
// disables recording.
type Runner struct {
	Store     jobs.Store
	Search    Searcher
	Fetch     Fetcher
	Grounding Grounder
	Extractor TopicExtractor
	Briefs    BriefBuilder
	Writer    DraftWriter
	CheckURLs URLChecker
	Metrics   *metrics.Collector
	// SiteURL anchors generated breadcrumb markup; empty uses the audit
	// package default.
	SiteURL string
}

func (r *Runner) checkURLs(ctx context.Context, urls []string) []types.ValidatedSourceURL {
	if r.CheckURLs != nil {
		return r.CheckURLs(ctx, urls)
	}
	opts := fetch.DefaultOptions()
	opts.Timeout = 3 * time.Second
	return fetch.ValidateURLs(ctx, urls, opts)
}

func (r *Runner) recordCall(rec metrics.CallRecord) {
	if r.Metrics != nil {
		r.Metrics.RecordCall(rec)
	}
}

func (r *Runner) startChunk(name string) {
	if r.Metrics != nil {
		r.Metrics.StartChunk(name)
	}
}

func (r *Runner) endChunk(name string, status metrics.ChunkStatus) {
	if r.Metrics != nil {
		r.Metrics.EndChunk(name, status)
	}
}

// logStage emits one structured JSON log line for backend observability.
func logStage(stage, event string, fields map[string]any) {
	payload := map[string]any{"stage": stage, "event": event}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[pipeline] stage=%s event=%s", stage, event)
		return
	}
	log.Printf("[pipeline] %s", b)
}

// addModelUsage folds one model call into a per-provider usage map, keyed by
// the model's rate table entry.
func addModelUsage(providers map[string]types.ProviderUsage, u llm.Usage) {
	key := metrics.RateKeyForModel(u.Model)
	p := providers[key]
	p.Calls++
	p.InputTokens += u.InputTokens
	p.OutputTokens += u.OutputTokens
	providers[key] = p
}
