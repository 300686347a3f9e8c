package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/types"
)

type stubSearch struct {
	results []types.SerpResult
	err     error
	calls   int
}

func (s *stubSearch) Search(ctx context.Context, keyword string, max int) ([]types.SerpResult, error) {
	s.calls++
	return s.results, s.err
}

type stubFetch struct {
	mu       sync.Mutex
	articles map[string]types.SourceArticle
	calls    int
}

func (s *stubFetch) FetchArticle(ctx context.Context, url string) types.SourceArticle {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if a, ok := s.articles[url]; ok {
		return a
	}
	return types.SourceArticle{URL: url}
}

type stubGrounder struct {
	data  types.CurrentData
	err   error
	calls int
}

func (s *stubGrounder) FetchCurrentData(ctx context.Context, primary string, secondary []string) (types.CurrentData, llm.Usage, error) {
	s.calls++
	if s.err != nil {
		return types.EmptyCurrentData(), llm.Usage{}, s.err
	}
	return s.data, llm.Usage{Model: "gemini-2.5-flash", InputTokens: 100, OutputTokens: 50}, nil
}

type stubExtractor struct {
	extraction types.TopicExtraction
	err        error
	calls      int
}

func (s *stubExtractor) ExtractTopics(ctx context.Context, articles []types.SourceArticle) (types.TopicExtraction, llm.Usage, error) {
	s.calls++
	if s.err != nil {
		return types.TopicExtraction{}, llm.Usage{}, s.err
	}
	return s.extraction, llm.Usage{Model: "gemini-2.5-flash", InputTokens: 500, OutputTokens: 300}, nil
}

type stubBriefs struct {
	brief       types.Brief
	err         error
	calls       int
	gotOverride *types.WordCountOverride
}

func (s *stubBriefs) BuildBrief(ctx context.Context, extraction types.TopicExtraction, currentData types.CurrentData, input types.PipelineInput, override *types.WordCountOverride) (types.Brief, llm.Usage, error) {
	s.calls++
	s.gotOverride = override
	if s.err != nil {
		return types.Brief{}, llm.Usage{}, s.err
	}
	return s.brief, llm.Usage{Model: "gemini-2.5-flash", InputTokens: 800, OutputTokens: 600}, nil
}

type stubWriter struct {
	out   types.DraftProviderOutput
	err   error
	calls int
}

func (s *stubWriter) WriteDraft(ctx context.Context, brief types.Brief, intents []types.SearchIntent) (types.DraftProviderOutput, llm.Usage, error) {
	s.calls++
	if s.err != nil {
		return types.DraftProviderOutput{}, llm.Usage{}, s.err
	}
	return s.out, llm.Usage{Model: "gemini-2.5-pro", InputTokens: 2000, OutputTokens: 3000}, nil
}

func allAccessible(ctx context.Context, urls []string) []types.ValidatedSourceURL {
	out := make([]types.ValidatedSourceURL, 0, len(urls))
	for _, u := range urls {
		out = append(out, types.ValidatedSourceURL{URL: u, Accessible: true, StatusCode: 200})
	}
	return out
}

func noneAccessible(ctx context.Context, urls []string) []types.ValidatedSourceURL {
	out := make([]types.ValidatedSourceURL, 0, len(urls))
	for _, u := range urls {
		out = append(out, types.ValidatedSourceURL{URL: u, Accessible: false, StatusCode: 404})
	}
	return out
}

func testInput() types.PipelineInput {
	return types.PipelineInput{
		PrimaryKeyword:    "standing desk",
		SecondaryKeywords: []string{"sit stand desk"},
		Intent:            []types.SearchIntent{types.IntentInformational},
	}
}

func currentDataFixture() types.CurrentData {
	d := types.EmptyCurrentData()
	d.Facts = []types.CurrentFact{{Fact: "68% of remote workers report back pain", Source: "https://example.com/study"}}
	d.GroundingVerified = true
	return d
}

func extractionFixture() types.TopicExtraction {
	return types.TopicExtraction{
		Topics:    []types.Topic{{Name: "desk height", Importance: types.TopicEssential}},
		Gaps:      []types.Gap{{Topic: "cost comparison", Opportunity: "nobody covers price"}},
		WordCount: types.WordCountNote{CompetitorAverage: 1800, Recommended: 2070},
	}
}

func briefFixture() types.Brief {
	return types.Brief{
		Keyword: types.BriefKeyword{Primary: "standing desk"},
		Outline: types.Outline{
			Sections: []types.OutlineSection{
				{Heading: "First Section", Level: "h2", TargetWords: 300},
				{Heading: "Second Section", Level: "h2", TargetWords: 400},
			},
			TotalSections:      2,
			EstimatedWordCount: 700,
		},
		WordCount: types.BriefWordCount{Target: 700, Note: "competitor average plus margin"},
	}
}

var testURLs = []string{"https://a.com/one", "https://b.com/two", "https://c.com/three"}

func articleFixtures() map[string]types.SourceArticle {
	return map[string]types.SourceArticle{
		testURLs[0]: {URL: testURLs[0], Title: "One", Content: "content one", WordCount: 2, FetchSuccess: true},
		testURLs[1]: {URL: testURLs[1], Title: "Two", Content: "content two", WordCount: 2, FetchSuccess: true},
	}
}

func seedChunk(t *testing.T, store jobs.Store, jobID string, kind jobs.ChunkKind, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveChunkOutput(context.Background(), jobID, kind, raw, nil); err != nil {
		t.Fatal(err)
	}
}

func seededResearch(fetched map[string]types.SourceArticle) types.ResearchOutput {
	out := types.ResearchOutput{CurrentData: currentDataFixture()}
	for i, u := range testURLs {
		out.SerpResults = append(out.SerpResults, types.SerpResult{URL: u, Position: i + 1, IsArticle: true})
		if a, ok := fetched[u]; ok {
			out.Articles = append(out.Articles, a)
		} else {
			out.Articles = append(out.Articles, types.SourceArticle{URL: u})
		}
	}
	return out
}

func TestRunResearchSERP(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	search := &stubSearch{results: []types.SerpResult{
		{URL: "https://a.com/guide", Title: "Guide", Position: 1, IsArticle: true},
	}}
	r := &Runner{Store: store, Search: search}

	got, err := r.RunResearchSERP(ctx, "job-1", testInput())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || search.calls != 1 {
		t.Errorf("results = %d, search calls = %d", len(got), search.calls)
	}

	job, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Phase != jobs.PhaseWaitingForReview {
		t.Errorf("phase = %q", job.Phase)
	}
	raw, err := store.GetChunkOutput(ctx, "job-1", jobs.ChunkResearchSERP)
	if err != nil || raw == nil {
		t.Fatalf("research_serp chunk missing: %v", err)
	}
	var out serpChunkOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 1 || out.Results[0].URL != "https://a.com/guide" {
		t.Errorf("persisted results = %+v", out.Results)
	}
}

func TestRunResearchSERPRequiresKeyword(t *testing.T) {
	r := &Runner{Store: jobs.NewMemoryStore(), Search: &stubSearch{}}
	_, err := r.RunResearchSERP(context.Background(), "job-1", types.PipelineInput{PrimaryKeyword: "  "})
	if !errors.Is(err, ErrKeywordRequired) {
		t.Errorf("err = %v", err)
	}
}

func TestRunResearchFetchPersistsPartialFetch(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	fetcher := &stubFetch{articles: articleFixtures()}
	grounder := &stubGrounder{data: currentDataFixture()}
	r := &Runner{Store: store, Fetch: fetcher, Grounding: grounder, CheckURLs: allAccessible}

	res, err := r.RunResearchFetch(ctx, "job-1", testURLs, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.ArticleCount != 2 || res.Summary.URLCount != 3 || res.Summary.CurrentDataFacts != 1 {
		t.Errorf("summary = %+v", res.Summary)
	}
	if fetcher.calls != 3 || grounder.calls != 1 {
		t.Errorf("fetch calls = %d, grounding calls = %d", fetcher.calls, grounder.calls)
	}

	job, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Phase != jobs.PhaseWaitingForReview {
		t.Errorf("phase = %q", job.Phase)
	}
	rec := job.ChunkRecords[jobs.ChunkResearch]
	if rec.Status != jobs.ChunkCompleted || rec.AttemptCount != 1 {
		t.Errorf("research record = %+v", rec)
	}
	if rec.Cost == nil || rec.Cost.Providers["fetch"].Calls != 3 {
		t.Errorf("cost = %+v", rec.Cost)
	}
}

func TestRunResearchFetchIdempotent(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	fetcher := &stubFetch{articles: articleFixtures()}
	grounder := &stubGrounder{data: currentDataFixture()}
	r := &Runner{Store: store, Fetch: fetcher, Grounding: grounder, CheckURLs: allAccessible}

	first, err := r.RunResearchFetch(ctx, "job-1", testURLs, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Same selection in a different order: no provider calls, same summary.
	reordered := []string{testURLs[2], testURLs[0], testURLs[1]}
	second, err := r.RunResearchFetch(ctx, "job-1", reordered, 0)
	if err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 3 || grounder.calls != 1 {
		t.Errorf("rerun hit providers: fetch %d, grounding %d", fetcher.calls, grounder.calls)
	}
	if first.Summary != second.Summary {
		t.Errorf("summaries differ: %+v vs %+v", first.Summary, second.Summary)
	}
}

func TestRunResearchFetchAllFetchesFail(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	fetcher := &stubFetch{}
	grounder := &stubGrounder{data: currentDataFixture()}
	r := &Runner{Store: store, Fetch: fetcher, Grounding: grounder, CheckURLs: allAccessible}

	_, err := r.RunResearchFetch(ctx, "job-1", testURLs, 0)
	if err == nil || !strings.Contains(err.Error(), "couldn't fetch content") {
		t.Fatalf("err = %v", err)
	}
	job, gerr := store.GetJob(ctx, "job-1")
	if gerr != nil {
		t.Fatal(gerr)
	}
	if job.Phase != jobs.PhaseFailed {
		t.Errorf("phase = %q", job.Phase)
	}
	rec := job.ChunkRecords[jobs.ChunkResearch]
	if rec.Status != jobs.ChunkFailed || rec.AttemptCount != 1 {
		t.Errorf("research record = %+v", rec)
	}
}

func TestRunResearchFetchInaccessibleURLs(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	fetcher := &stubFetch{articles: articleFixtures()}
	r := &Runner{Store: store, Fetch: fetcher, Grounding: &stubGrounder{}, CheckURLs: noneAccessible}

	_, err := r.RunResearchFetch(ctx, "job-1", testURLs, 0)
	if !errors.Is(err, ErrURLsNotAccessible) {
		t.Fatalf("err = %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch ran despite inaccessible URLs: %d calls", fetcher.calls)
	}
	job, gerr := store.GetJob(ctx, "job-1")
	if gerr != nil {
		t.Fatal(gerr)
	}
	if job.Phase != jobs.PhaseFailed {
		t.Errorf("phase = %q", job.Phase)
	}
	rec := job.ChunkRecords[jobs.ChunkResearch]
	if rec.Status != jobs.ChunkFailed || rec.AttemptCount != 1 {
		t.Errorf("research record = %+v", rec)
	}
	if !strings.Contains(rec.ErrorMessage, "accessible") {
		t.Errorf("error message = %q", rec.ErrorMessage)
	}
}

func TestRunBriefCachesExtraction(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	seedChunk(t, store, "job-1", jobs.ChunkResearch, seededResearch(articleFixtures()))
	extractor := &stubExtractor{extraction: extractionFixture()}
	builder := &stubBriefs{brief: briefFixture()}
	r := &Runner{Store: store, Extractor: extractor, Briefs: builder}

	if _, err := r.RunBrief(ctx, "job-1", BriefOptions{}, 0); err != nil {
		t.Fatal(err)
	}
	if extractor.calls != 1 || builder.calls != 1 {
		t.Fatalf("first run: extractor %d, builder %d", extractor.calls, builder.calls)
	}

	// Second run reuses the cached extraction for the same source set.
	if _, err := r.RunBrief(ctx, "job-1", BriefOptions{}, 0); err != nil {
		t.Fatal(err)
	}
	if extractor.calls != 1 {
		t.Errorf("extraction reran despite cache: %d calls", extractor.calls)
	}
	if builder.calls != 2 {
		t.Errorf("builder calls = %d", builder.calls)
	}

	job, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Phase != jobs.PhaseWaitingForReview {
		t.Errorf("phase = %q", job.Phase)
	}
	raw, err := store.GetChunkOutput(ctx, "job-1", jobs.ChunkAnalysis)
	if err != nil || raw == nil {
		t.Fatalf("analysis chunk missing: %v", err)
	}
	var stored types.Brief
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.Keyword.Primary != "standing desk" {
		t.Errorf("stored brief keyword = %q", stored.Keyword.Primary)
	}
}

func TestRunBriefRequiresResearch(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	r := &Runner{Store: store, Extractor: &stubExtractor{}, Briefs: &stubBriefs{}}
	_, err := r.RunBrief(ctx, "job-1", BriefOptions{}, 0)
	if !errors.Is(err, ErrResearchNotCompleted) {
		t.Errorf("err = %v", err)
	}
}

func TestRunBriefExtractionFailureFailsChunk(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	seedChunk(t, store, "job-1", jobs.ChunkResearch, seededResearch(articleFixtures()))
	extractor := &stubExtractor{err: errors.New("model rejected input")}
	r := &Runner{Store: store, Extractor: extractor, Briefs: &stubBriefs{brief: briefFixture()}}

	_, err := r.RunBrief(ctx, "job-1", BriefOptions{}, 0)
	if err == nil || !strings.Contains(err.Error(), "topic extraction failed") {
		t.Fatalf("err = %v", err)
	}
	if extractor.calls != 1 {
		t.Errorf("non-transient failure retried: %d calls", extractor.calls)
	}
	job, gerr := store.GetJob(ctx, "job-1")
	if gerr != nil {
		t.Fatal(gerr)
	}
	if job.Phase != jobs.PhaseFailed {
		t.Errorf("phase = %q", job.Phase)
	}
	if rec := job.ChunkRecords[jobs.ChunkAnalysis]; rec.Status != jobs.ChunkFailed {
		t.Errorf("analysis record = %+v", rec)
	}
}

func TestRunBriefStopsWhenBudgetExhausted(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	seedChunk(t, store, "job-1", jobs.ChunkResearch, seededResearch(articleFixtures()))
	builder := &stubBriefs{brief: briefFixture()}
	r := &Runner{Store: store, Extractor: &stubExtractor{extraction: extractionFixture()}, Briefs: builder}

	// A spent budget after extraction must not start the brief call: the
	// extraction is persisted, so a retry resumes from there.
	_, err := r.RunBrief(ctx, "job-1", BriefOptions{}, time.Nanosecond)
	if err == nil || !strings.Contains(err.Error(), "budget exhausted") {
		t.Fatalf("err = %v", err)
	}
	if builder.calls != 0 {
		t.Errorf("brief call ran on exhausted budget: %d calls", builder.calls)
	}
	job, gerr := store.GetJob(ctx, "job-1")
	if gerr != nil {
		t.Fatal(gerr)
	}
	if job.Phase != jobs.PhaseFailed {
		t.Errorf("phase = %q", job.Phase)
	}
	raw, gerr := store.GetChunkOutput(ctx, "job-1", jobs.ChunkTopicExtraction)
	if gerr != nil || raw == nil {
		t.Errorf("extraction cache not persisted before stopping: %v", gerr)
	}
}

func TestRunBriefReviseOverride(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	seedChunk(t, store, "job-1", jobs.ChunkResearch, seededResearch(articleFixtures()))
	builder := &stubBriefs{brief: briefFixture()}
	r := &Runner{Store: store, Extractor: &stubExtractor{extraction: extractionFixture()}, Briefs: builder}

	if _, err := r.RunBrief(ctx, "job-1", BriefOptions{Revise: true, WordCountTarget: 1500}, 0); err != nil {
		t.Fatal(err)
	}
	if builder.gotOverride == nil || builder.gotOverride.Target != 1500 {
		t.Errorf("override = %+v", builder.gotOverride)
	}
}

const draftContent = `<p>A standing desk works best at elbow height.</p>` +
	`<h2>First Section</h2><p>Body copy for the first section.</p>` +
	`<h2>Second Section</h2><p>Body copy for the second section.</p>`

func TestRunDraftWritesAndPersists(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	seedChunk(t, store, "job-1", jobs.ChunkAnalysis, briefFixture())
	writer := &stubWriter{out: types.DraftProviderOutput{
		Content:             draftContent,
		SuggestedCategories: []string{"Office Setup"},
		SuggestedTags:       []string{"standing desk", "ergonomics"},
	}}
	r := &Runner{Store: store, Writer: writer}

	draft, err := r.RunDraft(ctx, "job-1", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if draft.Title != "Draft" || draft.MetaDescription != "" {
		t.Errorf("placeholders = %q / %q", draft.Title, draft.MetaDescription)
	}
	if draft.SuggestedSlug != "standing-desk" {
		t.Errorf("slug = %q", draft.SuggestedSlug)
	}
	if len(draft.Outline) != 2 || draft.Outline[0] != "First Section" {
		t.Errorf("outline = %v", draft.Outline)
	}

	job, gerr := store.GetJob(ctx, "job-1")
	if gerr != nil {
		t.Fatal(gerr)
	}
	if job.Phase != jobs.PhasePostProcessing {
		t.Errorf("phase = %q", job.Phase)
	}
	if rec := job.ChunkRecords[jobs.ChunkDraft]; rec.Status != jobs.ChunkCompleted {
		t.Errorf("draft record = %+v", rec)
	}
}

func TestRunDraftEmptyOutlineAfterOverrides(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	seedChunk(t, store, "job-1", jobs.ChunkAnalysis, briefFixture())
	writer := &stubWriter{}
	r := &Runner{Store: store, Writer: writer}

	overrides := &types.BriefOverrides{RemovedSectionIndexes: []int{0, 1}}
	_, err := r.RunDraft(ctx, "job-1", overrides, 0)
	if !errors.Is(err, ErrEmptyOutline) {
		t.Fatalf("err = %v", err)
	}
	if writer.calls != 0 {
		t.Errorf("writer called despite empty outline")
	}
	job, gerr := store.GetJob(ctx, "job-1")
	if gerr != nil {
		t.Fatal(gerr)
	}
	// Precondition failure: draft chunk untouched.
	if rec := job.ChunkRecords[jobs.ChunkDraft]; rec.Status != jobs.ChunkPending {
		t.Errorf("draft record = %+v", rec)
	}
}

func TestRunDraftWriterFailureFailsChunk(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	seedChunk(t, store, "job-1", jobs.ChunkAnalysis, briefFixture())
	r := &Runner{Store: store, Writer: &stubWriter{err: errors.New("content too short")}}

	_, err := r.RunDraft(ctx, "job-1", nil, 0)
	if err == nil || !strings.Contains(err.Error(), "draft failed") {
		t.Fatalf("err = %v", err)
	}
	job, gerr := store.GetJob(ctx, "job-1")
	if gerr != nil {
		t.Fatal(gerr)
	}
	if rec := job.ChunkRecords[jobs.ChunkDraft]; rec.Status != jobs.ChunkFailed {
		t.Errorf("draft record = %+v", rec)
	}
}

func TestRunValidateCompletesJob(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	seedChunk(t, store, "job-1", jobs.ChunkResearch, seededResearch(articleFixtures()))
	seedChunk(t, store, "job-1", jobs.ChunkAnalysis, briefFixture())
	seedChunk(t, store, "job-1", jobs.ChunkDraft, types.DraftOutput{
		Title:         "Draft",
		SuggestedSlug: "standing-desk",
		Content:       draftContent,
	})
	r := &Runner{Store: store}

	out, err := r.RunValidate(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if out.FinalContent != draftContent {
		t.Error("content without FAQ should pass through unchanged")
	}
	if !out.FAQEnforcement.Passed {
		t.Errorf("faq enforcement = %+v", out.FAQEnforcement)
	}
	if len(out.AuditResult.Findings) == 0 {
		t.Error("audit produced no findings")
	}

	job, gerr := store.GetJob(ctx, "job-1")
	if gerr != nil {
		t.Fatal(gerr)
	}
	if job.Phase != jobs.PhaseCompleted {
		t.Errorf("phase = %q", job.Phase)
	}
}

func TestRunValidateRequiresDraft(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	if _, err := store.CreateJob(ctx, "job-1", testInput()); err != nil {
		t.Fatal(err)
	}
	r := &Runner{Store: store}
	_, err := r.RunValidate(ctx, "job-1")
	if !errors.Is(err, ErrDraftNotCompleted) {
		t.Errorf("err = %v", err)
	}
}
