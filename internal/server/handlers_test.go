package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/pipeline"
	"github.com/jonathan/content-engine/internal/types"
)

const testDraftHTML = `<p>A standing desk works best at elbow height.</p><h2>First Section</h2><p>Body copy with enough words to pass.</p><h2>Second Section</h2><p>More body copy here.</p>`

type fakeSearch struct{ results []types.SerpResult }

func (f *fakeSearch) Search(_ context.Context, _ string, _ int) ([]types.SerpResult, error) {
	return f.results, nil
}

type fakeFetch struct{}

func (fakeFetch) FetchArticle(_ context.Context, url string) types.SourceArticle {
	return types.SourceArticle{URL: url, Title: "Competitor Article", Content: "body", WordCount: 900, FetchSuccess: true}
}

type fakeGrounder struct{}

func (fakeGrounder) FetchCurrentData(_ context.Context, _ string, _ []string) (types.CurrentData, llm.Usage, error) {
	return types.CurrentData{
		Facts: []types.CurrentFact{{Fact: "68% of desk workers report back pain", Source: "https://example.com/study"}},
	}, llm.Usage{Model: "gemini-2.5-flash", InputTokens: 100, OutputTokens: 50}, nil
}

type fakeExtractor struct{}

func (fakeExtractor) ExtractTopics(_ context.Context, _ []types.SourceArticle) (types.TopicExtraction, llm.Usage, error) {
	return types.TopicExtraction{
		Topics: []types.Topic{{Name: "ergonomics", Importance: types.TopicEssential}},
	}, llm.Usage{Model: "gemini-2.5-flash", InputTokens: 500, OutputTokens: 300}, nil
}

type fakeBriefs struct{}

func (fakeBriefs) BuildBrief(_ context.Context, _ types.TopicExtraction, currentData types.CurrentData, input types.PipelineInput, _ *types.WordCountOverride) (types.Brief, llm.Usage, error) {
	return types.Brief{
		Keyword:     types.BriefKeyword{Primary: input.PrimaryKeyword},
		CurrentData: currentData,
		Outline: types.Outline{
			Sections: []types.OutlineSection{
				{Heading: "First Section", Level: "h2", TargetWords: 300},
				{Heading: "Second Section", Level: "h2", TargetWords: 400},
			},
			TotalSections:      2,
			EstimatedWordCount: 700,
		},
		WordCount: types.BriefWordCount{Target: 700, Note: "test"},
	}, llm.Usage{Model: "gemini-2.5-flash", InputTokens: 800, OutputTokens: 600}, nil
}

type fakeWriter struct{}

func (fakeWriter) WriteDraft(_ context.Context, _ types.Brief, _ []types.SearchIntent) (types.DraftProviderOutput, llm.Usage, error) {
	return types.DraftProviderOutput{Content: testDraftHTML}, llm.Usage{Model: "gemini-2.5-pro", InputTokens: 2000, OutputTokens: 3000}, nil
}

func allReachable(_ context.Context, urls []string) []types.ValidatedSourceURL {
	out := make([]types.ValidatedSourceURL, len(urls))
	for i, u := range urls {
		out[i] = types.ValidatedSourceURL{URL: u, Accessible: true, StatusCode: 200}
	}
	return out
}

func serpFixture() []types.SerpResult {
	return []types.SerpResult{
		{URL: "https://example.com/a", Title: "A", Position: 1, IsArticle: true},
		{URL: "https://example.com/b", Title: "B", Position: 2, IsArticle: true},
		{URL: "https://example.com/shop", Title: "Shop", Position: 3, IsArticle: false},
	}
}

func newTestServer(t *testing.T) (*Server, jobs.Store) {
	t.Helper()
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	store := jobs.NewMemoryStore()
	runner := &pipeline.Runner{
		Store:     store,
		Search:    &fakeSearch{results: serpFixture()},
		Fetch:     fakeFetch{},
		Grounding: fakeGrounder{},
		Extractor: fakeExtractor{},
		Briefs:    fakeBriefs{},
		Writer:    fakeWriter{},
		CheckURLs: allReachable,
	}
	s, err := New(Config{Addr: ":0", Store: store, Runner: runner})
	require.NoError(t, err)
	return s, store
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "127.0.0.1:54321"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func createTestJob(t *testing.T, store jobs.Store, id string) {
	t.Helper()
	_, err := store.CreateJob(context.Background(), id, types.PipelineInput{PrimaryKeyword: "standing desk"})
	require.NoError(t, err)
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleCreateJob(t *testing.T) {
	s, store := newTestServer(t)

	rec := doJSON(t, s, "POST", "/jobs", CreateJobRequest{
		Input: types.PipelineInput{PrimaryKeyword: "standing desk"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, jobs.PhaseCreated, resp.Phase)

	_, err := store.GetJob(context.Background(), resp.ID)
	assert.NoError(t, err)
}

func TestHandleCreateJob_InvalidInput(t *testing.T) {
	s, _ := newTestServer(t)

	// Missing primary keyword fails validation
	rec := doJSON(t, s, "POST", "/jobs", CreateJobRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid input")
}

func TestHandleGetJob_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/jobs/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleResearchSERP(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")

	rec := doJSON(t, s, "POST", "/jobs/job-1/research", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.com/a")
}

func TestHandleResearchFetch(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")

	rec := doJSON(t, s, "POST", "/jobs/job-1/research/fetch", FetchRequest{
		SelectedURLs: []string{"https://example.com/a", "https://example.com/b"},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.ResearchFetchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Summary.ArticleCount)
	assert.Equal(t, 1, result.Summary.CurrentDataFacts)
}

func TestHandleResearchFetch_RequiresURLs(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")

	rec := doJSON(t, s, "POST", "/jobs/job-1/research/fetch", FetchRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBrief_BeforeResearchConflicts(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")

	rec := doJSON(t, s, "POST", "/jobs/job-1/brief", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStageEndpointsRunFullPipeline(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")

	fetchBody := FetchRequest{SelectedURLs: []string{"https://example.com/a", "https://example.com/b"}}
	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/jobs/job-1/research/fetch", fetchBody).Code)
	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/jobs/job-1/brief", nil).Code)
	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/jobs/job-1/draft", nil).Code)
	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/jobs/job-1/validate", nil).Code)

	job, err := store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, jobs.PhaseCompleted, job.Phase)

	rec := doJSON(t, s, "GET", "/jobs/job-1/result", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result types.PipelineResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "standing-desk", result.Article.SuggestedSlug)
	assert.NotEmpty(t, result.Article.Content)
}

func TestHandleGetJob_SunkCost(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")

	fetchBody := FetchRequest{SelectedURLs: []string{"https://example.com/a"}}
	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/jobs/job-1/research/fetch", fetchBody).Code)

	rec := doJSON(t, s, "GET", "/jobs/job-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	research, ok := resp.Chunks[jobs.ChunkResearch]
	require.True(t, ok)
	assert.Equal(t, jobs.ChunkCompleted, research.Status)
	assert.Greater(t, resp.SunkCostUSD, 0.0)
}

func TestHandleRetry_NoFailedChunk(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")

	rec := doJSON(t, s, "POST", "/jobs/job-1/retry", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "no failed chunk")
}

func TestHandleRetry_RerunsFailedChunk(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")
	ctx := context.Background()

	fetchBody := FetchRequest{SelectedURLs: []string{"https://example.com/a"}}
	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/jobs/job-1/research/fetch", fetchBody).Code)
	require.NoError(t, store.SetChunkFailed(ctx, "job-1", jobs.ChunkAnalysis, "model rejected input"))

	rec := doJSON(t, s, "POST", "/jobs/job-1/retry", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chunk":"analysis"`)

	job, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, jobs.ChunkCompleted, job.ChunkRecords[jobs.ChunkAnalysis].Status)
}

func TestHandleRunStream(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")

	rec := doJSON(t, s, "POST", "/jobs/job-1/run/stream", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event: serp")
	assert.Contains(t, body, "event: research")
	assert.Contains(t, body, "event: brief")
	assert.Contains(t, body, "event: draft")
	assert.Contains(t, body, "event: validate")
	assert.Contains(t, body, "event: result")
	assert.Contains(t, body, "event: complete")

	job, err := store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, jobs.PhaseCompleted, job.Phase)
}

func TestHandleMetrics_AfterStreamRun(t *testing.T) {
	s, store := newTestServer(t)
	createTestJob(t, store, "job-1")

	require.Equal(t, http.StatusOK, doJSON(t, s, "POST", "/jobs/job-1/run/stream", nil).Code)

	rec := doJSON(t, s, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Recent, 1)
	assert.Equal(t, "completed", resp.Recent[0].Status)
	assert.Equal(t, 1, resp.Aggregate.Runs)
	assert.Equal(t, 1, resp.Aggregate.Completed)
}

func TestSelectTopArticles(t *testing.T) {
	urls := selectTopArticles(serpFixture(), 2)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, urls)

	urls = selectTopArticles([]types.SerpResult{{URL: "https://x.test/shop", IsArticle: false}}, 3)
	assert.Empty(t, urls)
}

func TestRunLogCapacityAndAggregate(t *testing.T) {
	l := newRunLog()
	for i := 0; i < runLogCapacity+5; i++ {
		status := "completed"
		if i%2 == 0 {
			status = "failed"
		}
		l.add(metricsRun(status, int64(100*(i+1))))
	}

	snap := l.snapshot()
	assert.Len(t, snap.Recent, runLogCapacity)
	assert.Equal(t, runLogCapacity+5, snap.Aggregate.Runs)
	assert.Equal(t, snap.Aggregate.Completed+snap.Aggregate.Failed, snap.Aggregate.Runs)
	assert.Greater(t, snap.Aggregate.AvgDurationMs, int64(0))
}

func metricsRun(status string, durationMs int64) metrics.RunMetrics {
	return metrics.RunMetrics{
		Status:          status,
		TotalDurationMs: durationMs,
		StartedAt:       time.Now(),
		EndedAt:         time.Now(),
	}
}
