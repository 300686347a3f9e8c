package metrics

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// CallRecord is one external call (search, fetch, or model) within a chunk.
type CallRecord struct {
	Provider     string `json:"provider"`
	Endpoint     string `json:"endpoint,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	CacheHit     bool   `json:"cache_hit"`
}

// ChunkStatus is a chunk's terminal state within one run.
type ChunkStatus string

const (
	ChunkCompleted ChunkStatus = "completed"
	ChunkFailed    ChunkStatus = "failed"
	ChunkSkipped   ChunkStatus = "skipped"
)

// ChunkMetrics is the per-chunk breakdown within a run.
type ChunkMetrics struct {
	ChunkName  string       `json:"chunk_name"`
	DurationMs int64        `json:"duration_ms"`
	Status     ChunkStatus  `json:"status"`
	FromCache  bool         `json:"from_cache"`
	APICalls   []CallRecord `json:"api_calls"`
}

// PerformanceSummary is the human-readable digest attached to a run.
type PerformanceSummary struct {
	TotalSeconds           float64 `json:"total_seconds"`
	FastestChunk           string  `json:"fastest_chunk"`
	FastestChunkDurationMs int64   `json:"fastest_chunk_duration_ms"`
	SlowestChunk           string  `json:"slowest_chunk"`
	SlowestChunkDurationMs int64   `json:"slowest_chunk_duration_ms"`
	EstimatedCostFormatted string  `json:"estimated_cost_formatted"`
	CacheHitRatePercent    string  `json:"cache_hit_rate_percent"`
}

// RunMetrics is the full record of one pipeline run.
type RunMetrics struct {
	JobID                 string             `json:"job_id"`
	Keyword               string             `json:"keyword"`
	StartedAt             time.Time          `json:"started_at"`
	EndedAt               time.Time          `json:"ended_at"`
	TotalDurationMs       int64              `json:"total_duration_ms"`
	Chunks                []ChunkMetrics     `json:"chunks"`
	TotalCacheHits        int                `json:"total_cache_hits"`
	TotalCacheMisses      int                `json:"total_cache_misses"`
	TotalExternalAPICalls int                `json:"total_external_api_calls"`
	EstimatedCostUSD      float64            `json:"estimated_cost_usd"`
	TargetWordCount       int                `json:"target_word_count,omitempty"`
	ActualWordCount       int                `json:"actual_word_count,omitempty"`
	AuditScore            int                `json:"audit_score,omitempty"`
	HallucinationCount    int                `json:"hallucination_count"`
	Performance           PerformanceSummary `json:"performance_summary"`
	Status                string             `json:"status"`
	FailedChunk           string             `json:"failed_chunk,omitempty"`
}

// Collector accumulates metrics for a single run. Safe for concurrent use
// because research fetches record calls from errgroup workers.
type Collector struct {
	mu sync.Mutex

	jobID   string
	keyword string
	started time.Time

	chunks     []ChunkMetrics
	current    string
	chunkStart time.Time
	calls      []CallRecord

	targetWords    int
	actualWords    int
	auditScore     int
	hallucinations int
}

// NewCollector starts a run record for the given job.
func NewCollector(jobID, keyword string) *Collector {
	return &Collector{jobID: jobID, keyword: keyword, started: time.Now()}
}

// StartChunk begins timing a named chunk. Calls recorded until EndChunk are
// attributed to it.
func (c *Collector) StartChunk(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = name
	c.chunkStart = time.Now()
	c.calls = nil
}

// EndChunk closes the current chunk with its terminal status.
func (c *Collector) EndChunk(name string, status ChunkStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks = append(c.chunks, ChunkMetrics{
		ChunkName:  name,
		DurationMs: time.Since(c.chunkStart).Milliseconds(),
		Status:     status,
		APICalls:   c.calls,
	})
	c.current = ""
	c.calls = nil
}

// RecordCall attributes one external call to the chunk in progress.
func (c *Collector) RecordCall(rec CallRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, rec)
}

func (c *Collector) SetTargetWordCount(n int) { c.mu.Lock(); c.targetWords = n; c.mu.Unlock() }
func (c *Collector) SetActualWordCount(n int) { c.mu.Lock(); c.actualWords = n; c.mu.Unlock() }
func (c *Collector) SetAuditScore(n int)      { c.mu.Lock(); c.auditScore = n; c.mu.Unlock() }
func (c *Collector) SetHallucinations(n int)  { c.mu.Lock(); c.hallucinations = n; c.mu.Unlock() }

func formatCost(usd float64) string {
	if usd > 0 && usd < 0.01 {
		return "<$0.01"
	}
	return fmt.Sprintf("$%.2f", usd)
}

// FinishRun closes out the run, folding in any chunk still open, and returns
// the complete record. failedChunk names the failure point when status is
// "failed"; empty otherwise.
func (c *Collector) FinishRun(status, failedChunk string) RunMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != "" {
		st := ChunkCompleted
		if status == "failed" {
			st = ChunkFailed
		}
		c.chunks = append(c.chunks, ChunkMetrics{
			ChunkName:  c.current,
			DurationMs: time.Since(c.chunkStart).Milliseconds(),
			Status:     st,
			APICalls:   c.calls,
		})
		c.current = ""
		c.calls = nil
	}

	ended := time.Now()
	var hits, misses int
	var cost float64
	for _, ch := range c.chunks {
		for _, call := range ch.APICalls {
			if call.CacheHit {
				hits++
				continue
			}
			misses++
			calls := 0
			if call.InputTokens == 0 && call.OutputTokens == 0 {
				calls = 1
			}
			cost += EstimateCallCost(call.Provider, calls, call.InputTokens, call.OutputTokens)
		}
	}
	cost = round6(cost)

	fastest := ChunkMetrics{ChunkName: "—"}
	slowest := ChunkMetrics{ChunkName: "—"}
	first := true
	for _, ch := range c.chunks {
		if ch.Status != ChunkCompleted {
			continue
		}
		if first {
			fastest, slowest = ch, ch
			first = false
			continue
		}
		if ch.DurationMs < fastest.DurationMs {
			fastest = ch
		}
		if ch.DurationMs > slowest.DurationMs {
			slowest = ch
		}
	}
	totalCalls := hits + misses
	hitRate := 0.0
	if totalCalls > 0 {
		hitRate = float64(hits) / float64(totalCalls)
	}

	return RunMetrics{
		JobID:                 c.jobID,
		Keyword:               c.keyword,
		StartedAt:             c.started,
		EndedAt:               ended,
		TotalDurationMs:       ended.Sub(c.started).Milliseconds(),
		Chunks:                c.chunks,
		TotalCacheHits:        hits,
		TotalCacheMisses:      misses,
		TotalExternalAPICalls: totalCalls,
		EstimatedCostUSD:      cost,
		TargetWordCount:       c.targetWords,
		ActualWordCount:       c.actualWords,
		AuditScore:            c.auditScore,
		HallucinationCount:    c.hallucinations,
		Performance: PerformanceSummary{
			TotalSeconds:           math.Round(float64(ended.Sub(c.started).Milliseconds())/100) / 10,
			FastestChunk:           fastest.ChunkName,
			FastestChunkDurationMs: fastest.DurationMs,
			SlowestChunk:           slowest.ChunkName,
			SlowestChunkDurationMs: slowest.DurationMs,
			EstimatedCostFormatted: formatCost(cost),
			CacheHitRatePercent:    fmt.Sprintf("%d%%", int(math.Round(hitRate*100))),
		},
		Status:      status,
		FailedChunk: failedChunk,
	}
}
