package metrics

import (
	"strings"
	"testing"

	"github.com/jonathan/content-engine/internal/types"
)

func TestEstimateCallCost(t *testing.T) {
	SetRates(DefaultRates)
	tests := []struct {
		name         string
		provider     string
		calls        int
		inputTokens  int
		outputTokens int
		want         float64
	}{
		{"per-call search pricing", "search", 3, 0, 0, 0.003},
		{"token pricing", "gemini", 0, 10000, 2000, 0.0045},
		{"unknown provider is free", "acme", 5, 1000, 1000, 0},
		{"zero usage", "gemini", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateCallCost(tt.provider, tt.calls, tt.inputTokens, tt.outputTokens)
			if got != tt.want {
				t.Errorf("EstimateCallCost(%q, %d, %d, %d) = %v, want %v",
					tt.provider, tt.calls, tt.inputTokens, tt.outputTokens, got, tt.want)
			}
		})
	}
}

func TestSetRatesOverride(t *testing.T) {
	defer SetRates(DefaultRates)
	SetRates(map[string]ProviderRate{"search": {CallCost: 0.01}})
	if got := EstimateCallCost("search", 2, 0, 0); got != 0.02 {
		t.Errorf("overridden search cost = %v, want 0.02", got)
	}
	if got := EstimateCallCost("gemini", 0, 1000, 0); got != 0 {
		t.Errorf("gemini should be unknown after override, got %v", got)
	}
}

func TestRateKeyForModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gemini-2.5-flash", "gemini-flash"},
		{"gemini-2.5-pro", "gemini-pro"},
		{"gemini-1.5", "gemini"},
	}
	for _, tt := range tests {
		if got := RateKeyForModel(tt.model); got != tt.want {
			t.Errorf("RateKeyForModel(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestBuildChunkCost(t *testing.T) {
	SetRates(DefaultRates)
	cost := BuildChunkCost(map[string]types.ProviderUsage{
		"search": {Calls: 2},
		"gemini": {Calls: 1, InputTokens: 4000, OutputTokens: 1000},
	}, 1200)
	if cost.DurationMs != 1200 {
		t.Errorf("DurationMs = %d, want 1200", cost.DurationMs)
	}
	// 2 searches at 0.001 plus gemini tokens (4k * 0.00025/1k + 1k * 0.001/1k).
	want := 0.002 + 0.001 + 0.001
	if cost.EstimatedCostUSD != want {
		t.Errorf("EstimatedCostUSD = %v, want %v", cost.EstimatedCostUSD, want)
	}
}

func TestCollectorRun(t *testing.T) {
	SetRates(DefaultRates)
	c := NewCollector("job-1", "standing desk ergonomics")

	c.StartChunk("research_serp")
	c.RecordCall(CallRecord{Provider: "search", DurationMs: 80})
	c.EndChunk("research_serp", ChunkCompleted)

	c.StartChunk("research")
	c.RecordCall(CallRecord{Provider: "fetch", DurationMs: 300})
	c.RecordCall(CallRecord{Provider: "fetch", DurationMs: 10, CacheHit: true})
	c.RecordCall(CallRecord{Provider: "gemini", DurationMs: 900, InputTokens: 5000, OutputTokens: 800})
	c.EndChunk("research", ChunkCompleted)

	c.SetAuditScore(88)
	run := c.FinishRun("completed", "")

	if run.JobID != "job-1" || run.Keyword != "standing desk ergonomics" {
		t.Errorf("run identity = %q/%q", run.JobID, run.Keyword)
	}
	if len(run.Chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(run.Chunks))
	}
	if run.TotalExternalAPICalls != 4 {
		t.Errorf("TotalExternalAPICalls = %d, want 4", run.TotalExternalAPICalls)
	}
	if run.TotalCacheHits != 1 || run.TotalCacheMisses != 3 {
		t.Errorf("cache hits/misses = %d/%d, want 1/3", run.TotalCacheHits, run.TotalCacheMisses)
	}
	if run.EstimatedCostUSD <= 0 {
		t.Errorf("EstimatedCostUSD = %v, want > 0", run.EstimatedCostUSD)
	}
	if run.AuditScore != 88 {
		t.Errorf("AuditScore = %d, want 88", run.AuditScore)
	}
	if run.Performance.CacheHitRatePercent != "25%" {
		t.Errorf("CacheHitRatePercent = %q, want 25%%", run.Performance.CacheHitRatePercent)
	}
	if !strings.HasPrefix(run.Performance.EstimatedCostFormatted, "<$") &&
		!strings.HasPrefix(run.Performance.EstimatedCostFormatted, "$") {
		t.Errorf("EstimatedCostFormatted = %q", run.Performance.EstimatedCostFormatted)
	}
}

func TestCollectorFinishClosesOpenChunk(t *testing.T) {
	c := NewCollector("job-2", "kw")
	c.StartChunk("draft")
	run := c.FinishRun("failed", "draft")
	if len(run.Chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(run.Chunks))
	}
	if run.Chunks[0].Status != ChunkFailed {
		t.Errorf("open chunk status = %q, want failed", run.Chunks[0].Status)
	}
	if run.FailedChunk != "draft" {
		t.Errorf("FailedChunk = %q, want draft", run.FailedChunk)
	}
}

func TestStoreAggregate(t *testing.T) {
	s := NewStore(10)
	s.Add(RunMetrics{
		TotalDurationMs: 1000, TotalCacheHits: 1, TotalCacheMisses: 1,
		TotalExternalAPICalls: 2, EstimatedCostUSD: 0.02, AuditScore: 80,
		Status: "completed",
		Chunks: []ChunkMetrics{{ChunkName: "draft", DurationMs: 600}},
	})
	s.Add(RunMetrics{
		TotalDurationMs: 3000, TotalCacheHits: 0, TotalCacheMisses: 2,
		TotalExternalAPICalls: 2, EstimatedCostUSD: 0.04, AuditScore: 90,
		Status: "failed", FailedChunk: "draft",
		Chunks: []ChunkMetrics{{ChunkName: "draft", DurationMs: 1000}},
	})

	agg := s.Aggregate()
	if agg.RunCount != 2 {
		t.Fatalf("RunCount = %d, want 2", agg.RunCount)
	}
	if agg.AverageTotalDurationMs != 2000 {
		t.Errorf("AverageTotalDurationMs = %d, want 2000", agg.AverageTotalDurationMs)
	}
	if agg.AverageDurationPerChunk["draft"] != 800 {
		t.Errorf("AverageDurationPerChunk[draft] = %d, want 800", agg.AverageDurationPerChunk["draft"])
	}
	if agg.CacheHitRate != 0.25 {
		t.Errorf("CacheHitRate = %v, want 0.25", agg.CacheHitRate)
	}
	if agg.AverageAuditScore != 85 {
		t.Errorf("AverageAuditScore = %v, want 85", agg.AverageAuditScore)
	}
	if agg.FailurePoints["draft"] != 1 {
		t.Errorf("FailurePoints[draft] = %d, want 1", agg.FailurePoints["draft"])
	}
	if agg.AverageCostUSD != 0.03 {
		t.Errorf("AverageCostUSD = %v, want 0.03", agg.AverageCostUSD)
	}
}

func TestStoreEviction(t *testing.T) {
	s := NewStore(2)
	for i := 0; i < 5; i++ {
		s.Add(RunMetrics{JobID: string(rune('a' + i))})
	}
	recent := s.Recent(0)
	if len(recent) != 2 {
		t.Fatalf("retained = %d, want 2", len(recent))
	}
	if recent[0].JobID != "d" || recent[1].JobID != "e" {
		t.Errorf("retained runs = %q, %q; want d, e", recent[0].JobID, recent[1].JobID)
	}
}
