package metrics

import "sync"

// Aggregate summarizes the retained run history for the metrics endpoint.
type Aggregate struct {
	RunCount                int              `json:"run_count"`
	AverageTotalDurationMs  int64            `json:"average_total_duration_ms"`
	AverageDurationPerChunk map[string]int64 `json:"average_duration_per_chunk"`
	CacheHitRate            float64          `json:"cache_hit_rate"`
	AverageAuditScore       float64          `json:"average_audit_score"`
	FailurePoints           map[string]int   `json:"failure_points"`
	AverageCostUSD          float64          `json:"average_cost_usd"`
}

// Store keeps the last N run records in memory. History survives for the
// process lifetime only; durable cost lives on the job's chunk records.
type Store struct {
	mu   sync.RWMutex
	max  int
	runs []RunMetrics
}

// NewStore returns a Store retaining at most max runs.
func NewStore(max int) *Store {
	if max <= 0 {
		max = 50
	}
	return &Store{max: max}
}

// Add appends a finished run, evicting the oldest past capacity.
func (s *Store) Add(run RunMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	if len(s.runs) > s.max {
		s.runs = s.runs[len(s.runs)-s.max:]
	}
}

// Recent returns up to n most recent runs, newest last.
func (s *Store) Recent(n int) []RunMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.runs) {
		n = len(s.runs)
	}
	out := make([]RunMetrics, n)
	copy(out, s.runs[len(s.runs)-n:])
	return out
}

// Aggregate computes summary stats over the retained runs.
func (s *Store) Aggregate() Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := Aggregate{
		AverageDurationPerChunk: map[string]int64{},
		FailurePoints:           map[string]int{},
	}
	if len(s.runs) == 0 {
		return agg
	}

	var totalDuration int64
	var hits, calls int
	var auditSum float64
	var auditN int
	var costSum float64
	chunkTotals := map[string]int64{}
	chunkCounts := map[string]int{}

	for _, r := range s.runs {
		totalDuration += r.TotalDurationMs
		hits += r.TotalCacheHits
		calls += r.TotalExternalAPICalls
		costSum += r.EstimatedCostUSD
		if r.AuditScore > 0 {
			auditSum += float64(r.AuditScore)
			auditN++
		}
		if r.Status == "failed" && r.FailedChunk != "" {
			agg.FailurePoints[r.FailedChunk]++
		}
		for _, ch := range r.Chunks {
			chunkTotals[ch.ChunkName] += ch.DurationMs
			chunkCounts[ch.ChunkName]++
		}
	}

	agg.RunCount = len(s.runs)
	agg.AverageTotalDurationMs = totalDuration / int64(len(s.runs))
	for name, total := range chunkTotals {
		agg.AverageDurationPerChunk[name] = total / int64(chunkCounts[name])
	}
	if calls > 0 {
		agg.CacheHitRate = float64(hits) / float64(calls)
	}
	if auditN > 0 {
		agg.AverageAuditScore = auditSum / float64(auditN)
	}
	agg.AverageCostUSD = round5(costSum / float64(len(s.runs)))
	return agg
}
