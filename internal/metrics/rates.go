// Package metrics records per-run timing and spend for observability.
// Recording never changes pipeline behavior.
package metrics

import (
	"encoding/json"
	"log"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/jonathan/content-engine/internal/types"
)

// ProviderRate prices one provider's unit of work in USD. CallCost applies
// per call (searches, fetches); token rates apply per 1K tokens.
type ProviderRate struct {
	CallCost    float64 `json:"call_cost,omitempty"`
	InputPer1K  float64 `json:"input_per_1k,omitempty"`
	OutputPer1K float64 `json:"output_per_1k,omitempty"`
}

// DefaultRates are rough published list prices. Override any entry with the
// PIPELINE_COST_RATES env var (JSON object of the same shape).
var DefaultRates = map[string]ProviderRate{
	"search":       {CallCost: 0.001},
	"fetch":        {CallCost: 0.002},
	"gemini":       {InputPer1K: 0.00025, OutputPer1K: 0.001},
	"gemini-flash": {InputPer1K: 0.00025, OutputPer1K: 0.001},
	"gemini-pro":   {InputPer1K: 0.00125, OutputPer1K: 0.005},
}

var (
	ratesMu sync.RWMutex
	rates   = cloneRates(DefaultRates)
)

func cloneRates(src map[string]ProviderRate) map[string]ProviderRate {
	out := make(map[string]ProviderRate, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Rates returns a copy of the active rate table.
func Rates() map[string]ProviderRate {
	ratesMu.RLock()
	defer ratesMu.RUnlock()
	return cloneRates(rates)
}

// SetRates replaces the active rate table.
func SetRates(r map[string]ProviderRate) {
	ratesMu.Lock()
	defer ratesMu.Unlock()
	rates = cloneRates(r)
}

// InitRatesFromEnv merges PIPELINE_COST_RATES (JSON) over the defaults.
// Invalid JSON is logged and ignored so a typo never stops a run.
func InitRatesFromEnv() {
	raw := os.Getenv("PIPELINE_COST_RATES")
	if raw == "" {
		return
	}
	var parsed map[string]ProviderRate
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Printf("[metrics] ignoring invalid PIPELINE_COST_RATES: %v", err)
		return
	}
	merged := cloneRates(DefaultRates)
	for k, v := range parsed {
		merged[k] = v
	}
	SetRates(merged)
}

// RateKeyForModel maps a model identifier to a rate table key.
func RateKeyForModel(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "pro"):
		return "gemini-pro"
	case strings.Contains(m, "flash"):
		return "gemini-flash"
	default:
		return "gemini"
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// EstimateCallCost prices a single recorded call against the active rates.
// Unknown providers cost zero rather than failing the run.
func EstimateCallCost(provider string, calls, inputTokens, outputTokens int) float64 {
	ratesMu.RLock()
	rate, ok := rates[provider]
	ratesMu.RUnlock()
	if !ok {
		return 0
	}
	usd := rate.CallCost * float64(calls)
	usd += float64(inputTokens) / 1000 * rate.InputPer1K
	usd += float64(outputTokens) / 1000 * rate.OutputPer1K
	return round6(usd)
}

// EstimateChunkCost prices an accumulated chunk usage map.
func EstimateChunkCost(cost types.ChunkCost) float64 {
	var usd float64
	for provider, usage := range cost.Providers {
		calls := 0
		ratesMu.RLock()
		rate, ok := rates[provider]
		ratesMu.RUnlock()
		if !ok {
			continue
		}
		if rate.CallCost > 0 {
			calls = usage.Calls
		}
		usd += EstimateCallCost(provider, calls, usage.InputTokens, usage.OutputTokens)
	}
	return round5(usd)
}

// BuildChunkCost assembles the persisted cost record for one chunk run.
func BuildChunkCost(providers map[string]types.ProviderUsage, durationMs int64) types.ChunkCost {
	cost := types.ChunkCost{Providers: providers, DurationMs: durationMs}
	cost.EstimatedCostUSD = EstimateChunkCost(cost)
	return cost
}

// SumChunkCosts totals the estimated spend of completed chunk records, used
// to report what a resume from an earlier chunk would save.
func SumChunkCosts(costs []types.ChunkCost) (usd float64, durationMs int64) {
	for _, c := range costs {
		usd += c.EstimatedCostUSD
		durationMs += c.DurationMs
	}
	return round5(usd), durationMs
}
