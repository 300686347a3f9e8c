package types

// ProviderUsage accumulates one provider's consumption within a chunk.
type ProviderUsage struct {
	Calls        int `json:"calls"`
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// ChunkCost is the per-chunk spend record persisted alongside chunk output,
// so a resume can report what re-running from an earlier chunk would cost.
type ChunkCost struct {
	Providers        map[string]ProviderUsage `json:"providers"`
	DurationMs       int64                    `json:"duration_ms,omitempty"`
	EstimatedCostUSD float64                  `json:"estimated_cost_usd,omitempty"`
}
