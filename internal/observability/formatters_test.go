package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/types"
)

func TestPrintSerpResults(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	results := []types.SerpResult{
		{URL: "https://example.com/guide", Title: "The Complete Guide", Position: 1},
		{URL: "https://example.org/review", Title: "An Honest Review", Position: 2},
	}

	p.PrintSerpResults(results)
	output := buf.String()

	assert.Contains(t, output, "SEARCH RESULTS")
	assert.Contains(t, output, "The Complete Guide")
	assert.Contains(t, output, "https://example.com/guide")
	assert.Contains(t, output, "#2")
}

func TestPrintSerpResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSerpResults(nil)

	assert.Empty(t, buf.String())
}

func TestPrintResearchSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	summary := types.ResearchSummary{URLCount: 3, ArticleCount: 2, CurrentDataFacts: 1}
	data := types.CurrentData{
		Facts: []types.CurrentFact{
			{Fact: "68% of remote workers report back pain", Source: "https://example.com/study"},
		},
	}

	p.PrintResearchSummary(summary, data)
	output := buf.String()

	assert.Contains(t, output, "RESEARCH SUMMARY")
	assert.Contains(t, output, "Articles fetched: 2")
	assert.Contains(t, output, "68% of remote workers")
}

func TestPrintBrief(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	brief := &types.Brief{
		Keyword: types.BriefKeyword{
			Primary:   "standing desk",
			Secondary: []string{"sit stand desk"},
		},
		Outline: types.Outline{
			Sections: []types.OutlineSection{
				{Heading: "Ergonomics", Level: "h2", TargetWords: 300},
				{Heading: "Buying Guide", Level: "h2", TargetWords: 400},
			},
		},
		Gaps:      []string{"No competitor covers desk mats"},
		WordCount: types.BriefWordCount{Target: 2000, Note: "competitor average"},
	}

	p.PrintBrief(brief)
	output := buf.String()

	assert.Contains(t, output, "CONTENT BRIEF")
	assert.Contains(t, output, "standing desk")
	assert.Contains(t, output, "1. Ergonomics (300w)")
	assert.Contains(t, output, "2. Buying Guide (400w)")
	assert.Contains(t, output, "2000 words")
	assert.Contains(t, output, "No competitor covers desk mats")
}

func TestPrintBrief_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBrief(nil)

	assert.Empty(t, buf.String())
}

func TestPrintAuditResult_WithFailures(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &types.AuditResult{
		Score:       72,
		Publishable: false,
		Findings: []types.AuditFinding{
			{Rule: "keyword_in_title", Passed: true, Severity: "critical"},
			{Rule: "faq_present", Passed: false, Severity: "warning", Message: "No FAQ section found"},
		},
	}

	p.PrintAuditResult(result)
	output := buf.String()

	assert.Contains(t, output, "AUDIT FINDINGS")
	assert.Contains(t, output, "72/100")
	assert.Contains(t, output, "faq_present")
	assert.Contains(t, output, "No FAQ section found")
	assert.NotContains(t, output, "keyword_in_title")
}

func TestPrintAuditResult_AllPassed(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &types.AuditResult{
		Score:       100,
		Publishable: true,
		Findings: []types.AuditFinding{
			{Rule: "keyword_in_title", Passed: true, Severity: "critical"},
		},
	}

	p.PrintAuditResult(result)
	output := buf.String()

	assert.Contains(t, output, "AUDIT PASSED")
	assert.Contains(t, output, "100")
}

func TestPrintFactCheck(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	check := &types.FactCheck{
		Verified:       false,
		Hallucinations: []string{"92% of users switched within a year"},
	}

	p.PrintFactCheck(check)
	output := buf.String()

	assert.Contains(t, output, "FACT CHECK")
	assert.Contains(t, output, "92% of users")
}

func TestPrintFactCheck_Verified(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFactCheck(&types.FactCheck{Verified: true})

	assert.Empty(t, buf.String())
}

func TestPrintRunMetrics(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	run := &metrics.RunMetrics{
		Status:                "completed",
		TotalExternalAPICalls: 6,
		TargetWordCount:       2000,
		ActualWordCount:       1950,
		Chunks: []metrics.ChunkMetrics{
			{ChunkName: "research", DurationMs: 12000, Status: metrics.ChunkCompleted},
			{ChunkName: "analysis", DurationMs: 8000, Status: metrics.ChunkCompleted, FromCache: true},
		},
		Performance: metrics.PerformanceSummary{
			TotalSeconds:           20.0,
			EstimatedCostFormatted: "$0.0431",
			CacheHitRatePercent:    "25.0",
		},
	}

	p.PrintRunMetrics(run)
	output := buf.String()

	assert.Contains(t, output, "RUN METRICS")
	assert.Contains(t, output, "completed")
	assert.Contains(t, output, "$0.0431")
	assert.Contains(t, output, "research")
	assert.Contains(t, output, "(cached)")
	assert.Contains(t, output, "1950 of 2000")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	brief := &types.Brief{
		Keyword: types.BriefKeyword{
			Primary: "an extremely long primary keyword phrase that should be truncated to fit the box",
		},
		WordCount: types.BriefWordCount{Target: 2000, Note: "a very long note about how the target was derived from competitors"},
	}

	p.PrintBrief(brief)
	output := buf.String()

	// Should contain box characters
	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.True(t, strings.Contains(output, "│"))
}
