// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// PrintSerpResults outputs the ranked competitor candidates for URL selection.
func (p *Printer) PrintSerpResults(results []types.SerpResult) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d candidate sources:\n\n", len(results)))

	count := min(len(results), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := results[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", r.Position, truncate(r.Title, 48)))
		sb.WriteString(fmt.Sprintf("    %s\n", truncate(r.URL, 50)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more results", len(results)-maxItemsToShow))
	}

	p.printBox("SEARCH RESULTS", sb.String())
}

// PrintResearchSummary outputs fetch and grounding counts after research.
func (p *Printer) PrintResearchSummary(summary types.ResearchSummary, currentData types.CurrentData) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URLs selected:   %d\n", summary.URLCount))
	sb.WriteString(fmt.Sprintf("Articles fetched: %d\n", summary.ArticleCount))
	sb.WriteString(fmt.Sprintf("Grounded facts:  %d\n", summary.CurrentDataFacts))

	if len(currentData.Facts) > 0 {
		sb.WriteString("\nFacts:\n")
		count := min(len(currentData.Facts), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", truncate(currentData.Facts[i].Fact, 50)))
		}
		if len(currentData.Facts) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(currentData.Facts)-3))
		}
	}

	p.printBox("RESEARCH SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBrief outputs the content plan: keyword set, outline, and word target.
func (p *Printer) PrintBrief(brief *types.Brief) {
	if brief == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Keyword:  %s\n", brief.Keyword.Primary))
	if len(brief.Keyword.Secondary) > 0 {
		sb.WriteString(fmt.Sprintf("Secondary: %s\n", truncate(strings.Join(brief.Keyword.Secondary, ", "), 44)))
	}
	sb.WriteString(fmt.Sprintf("Target:   %d words (%s)\n", brief.WordCount.Target, truncate(brief.WordCount.Note, 30)))
	sb.WriteString("\n")

	if len(brief.Outline.Sections) > 0 {
		sb.WriteString("Outline:\n")
		for i, s := range brief.Outline.Sections {
			sb.WriteString(fmt.Sprintf("  %d. %s (%dw)\n", i+1, truncate(s.Heading, 40), s.TargetWords))
		}
		sb.WriteString("\n")
	}

	if len(brief.Gaps) > 0 {
		sb.WriteString("Competitor gaps:\n")
		count := min(len(brief.Gaps), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", truncate(brief.Gaps[i], 50)))
		}
		if len(brief.Gaps) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(brief.Gaps)-3))
		}
	}

	p.printBox("CONTENT BRIEF", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAuditResult outputs the score and any failed findings.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintAuditResult(result *types.AuditResult) {
	if result == nil {
		return
	}

	failed := make([]types.AuditFinding, 0, len(result.Findings))
	for _, f := range result.Findings {
		if !f.Passed {
			failed = append(failed, f)
		}
	}

	if len(failed) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("✅ AUDIT PASSED — score %d/100", result.Score))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score: %d/100 (publishable: %v)\n", result.Score, result.Publishable))
	sb.WriteString(fmt.Sprintf("Failed %d of %d checks:\n\n", len(failed), len(result.Findings)))

	count := min(len(failed), maxItemsToShow)
	for i := 0; i < count; i++ {
		f := failed[i]
		sb.WriteString(fmt.Sprintf("⚠ %s [%s]\n", f.Rule, f.Severity))
		sb.WriteString(fmt.Sprintf("  %s\n", truncate(f.Message, 50)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(failed) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more findings", len(failed)-maxItemsToShow))
	}

	p.printBox("AUDIT FINDINGS", sb.String())
}

// PrintFactCheck outputs hallucinations flagged by the fact cross-check.
func (p *Printer) PrintFactCheck(check *types.FactCheck) {
	if check == nil || check.Verified {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d unverified claims:\n\n", len(check.Hallucinations)))

	count := min(len(check.Hallucinations), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", truncate(check.Hallucinations[i], 52)))
	}
	if len(check.Hallucinations) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(check.Hallucinations)-maxItemsToShow))
	}

	p.printBox("FACT CHECK", sb.String())
}

// PrintRunMetrics outputs the per-chunk timing and cost digest of a run.
func (p *Printer) PrintRunMetrics(run *metrics.RunMetrics) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:   %s", run.Status))
	if run.FailedChunk != "" {
		sb.WriteString(fmt.Sprintf(" (failed at %s)", run.FailedChunk))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Duration: %.1fs\n", run.Performance.TotalSeconds))
	sb.WriteString(fmt.Sprintf("Cost:     %s\n", run.Performance.EstimatedCostFormatted))
	sb.WriteString(fmt.Sprintf("Calls:    %d external (cache hit rate %s)\n",
		run.TotalExternalAPICalls, run.Performance.CacheHitRatePercent))
	if run.ActualWordCount > 0 {
		sb.WriteString(fmt.Sprintf("Words:    %d of %d target\n", run.ActualWordCount, run.TargetWordCount))
	}
	sb.WriteString("\n")

	for _, c := range run.Chunks {
		marker := "•"
		if c.Status == metrics.ChunkFailed {
			marker = "✗"
		}
		cached := ""
		if c.FromCache {
			cached = " (cached)"
		}
		sb.WriteString(fmt.Sprintf("%s %-16s %6dms%s\n", marker, c.ChunkName, c.DurationMs, cached))
	}

	p.printBox("RUN METRICS", strings.TrimSuffix(sb.String(), "\n"))
}
