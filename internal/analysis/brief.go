package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/prompts"
	"github.com/jonathan/content-engine/internal/repair"
	"github.com/jonathan/content-engine/internal/schemas"
	"github.com/jonathan/content-engine/internal/types"
)

// Payload caps keep the brief prompt compact enough to stay inside model
// context and call timeouts.
const (
	maxPromptTopics       = 14
	maxHeadingSources     = 5
	maxHeadingsPerSource  = 10
	maxPromptFacts        = 10
	maxPromptDevelopments = 5
	maxHeadingURLChars    = 80
)

// BriefError wraps failures from brief construction.
type BriefError struct {
	Message string
	Cause   error
}

func (e *BriefError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BriefError) Unwrap() error {
	return e.Cause
}

// BriefBuilder turns an extraction plus grounded facts into the strategic
// brief the drafting stage consumes.
type BriefBuilder struct {
	client llm.Client
}

// NewBriefBuilder returns a builder backed by the given model client.
func NewBriefBuilder(client llm.Client) *BriefBuilder {
	return &BriefBuilder{client: client}
}

var (
	briefSystemRules = prompts.MustGet("analysis.json", "brief_system")
	bestVersionHint  = prompts.MustGet("analysis.json", "brief_best_version_hint")
)

// briefPayload is the trimmed prompt input serialized for the model.
type briefPayload struct {
	Extraction struct {
		Topics             []types.Topic              `json:"topics"`
		CompetitorHeadings []types.CompetitorHeadings `json:"competitor_headings"`
		Gaps               []types.Gap                `json:"gaps"`
		EditorialStyle     types.EditorialStyle       `json:"editorial_style"`
		WordCount          types.WordCountNote        `json:"word_count"`
	} `json:"extraction"`
	CurrentData struct {
		Facts              []types.CurrentFact `json:"facts"`
		RecentDevelopments []string            `json:"recent_developments"`
		LastUpdated        string              `json:"last_updated"`
	} `json:"current_data"`
	Input struct {
		PrimaryKeyword      string   `json:"primary_keyword"`
		SecondaryKeywords   []string `json:"secondary_keywords"`
		PeopleAlsoSearchFor []string `json:"people_also_search_for"`
		Intent              string   `json:"intent"`
	} `json:"input"`
	WordCountOverride *types.WordCountOverride `json:"word_count_override,omitempty"`
}

func buildBriefPrompt(extraction types.TopicExtraction, currentData types.CurrentData, input types.PipelineInput, override *types.WordCountOverride) string {
	var p briefPayload
	p.Extraction.Topics = capSlice(extraction.Topics, maxPromptTopics)
	p.Extraction.CompetitorHeadings = trimHeadings(extraction.CompetitorHeadings)
	p.Extraction.Gaps = extraction.Gaps
	p.Extraction.EditorialStyle = extraction.EditorialStyle
	p.Extraction.WordCount = extraction.WordCount
	p.CurrentData.Facts = capSlice(currentData.Facts, maxPromptFacts)
	p.CurrentData.RecentDevelopments = capSlice(currentData.RecentDevelopments, maxPromptDevelopments)
	p.CurrentData.LastUpdated = currentData.LastUpdated
	p.Input.PrimaryKeyword = input.PrimaryKeyword
	p.Input.SecondaryKeywords = input.SecondaryKeywords
	p.Input.PeopleAlsoSearchFor = input.PeopleAlsoSearchFor
	p.Input.Intent = primaryIntent(input)
	p.WordCountOverride = override

	payload, _ := json.Marshal(p)
	return briefSystemRules + "\n\nProduce the research brief JSON for this extraction and input:\n\n" + string(payload)
}

func primaryIntent(input types.PipelineInput) string {
	if len(input.Intent) > 0 {
		return string(input.Intent[0])
	}
	return string(types.IntentInformational)
}

func capSlice[T any](s []T, max int) []T {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func trimHeadings(headings []types.CompetitorHeadings) []types.CompetitorHeadings {
	headings = capSlice(headings, maxHeadingSources)
	out := make([]types.CompetitorHeadings, len(headings))
	for i, h := range headings {
		url := h.URL
		if len(url) > maxHeadingURLChars {
			url = url[:maxHeadingURLChars]
		}
		out[i] = types.CompetitorHeadings{
			URL: url,
			H2s: capSlice(h.H2s, maxHeadingsPerSource),
			H3s: capSlice(h.H3s, maxHeadingsPerSource),
		}
	}
	return out
}

// BuildBrief constructs the brief. A response missing the best-version
// fields or failing schema validation is retried once with a corrective
// hint before giving up.
func (b *BriefBuilder) BuildBrief(ctx context.Context, extraction types.TopicExtraction, currentData types.CurrentData, input types.PipelineInput, override *types.WordCountOverride) (types.Brief, llm.Usage, error) {
	base := buildBriefPrompt(extraction, currentData, input, override)

	var total llm.Usage
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		prompt := base
		if attempt == 2 {
			prompt += bestVersionHint
		}

		text, usage, err := b.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
		total.Model = usage.Model
		total.InputTokens += usage.InputTokens
		total.OutputTokens += usage.OutputTokens
		if err != nil {
			return types.Brief{}, total, &BriefError{Message: "brief call failed", Cause: err}
		}

		brief, err := decodeBrief(text)
		if err != nil {
			lastErr = err
			if attempt == 1 {
				log.Printf("[analysis] brief attempt 1 rejected, retrying with hint: %v", err)
				continue
			}
			return types.Brief{}, total, &BriefError{Message: "brief response invalid after retry", Cause: err}
		}

		if attempt == 1 && !hasBestVersionFields(brief) {
			lastErr = fmt.Errorf("best-version fields missing")
			log.Printf("[analysis] brief missing best-version fields, retrying with hint")
			continue
		}

		return normalizeBrief(brief, currentData, input, override), total, nil
	}
	return types.Brief{}, total, &BriefError{Message: "brief construction failed", Cause: lastErr}
}

func decodeBrief(text string) (types.Brief, error) {
	var brief types.Brief

	cleaned, strategiesApplied, err := repair.Sanitize(text)
	if err != nil {
		return brief, fmt.Errorf("unparseable JSON: %w", err)
	}
	if len(strategiesApplied) > 0 {
		log.Printf("[analysis] brief response repaired via %s", strings.Join(strategiesApplied, ", "))
	}

	if err := schemas.Validate([]byte(cleaned), schemas.Brief); err != nil {
		return brief, err
	}
	if err := json.Unmarshal([]byte(cleaned), &brief); err != nil {
		return brief, fmt.Errorf("brief did not decode: %w", err)
	}
	return brief, nil
}

func hasBestVersionFields(brief types.Brief) bool {
	hasThemes := len(brief.ExtraValueThemes) >= 2
	hasSummary := strings.TrimSpace(brief.SimilaritySummary) != ""
	hasFreshness := strings.TrimSpace(brief.FreshnessNote) != ""
	return hasThemes && (hasSummary || hasFreshness)
}

// normalizeBrief fills server-side fields the model does not control: the
// keyword set from the original input, the grounded current data, derived
// outline totals, and the word count override when one was requested.
func normalizeBrief(brief types.Brief, currentData types.CurrentData, input types.PipelineInput, override *types.WordCountOverride) types.Brief {
	brief.Keyword = types.BriefKeyword{
		Primary:   input.PrimaryKeyword,
		Secondary: input.SecondaryKeywords,
		PASF:      input.PeopleAlsoSearchFor,
	}
	brief.CurrentData = currentData

	brief.Outline.TotalSections = len(brief.Outline.Sections)
	if sum := sumTargetWords(brief.Outline.Sections); sum > 0 {
		brief.Outline.EstimatedWordCount = sum
	}

	if override != nil {
		brief.WordCount = types.BriefWordCount{Target: override.Target, Note: override.Note}
	}
	if brief.WordCount.Target <= 0 {
		brief.WordCount.Target = brief.Outline.EstimatedWordCount
	}
	return brief
}

func sumTargetWords(sections []types.OutlineSection) int {
	sum := 0
	for _, s := range sections {
		sum += s.TargetWords
	}
	return sum
}
