// Package drafting writes the article body from a brief. The brief is the
// writer's only input; it never sees raw competitor content.
package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/prompts"
	"github.com/jonathan/content-engine/internal/repair"
	"github.com/jonathan/content-engine/internal/schemas"
	"github.com/jonathan/content-engine/internal/types"
)

// MaxSlugChars bounds the URL slug derived from the primary keyword.
const MaxSlugChars = 75

// DraftError wraps failures from the draft call.
type DraftError struct {
	Message string
	Cause   error
}

func (e *DraftError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DraftError) Unwrap() error {
	return e.Cause
}

// Writer produces article drafts.
type Writer struct {
	client llm.Client
}

// NewWriter returns a draft writer backed by the given model client.
func NewWriter(client llm.Client) *Writer {
	return &Writer{client: client}
}

var intentGuides = map[types.SearchIntent]string{
	types.IntentInformational: "How-to, guides, educational. No hard sell. Teach and answer questions with clear H2/H3 structure. Include an FAQ section (3-5 Q&As) for rich snippets.",
	types.IntentNavigational:  "Direct readers to a specific resource. Clear signposts.",
	types.IntentCommercial:    "Compare options, soft sell, reviews. Include best-of lists, comparisons, pros and cons.",
	types.IntentTransactional: "Strong CTA. Focus on pricing, signup, or conversion. Clear next steps.",
}

var writerRules = prompts.MustGet("drafting.json", "writer_system")

func buildDraftPrompt(brief types.Brief, intents []types.SearchIntent) string {
	if len(intents) == 0 {
		intents = []types.SearchIntent{types.IntentInformational}
	}
	var guides []string
	for _, in := range intents {
		if g, ok := intentGuides[in]; ok {
			guides = append(guides, fmt.Sprintf("- %s: %s", in, g))
		}
	}
	if len(guides) == 0 {
		guides = append(guides, "- informational: "+intentGuides[types.IntentInformational])
	}

	payload, _ := json.Marshal(brief)
	var b strings.Builder
	b.WriteString(writerRules)
	b.WriteString("\n\nINTENT GUIDANCE (lead with the first when several apply):\n")
	b.WriteString(strings.Join(guides, "\n"))
	b.WriteString("\n\nWrite the article for this brief. The brief's current_data.facts are the ONLY permitted sources for specific numbers; cite qualitatively where no fact covers a section.\n\n")
	b.Write(payload)
	b.WriteString("\n\nGenerate the JSON now. Write like a practitioner, not a textbook.")
	return b.String()
}

// WriteDraft generates the article body for a brief.
func (w *Writer) WriteDraft(ctx context.Context, brief types.Brief, intents []types.SearchIntent) (types.DraftProviderOutput, llm.Usage, error) {
	var out types.DraftProviderOutput

	text, usage, err := w.client.GenerateJSON(ctx, buildDraftPrompt(brief, intents), llm.TierAdvanced)
	if err != nil {
		return out, usage, &DraftError{Message: "draft call failed", Cause: err}
	}

	cleaned, strategiesApplied, err := repair.Sanitize(text)
	if err != nil {
		return out, usage, &DraftError{Message: "draft returned unparseable JSON", Cause: err}
	}
	if len(strategiesApplied) > 0 {
		log.Printf("[drafting] response repaired via %s", strings.Join(strategiesApplied, ", "))
	}

	if err := schemas.Validate([]byte(cleaned), schemas.Draft); err != nil {
		return out, usage, &DraftError{Message: "draft response failed validation", Cause: err}
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, usage, &DraftError{Message: "draft response did not decode", Cause: err}
	}
	return out, usage, nil
}

var (
	slugSpaces    = regexp.MustCompile(`\s+`)
	slugDisallow  = regexp.MustCompile(`[^a-z0-9-]`)
	slugRepeats   = regexp.MustCompile(`-+`)
	slugEdgeDash  = regexp.MustCompile(`^-+|-+$`)
	slugTrailDash = regexp.MustCompile(`-+$`)
)

// SlugFromKeyword derives a lowercase hyphenated URL slug from the primary
// keyword, capped at MaxSlugChars without leaving a dangling hyphen.
func SlugFromKeyword(keyword string) string {
	s := strings.ToLower(strings.TrimSpace(keyword))
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDisallow.ReplaceAllString(s, "")
	s = slugRepeats.ReplaceAllString(s, "-")
	s = slugEdgeDash.ReplaceAllString(s, "")
	if s == "" {
		return "draft"
	}
	if len(s) > MaxSlugChars {
		s = slugTrailDash.ReplaceAllString(s[:MaxSlugChars], "")
	}
	return s
}
