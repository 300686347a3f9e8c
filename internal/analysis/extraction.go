// Package analysis turns fetched research into a content plan: first a
// topic/style extraction over competitor articles, then a strategic brief
// that the drafting stage consumes as its only input.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/prompts"
	"github.com/jonathan/content-engine/internal/repair"
	"github.com/jonathan/content-engine/internal/schemas"
	"github.com/jonathan/content-engine/internal/types"
)

// MaxArticleChars caps how much of each competitor article goes into the
// extraction prompt. Long tails add tokens without adding topics.
const MaxArticleChars = 12000

// ExtractionError wraps failures from the topic extraction call.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Extractor runs topic and editorial style extraction over competitor
// articles.
type Extractor struct {
	client llm.Client
}

// NewExtractor returns an extractor backed by the given model client.
func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{client: client}
}

// HashSourceURLs returns a stable digest of the article URL set, independent
// of order. Extraction results are cached under this key so rebuilding the
// brief after an outline edit does not redo extraction.
func HashSourceURLs(articles []types.SourceArticle) string {
	urls := make([]string, 0, len(articles))
	for _, a := range articles {
		urls = append(urls, a.URL)
	}
	sort.Strings(urls)
	sum := sha256.Sum256([]byte(strings.Join(urls, "|")))
	return hex.EncodeToString(sum[:])
}

// buildExtractionPayload concatenates successful article fetches into the
// analysis corpus. When nothing was fetched the extraction still runs, over
// a placeholder instruction, so the pipeline degrades instead of failing.
func buildExtractionPayload(articles []types.SourceArticle) string {
	var parts []string
	for _, a := range articles {
		if !a.FetchSuccess || a.Content == "" {
			continue
		}
		content := a.Content
		if len(content) > MaxArticleChars {
			content = content[:MaxArticleChars]
		}
		parts = append(parts, fmt.Sprintf("--- URL: %s\nTitle: %s\nWord count: %d\n\n%s", a.URL, a.Title, a.WordCount, content))
	}
	if len(parts) == 0 {
		return "No competitor content provided. Generate expected topics and a default editorial style for a generic blog article."
	}
	return strings.Join(parts, "\n\n---\n\n")
}

var extractionSystemRules = prompts.MustGet("analysis.json", "extraction_system")

func buildExtractionPrompt(articles []types.SourceArticle) string {
	return extractionSystemRules + "\n" + buildExtractionPayload(articles)
}

// ExtractTopics analyzes the competitor set and returns the structured
// extraction. Unlike grounding, malformed responses are errors here: the
// brief cannot be built without an extraction, and the caller's retry policy
// decides whether to try again.
func (e *Extractor) ExtractTopics(ctx context.Context, articles []types.SourceArticle) (types.TopicExtraction, llm.Usage, error) {
	var out types.TopicExtraction

	text, usage, err := e.client.GenerateJSON(ctx, buildExtractionPrompt(articles), llm.TierStandard)
	if err != nil {
		return out, usage, &ExtractionError{Message: "topic extraction call failed", Cause: err}
	}

	cleaned, strategiesApplied, err := repair.Sanitize(text)
	if err != nil {
		return out, usage, &ExtractionError{Message: "topic extraction returned unparseable JSON", Cause: err}
	}
	if len(strategiesApplied) > 0 {
		log.Printf("[analysis] extraction response repaired via %s", strings.Join(strategiesApplied, ", "))
	}

	if err := schemas.Validate([]byte(cleaned), schemas.TopicExtraction); err != nil {
		return out, usage, &ExtractionError{Message: "topic extraction response failed validation", Cause: err}
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, usage, &ExtractionError{Message: "topic extraction response did not decode", Cause: err}
	}
	return out, usage, nil
}
