// Package grounding gathers current, attributed facts for a keyword using a
// search-grounded model call. Grounding failures degrade to an empty fact set
// rather than failing the research stage; downstream prompts treat missing
// facts as "no external data".
package grounding

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/content-engine/internal/fetch"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/prompts"
	"github.com/jonathan/content-engine/internal/repair"
	"github.com/jonathan/content-engine/internal/schemas"
	"github.com/jonathan/content-engine/internal/types"
)

// URLChecker validates reachability of fact source URLs. Injected so tests
// run without network access.
type URLChecker func(ctx context.Context, urls []string) []types.ValidatedSourceURL

// Provider fetches grounded current data.
type Provider struct {
	client   llm.Client
	checkURL URLChecker
}

// NewProvider returns a grounding provider. A nil checker uses HEAD requests.
func NewProvider(client llm.Client, checker URLChecker) *Provider {
	if checker == nil {
		checker = func(ctx context.Context, urls []string) []types.ValidatedSourceURL {
			opts := fetch.DefaultOptions()
			opts.Timeout = 3 * time.Second
			return fetch.ValidateURLs(ctx, urls, opts)
		}
	}
	return &Provider{client: client, checkURL: checker}
}

// promptTemplate carries %q (primary keyword) and %s (secondary keyword
// context) verbs.
var promptTemplate = prompts.MustGet("grounding.json", "current_data_template")

func buildPrompt(primaryKeyword string, secondaryKeywords []string) string {
	keywordContext := ""
	if len(secondaryKeywords) > 0 {
		n := len(secondaryKeywords)
		if n > 3 {
			n = 3
		}
		keywordContext = fmt.Sprintf(" and related terms: %s", strings.Join(secondaryKeywords[:n], ", "))
	}
	return fmt.Sprintf(promptTemplate, primaryKeyword, keywordContext)
}

// FetchCurrentData runs the grounded search call and returns validated,
// source-checked facts. It only errors on transport failures; unusable
// responses degrade to the empty payload with GroundingVerified false.
func (p *Provider) FetchCurrentData(ctx context.Context, primaryKeyword string, secondaryKeywords []string) (types.CurrentData, llm.Usage, error) {
	text, usage, err := p.client.GenerateGrounded(ctx, buildPrompt(primaryKeyword, secondaryKeywords), llm.TierStandard)
	if err != nil {
		return types.EmptyCurrentData(), usage, err
	}

	cleaned, strategiesApplied, err := repair.Sanitize(text)
	if err != nil {
		log.Printf("[grounding] unparseable response, returning empty current data: %v", err)
		return types.EmptyCurrentData(), usage, nil
	}
	if len(strategiesApplied) > 0 {
		log.Printf("[grounding] response repaired via %s", strings.Join(strategiesApplied, ", "))
	}

	if err := schemas.Validate([]byte(cleaned), schemas.CurrentData); err != nil {
		log.Printf("[grounding] response failed validation, returning empty current data: %v", err)
		return types.EmptyCurrentData(), usage, nil
	}

	var data types.CurrentData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return types.EmptyCurrentData(), usage, nil
	}
	if data.Facts == nil {
		data.Facts = []types.CurrentFact{}
	}
	if data.RecentDevelopments == nil {
		data.RecentDevelopments = []string{}
	}

	data.GroundingVerified = hasURLSources(data.Facts)
	if !data.GroundingVerified {
		log.Printf("[grounding] no source URLs in response; data may not come from live search")
	}

	data = p.validateSources(ctx, data)
	return data, usage, nil
}

func hasURLSources(facts []types.CurrentFact) bool {
	for _, f := range facts {
		if strings.HasPrefix(f.Source, "http") {
			return true
		}
	}
	return false
}

// validateSources HEAD-checks URL-sourced facts and keeps only those with
// reachable sources. Non-URL attributions ("Company 10-K filing") are
// legitimate and preserved as-is.
func (p *Provider) validateSources(ctx context.Context, data types.CurrentData) types.CurrentData {
	urls := uniqueURLSources(data.Facts)
	if len(urls) == 0 {
		return data
	}

	accessible := map[string]bool{}
	var inaccessible []string
	for _, v := range p.checkURL(ctx, urls) {
		if v.Accessible {
			accessible[v.URL] = true
		} else {
			inaccessible = append(inaccessible, v.URL)
		}
	}

	data.Facts = filterFacts(data.Facts, accessible)
	data.SourceURLValidation = types.SourceURLValidation{
		Total:        len(urls),
		Accessible:   len(accessible),
		Inaccessible: inaccessible,
	}
	if len(accessible) == 0 {
		data.GroundingVerified = false
	}
	log.Printf("[grounding] source URL validation: %d/%d accessible", len(accessible), len(urls))
	return data
}

func uniqueURLSources(facts []types.CurrentFact) []string {
	seen := map[string]bool{}
	var urls []string
	for _, f := range facts {
		if strings.HasPrefix(f.Source, "http") && !seen[f.Source] {
			seen[f.Source] = true
			urls = append(urls, f.Source)
		}
	}
	return urls
}

// filterFacts keeps URL-sourced facts whose source is accessible plus all
// non-URL-sourced facts.
func filterFacts(facts []types.CurrentFact, accessible map[string]bool) []types.CurrentFact {
	out := make([]types.CurrentFact, 0, len(facts))
	for _, f := range facts {
		if !strings.HasPrefix(f.Source, "http") || accessible[f.Source] {
			out = append(out, f)
		}
	}
	return out
}
