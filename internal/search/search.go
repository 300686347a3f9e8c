// Package search finds competitor article URLs for a keyword via Google
// Programmable Search. Homepages, social/commerce domains, file links, and
// category/tag pages are filtered out so only real articles are offered for
// selection.
package search

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/content-engine/internal/types"
)

// Provider wraps the Custom Search service for competitor discovery.
type Provider struct {
	svc *customsearch.Service
	cx  string
}

// NewProvider creates a search provider. cx is the Programmable Search
// Engine id to query against.
func NewProvider(ctx context.Context, apiKey, cx string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("search API key is required")
	}
	if cx == "" {
		return nil, fmt.Errorf("search engine id is required")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &Provider{svc: svc, cx: cx}, nil
}

var nonArticleDomains = map[string]bool{
	"reddit.com":    true,
	"quora.com":     true,
	"youtube.com":   true,
	"twitter.com":   true,
	"x.com":         true,
	"facebook.com":  true,
	"instagram.com": true,
	"pinterest.com": true,
	"linkedin.com":  true,
	"amazon.com":    true,
	"ebay.com":      true,
}

var (
	fileExtensions   = regexp.MustCompile(`(?i)\.(pdf|doc|docx|xls|xlsx|ppt|pptx|zip)(\?|$)`)
	categoryTagPaths = regexp.MustCompile(`(?i)^/(category|tag|author)(/|$)`)
)

// isArticleURL reports whether the URL looks like an article page rather
// than a homepage, listing page, file, or social/commerce link.
func isArticleURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	domain := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if nonArticleDomains[domain] {
		return false
	}
	if fileExtensions.MatchString(raw) {
		return false
	}
	if categoryTagPaths.MatchString(u.Path) {
		return false
	}
	segments := []string{}
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return false
	}
	if len(segments) == 1 {
		switch strings.ToLower(segments[0]) {
		case "blog", "news", "articles":
			return false
		}
	}
	return len(segments) >= 2 || len(u.Path) > 10
}

// Search returns up to max filtered article results for the keyword. When
// the article filter removes everything (a social-heavy results page), the
// top unfiltered results are returned instead, marked as non-articles.
func (p *Provider) Search(ctx context.Context, keyword string, max int) ([]types.SerpResult, error) {
	if max <= 0 {
		max = 3
	}
	resp, err := p.svc.Cse.List().Context(ctx).Cx(p.cx).Q(strings.TrimSpace(keyword)).Num(10).Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var results []types.SerpResult
	for i, item := range resp.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" || !isArticleURL(link) {
			continue
		}
		results = append(results, types.SerpResult{
			URL:       link,
			Title:     item.Title,
			Position:  i + 1,
			Snippet:   item.Snippet,
			IsArticle: true,
		})
		if len(results) >= max {
			break
		}
	}

	if len(results) == 0 && len(resp.Items) > 0 {
		for i, item := range resp.Items {
			link := strings.TrimSpace(item.Link)
			if link == "" {
				continue
			}
			results = append(results, types.SerpResult{
				URL:       link,
				Title:     item.Title,
				Position:  i + 1,
				Snippet:   item.Snippet,
				IsArticle: false,
			})
			if len(results) >= max {
				break
			}
		}
	}

	log.Printf("[search] keyword=%q: %d results before filter, %d after (top %d articles)",
		keyword, len(resp.Items), len(results), max)
	return results, nil
}
