// Package fetch - article.go fetches competitor articles, falling back to a
// headless browser when plain HTTP yields too little text.
package fetch

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/content-engine/internal/types"
)

// MaxArticleWords caps how much of a competitor article is kept. Extraction
// prompts only need the head of very long pieces.
const MaxArticleWords = 5000

// ArticleFetcher retrieves competitor article content.
type ArticleFetcher struct {
	options    *Options
	useBrowser bool
	verbose    bool
}

// NewArticleFetcher returns a fetcher. useBrowser enables the headless
// fallback for JavaScript-rendered pages; it requires Chrome on the host.
func NewArticleFetcher(opts *Options, useBrowser bool, verbose bool) *ArticleFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &ArticleFetcher{options: opts, useBrowser: useBrowser, verbose: verbose}
}

// FetchArticle retrieves one article. It never returns an error: a failed
// fetch produces a SourceArticle with FetchSuccess false so the research
// stage can proceed with whatever sources it got.
func (f *ArticleFetcher) FetchArticle(ctx context.Context, urlStr string) types.SourceArticle {
	article := types.SourceArticle{URL: urlStr}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		log.Printf("[fetch] %s: %v", urlStr, err)
		return article
	}

	platform := DetectPlatform(urlStr)
	if platform == PlatformUnknown {
		platform = DetectPlatformFromHTML(result.HTML)
	}

	text, err := ExtractMainText(result.HTML, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...)
	if err != nil {
		log.Printf("[fetch] %s: extract failed: %v", urlStr, err)
		return article
	}

	if ShouldUseBrowser(text) && f.useBrowser {
		html, berr := RenderPage(ctx, urlStr, f.options.Timeout, f.verbose)
		if berr != nil {
			log.Printf("[fetch] %s: browser fallback failed: %v", urlStr, berr)
		} else if rendered, rerr := ExtractMainText(html, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...); rerr == nil && len(rendered) > len(text) {
			result.HTML = html
			text = rendered
		}
	}

	if strings.TrimSpace(text) == "" {
		return article
	}

	article.Title = extractTitle(result.HTML)
	article.Content = truncateWords(text, MaxArticleWords)
	article.WordCount = countWords(article.Content)
	article.FetchSuccess = true
	return article
}

// ValidateURLs checks reachability of fact source URLs with HEAD requests,
// falling back to GET for servers that reject HEAD.
func ValidateURLs(ctx context.Context, urls []string, opts *Options) []types.ValidatedSourceURL {
	if opts == nil {
		opts = DefaultOptions()
	}
	client := &http.Client{Timeout: opts.Timeout}
	out := make([]types.ValidatedSourceURL, 0, len(urls))
	for _, u := range urls {
		checked := types.ValidatedSourceURL{
			URL:       u,
			CheckedAt: time.Now().UTC().Format(time.RFC3339),
		}
		status, ok := headCheck(ctx, client, opts.UserAgent, u)
		checked.StatusCode = status
		checked.Accessible = ok
		out = append(out, checked)
	}
	return out
}

func headCheck(ctx context.Context, client *http.Client, userAgent, urlStr string) (int, bool) {
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
		if err != nil {
			return 0, false
		}
		req.Header.Set("User-Agent", userAgent)
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusMethodNotAllowed && method == http.MethodHead {
			continue
		}
		return resp.StatusCode, resp.StatusCode >= 200 && resp.StatusCode < 400
	}
	return 0, false
}

// extractTitle prefers the og:title meta, then <title>, then the first h1.
func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func truncateWords(text string, max int) string {
	fields := strings.Fields(text)
	if len(fields) <= max {
		return strings.TrimSpace(text)
	}
	return strings.Join(fields[:max], " ")
}
