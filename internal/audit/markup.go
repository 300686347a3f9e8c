package audit

import (
	"time"

	"github.com/jonathan/content-engine/internal/types"
)

// DefaultSiteURL anchors breadcrumb items when no site URL is configured.
const DefaultSiteURL = "https://example.com"

// BuildSchemaMarkup generates JSON-LD blocks from the final article: an
// Article block, a FAQPage block when an FAQ section exists, and a
// breadcrumb trail. Author, publisher, and image fields are added by the
// CMS at publish time.
func BuildSchemaMarkup(articleHTML, title, metaDescription, slug, keyword, siteURL string) types.SchemaMarkup {
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	if title == "" {
		title = "Article"
	}
	now := time.Now().UTC().Format("2006-01-02")

	markup := types.SchemaMarkup{
		Article: map[string]any{
			"@context":      "https://schema.org",
			"@type":         "Article",
			"headline":      title,
			"description":   metaDescription,
			"keywords":      keyword,
			"datePublished": now,
			"dateModified":  now,
		},
		Breadcrumb: map[string]any{
			"@context": "https://schema.org",
			"@type":    "BreadcrumbList",
			"itemListElement": []map[string]any{
				{"@type": "ListItem", "position": 1, "name": "Home", "item": siteURL + "/"},
				{"@type": "ListItem", "position": 2, "name": "Blog", "item": siteURL + "/blog"},
				{"@type": "ListItem", "position": 3, "name": title, "item": siteURL + "/blog/" + slug},
			},
		},
		FAQSchemaNote: "No FAQ section detected.",
	}

	doc, err := parseFragment(articleHTML)
	if err != nil {
		return markup
	}
	var mainEntity []map[string]any
	for _, e := range extractFAQ(doc) {
		answer := e.Answer
		if len(answer) > FAQAnswerMaxChars {
			answer = answer[:FAQAnswerMaxChars]
		}
		if e.Question == "" || answer == "" {
			continue
		}
		mainEntity = append(mainEntity, map[string]any{
			"@type": "Question",
			"name":  e.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  answer,
			},
		})
	}
	if len(mainEntity) > 0 {
		markup.FAQ = map[string]any{
			"@context":   "https://schema.org",
			"@type":      "FAQPage",
			"mainEntity": mainEntity,
		}
		markup.FAQSchemaNote = "FAQPage schema generated for AI engine extraction. FAQ rich results only display for well-known authoritative domains, so expect no rich snippet on most blogs."
	}
	return markup
}
