// Package audit runs rule-based post-generation checks on draft HTML:
// an SEO/editorial score, FAQ answer length enforcement, a fact check
// against grounded research data, and JSON-LD markup generation.
package audit

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// stripHTML flattens an HTML fragment to normalized plain text.
func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(whitespaceRe.ReplaceAllString(html, " "))
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Text(), " "))
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

// Heading is one H2-H6 heading in document order.
type Heading struct {
	Level int
	Text  string
}

func parseFragment(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// ExtractHeadings returns all H2-H6 headings in document order.
func ExtractHeadings(html string) []Heading {
	doc, err := parseFragment(html)
	if err != nil {
		return nil
	}
	var out []Heading
	doc.Find("h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level := int(goquery.NodeName(s)[1] - '0')
		out = append(out, Heading{Level: level, Text: strings.TrimSpace(whitespaceRe.ReplaceAllString(s.Text(), " "))})
	})
	return out
}

// ExtractH2s returns the trimmed text of top-level section headings, used
// for outline drift comparison against the brief.
func ExtractH2s(html string) []string {
	var out []string
	for _, h := range ExtractHeadings(html) {
		if h.Level == 2 {
			out = append(out, h.Text)
		}
	}
	return out
}

func extractParagraphs(html string) []string {
	doc, err := parseFragment(html)
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(whitespaceRe.ReplaceAllString(s.Text(), " ")); text != "" {
			out = append(out, text)
		}
	})
	return out
}

var faqHeadingRe = regexp.MustCompile(`(?i)FAQ|Frequently Asked`)

// faqEntry is one question/answer pair in the FAQ section, holding the
// answer's <p> selection so enforcement can rewrite it in place.
type faqEntry struct {
	Question string
	Answer   string
	answerP  *goquery.Selection
}

// extractFAQ parses the FAQ section: an H2 containing "FAQ" or "Frequently
// Asked", followed by sibling H3 questions each answered by the next <p>.
// Returns nil when the document has no FAQ section.
func extractFAQ(doc *goquery.Document) []faqEntry {
	var faqH2 *goquery.Selection
	doc.Find("h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if faqHeadingRe.MatchString(s.Text()) {
			faqH2 = s
			return false
		}
		return true
	})
	if faqH2 == nil {
		return nil
	}

	var entries []faqEntry
	cur := -1
	faqH2.NextAll().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		switch goquery.NodeName(s) {
		case "h2":
			return false
		case "h3":
			entries = append(entries, faqEntry{
				Question: strings.TrimSpace(whitespaceRe.ReplaceAllString(s.Text(), " ")),
			})
			cur = len(entries) - 1
		case "p":
			if cur >= 0 && entries[cur].answerP == nil {
				entries[cur].answerP = s
				entries[cur].Answer = strings.TrimSpace(whitespaceRe.ReplaceAllString(s.Text(), " "))
			}
		}
		return true
	})
	return entries
}
