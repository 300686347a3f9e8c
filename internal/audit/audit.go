package audit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/content-engine/internal/types"
)

const (
	// TitleMaxChars and MetaMaxChars are search snippet truncation limits.
	TitleMaxChars = 60
	MetaMaxChars  = 160
	// ParagraphMaxWords caps paragraph length for readability.
	ParagraphMaxWords = 120
	// MinPublishScore is the floor below which content should not ship.
	MinPublishScore = 75
	// minContentWords is the thin-content threshold.
	minContentWords = 300
	// stuffingRatio is the exact-phrase density above which keyword use
	// reads as unnatural. Double it and the check fails outright.
	stuffingRatio = 0.025
)

// Input carries everything the audit checks.
type Input struct {
	Title            string
	MetaDescription  string
	Content          string
	Slug             string
	FocusKeyword     string
	ExtraValueThemes []string
}

// item is an internal check result; level and scored control how it folds
// into the final score.
type item struct {
	rule     string
	severity string
	level    int
	scored   bool
	message  string
}

const (
	sevPass = "pass"
	sevWarn = "warn"
	sevFail = "fail"
)

// Article scores the draft against publication blockers (level 1), ranking
// factors (level 2), and competitive checks (level 3). Editorial phrase
// checks are reported but excluded from the score; typography is not.
func Article(input Input) types.AuditResult {
	plain := stripHTML(input.Content)

	var items []item
	items = append(items, checkTitle(input)...)
	items = append(items, checkMeta(input.MetaDescription)...)
	items = append(items, checkThinness(plain)...)
	items = append(items, checkStuffing(plain, input.FocusKeyword)...)
	items = append(items, checkHeadings(input.Content)...)
	items = append(items, checkParagraphs(input.Content)...)
	items = append(items, checkSlug(input.Slug)...)
	items = append(items, checkTypography(plain)...)
	items = append(items, checkPhrases(plain)...)
	items = append(items, checkMetaKeyword(input.MetaDescription, input.FocusKeyword)...)
	items = append(items, checkFirst10Percent(plain, input.FocusKeyword)...)
	items = append(items, checkSlugKeyword(input.Slug, input.FocusKeyword)...)
	items = append(items, checkSubheadingKeyword(input.Content, input.FocusKeyword)...)
	items = append(items, checkTitleKeywordPosition(input.Title, input.FocusKeyword)...)
	items = append(items, checkNumberInTitle(input.Title)...)
	if len(input.ExtraValueThemes) > 0 {
		items = append(items, checkExtraValueCoverage(plain, input.ExtraValueThemes)...)
	}

	var pass, total, level1Fails int
	for _, it := range items {
		if !it.scored {
			continue
		}
		total++
		if it.severity == sevPass {
			pass++
		}
		if it.severity == sevFail && it.level == 1 {
			level1Fails++
		}
	}
	score := 0
	if total > 0 {
		score = int(float64(pass)/float64(total)*100 + 0.5)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].level != items[j].level {
			return items[i].level < items[j].level
		}
		return severityRank(items[i].severity) < severityRank(items[j].severity)
	})

	findings := make([]types.AuditFinding, len(items))
	for i, it := range items {
		findings[i] = types.AuditFinding{
			Rule:     it.rule,
			Passed:   it.severity == sevPass,
			Severity: it.severity,
			Message:  it.message,
		}
	}

	return types.AuditResult{
		Score:       score,
		Findings:    findings,
		Publishable: score >= MinPublishScore && level1Fails == 0,
	}
}

func severityRank(s string) int {
	switch s {
	case sevFail:
		return 0
	case sevWarn:
		return 1
	default:
		return 2
	}
}

func checkTitle(input Input) []item {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return []item{{rule: "title-required", severity: sevFail, level: 1, scored: true, message: "Title is empty."}}
	}
	var items []item
	switch n := len(title); {
	case n > TitleMaxChars:
		items = append(items, item{rule: "title-length", severity: sevFail, level: 1, scored: true,
			message: fmt.Sprintf("Title may truncate in search results (%d chars).", n)})
	case n > 55:
		items = append(items, item{rule: "title-length", severity: sevWarn, level: 2, scored: true,
			message: fmt.Sprintf("Title is %d chars; may truncate on some devices.", n)})
	default:
		items = append(items, item{rule: "title-length", severity: sevPass, level: 2, scored: true,
			message: fmt.Sprintf("Title is %d chars.", n)})
	}
	if kw := strings.TrimSpace(input.FocusKeyword); kw != "" {
		if !strings.Contains(strings.ToLower(title), strings.ToLower(kw)) {
			items = append(items, item{rule: "title-keyword", severity: sevWarn, level: 2, scored: true,
				message: fmt.Sprintf("Target keyword %q not in title.", kw)})
		} else {
			items = append(items, item{rule: "title-keyword", severity: sevPass, level: 2, scored: true,
				message: "Title contains target keyword."})
		}
	}
	return items
}

func checkMeta(meta string) []item {
	if strings.TrimSpace(meta) == "" {
		return []item{{rule: "meta-description", severity: sevFail, level: 1, scored: true, message: "Meta description is missing."}}
	}
	switch n := len(meta); {
	case n > MetaMaxChars:
		return []item{{rule: "meta-description", severity: sevFail, level: 1, scored: true,
			message: fmt.Sprintf("Meta description may truncate (%d chars).", n)}}
	case n < 70:
		return []item{{rule: "meta-description", severity: sevWarn, level: 2, scored: true,
			message: fmt.Sprintf("Meta description is short (%d chars).", n)}}
	default:
		return []item{{rule: "meta-description", severity: sevPass, level: 2, scored: true,
			message: fmt.Sprintf("Meta description is %d chars.", n)}}
	}
}

func checkThinness(plain string) []item {
	wc := countWords(plain)
	if wc < minContentWords {
		return []item{{rule: "content-thin", severity: sevFail, level: 1, scored: true,
			message: fmt.Sprintf("Content is very short (%d words). Thin content hurts site-wide rankings.", wc)}}
	}
	return []item{{rule: "content-thin", severity: sevPass, level: 1, scored: true,
		message: fmt.Sprintf("Content is %d words.", wc)}}
}

func checkStuffing(plain, focusKeyword string) []item {
	kw := strings.ToLower(strings.TrimSpace(focusKeyword))
	if kw == "" {
		return nil
	}
	total := countWords(plain)
	if total < 100 {
		return nil
	}
	phraseCount := strings.Count(strings.ToLower(plain), kw)
	kwWords := len(strings.Fields(kw))
	ratio := float64(phraseCount*kwWords) / float64(total)
	switch {
	case ratio > stuffingRatio*2:
		return []item{{rule: "keyword-stuffing", severity: sevFail, level: 1, scored: true,
			message: fmt.Sprintf("%q repeated %d times (unnatural).", focusKeyword, phraseCount)}}
	case ratio > stuffingRatio:
		return []item{{rule: "keyword-stuffing", severity: sevWarn, level: 2, scored: true,
			message: fmt.Sprintf("%q appears %d times. Ensure natural use.", focusKeyword, phraseCount)}}
	default:
		return []item{{rule: "keyword-stuffing", severity: sevPass, level: 2, scored: true,
			message: fmt.Sprintf("Focus keyword used naturally (%d times).", phraseCount)}}
	}
}

func checkHeadings(html string) []item {
	headings := ExtractHeadings(html)
	if len(headings) == 0 {
		return []item{{rule: "headings", severity: sevWarn, level: 1, scored: true,
			message: "No H2-H6 headings. Structure helps users and search engines."}}
	}
	var items []item
	prev := 1
	skip := false
	for _, h := range headings {
		if h.Level > prev+1 {
			skip = true
			break
		}
		prev = h.Level
	}
	if skip {
		items = append(items, item{rule: "headings-hierarchy", severity: sevWarn, level: 2, scored: true,
			message: "Headings skip levels. Use sequential H2, H3, H4."})
	} else {
		items = append(items, item{rule: "headings-hierarchy", severity: sevPass, level: 2, scored: true,
			message: fmt.Sprintf("Found %d heading(s) with valid structure.", len(headings))})
	}
	if regexp.MustCompile(`(?i)<h1[\s>]`).MatchString(html) {
		items = append(items, item{rule: "h1-in-body", severity: sevWarn, level: 2, scored: true,
			message: "Remove H1 from body; the page title is the H1."})
	}
	return items
}

func checkParagraphs(html string) []item {
	paragraphs := extractParagraphs(html)
	if len(paragraphs) == 0 {
		return nil
	}
	long := 0
	maxWords := 0
	for _, p := range paragraphs {
		if wc := countWords(p); wc > ParagraphMaxWords {
			long++
			if wc > maxWords {
				maxWords = wc
			}
		}
	}
	if long > 0 {
		return []item{{rule: "paragraph-length", severity: sevWarn, level: 2, scored: true,
			message: fmt.Sprintf("%d paragraph(s) exceed %d words (max %d). Split for readability.", long, ParagraphMaxWords, maxWords)}}
	}
	return []item{{rule: "paragraph-length", severity: sevPass, level: 2, scored: true,
		message: fmt.Sprintf("Paragraphs within %d words.", ParagraphMaxWords)}}
}

func checkSlug(slug string) []item {
	if slug == "" {
		return nil
	}
	if n := len(slug); n > 75 {
		return []item{{rule: "slug-length", severity: sevWarn, level: 2, scored: true,
			message: fmt.Sprintf("Slug is long (%d chars).", n)}}
	}
	return []item{{rule: "slug-length", severity: sevPass, level: 2, scored: true,
		message: fmt.Sprintf("Slug is %d chars.", len(slug))}}
}

var typographyOffenders = []struct {
	char  string
	label string
}{
	{"—", "em-dash"},
	{"–", "en-dash"},
	{"“", "curly left double quote"},
	{"”", "curly right double quote"},
	{"‘", "curly left single quote"},
	{"’", "curly apostrophe"},
}

func checkTypography(plain string) []item {
	total := 0
	var found []string
	for _, t := range typographyOffenders {
		if n := strings.Count(plain, t.char); n > 0 {
			total += n
			found = append(found, fmt.Sprintf("%s (%d)", t.label, n))
		}
	}
	if total == 0 {
		return []item{{rule: "typography", severity: sevPass, level: 2, scored: true,
			message: "No em-dash or curly quotes detected."}}
	}
	severity, level := sevWarn, 2
	if total >= 2 {
		severity, level = sevFail, 1
	}
	return []item{{rule: "typography", severity: severity, level: level, scored: true,
		message: fmt.Sprintf("Replace: %s. Use straight quotes and standard punctuation.", strings.Join(found, "; "))}}
}

type phraseHit struct {
	phrase string
	count  int
}

// countPhrasesNonOverlapping matches longest phrases first and skips spans
// already claimed, so "delve into" does not also count as "delve".
func countPhrasesNonOverlapping(text string, phrases []string) []phraseHit {
	lower := strings.ToLower(text)
	type span struct{ start, end int }
	var used []span
	overlaps := func(start, end int) bool {
		for _, r := range used {
			if start < r.end && r.start < end {
				return true
			}
		}
		return false
	}

	sorted := append([]string(nil), phrases...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	var hits []phraseHit
	for _, phrase := range sorted {
		count := 0
		for from := 0; ; {
			i := strings.Index(lower[from:], phrase)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(phrase)
			if !overlaps(start, end) {
				count++
				used = append(used, span{start, end})
			}
			from = end
		}
		if count > 0 {
			hits = append(hits, phraseHit{phrase: phrase, count: count})
		}
	}
	return hits
}

func countPhrases(text string, phrases []string) []phraseHit {
	lower := strings.ToLower(text)
	var hits []phraseHit
	for _, phrase := range phrases {
		if n := strings.Count(lower, phrase); n > 0 {
			hits = append(hits, phraseHit{phrase: phrase, count: n})
		}
	}
	return hits
}

func describeHits(hits []phraseHit, maxShow int) string {
	shown := hits
	if len(shown) > maxShow {
		shown = shown[:maxShow]
	}
	parts := make([]string, len(shown))
	for i, h := range shown {
		if suggestion, ok := phraseSuggestions[h.phrase]; ok {
			parts[i] = fmt.Sprintf("%q (%d): try %s", h.phrase, h.count, suggestion)
		} else {
			parts[i] = fmt.Sprintf("%q (%d)", h.phrase, h.count)
		}
	}
	tail := ""
	if len(hits) > maxShow {
		tail = fmt.Sprintf("; +%d more", len(hits)-maxShow)
	}
	return strings.Join(parts, "; ") + tail
}

// checkPhrases reports generic phrasing. Editorial only: never scored.
func checkPhrases(plain string) []item {
	var items []item

	high := countPhrasesNonOverlapping(plain, genericPhrasesHigh)
	if len(high) > 0 {
		items = append(items, item{rule: "generic-phrases", severity: sevWarn, level: 2,
			message: "Consider replacing: " + describeHits(high, 8) + "."})
	} else {
		items = append(items, item{rule: "generic-phrases", severity: sevPass, level: 2,
			message: "No overused generic phrases detected."})
	}

	common := countPhrases(plain, genericPhrasesCommon)
	commonTotal := 0
	for _, h := range common {
		commonTotal += h.count
	}
	if commonTotal > 5 {
		items = append(items, item{rule: "common-phrases", severity: sevWarn, level: 2,
			message: fmt.Sprintf("%d overused phrases found. Consider varying: %s.", commonTotal, describeHits(common, 6))})
	} else {
		items = append(items, item{rule: "common-phrases", severity: sevPass, level: 2,
			message: "Common phrasing within acceptable range."})
	}
	return items
}

func checkMetaKeyword(meta, focusKeyword string) []item {
	kw := strings.ToLower(strings.TrimSpace(focusKeyword))
	if kw == "" || strings.TrimSpace(meta) == "" {
		return nil
	}
	if !strings.Contains(strings.ToLower(meta), kw) {
		return []item{{rule: "meta-keyword", severity: sevWarn, level: 3, scored: true,
			message: fmt.Sprintf("Primary keyword %q not in meta description.", focusKeyword)}}
	}
	return []item{{rule: "meta-keyword", severity: sevPass, level: 3, scored: true,
		message: "Primary keyword in meta description."}}
}

func checkFirst10Percent(plain, focusKeyword string) []item {
	kw := strings.ToLower(strings.TrimSpace(focusKeyword))
	if kw == "" {
		return nil
	}
	words := strings.Fields(plain)
	if len(words) < 100 {
		return nil
	}
	window := len(words) / 10
	if window < 50 {
		window = 50
	}
	first := strings.ToLower(strings.Join(words[:window], " "))
	if !strings.Contains(first, kw) {
		return []item{{rule: "keyword-in-intro", severity: sevWarn, level: 3, scored: true,
			message: fmt.Sprintf("Primary keyword not in first ~10%% of content (%d words).", window)}}
	}
	return []item{{rule: "keyword-in-intro", severity: sevPass, level: 3, scored: true,
		message: "Primary keyword appears in first 10% of content."}}
}

func checkSlugKeyword(slug, focusKeyword string) []item {
	kw := strings.TrimSpace(focusKeyword)
	if slug == "" || kw == "" {
		return nil
	}
	slugNorm := strings.ReplaceAll(strings.ToLower(slug), "-", " ")
	for _, w := range strings.Fields(strings.ToLower(kw)) {
		if strings.Contains(slugNorm, w) {
			return []item{{rule: "slug-keyword", severity: sevPass, level: 3, scored: true,
				message: "Primary keyword in slug."}}
		}
	}
	return []item{{rule: "slug-keyword", severity: sevWarn, level: 3, scored: true,
		message: "Primary keyword not in URL slug."}}
}

func checkSubheadingKeyword(html, focusKeyword string) []item {
	kw := strings.ToLower(strings.TrimSpace(focusKeyword))
	if kw == "" {
		return nil
	}
	headings := ExtractHeadings(html)
	if len(headings) == 0 {
		return nil
	}
	for _, h := range headings {
		if strings.Contains(strings.ToLower(h.Text), kw) {
			return []item{{rule: "subheading-keyword", severity: sevPass, level: 3, scored: true,
				message: "Primary keyword in subheadings."}}
		}
	}
	return []item{{rule: "subheading-keyword", severity: sevWarn, level: 3, scored: true,
		message: "Primary keyword not in any H2-H6 heading."}}
}

func checkTitleKeywordPosition(title, focusKeyword string) []item {
	kw := strings.ToLower(strings.TrimSpace(focusKeyword))
	t := strings.ToLower(strings.TrimSpace(title))
	if kw == "" || t == "" || !strings.Contains(t, kw) {
		return nil
	}
	if strings.Index(t, kw) > len(t)/2 {
		return []item{{rule: "title-keyword-position", severity: sevWarn, level: 3, scored: true,
			message: "Primary keyword not in first 50% of title."}}
	}
	return []item{{rule: "title-keyword-position", severity: sevPass, level: 3, scored: true,
		message: "Primary keyword in first 50% of title."}}
}

func checkNumberInTitle(title string) []item {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	if !strings.ContainsAny(title, "0123456789") {
		return []item{{rule: "number-in-title", severity: sevWarn, level: 3, scored: true,
			message: "No number in title. Numbers often improve CTR."}}
	}
	return []item{{rule: "number-in-title", severity: sevPass, level: 3, scored: true,
		message: "Title contains a number."}}
}

// checkExtraValueCoverage measures how many brief differentiation themes the
// content addresses. Informational only.
func checkExtraValueCoverage(plain string, themes []string) []item {
	lower := strings.ToLower(plain)
	covered, total := 0, 0
	for _, theme := range themes {
		t := strings.TrimSpace(theme)
		if t == "" {
			continue
		}
		total++
		if strings.Contains(lower, strings.ToLower(t)) {
			covered++
			continue
		}
		words := strings.Fields(strings.ToLower(t))
		matched := 0
		for _, w := range words {
			if len(w) > 2 && strings.Contains(lower, w) {
				matched++
			}
		}
		need := 2
		if len(words) < need {
			need = len(words)
		}
		if len(words) > 0 && matched >= need {
			covered++
		}
	}
	if total == 0 {
		return nil
	}
	ratio := float64(covered) / float64(total)
	severity := sevFail
	if ratio >= 0.5 {
		severity = sevPass
	} else if ratio >= 0.25 {
		severity = sevWarn
	}
	return []item{{rule: "extra-value-coverage", severity: severity, level: 3,
		message: fmt.Sprintf("%d/%d differentiation themes addressed in content.", covered, total)}}
}
