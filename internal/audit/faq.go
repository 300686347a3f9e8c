package audit

import (
	"regexp"
	"strings"

	"github.com/jonathan/content-engine/internal/types"
)

// FAQAnswerMaxChars is the hard cap on FAQ answer length. Answer boxes and
// AI engines quote short answers; long ones get cut mid-sentence.
const FAQAnswerMaxChars = 300

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// EnforceFAQLimit truncates FAQ answers over maxChars and returns the
// violations plus the corrected HTML. Content without an FAQ section, or
// with all answers within the cap, comes back unchanged.
func EnforceFAQLimit(html string, maxChars int) (types.FAQEnforcement, string) {
	if maxChars <= 0 {
		maxChars = FAQAnswerMaxChars
	}
	result := types.FAQEnforcement{Passed: true, Violations: []types.FAQViolation{}}

	doc, err := parseFragment(html)
	if err != nil {
		return result, html
	}
	entries := extractFAQ(doc)
	if len(entries) == 0 {
		return result, html
	}

	for _, e := range entries {
		if len(e.Answer) <= maxChars || e.answerP == nil {
			continue
		}
		result.Passed = false
		result.Violations = append(result.Violations, types.FAQViolation{
			Question:  e.Question,
			Answer:    e.Answer,
			CharCount: len(e.Answer),
		})
		e.answerP.SetText(truncateAnswer(e.Answer, maxChars))
	}
	if result.Passed {
		return result, html
	}

	fixed, err := doc.Find("body").Html()
	if err != nil {
		return result, html
	}
	return result, fixed
}

// truncateAnswer keeps the first two sentences, falling back to one, then
// to a word-boundary cut, so the truncated answer still reads cleanly.
func truncateAnswer(answer string, maxChars int) string {
	sentences := sentenceRe.FindAllString(answer, -1)
	if len(sentences) == 0 {
		sentences = []string{answer}
	}

	truncated := strings.TrimSpace(strings.Join(trimAll(sentences[:minInt(2, len(sentences))]), " "))
	if len(truncated) > maxChars {
		truncated = strings.TrimSpace(sentences[0])
	}
	if len(truncated) > maxChars {
		cut := truncated[:maxChars-1]
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		truncated = strings.TrimSpace(cut) + "."
	}
	return truncated
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
