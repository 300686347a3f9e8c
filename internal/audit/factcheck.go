package audit

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/content-engine/internal/types"
)

// MaxAllowedHallucinations is how many unverifiable numbers or sources a
// draft may contain before the fact check marks it unverified. A handful of
// borderline matches is normal; more means the writer invented data.
const MaxAllowedHallucinations = 6

var (
	dollarRe   = regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d+)?\s*(?:billion|million|bn|mn|B|M)?`)
	percentRe  = regexp.MustCompile(`[\d,]+(?:\.\d+)?\s*%`)
	unitRe     = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:billion|million)\s`)
	plainNumRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	statLikeRe = regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d+)?\s*(?:billion|million|bn|mn|B|M)?|[\d,]+(?:\.\d+)?\s*%|\d+(?:\.\d+)?\s*(?:billion|million)\s`)

	perAttribRe       = regexp.MustCompile(`(?i)\bper\s+([^.,;]+)`)
	accordingAttribRe = regexp.MustCompile(`(?i)\baccording\s+to\s+([^.,;]+)`)
	reportedAttribRe  = regexp.MustCompile(`([A-Za-z0-9\s&]+)\s+reported\s`)
	entityVerbRe      = regexp.MustCompile(`^([A-Z][a-zA-Z&\s]{1,30}?)\s+(?:reported|announced|disclosed|said|earned|generated|posted|reached|saw|achieved|holds|has|had)`)
)

// Units like "per capita" or "per month" are measurements, not source
// attributions.
var nonAttributionRe = regexp.MustCompile(`(?i)^per\s+(capita|unit|year|month|day|quarter|integration|platform|segment)(\s|$|[.,;])`)

var rhetoricalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+\s*%\s*of\s+the\s+(quality|cost|price|value)`),
	regexp.MustCompile(`\d+\s*%\s*(cheaper|faster|better|more|less)`),
	regexp.MustCompile(`(nearly|almost|roughly|about)\s+\d`),
	regexp.MustCompile(`\d+\s*years?\s+ago|over\s+\d+\s+years?|past\s+\d+\s+decades?`),
	regexp.MustCompile(`first\s+\d+|top\s+\d+|number\s+\d+|#\s*\d+`),
	regexp.MustCompile(`\d+x\s+(more|faster|better)`),
	regexp.MustCompile(`means\s+\d+\s*%|leaves\s+\d+\s*%|the\s+remaining\s+\d+\s*%|the\s+other\s+\d+\s*%`),
	regexp.MustCompile(`\d+\s+out\s+of\s+\d+`),
	regexp.MustCompile(`(up\s+to|starting\s+at|priced\s+at|around|roughly|about)\s+\$[\d,]+`),
	regexp.MustCompile(`\d+[-\s](year|month|week|day|quarter|decade)`),
}

func isRhetorical(snippet string) bool {
	lower := strings.ToLower(snippet)
	for _, re := range rhetoricalPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func extractNumbers(text string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(n string) {
		n = whitespaceRe.ReplaceAllString(n, " ")
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, re := range []*regexp.Regexp{dollarRe, percentRe, unitRe, plainNumRe} {
		for _, m := range re.FindAllString(text, -1) {
			add(strings.TrimSpace(m))
		}
	}
	return out
}

func numericValue(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	v, err := strconv.ParseFloat(cleaned, 64)
	return v, err == nil
}

// isDerived reports whether a number follows from the reference numbers by
// complement, difference, or sum. "That leaves 32%" is not a hallucination
// when the source says 68%.
func isDerived(val float64, refs []float64) bool {
	for _, r := range refs {
		if r > 0 && r < 100 && math.Abs((100-r)-val) < 0.5 {
			return true
		}
	}
	tol := math.Max(val*0.01, 0.5)
	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			if d := math.Abs(refs[i] - refs[j]); d > 0 && math.Abs(d-val) < tol {
				return true
			}
			if s := refs[i] + refs[j]; s > 0 && math.Abs(s-val) < tol {
				return true
			}
		}
	}
	return false
}

func extractAttributions(text string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, m := range perAttribRe.FindAllStringSubmatch(text, -1) {
		phrase := "per " + strings.TrimSpace(m[1])
		if !nonAttributionRe.MatchString(phrase) {
			add(phrase)
		}
	}
	for _, m := range accordingAttribRe.FindAllStringSubmatch(text, -1) {
		add("according to " + strings.TrimSpace(m[1]))
	}
	for _, m := range reportedAttribRe.FindAllStringSubmatch(text, -1) {
		add(strings.TrimSpace(m[1]) + " reported")
	}
	return out
}

// sourceAliases builds the set of names the draft may legitimately cite:
// fact source hostnames, entities named in the facts, the primary keyword,
// and generic corporate reporting phrases.
func sourceAliases(currentData types.CurrentData, primaryKeyword string) map[string]bool {
	aliases := map[string]bool{}
	add := func(s string) {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			aliases[s] = true
		}
	}
	for _, f := range currentData.Facts {
		if u, err := url.Parse(f.Source); err == nil && u.Hostname() != "" {
			add(strings.TrimPrefix(u.Hostname(), "www."))
		} else if len(f.Source) > 80 {
			add(f.Source[:80])
		} else {
			add(f.Source)
		}
		if m := accordingAttribRe.FindStringSubmatch(f.Fact); m != nil {
			add(m[1])
		}
		if m := perAttribRe.FindStringSubmatch(f.Fact); m != nil {
			add(m[1])
		}
		if m := entityVerbRe.FindStringSubmatch(f.Fact); m != nil {
			entity := strings.ToLower(strings.TrimSpace(m[1]))
			add(entity)
			for _, verb := range []string{"reported", "announced", "disclosed", "said"} {
				add(entity + " " + verb)
			}
		}
	}
	if kw := strings.TrimSpace(primaryKeyword); kw != "" {
		add(kw)
		for _, verb := range []string{"reported", "announced", "disclosed", "said"} {
			add(strings.ToLower(kw) + " " + verb)
		}
	}
	for _, phrase := range []string{
		"earnings release", "earnings call", "company filings", "investor call",
		"quarterly report", "annual report", "its earnings release",
		"its investor call", "the company's disclosures", "the company reported",
	} {
		add(phrase)
	}
	return aliases
}

// VerifyFacts cross-checks every statistic-looking number and source
// attribution in the draft against the grounded research data. Rhetorical
// numbers and numbers derivable from the source data are skipped.
func VerifyFacts(articleHTML string, currentData types.CurrentData, primaryKeyword string) types.FactCheck {
	out := types.FactCheck{
		Hallucinations:    []string{},
		Issues:            []string{},
		SkippedRhetorical: []string{},
	}
	text := stripHTML(articleHTML)

	var refStrings []string
	var refValues []float64
	seenRef := map[string]bool{}
	for _, f := range currentData.Facts {
		for _, n := range extractNumbers(f.Fact) {
			if !seenRef[n] {
				seenRef[n] = true
				refStrings = append(refStrings, n)
				if v, ok := numericValue(n); ok {
					refValues = append(refValues, v)
				}
			}
		}
	}

	for _, loc := range statLikeRe.FindAllStringIndex(text, -1) {
		n := strings.TrimSpace(text[loc[0]:loc[1]])
		start := loc[0] - 50
		if start < 0 {
			start = 0
		}
		end := loc[1] + 50
		if end > len(text) {
			end = len(text)
		}
		snippet := text[start:end]

		if isRhetorical(snippet) {
			out.SkippedRhetorical = append(out.SkippedRhetorical, "Skipped rhetorical: "+n)
			continue
		}
		val, ok := numericValue(n)
		if !ok {
			continue
		}
		if matchesReference(n, val, refStrings) {
			continue
		}
		if isDerived(val, refValues) {
			out.SkippedRhetorical = append(out.SkippedRhetorical, "Skipped derived: "+n)
			continue
		}
		out.Hallucinations = append(out.Hallucinations,
			"\""+strings.TrimSpace(snippet)+"\" contains \""+n+"\" which is not in the research data")
	}

	aliases := sourceAliases(currentData, primaryKeyword)
	for _, a := range extractAttributions(text) {
		name := strings.TrimSpace(attributionName(a))
		if len(name) <= 2 {
			continue
		}
		lower := strings.ToLower(name)
		allowed := false
		for alias := range aliases {
			if strings.Contains(alias, lower) || strings.Contains(lower, alias) {
				allowed = true
				break
			}
		}
		if !allowed {
			out.Hallucinations = append(out.Hallucinations,
				"FABRICATED SOURCE: \""+name+"\" is not among the research sources")
		}
	}

	out.Verified = len(out.Hallucinations) <= MaxAllowedHallucinations
	return out
}

func attributionName(attribution string) string {
	name := attribution
	for _, prefix := range []string{"per ", "Per ", "according to ", "According to "} {
		name = strings.TrimPrefix(name, prefix)
	}
	if i := strings.IndexAny(name, ".,;"); i >= 0 {
		name = name[:i]
	}
	return name
}

func matchesReference(n string, val float64, refs []string) bool {
	valStr := strconv.FormatFloat(val, 'f', -1, 64)
	for _, r := range refs {
		rv, ok := numericValue(r)
		if !ok {
			if strings.Contains(r, n) || strings.Contains(n, r) {
				return true
			}
			continue
		}
		tol := math.Max(rv*0.005, 0.01)
		if math.Abs(val-rv) <= tol {
			return true
		}
		if strings.Contains(r, valStr) || strings.Contains(n, strconv.FormatFloat(rv, 'f', -1, 64)) {
			return true
		}
	}
	return false
}
