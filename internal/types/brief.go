package types

import "strings"

// OutlineSection is one planned section of the piece. Level is "h2" or "h3";
// h3 subsections nest under their parent.
type OutlineSection struct {
	Heading     string           `json:"heading"`
	Level       string           `json:"level"`
	Reason      string           `json:"reason"`
	Topics      []string         `json:"topics"`
	TargetWords int              `json:"target_words"`
	GeoNote     string           `json:"geo_note,omitempty"`
	Subsections []OutlineSection `json:"subsections,omitempty"`
}

// Outline is the ordered section plan plus derived totals.
type Outline struct {
	Sections           []OutlineSection `json:"sections"`
	TotalSections      int              `json:"total_sections"`
	EstimatedWordCount int              `json:"estimated_word_count"`
}

// GeoRequirements are generative-engine-optimization directives for the draft.
type GeoRequirements struct {
	DirectAnswer string `json:"direct_answer"`
	StatDensity  string `json:"stat_density"`
	Entities     string `json:"entities"`
	QABlocks     string `json:"qa_blocks"`
	FAQStrategy  string `json:"faq_strategy,omitempty"`
}

// SeoRequirements are search-optimization directives for the draft.
type SeoRequirements struct {
	KeywordInTitle          string `json:"keyword_in_title"`
	KeywordInFirst10Percent bool   `json:"keyword_in_first_10_percent"`
	KeywordInSubheadings    bool   `json:"keyword_in_subheadings"`
	MaxParagraphWords       int    `json:"max_paragraph_words"`
	FAQCount                string `json:"faq_count"`
}

// BriefKeyword groups the keyword set the brief targets.
type BriefKeyword struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary"`
	PASF      []string `json:"pasf"`
}

// BriefWordCount is the whole-piece target after brief construction.
type BriefWordCount struct {
	Target int    `json:"target"`
	Note   string `json:"note"`
}

// Brief is the analysis stage's output: the full content plan the draft
// stage consumes. It embeds the grounded facts so drafting needs no other
// research access.
type Brief struct {
	Keyword                BriefKeyword    `json:"keyword"`
	CurrentData            CurrentData     `json:"current_data"`
	Outline                Outline         `json:"outline"`
	Gaps                   []string        `json:"gaps"`
	EditorialStyle         EditorialStyle  `json:"editorial_style"`
	EditorialStyleFallback bool            `json:"editorial_style_fallback"`
	GeoRequirements        GeoRequirements `json:"geo_requirements"`
	SeoRequirements        SeoRequirements `json:"seo_requirements"`
	WordCount              BriefWordCount  `json:"word_count"`
	SimilaritySummary      string          `json:"similarity_summary,omitempty"`
	ExtraValueThemes       []string        `json:"extra_value_themes,omitempty"`
	FreshnessNote          string          `json:"freshness_note,omitempty"`
}

// BriefSummary is the strategy subset of a brief surfaced to callers.
type BriefSummary struct {
	SimilaritySummary string   `json:"similarity_summary,omitempty"`
	ExtraValueThemes  []string `json:"extra_value_themes,omitempty"`
	FreshnessNote     string   `json:"freshness_note,omitempty"`
}

// Summary returns the brief's strategy subset, or nil when it carries none.
func (b Brief) Summary() *BriefSummary {
	if b.SimilaritySummary == "" && len(b.ExtraValueThemes) == 0 && b.FreshnessNote == "" {
		return nil
	}
	return &BriefSummary{
		SimilaritySummary: b.SimilaritySummary,
		ExtraValueThemes:  b.ExtraValueThemes,
		FreshnessNote:     b.FreshnessNote,
	}
}

// ExpectedH2s returns the trimmed top-level headings the brief plans,
// used for outline drift comparison after drafting.
func (b Brief) ExpectedH2s() []string {
	var out []string
	for _, s := range b.Outline.Sections {
		if s.Level == "h2" {
			out = append(out, strings.TrimSpace(s.Heading))
		}
	}
	return out
}
