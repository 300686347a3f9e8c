package types

// FAQViolation records one FAQ answer that exceeded the character cap.
type FAQViolation struct {
	Question  string `json:"question"`
	Answer    string `json:"answer,omitempty"`
	CharCount int    `json:"char_count"`
}

// FAQEnforcement is the result of applying the FAQ answer length cap.
type FAQEnforcement struct {
	Passed     bool           `json:"passed"`
	Violations []FAQViolation `json:"violations"`
}

// AuditFinding is one rule result from the audit engine.
type AuditFinding struct {
	Rule     string `json:"rule"`
	Passed   bool   `json:"passed"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// AuditResult is the rule-based content/SEO score report.
type AuditResult struct {
	Score       int            `json:"score"`
	Findings    []AuditFinding `json:"findings"`
	Publishable bool           `json:"publishable"`
}

// FactCheck is the hallucination report from cross-checking draft content
// against the grounded facts gathered during research.
type FactCheck struct {
	Verified          bool     `json:"verified"`
	Hallucinations    []string `json:"hallucinations"`
	Issues            []string `json:"issues"`
	SkippedRhetorical []string `json:"skipped_rhetorical"`
}

// SchemaMarkup holds the generated JSON-LD structured data blocks.
type SchemaMarkup struct {
	Article       map[string]any `json:"article"`
	FAQ           map[string]any `json:"faq,omitempty"`
	Breadcrumb    map[string]any `json:"breadcrumb,omitempty"`
	FAQSchemaNote string         `json:"faq_schema_note,omitempty"`
}

// ValidationOutput is the durable output of the validate stage.
type ValidationOutput struct {
	FAQEnforcement FAQEnforcement `json:"faq_enforcement"`
	AuditResult    AuditResult    `json:"audit_result"`
	FactCheck      FactCheck      `json:"fact_check"`
	SchemaMarkup   SchemaMarkup   `json:"schema_markup"`
	FinalContent   string         `json:"final_content"`
}

// OutlineDrift compares the brief's planned H2s against the headings the
// draft actually used. Informational only; never blocks completion.
type OutlineDrift struct {
	Passed   bool     `json:"passed"`
	Expected []string `json:"expected"`
	Actual   []string `json:"actual"`
	Missing  []string `json:"missing"`
	Extra    []string `json:"extra"`
}

// Article is the generated piece as the caller consumes it.
type Article struct {
	Content             string   `json:"content"`
	Outline             []string `json:"outline"`
	SuggestedSlug       string   `json:"suggested_slug"`
	SuggestedCategories []string `json:"suggested_categories"`
	SuggestedTags       []string `json:"suggested_tags"`
}

// PublishTracking carries publication bookkeeping filled in by the caller's
// CMS once the piece goes live.
type PublishTracking struct {
	Keyword      string `json:"keyword"`
	PublishedURL string `json:"published_url,omitempty"`
	PublishDate  string `json:"publish_date,omitempty"`
}

// PipelineResult is the externally visible result assembled from the four
// completed stage outputs plus derived fields.
type PipelineResult struct {
	Article          Article         `json:"article"`
	Title            string          `json:"title"`
	MetaDescription  string          `json:"meta_description"`
	SourceURLs       []string        `json:"source_urls"`
	AuditResult      AuditResult     `json:"audit_result"`
	SchemaMarkup     SchemaMarkup    `json:"schema_markup"`
	FAQEnforcement   FAQEnforcement  `json:"faq_enforcement"`
	FactCheck        FactCheck       `json:"fact_check"`
	PublishTracking  PublishTracking `json:"publish_tracking"`
	GenerationTimeMs int64           `json:"generation_time_ms,omitempty"`
	BriefSummary     *BriefSummary   `json:"brief_summary,omitempty"`
	OutlineDrift     *OutlineDrift   `json:"outline_drift,omitempty"`
}
