package types

// TopicImportance ranks how essential a topic is to cover.
type TopicImportance string

const (
	TopicEssential      TopicImportance = "essential"
	TopicRecommended    TopicImportance = "recommended"
	TopicDifferentiator TopicImportance = "differentiator"
)

// Topic is one subject the extraction provider found across competitor content.
type Topic struct {
	Name             string          `json:"name"`
	Importance       TopicImportance `json:"importance"`
	CoverageCount    string          `json:"coverage_count"`
	KeyTerms         []string        `json:"key_terms"`
	ExampleContent   string          `json:"example_content"`
	RecommendedDepth string          `json:"recommended_depth"`
}

// Distribution buckets sentence or paragraph lengths into rough shares.
type Distribution struct {
	Short    float64 `json:"short"`
	Medium   float64 `json:"medium"`
	Long     float64 `json:"long"`
	VeryLong float64 `json:"very_long"`
}

// EditorialStyle captures how competitor content reads, so generated
// content can match the register of what already ranks.
type EditorialStyle struct {
	SentenceLength struct {
		Average      float64      `json:"average"`
		Distribution Distribution `json:"distribution"`
	} `json:"sentence_length"`
	ParagraphLength struct {
		AverageSentences float64 `json:"average_sentences"`
		Distribution     struct {
			Single   float64 `json:"single"`
			Standard float64 `json:"standard"`
			Long     float64 `json:"long"`
			VeryLong float64 `json:"very_long"`
		} `json:"distribution"`
	} `json:"paragraph_length"`
	Tone         string `json:"tone"`
	ReadingLevel string `json:"reading_level"`
	ContentMix   struct {
		Prose  float64 `json:"prose"`
		Lists  float64 `json:"lists"`
		Tables float64 `json:"tables"`
	} `json:"content_mix"`
	DataDensity string `json:"data_density"`
	IntroStyle  string `json:"intro_style"`
	CTAStyle    string `json:"cta_style"`
}

// CompetitorHeadings lists the heading structure of one competitor page.
type CompetitorHeadings struct {
	URL string   `json:"url"`
	H2s []string `json:"h2s"`
	H3s []string `json:"h3s"`
}

// Gap is a coverage opportunity competitors missed.
type Gap struct {
	Topic               string `json:"topic"`
	Opportunity         string `json:"opportunity"`
	RecommendedApproach string `json:"recommended_approach"`
}

// WordCountNote is the extraction provider's word count recommendation.
type WordCountNote struct {
	CompetitorAverage float64 `json:"competitor_average"`
	Recommended       float64 `json:"recommended"`
	Note              string  `json:"note"`
}

// TopicExtraction is the structured result of topic/style analysis over
// fetched competitor articles.
type TopicExtraction struct {
	Topics             []Topic              `json:"topics"`
	CompetitorHeadings []CompetitorHeadings `json:"competitor_headings"`
	Gaps               []Gap                `json:"gaps"`
	EditorialStyle     EditorialStyle       `json:"editorial_style"`
	WordCount          WordCountNote        `json:"word_count"`
}

// TopicExtractionCache is the chunk payload that caches extraction results
// keyed by the hash of the source URL set, so rebuilding the brief after an
// outline edit does not redo extraction.
type TopicExtractionCache struct {
	SourceURLHash string          `json:"source_url_hash"`
	Extraction    TopicExtraction `json:"extraction"`
}
