package types

// SerpResult is one ranked entry from the search-listing provider.
type SerpResult struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Position  int    `json:"position"`
	Snippet   string `json:"snippet"`
	IsArticle bool   `json:"is_article"`
}

// SourceArticle holds the fetched content of one competitor source.
type SourceArticle struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	WordCount    int    `json:"word_count"`
	FetchSuccess bool   `json:"fetch_success"`
}

// CurrentFact is one externally grounded data point with attribution.
type CurrentFact struct {
	Fact   string `json:"fact"`
	Source string `json:"source"`
	Date   string `json:"date,omitempty"`
}

// SourceURLValidation summarizes reachability checks over fact sources.
type SourceURLValidation struct {
	Total        int      `json:"total"`
	Accessible   int      `json:"accessible"`
	Inaccessible []string `json:"inaccessible"`
}

// CurrentData is the grounded current-facts payload from the grounding provider.
type CurrentData struct {
	Facts               []CurrentFact       `json:"facts"`
	RecentDevelopments  []string            `json:"recent_developments"`
	LastUpdated         string              `json:"last_updated"`
	GroundingVerified   bool                `json:"grounding_verified"`
	SourceURLValidation SourceURLValidation `json:"source_url_validation"`
}

// EmptyCurrentData is the zero-value payload used when grounding fails;
// downstream stages treat missing facts as "no external data", not an error.
func EmptyCurrentData() CurrentData {
	return CurrentData{
		Facts:              []CurrentFact{},
		RecentDevelopments: []string{},
		LastUpdated:        "Unknown",
	}
}

// ValidatedSourceURL is the result of a reachability check for one URL.
type ValidatedSourceURL struct {
	URL        string `json:"url"`
	Accessible bool   `json:"accessible"`
	StatusCode int    `json:"status_code,omitempty"`
	CheckedAt  string `json:"checked_at"`
}

// ResearchOutput is the durable output of the research stage.
type ResearchOutput struct {
	SerpResults []SerpResult    `json:"serp_results"`
	Articles    []SourceArticle `json:"articles"`
	CurrentData CurrentData     `json:"current_data"`
}

// FetchedArticleCount returns the number of articles whose fetch succeeded.
func (r ResearchOutput) FetchedArticleCount() int {
	n := 0
	for _, a := range r.Articles {
		if a.FetchSuccess {
			n++
		}
	}
	return n
}

// ResearchSummary is the lightweight view returned to callers after research.
type ResearchSummary struct {
	URLCount         int `json:"url_count"`
	ArticleCount     int `json:"article_count"`
	CurrentDataFacts int `json:"current_data_facts"`
}
