package types

// DraftProviderOutput is what the writing provider returns for a brief.
type DraftProviderOutput struct {
	Content             string   `json:"content"`
	SuggestedCategories []string `json:"suggested_categories"`
	SuggestedTags       []string `json:"suggested_tags"`
}

// DraftOutput is the durable output of the draft stage. Title and meta are
// placeholders until the user triggers metadata generation from the finished
// content; the slug is derived from the primary keyword.
type DraftOutput struct {
	Title               string   `json:"title"`
	MetaDescription     string   `json:"meta_description"`
	SuggestedSlug       string   `json:"suggested_slug"`
	Outline             []string `json:"outline"`
	Content             string   `json:"content"`
	SuggestedCategories []string `json:"suggested_categories"`
	SuggestedTags       []string `json:"suggested_tags"`
}

// WordCount returns the whitespace-separated word count of the draft body.
func (d DraftOutput) WordCount() int {
	n := 0
	inWord := false
	for _, r := range d.Content {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWord = false
		} else if !inWord {
			inWord = true
			n++
		}
	}
	return n
}
