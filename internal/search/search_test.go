package search

import "testing"

func TestIsArticleURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"article with dated path", "https://example.com/2025/06/standing-desks", true},
		{"deep blog post", "https://example.com/blog/standing-desk-guide", true},
		{"long single-segment slug", "https://example.com/standing-desk-ergonomics-guide", true},
		{"homepage", "https://example.com/", false},
		{"homepage no slash", "https://example.com", false},
		{"blog index", "https://example.com/blog", false},
		{"news index", "https://example.com/news/", false},
		{"category page", "https://example.com/category/furniture", false},
		{"tag page", "https://example.com/tag/desks", false},
		{"author page", "https://example.com/author/jane", false},
		{"pdf", "https://example.com/whitepaper/desks.pdf", false},
		{"pdf with query", "https://example.com/desks.pdf?utm=1", false},
		{"reddit", "https://www.reddit.com/r/ergonomics/comments/abc", false},
		{"youtube", "https://youtube.com/watch?v=abc123", false},
		{"amazon listing", "https://www.amazon.com/dp/B012345", false},
		{"not a url", "::::", false},
		{"short slug", "https://example.com/hi", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isArticleURL(tt.url); got != tt.want {
				t.Errorf("isArticleURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
