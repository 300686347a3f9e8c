// Package fetch - platform.go provides publishing platform detection and
// platform-specific selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known publishing platform.
type Platform string

const (
	// PlatformWordPress is a WordPress-hosted site
	PlatformWordPress Platform = "wordpress"
	// PlatformMedium is the Medium publishing platform
	PlatformMedium Platform = "medium"
	// PlatformSubstack is the Substack newsletter platform
	PlatformSubstack Platform = "substack"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the publishing platform from a URL. WordPress
// cannot be detected from the host alone; DetectPlatformFromHTML refines the
// guess once markup is available.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)

	if strings.Contains(host, "medium.com") {
		return PlatformMedium
	}

	if strings.Contains(host, "substack.com") {
		return PlatformSubstack
	}

	if strings.Contains(host, "wordpress.com") {
		return PlatformWordPress
	}

	return PlatformUnknown
}

// DetectPlatformFromHTML looks for platform fingerprints in page markup for
// hosts that serve a platform under their own domain.
func DetectPlatformFromHTML(html string) Platform {
	if strings.Contains(html, "wp-content/") || strings.Contains(html, "wp-includes/") {
		return PlatformWordPress
	}
	if strings.Contains(html, "substackcdn.com") {
		return PlatformSubstack
	}
	return PlatformUnknown
}

// PlatformContentSelectors returns content selectors optimized for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformWordPress:
		return []string{
			".entry-content", // Primary WordPress selector
			".post-content",
			"article .content",
			"article",
		}
	case PlatformMedium:
		return []string{
			"article section",
			"article",
		}
	case PlatformSubstack:
		return []string{
			".available-content",
			".body.markup",
			"article",
		}
	default:
		return ArticleSelectors()
	}
}

// PlatformNoiseSelectors returns noise selectors to strip for a platform.
func PlatformNoiseSelectors(platform Platform) []string {
	switch platform {
	case PlatformWordPress:
		return []string{".related-posts", ".post-navigation", ".comments-area", ".share-buttons"}
	case PlatformMedium:
		return []string{".speechify-ignore", "[data-testid='audioPlayButton']"}
	case PlatformSubstack:
		return []string{".subscribe-widget", ".subscription-widget-wrap", ".post-footer"}
	default:
		return nil
	}
}
