// Package sanitize cleans creator supplied HTML before it is stored.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// HTML sanitizes rich text bodies and descriptions. It is safe for
// concurrent use.
type HTML struct {
	policy *bluemonday.Policy
}

// NewHTML builds the content policy: bluemonday's UGC policy plus headings,
// tables and embedded video and audio players.
func NewHTML() *HTML {
	p := bluemonday.UGCPolicy()

	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("class").OnElements("p", "span", "div", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "figure", "figcaption")
	p.AllowElements("figure", "figcaption")

	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowElements("strong", "em", "u", "s", "sub", "sup", "blockquote", "pre", "code")

	// Media embeds. Scripts and event handlers stay stripped.
	p.AllowElements("video", "audio", "source")
	p.AllowAttrs("src", "type").OnElements("source")
	p.AllowAttrs("src", "poster", "width", "height").OnElements("video")
	p.AllowAttrs("src").OnElements("audio")
	p.AllowAttrs("controls", "loop", "muted", "preload").OnElements("video", "audio")

	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowRelativeURLs(true)

	return &HTML{policy: p}
}

func (h *HTML) Sanitize(content string) string {
	return h.policy.Sanitize(content)
}
