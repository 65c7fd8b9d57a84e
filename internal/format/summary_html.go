package format

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	boldRe     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.*?)\*`)
	numberedRe = regexp.MustCompile(`(\d+\.\s)`)
	bulletRe   = regexp.MustCompile(`-\s`)
)

// summaryPolicy admits only the markup SummaryHTML produces.
var summaryPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em")
	return p
}()

// SummaryHTML renders assistant text as an HTML fragment. The text is escaped
// first, then paragraphs, line breaks, **bold**, *emphasis*, numbered items
// and "- " bullets are turned into markup.
func SummaryHTML(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	s := html.EscapeString(text)
	s = strings.ReplaceAll(s, "\n\n", "</p><p>")
	s = strings.ReplaceAll(s, "\n", "<br>")
	s = "<p>" + s + "</p>"
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = numberedRe.ReplaceAllString(s, "<br><strong>$1</strong>")
	s = bulletRe.ReplaceAllString(s, "<br>• ")

	return summaryPolicy.Sanitize(s)
}
