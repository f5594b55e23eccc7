package provider

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

var htmlMarkers = []string{"<html", "<body", "<div", "<p>", "<p ", "<br", "<table", "<span"}

// LooksLikeHTML reports whether body appears to be an HTML document or fragment.
func LooksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	for _, m := range htmlMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// HTMLToText reduces an HTML body to readable text. Block elements become
// line breaks; scripts, styles and the head are dropped.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", eris.Wrap(err, "provider: parse html")
	}
	doc.Find("script, style, head, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6, blockquote").AppendHtml("\n")

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// PlainBody returns body as text, converting it when it looks like HTML. A
// body that fails to parse is returned unchanged.
func PlainBody(body string) string {
	if !LooksLikeHTML(body) {
		return body
	}
	text, err := HTMLToText(body)
	if err != nil {
		return body
	}
	return text
}
