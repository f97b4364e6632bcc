package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NormalizeMarkup reduces HTML fragments (tags, entities) to their text content.
// Strings without '<' or '&' are returned untouched.
func NormalizeMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	text := collapseSpaces(doc.Text())
	if text == "" {
		return strings.TrimSpace(s)
	}
	return text
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
