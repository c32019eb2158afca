package sources

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlText flattens an HTML fragment to single-spaced plain text.
func htmlText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var parts []string
	collectText(doc.Find("body"), &parts)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// collectText walks text nodes so block boundaries become spaces.
func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			*parts = append(*parts, c.Text())
		case "script", "style", "#comment":
		default:
			collectText(c, parts)
		}
	})
}
