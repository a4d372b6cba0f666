package fetcher

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// ExtractReadable pulls the main article text and title out of a page for
// the summarizer. Falls back to the normalized full text when the
// readability pass finds nothing, so the summarizer always has input.
func ExtractReadable(html []byte, pageURL *url.URL) (text, title string) {
	article, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err == nil {
		title = strings.TrimSpace(article.Title)
		text = collapseWhitespace(article.TextContent)
	}

	if text == "" {
		if normalized, nerr := NormalizePlainText(string(html)); nerr == nil {
			text = normalized
		}
	}
	if title == "" {
		title = documentTitle(string(html))
	}
	return text, title
}

func documentTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
