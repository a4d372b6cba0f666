package fetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed before text extraction so that cookie banners,
// navigation and injected scripts cannot fake a content change.
var noiseSelectors = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "header", "footer", "aside", "form", "template",
}

// NormalizePlainText reduces an HTML document to stable plain text: noise
// elements stripped, all whitespace runs collapsed to single spaces. Two
// renderings of the same content normalize to the same string, which is
// what the content hash is computed over.
func NormalizePlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	return collapseWhitespace(doc.Text()), nil
}

// HashContent returns the hex sha256 of the normalized text.
func HashContent(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
