package clip

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// ReadabilityExtractor extracts main content using Mozilla's Readability algorithm
type ReadabilityExtractor struct{}

// NewReadabilityExtractor creates a readability-based content extractor
func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

// Extract pulls the main article content out of an HTML document.
// Returns the content as a goquery selection plus the article title.
func (r *ReadabilityExtractor) Extract(doc *goquery.Document, pageURL *url.URL) (*goquery.Selection, string, error) {
	html, err := doc.Html()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get HTML from document: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("readability extraction failed: %w", err)
	}
	if article.Content == "" {
		return nil, "", fmt.Errorf("readability extracted empty content")
	}

	// Parse the extracted fragment back into a document so callers can
	// process it like any other selection
	contentDoc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(article.Content)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse readability content: %w", err)
	}

	content := contentDoc.Find("body").Children()
	if content.Length() == 0 {
		content = contentDoc.Find("body")
	}

	title := article.Title
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return content, title, nil
}
