// Package clip turns fetched article pages into study documents: it
// extracts the main content, converts it to markdown, and derives a title.
package clip

import (
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vakya-app/vakya/pkg/fetch"
	"github.com/vakya-app/vakya/pkg/models"
	"github.com/vakya-app/vakya/pkg/utils"
)

// fallbackSelectors are tried in order when readability extraction yields
// nothing usable.
var fallbackSelectors = []string{"article", "main", "[role=main]", "#content", ".content", "body"}

// minContentRunes is the smallest extraction considered a real article
// rather than boilerplate.
const minContentRunes = 80

// Clipper extracts article content from fetched pages
type Clipper struct {
	readability *ReadabilityExtractor
	log         *logrus.Entry
}

// NewClipper creates a Clipper
func NewClipper(logger *logrus.Logger) *Clipper {
	return &Clipper{
		readability: NewReadabilityExtractor(),
		log:         logger.WithField("component", "clip"),
	}
}

// Clip extracts the main content of page and returns a ready-to-store
// article document. The document ID, status, content hash, and timestamps
// are filled in; token counting is the caller's concern.
func (c *Clipper) Clip(page *fetch.Page) (*models.Document, error) {
	pageLog := c.log.WithField("url", page.FinalURL.String())

	title := strings.TrimSpace(page.Doc.Find("title").First().Text())

	var contentHTML string
	extracted, extractedTitle, err := c.readability.Extract(page.Doc, page.FinalURL)
	if err == nil {
		if extractedTitle != "" {
			title = extractedTitle
		}
		contentHTML, err = selectionHTML(extracted)
	}
	if err != nil {
		pageLog.Debugf("Readability extraction unusable (%v), trying fallback selectors", err)
		contentHTML, err = c.fallbackExtract(page.Doc)
		if err != nil {
			return nil, err
		}
	}

	converter := md.NewConverter("", true, nil)
	markdown, convertErr := converter.ConvertString(contentHTML)
	if convertErr != nil {
		return nil, utils.WrapErrorf(utils.ErrMarkdownConversion, "'%s': %v", page.FinalURL.String(), convertErr)
	}
	markdown = strings.TrimSpace(markdown)
	if len([]rune(markdown)) < minContentRunes {
		return nil, utils.WrapErrorf(utils.ErrExtraction, "extracted only %d characters from '%s'", len([]rune(markdown)), page.FinalURL.String())
	}

	if title == "" {
		title = "Untitled Article"
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:          uuid.NewString(),
		Kind:        models.KindArticle,
		Title:       title,
		SourceURL:   page.FinalURL.String(),
		Markdown:    markdown,
		ContentHash: utils.CalculateStringSHA256(markdown),
		Status:      models.DocStatusReady,
		CreatedAt:   now,
	}
	pageLog.WithFields(logrus.Fields{"title": title, "chars": len(markdown)}).Info("Article clipped")
	return doc, nil
}

// fallbackExtract walks fallbackSelectors until one yields enough content
func (c *Clipper) fallbackExtract(doc *goquery.Document) (string, error) {
	for _, selector := range fallbackSelectors {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			continue
		}
		html, err := selectionHTML(selection.First())
		if err != nil {
			continue
		}
		if len([]rune(stripTags(html))) >= minContentRunes {
			c.log.Debugf("Extracted content using fallback selector '%s'", selector)
			return html, nil
		}
	}
	return "", utils.WrapErrorf(utils.ErrExtraction, "no selector produced usable content")
}

// selectionHTML renders a selection (including its own tags) to HTML
func selectionHTML(sel *goquery.Selection) (string, error) {
	var sb strings.Builder
	for _, node := range sel.Nodes {
		html, err := goquery.OuterHtml(sel.FilterNodes(node))
		if err != nil {
			return "", utils.WrapErrorf(utils.ErrParsing, "HTML rendering: %v", err)
		}
		sb.WriteString(html)
	}
	return sb.String(), nil
}

// stripTags returns the text content of an HTML fragment, used only for
// length heuristics
func stripTags(html string) string {
	frag, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(frag.Text())
}
