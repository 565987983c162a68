// Package fetch retrieves article pages for the clipper: a configured HTTP
// client, a robots.txt gate, and a bounded-concurrency page fetcher.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/vakya-app/vakya/pkg/config"
	"github.com/vakya-app/vakya/pkg/utils"
)

// maxConcurrentFetches bounds simultaneous outbound page fetches across all
// API callers so a burst of clips cannot hammer a single origin.
const maxConcurrentFetches = 4

// Page is a fetched and parsed article page
type Page struct {
	Doc      *goquery.Document
	FinalURL *url.URL // URL after redirects, base for relative links
}

// Fetcher downloads article pages, honoring robots.txt when configured
type Fetcher struct {
	client *http.Client
	robots *RobotsGate
	cfg    config.FetchConfig
	sem    *semaphore.Weighted
	log    *logrus.Entry
}

// NewFetcher creates a Fetcher from the fetch configuration
func NewFetcher(cfg config.FetchConfig, logger *logrus.Logger) *Fetcher {
	client := NewClient(cfg.HTTPClient, logger)
	entry := logger.WithField("component", "fetch")
	return &Fetcher{
		client: client,
		robots: NewRobotsGate(client, cfg.UserAgent, entry),
		cfg:    cfg,
		sem:    semaphore.NewWeighted(maxConcurrentFetches),
		log:    entry,
	}
}

// FetchPage downloads rawURL and parses it into a goquery document.
// Returns wrapped sentinel errors for robots denial, HTTP status classes,
// and body/parse failures so callers can categorize them.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	target, err := url.Parse(rawURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		return nil, utils.WrapErrorf(utils.ErrParsing, "invalid article URL '%s'", rawURL)
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring fetch slot: %w", err)
	}
	defer f.sem.Release(1)

	if f.cfg.RespectRobotsEnabled() && !f.robots.Allowed(ctx, target) {
		return nil, utils.WrapErrorf(utils.ErrRobotsDisallowed, "'%s'", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrRequestCreation, "'%s': %v", rawURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching '%s': %w", rawURL, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		io.Copy(io.Discard, resp.Body)
		return nil, err
	}

	body := io.Reader(resp.Body)
	if f.cfg.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.cfg.MaxBodyBytes)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrParsing, "HTML of '%s': %v", rawURL, err)
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	f.log.WithFields(logrus.Fields{"url": rawURL, "final_url": finalURL.String(), "status": resp.StatusCode}).
		Debug("Page fetched")
	return &Page{Doc: doc, FinalURL: finalURL}, nil
}

// statusError maps a non-2xx status code onto the matching sentinel
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 400 && code < 500:
		return fmt.Errorf("HTTP status %d : %w", code, utils.ErrClientHTTPError)
	case code >= 500:
		return fmt.Errorf("HTTP status %d : %w", code, utils.ErrServerHTTPError)
	default:
		return fmt.Errorf("HTTP status %d : %w", code, utils.ErrOtherHTTPError)
	}
}
