// Package browsertest serves canned HTML to a browser.DocumentDriver so crawl
// logic can be exercised without a real browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/maltedev/catalog-crawler/internal/browser"
)

// Pages maps absolute URLs to the HTML served for them.
type Pages map[string]string

// Site is a Fetcher over a fixed set of pages that records every fetch.
type Site struct {
	mu     sync.Mutex
	pages  Pages
	visits []string
}

func NewSite(pages Pages) *Site {
	return &Site{pages: pages}
}

func (s *Site) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.visits = append(s.visits, url)
	html, ok := s.pages[url]
	if !ok {
		return "", fmt.Errorf("unexpected status code: 404 (%s)", url)
	}
	return html, nil
}

// Set adds or replaces a page.
func (s *Site) Set(url, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
}

// Visits returns the URLs fetched so far, in order.
func (s *Site) Visits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visits...)
}

// NewDriver returns a DocumentDriver over the given pages.
func NewDriver(pages Pages) (*browser.DocumentDriver, *Site) {
	site := NewSite(pages)
	return browser.NewDocumentDriver(site), site
}

// Opener returns an Opener yielding fresh drivers over the same site.
func (s *Site) Opener() browser.Opener {
	return browser.OpenDocument(s)
}
