package scraper

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/maltedev/catalog-crawler/internal/browser"
	"github.com/maltedev/catalog-crawler/internal/models"
)

// Traverser walks the color variants of a product whose page is loaded.
type Traverser struct {
	driver      browser.Driver
	extractor   *Extractor
	sel         Selectors
	settleDelay time.Duration
	logger      *slog.Logger
}

func NewTraverser(d browser.Driver, ex *Extractor, sel Selectors, settleDelay time.Duration, logger *slog.Logger) *Traverser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Traverser{
		driver:      d,
		extractor:   ex,
		sel:         sel,
		settleDelay: settleDelay,
		logger:      logger.With("component", "traverser"),
	}
}

// DiscoverVariants collects the link targets inside the first variant region
// of the current page. Links are kept in document order, duplicates included.
func (t *Traverser) DiscoverVariants(baseURL string) models.VariantGroup {
	group := models.VariantGroup{BaseURL: baseURL}

	regions, err := findAll(t.driver, t.sel.VariantRegion)
	if err != nil || len(regions) == 0 {
		return group
	}

	anchors, err := findAll(regions[0], t.sel.VariantLink)
	if err != nil {
		t.logger.Warn("failed to enumerate variant links", "url", baseURL, "error", err)
		return group
	}

	for _, a := range anchors {
		href, err := a.Attribute("href")
		if err != nil || href == "" {
			continue
		}
		group.Links = append(group.Links, href)
	}
	return group
}

// Traverse yields the record of the already loaded base page first, then one
// outcome per variant link. A failed variant is yielded as Failed and the
// walk continues with the next link.
func (t *Traverser) Traverse(ctx context.Context, baseURL string) iter.Seq[Outcome[models.AttributeRecord]] {
	return func(yield func(Outcome[models.AttributeRecord]) bool) {
		group := t.DiscoverVariants(baseURL)
		t.logger.Info("variant group discovered", "url", baseURL, "variants", len(group.Links))

		if !yield(t.extractor.Extract(t.driver)) {
			return
		}

		for _, link := range group.Links {
			if ctx.Err() != nil {
				return
			}

			if err := t.driver.Navigate(ctx, link); err != nil {
				t.logger.Warn("skipping variant", "url", link, "error", err)
				if !yield(Failure[models.AttributeRecord](&NavigationError{URL: link, Err: err})) {
					return
				}
				continue
			}
			if err := Settle(ctx, t.settleDelay); err != nil {
				yield(Failure[models.AttributeRecord](&NavigationError{URL: link, Err: err}))
				return
			}

			if !yield(t.extractor.Extract(t.driver)) {
				return
			}
		}
	}
}
