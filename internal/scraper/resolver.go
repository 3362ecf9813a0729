package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/catalog-crawler/internal/browser"
	"github.com/maltedev/catalog-crawler/internal/models"
	"github.com/maltedev/catalog-crawler/internal/normalize"
)

// Resolver turns a catalog name into the detail URLs of matching search results.
type Resolver struct {
	driver      browser.Driver
	sel         Selectors
	waitTimeout time.Duration
	settleDelay time.Duration
	logger      *slog.Logger
}

func NewResolver(d browser.Driver, sel Selectors, waitTimeout, settleDelay time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		driver:      d,
		sel:         sel,
		waitTimeout: waitTimeout,
		settleDelay: settleDelay,
		logger:      logger.With("component", "resolver"),
	}
}

// Resolve searches for name and returns the detail URLs of every result card
// whose normalized name equals the normalized catalog name, in document order.
// No result region within the wait timeout, or no matching card, is Absent
// with ErrNoResults. Any lookup failure along the way is Failed.
func (r *Resolver) Resolve(ctx context.Context, name string) Outcome[[]string] {
	if err := r.submitSearch(ctx, name); err != nil {
		return Failure[[]string](err)
	}

	err := r.driver.WaitUntil(ctx, browser.ElementPresent(r.sel.ResultCard.By, r.sel.ResultCard.Value), r.waitTimeout)
	switch {
	case errors.Is(err, browser.ErrWaitTimeout):
		r.logger.Info("no search results", "product", name)
		return Absence[[]string](ErrNoResults)
	case err != nil:
		return Failure[[]string](fmt.Errorf("failed waiting for search results: %w", err))
	}
	if err := Settle(ctx, r.settleDelay); err != nil {
		return Failure[[]string](err)
	}

	results, err := r.readResults(name)
	if err != nil {
		return Failure[[]string](err)
	}

	var urls []string
	displayed := make([]string, 0, len(results))
	for _, res := range results {
		displayed = append(displayed, res.DisplayName)
		if res.DetailURL != "" {
			urls = append(urls, res.DetailURL)
		}
	}

	if len(urls) == 0 {
		if best, score, ok := normalize.Closest(name, displayed); ok {
			r.logger.Info("no matching search results", "product", name, "cards", len(results), "closest", best, "similarity", score)
		} else {
			r.logger.Info("no matching search results", "product", name, "cards", len(results))
		}
		return Absence[[]string](ErrNoResults)
	}

	r.logger.Info("resolved product", "product", name, "cards", len(results), "matches", len(urls))
	return Success(urls)
}

func (r *Resolver) submitSearch(ctx context.Context, name string) error {
	input := r.sel.SearchInput
	if err := r.driver.WaitUntil(ctx, browser.ElementPresent(input.By, input.Value), r.waitTimeout); err != nil {
		return fmt.Errorf("search input not available: %w", err)
	}

	el, err := find(r.driver, input)
	if err != nil {
		return fmt.Errorf("failed to locate search input: %w", err)
	}
	if err := el.Clear(); err != nil {
		return fmt.Errorf("failed to clear search input: %w", err)
	}
	if err := el.SendKeys(name); err != nil {
		return fmt.Errorf("failed to type search query: %w", err)
	}
	if err := el.SendKeys(browser.KeyEnter); err != nil {
		return fmt.Errorf("failed to submit search: %w", err)
	}
	if err := Settle(ctx, r.settleDelay); err != nil {
		return err
	}

	if r.sel.SearchButton.IsZero() {
		return nil
	}
	button, err := find(r.driver, r.sel.SearchButton)
	if err != nil {
		r.logger.Debug("search button not found, relying on enter key", "error", err)
		return nil
	}
	if err := button.Click(); err != nil {
		r.logger.Debug("search button click failed", "error", err)
	}
	return nil
}

// readResults reads every rendered result card in document order. The detail
// link is read only for cards whose normalized name equals the catalog name.
func (r *Resolver) readResults(name string) ([]models.SearchResult, error) {
	cards, err := findAll(r.driver, r.sel.ResultCard)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate result cards: %w", err)
	}

	want := normalize.Name(name)
	results := make([]models.SearchResult, 0, len(cards))
	for i, card := range cards {
		nameEl, err := find(card, r.sel.CardName)
		if err != nil {
			return nil, fmt.Errorf("result card %d: %w", i, err)
		}
		display, err := nameEl.Attribute(r.sel.CardNameAttr)
		if err != nil {
			return nil, fmt.Errorf("result card %d: failed to read name: %w", i, err)
		}
		res := models.SearchResult{DisplayName: display}

		if normalize.Name(display) == want {
			link, err := find(card, r.sel.CardLink)
			if err != nil {
				return nil, fmt.Errorf("result card %d: %w", i, err)
			}
			if res.DetailURL, err = link.Attribute("href"); err != nil {
				return nil, fmt.Errorf("result card %d: failed to read link: %w", i, err)
			}
			r.logger.Debug("matching result card", "product", name, "url", res.DetailURL)
		}
		results = append(results, res)
	}
	return results, nil
}
