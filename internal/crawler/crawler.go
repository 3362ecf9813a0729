// Package crawler drives the catalog crawl: one entry at a time it resolves
// the product name, walks every variant of each matching listing and appends
// each record to the sink as soon as it is extracted.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/catalog-crawler/internal/browser"
	"github.com/maltedev/catalog-crawler/internal/models"
	"github.com/maltedev/catalog-crawler/internal/ratelimit"
	"github.com/maltedev/catalog-crawler/internal/scraper"
	"github.com/maltedev/catalog-crawler/internal/storage"
)

const DefaultLandingURL = "https://www.ikea.com/my/en/"

type Config struct {
	LandingURL  string
	WaitTimeout time.Duration
	SettleDelay time.Duration
	Selectors   scraper.Selectors
}

func DefaultConfig() Config {
	return Config{
		LandingURL:  DefaultLandingURL,
		WaitTimeout: 10 * time.Second,
		SettleDelay: 2 * time.Second,
		Selectors:   scraper.DefaultSelectors(),
	}
}

// feedback is implemented by pacers that adapt to entry outcomes.
type feedback interface {
	RecordSuccess()
	RecordError()
}

type Option func(*Orchestrator)

func WithPacer(p ratelimit.RateLimiter) Option {
	return func(o *Orchestrator) { o.pacer = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// Orchestrator owns one browser session for the length of a run.
type Orchestrator struct {
	driver    browser.Driver
	sink      storage.Sink
	cfg       Config
	pacer     ratelimit.RateLimiter
	resolver  *scraper.Resolver
	traverser *scraper.Traverser
	logger    *slog.Logger
}

func New(d browser.Driver, sink storage.Sink, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		driver: d,
		sink:   sink,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "crawler")

	extractor := scraper.NewExtractor(cfg.Selectors, o.logger)
	o.resolver = scraper.NewResolver(d, cfg.Selectors, cfg.WaitTimeout, cfg.SettleDelay, o.logger)
	o.traverser = scraper.NewTraverser(d, extractor, cfg.Selectors, cfg.SettleDelay, o.logger)
	return o
}

// Run crawls every catalog entry in order. A failing entry is logged and the
// run moves on; only cancellation of ctx stops it early, in which case the
// report so far is returned with ctx's error.
func (o *Orchestrator) Run(ctx context.Context, catalog models.Catalog) (*Report, error) {
	report := &Report{StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	o.logger.Info("starting crawl", "entries", catalog.Len(), "landing", o.cfg.LandingURL)
	o.bootstrap(ctx)

	for i, name := range catalog.Names() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if o.pacer != nil {
			if err := o.pacer.Wait(ctx); err != nil {
				return report, err
			}
		}

		o.logger.Info("processing product", "product", name, "index", i+1, "total", catalog.Len())
		entry := o.processEntry(ctx, name)
		report.Entries = append(report.Entries, entry)
		o.recordFeedback(entry)

		o.logger.Info("product finished",
			"product", name,
			"state", entry.State,
			"urls", len(entry.URLs),
			"records", entry.Records,
			"variant_failures", entry.VariantFailures)

		o.returnToLanding(ctx)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	o.logger.Info("crawl completed", "entries", len(report.Entries), "records", report.Records())
	return report, nil
}

func (o *Orchestrator) processEntry(ctx context.Context, name string) (entry EntryReport) {
	entry = EntryReport{Product: name, State: Idle}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("product processing panicked", "product", name, "panic", r)
			entry.State = Failed
			entry.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	o.transition(&entry, Searching)
	resolved := o.resolver.Resolve(ctx, name)
	switch resolved.Status {
	case scraper.Absent:
		o.transition(&entry, NoResults)
		return entry
	case scraper.Failed:
		o.fail(&entry, fmt.Errorf("search failed: %w", resolved.Err))
		return entry
	}

	o.transition(&entry, ResultsFound)
	entry.URLs = resolved.Value

	for _, url := range resolved.Value {
		if err := ctx.Err(); err != nil {
			o.fail(&entry, err)
			return entry
		}

		if err := o.driver.Navigate(ctx, url); err != nil {
			o.fail(&entry, &scraper.NavigationError{URL: url, Err: err})
			return entry
		}
		if err := scraper.Settle(ctx, o.cfg.SettleDelay); err != nil {
			o.fail(&entry, err)
			return entry
		}

		o.transition(&entry, TraversingVariants)
		for out := range o.traverser.Traverse(ctx, url) {
			if !out.OK() {
				entry.VariantFailures++
				o.logger.Warn("variant skipped", "product", name, "error", out.Err)
				continue
			}
			o.transition(&entry, Persisting)
			o.persist(ctx, &entry, out.Value)
		}
	}

	o.transition(&entry, Done)
	return entry
}

func (o *Orchestrator) persist(ctx context.Context, entry *EntryReport, rec models.AttributeRecord) {
	if err := o.sink.Append(ctx, rec); err != nil {
		entry.SinkFailures++
		o.logger.Error("failed to persist record", "product", entry.Product, "article", rec.ArticleNum, "error", err)
		return
	}
	entry.Records++
	o.logger.Info("record saved",
		"name", rec.Name,
		"color", rec.Color,
		"price", rec.Price,
		"article", rec.ArticleNum,
		"dimension", rec.Dimension)
}

func (o *Orchestrator) transition(entry *EntryReport, next State) {
	if entry.State == next {
		return
	}
	o.logger.Debug("state change", "product", entry.Product, "from", entry.State, "to", next)
	entry.State = next
}

func (o *Orchestrator) fail(entry *EntryReport, err error) {
	o.logger.Warn("product failed", "product", entry.Product, "state", entry.State, "error", err)
	entry.State = Failed
	entry.Error = err.Error()
}

func (o *Orchestrator) recordFeedback(entry EntryReport) {
	fb, ok := o.pacer.(feedback)
	if !ok {
		return
	}
	if entry.State == Failed {
		fb.RecordError()
	} else {
		fb.RecordSuccess()
	}
}

// bootstrap opens the landing page and dismisses the cookie banner if one
// shows up. Neither step is fatal.
func (o *Orchestrator) bootstrap(ctx context.Context) {
	if err := o.driver.Navigate(ctx, o.cfg.LandingURL); err != nil {
		o.logger.Warn("failed to open landing page", "url", o.cfg.LandingURL, "error", err)
		return
	}

	cookie := o.cfg.Selectors.CookieAccept
	if cookie.IsZero() {
		return
	}
	err := o.driver.WaitUntil(ctx, browser.ElementPresent(cookie.By, cookie.Value), o.cfg.WaitTimeout)
	if err != nil {
		o.logger.Info("no cookie consent popup found or already accepted")
		return
	}
	button, err := o.driver.FindElement(cookie.By, cookie.Value)
	if err == nil {
		err = button.Click()
	}
	if err != nil {
		o.logger.Warn("failed to accept cookies", "error", err)
		return
	}
	_ = scraper.Settle(ctx, o.cfg.SettleDelay/2)
}

func (o *Orchestrator) returnToLanding(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := o.driver.Navigate(ctx, o.cfg.LandingURL); err != nil {
		o.logger.Warn("failed to return to landing page", "url", o.cfg.LandingURL, "error", err)
		return
	}
	_ = scraper.Settle(ctx, o.cfg.SettleDelay)
}

// RunSession acquires a browser session, crawls catalog with it and releases
// it on every path. The returned error wraps browser.ErrSessionUnavailable
// when no session could be opened.
func RunSession(ctx context.Context, open browser.Opener, sink storage.Sink, cfg Config, catalog models.Catalog, opts ...Option) (*Report, error) {
	var report *Report
	err := browser.WithSession(ctx, open, func(d browser.Driver) error {
		var err error
		report, err = New(d, sink, cfg, opts...).Run(ctx, catalog)
		return err
	})
	return report, err
}
