package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Browser is a playwright-backed Driver holding a single page.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	opts    *Options
	logger  *slog.Logger
}

type Options struct {
	Headless          bool
	Timeout           time.Duration
	UserAgent         string
	ViewportWidth     int
	ViewportHeight    int
	AcceptLanguage    string
	TimezoneID        string
	Locale            string
	ProxyServer       string
	NavigationRetries int
	ExtraHeaders      map[string]string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:          true,
		Timeout:           30 * time.Second,
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		AcceptLanguage:    "en-MY,en;q=0.9",
		TimezoneID:        "Asia/Kuala_Lumpur",
		Locale:            "en-MY",
		NavigationRetries: 1,
		ExtraHeaders: map[string]string{
			"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		},
	}
}

func New(opts *Options) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
			fmt.Sprintf("--window-size=%d,%d", opts.ViewportWidth, opts.ViewportHeight),
		},
	}

	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{
			Server: opts.ProxyServer,
		}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	headers := map[string]string{"Accept-Language": opts.AcceptLanguage}
	for k, v := range opts.ExtraHeaders {
		headers[k] = v
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         &opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &opts.Locale,
		TimezoneId:        &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: headers,
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	return &Browser{
		pw:      pw,
		browser: browser,
		context: bctx,
		page:    page,
		opts:    opts,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

// Open adapts New to an Opener.
func Open(opts *Options) Opener {
	return func(ctx context.Context) (Driver, error) {
		return New(opts)
	}
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	retries := max(b.opts.NavigationRetries, 1)

	var lastErr error
	for i := 0; i < retries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			b.logger.Info("retrying navigation", "attempt", i+1, "url", url)
			time.Sleep(time.Duration(i) * time.Second)
		}

		_, err := b.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(b.opts.Timeout.Milliseconds())),
		})
		if err == nil {
			return nil
		}

		lastErr = err
		b.logger.Warn("navigation failed", "error", err, "attempt", i+1, "url", url)
	}

	return fmt.Errorf("failed after %d attempts: %w", retries, lastErr)
}

func (b *Browser) CurrentURL() string {
	return b.page.URL()
}

func (b *Browser) FindElement(by By, selector string) (Element, error) {
	return findLocator(b.page, b.locate, by, selector)
}

func (b *Browser) FindElements(by By, selector string) ([]Element, error) {
	return findLocators(b.page, b.locate, by, selector)
}

func (b *Browser) locate(selector string) playwright.Locator {
	return b.page.Locator(selector)
}

func (b *Browser) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error {
	return Poll(ctx, b, cond, timeout)
}

func (b *Browser) Quit() error {
	return b.Close()
}

func (b *Browser) Close() error {
	var errs []error

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

type locatorElement struct {
	page playwright.Page
	loc  playwright.Locator
}

func (e *locatorElement) Text() (string, error) {
	text, err := e.loc.InnerText()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Attribute resolves href and src against the page URL, matching what a
// WebDriver property read returns.
func (e *locatorElement) Attribute(name string) (string, error) {
	value, err := e.loc.GetAttribute(name)
	if err != nil {
		return "", err
	}
	if name == "href" || name == "src" {
		return resolveReference(e.page.URL(), value), nil
	}
	return value, nil
}

func (e *locatorElement) FindElement(by By, selector string) (Element, error) {
	return findLocator(e.page, e.locate, by, selector)
}

func (e *locatorElement) FindElements(by By, selector string) ([]Element, error) {
	return findLocators(e.page, e.locate, by, selector)
}

func (e *locatorElement) locate(selector string) playwright.Locator {
	return e.loc.Locator(selector)
}

func (e *locatorElement) SendKeys(text string) error {
	parts := strings.Split(text, KeyEnter)
	for i, part := range parts {
		if part != "" {
			if err := e.loc.PressSequentially(part); err != nil {
				return fmt.Errorf("failed to type: %w", err)
			}
		}
		if i < len(parts)-1 {
			if err := e.loc.Press("Enter"); err != nil {
				return fmt.Errorf("failed to press enter: %w", err)
			}
		}
	}
	return nil
}

func (e *locatorElement) Clear() error {
	return e.loc.Clear()
}

func (e *locatorElement) Click() error {
	return e.loc.Click()
}

func locatorSelector(by By, selector string) (string, error) {
	switch by {
	case ByCSS, ByTagName:
		return selector, nil
	case ByXPath:
		return "xpath=" + selector, nil
	case ByClassName:
		return "." + selector, nil
	case ByID:
		return "#" + selector, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSelector, by)
	}
}

func findLocator(page playwright.Page, locate func(string) playwright.Locator, by By, selector string) (Element, error) {
	elems, err := findLocators(page, locate, by, selector)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, &ElementNotFoundError{By: by, Selector: selector}
	}
	return elems[0], nil
}

func findLocators(page playwright.Page, locate func(string) playwright.Locator, by By, selector string) ([]Element, error) {
	sel, err := locatorSelector(by, selector)
	if err != nil {
		return nil, err
	}

	all, err := locate(sel).All()
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s=%q: %w", by, selector, err)
	}

	elems := make([]Element, 0, len(all))
	for _, loc := range all {
		elems = append(elems, &locatorElement{page: page, loc: loc})
	}
	return elems, nil
}

func resolveReference(base, ref string) string {
	if ref == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
