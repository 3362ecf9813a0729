package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
)

var ErrStaleElement = errors.New("stale element reference")

// Fetcher returns the HTML served at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages over plain HTTP without executing scripts.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(opts *Options) *HTTPFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept-Language", opts.AcceptLanguage).
		SetHeaders(opts.ExtraHeaders)

	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}
	return resp.String(), nil
}

// DocumentDriver is a Driver over static HTML parsed with goquery. Forms are
// submitted with GET and anchors navigate on click; nothing else is scripted.
type DocumentDriver struct {
	fetcher    Fetcher
	doc        *goquery.Document
	current    string
	generation int
	typed      map[*html.Node]string
	logger     *slog.Logger
}

func NewDocumentDriver(fetcher Fetcher) *DocumentDriver {
	return &DocumentDriver{
		fetcher: fetcher,
		logger:  slog.Default().With("component", "document_driver"),
	}
}

// OpenDocument adapts NewDocumentDriver to an Opener.
func OpenDocument(fetcher Fetcher) Opener {
	return func(ctx context.Context) (Driver, error) {
		return NewDocumentDriver(fetcher), nil
	}
}

func (d *DocumentDriver) Navigate(ctx context.Context, rawURL string) error {
	body, err := d.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}

	d.doc = doc
	d.current = rawURL
	d.generation++
	d.typed = make(map[*html.Node]string)
	d.logger.Debug("page loaded", "url", rawURL, "bytes", len(body))
	return nil
}

func (d *DocumentDriver) CurrentURL() string {
	return d.current
}

func (d *DocumentDriver) FindElement(by By, selector string) (Element, error) {
	if d.doc == nil {
		return nil, &ElementNotFoundError{By: by, Selector: selector}
	}
	return d.first(d.doc.Selection, by, selector)
}

func (d *DocumentDriver) FindElements(by By, selector string) ([]Element, error) {
	if d.doc == nil {
		return nil, nil
	}
	return d.all(d.doc.Selection, by, selector)
}

func (d *DocumentDriver) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error {
	return Poll(ctx, d, cond, timeout)
}

func (d *DocumentDriver) Quit() error {
	d.doc = nil
	d.current = ""
	d.generation++
	d.typed = nil
	return nil
}

func (d *DocumentDriver) first(scope *goquery.Selection, by By, selector string) (Element, error) {
	elems, err := d.all(scope, by, selector)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, &ElementNotFoundError{By: by, Selector: selector}
	}
	return elems[0], nil
}

func (d *DocumentDriver) all(scope *goquery.Selection, by By, selector string) ([]Element, error) {
	css, err := cssSelector(by, selector)
	if err != nil {
		return nil, err
	}

	var elems []Element
	scope.Find(css).Each(func(_ int, s *goquery.Selection) {
		elems = append(elems, &docElement{driver: d, sel: s, generation: d.generation})
	})
	return elems, nil
}

func (d *DocumentDriver) resolve(ref string) string {
	return resolveReference(d.current, ref)
}

func cssSelector(by By, selector string) (string, error) {
	switch by {
	case ByCSS, ByTagName:
		return selector, nil
	case ByClassName:
		return "." + selector, nil
	case ByID:
		return "#" + selector, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSelector, by)
	}
}

type docElement struct {
	driver     *DocumentDriver
	sel        *goquery.Selection
	generation int
}

// value is what the field currently holds: typed text if any, else its
// markup value.
func (e *docElement) value() string {
	return e.driver.fieldValue(e.sel)
}

func (d *DocumentDriver) fieldValue(s *goquery.Selection) string {
	if v, ok := d.typed[s.Get(0)]; ok {
		return v
	}
	return s.AttrOr("value", "")
}

func (e *docElement) live() error {
	if e.generation != e.driver.generation {
		return ErrStaleElement
	}
	return nil
}

func (e *docElement) Text() (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *docElement) Attribute(name string) (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	value, ok := e.sel.Attr(name)
	if !ok {
		return "", nil
	}
	switch name {
	case "href", "src", "action":
		return e.driver.resolve(value), nil
	}
	return value, nil
}

func (e *docElement) FindElement(by By, selector string) (Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	return e.driver.first(e.sel, by, selector)
}

func (e *docElement) FindElements(by By, selector string) ([]Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	return e.driver.all(e.sel, by, selector)
}

func (e *docElement) SendKeys(text string) error {
	if err := e.live(); err != nil {
		return err
	}

	parts := strings.Split(text, KeyEnter)
	e.driver.typed[e.sel.Get(0)] = e.value() + parts[0]
	if len(parts) == 1 {
		return nil
	}
	return e.submit()
}

func (e *docElement) Clear() error {
	if err := e.live(); err != nil {
		return err
	}
	e.driver.typed[e.sel.Get(0)] = ""
	return nil
}

func (e *docElement) Click() error {
	if err := e.live(); err != nil {
		return err
	}

	switch goquery.NodeName(e.sel) {
	case "a":
		href, ok := e.sel.Attr("href")
		if !ok {
			return nil
		}
		return e.driver.Navigate(context.Background(), e.driver.resolve(href))
	case "button", "input":
		if t := strings.ToLower(e.sel.AttrOr("type", "submit")); t != "submit" {
			return nil
		}
		return e.submit()
	}
	return nil
}

// submit sends the enclosing form as a GET request.
func (e *docElement) submit() error {
	form := e.sel.Closest("form")
	if form.Length() == 0 {
		return nil
	}
	if method := strings.ToLower(form.AttrOr("method", "get")); method != "get" {
		return fmt.Errorf("unsupported form method %q", method)
	}

	action := e.driver.current
	if a, ok := form.Attr("action"); ok && a != "" {
		action = e.driver.resolve(a)
	}
	target, err := url.Parse(action)
	if err != nil {
		return fmt.Errorf("invalid form action %q: %w", action, err)
	}

	values := url.Values{}
	form.Find("input[name], textarea[name], select[name]").Each(func(_ int, s *goquery.Selection) {
		values.Add(s.AttrOr("name", ""), e.driver.fieldValue(s))
	})
	target.RawQuery = values.Encode()

	return e.driver.Navigate(context.Background(), target.String())
}
