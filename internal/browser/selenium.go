package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// SeleniumOptions configures a WebDriver session. When ChromeDriverPath is
// set a local chromedriver is started on Port; otherwise RemoteURL is used.
type SeleniumOptions struct {
	RemoteURL        string
	ChromeDriverPath string
	Port             int
	Browser          *Options
}

// SeleniumDriver drives a browser through the WebDriver protocol.
type SeleniumDriver struct {
	wd      selenium.WebDriver
	service *selenium.Service
	opts    *Options
	logger  *slog.Logger
}

func NewSelenium(sopts SeleniumOptions) (*SeleniumDriver, error) {
	opts := sopts.Browser
	if opts == nil {
		opts = DefaultOptions()
	}

	var service *selenium.Service
	remote := sopts.RemoteURL
	if sopts.ChromeDriverPath != "" {
		svc, err := selenium.NewChromeDriverService(sopts.ChromeDriverPath, sopts.Port)
		if err != nil {
			return nil, fmt.Errorf("failed to start chromedriver: %w", err)
		}
		service = svc
		remote = fmt.Sprintf("http://localhost:%d/wd/hub", sopts.Port)
	}

	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-blink-features=AutomationControlled",
		fmt.Sprintf("--window-size=%d,%d", opts.ViewportWidth, opts.ViewportHeight),
		fmt.Sprintf("--lang=%s", opts.Locale),
	}
	if opts.Headless {
		args = append(args, "--headless=new")
	}
	if opts.UserAgent != "" {
		args = append(args, fmt.Sprintf("--user-agent=%s", opts.UserAgent))
	}
	if opts.ProxyServer != "" {
		args = append(args, fmt.Sprintf("--proxy-server=%s", opts.ProxyServer))
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chrome.Capabilities{
		Args:            args,
		ExcludeSwitches: []string{"enable-automation"},
	})

	wd, err := selenium.NewRemote(caps, remote)
	if err != nil {
		if service != nil {
			service.Stop()
		}
		return nil, fmt.Errorf("failed to create webdriver session: %w", err)
	}

	if err := wd.SetPageLoadTimeout(opts.Timeout); err != nil {
		slog.Warn("failed to set page load timeout", "error", err)
	}

	return &SeleniumDriver{
		wd:      wd,
		service: service,
		opts:    opts,
		logger:  slog.Default().With("component", "selenium"),
	}, nil
}

// OpenSelenium adapts NewSelenium to an Opener.
func OpenSelenium(sopts SeleniumOptions) Opener {
	return func(ctx context.Context) (Driver, error) {
		return NewSelenium(sopts)
	}
}

func (s *SeleniumDriver) Navigate(ctx context.Context, url string) error {
	attempts := max(s.opts.NavigationRetries, 1)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			s.logger.Debug("retrying navigation", "url", url, "attempt", attempt+1)
		}
		if lastErr = s.wd.Get(url); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("navigation to %s failed: %w", url, lastErr)
}

func (s *SeleniumDriver) CurrentURL() string {
	u, err := s.wd.CurrentURL()
	if err != nil {
		return ""
	}
	return u
}

func (s *SeleniumDriver) FindElement(by By, selector string) (Element, error) {
	kind, err := seleniumBy(by)
	if err != nil {
		return nil, err
	}
	we, err := s.wd.FindElement(kind, selector)
	if err != nil {
		return nil, seleniumLookupError(err, by, selector)
	}
	return &seleniumElement{we: we}, nil
}

func (s *SeleniumDriver) FindElements(by By, selector string) ([]Element, error) {
	kind, err := seleniumBy(by)
	if err != nil {
		return nil, err
	}
	wes, err := s.wd.FindElements(kind, selector)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, err
	}
	return wrapSeleniumElements(wes), nil
}

func (s *SeleniumDriver) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error {
	return Poll(ctx, s, cond, timeout)
}

func (s *SeleniumDriver) Quit() error {
	err := s.wd.Quit()
	if s.service != nil {
		if serr := s.service.Stop(); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

type seleniumElement struct {
	we selenium.WebElement
}

func (e *seleniumElement) Text() (string, error) {
	text, err := e.we.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (e *seleniumElement) Attribute(name string) (string, error) {
	return e.we.GetAttribute(name)
}

func (e *seleniumElement) FindElement(by By, selector string) (Element, error) {
	kind, err := seleniumBy(by)
	if err != nil {
		return nil, err
	}
	we, err := e.we.FindElement(kind, selector)
	if err != nil {
		return nil, seleniumLookupError(err, by, selector)
	}
	return &seleniumElement{we: we}, nil
}

func (e *seleniumElement) FindElements(by By, selector string) ([]Element, error) {
	kind, err := seleniumBy(by)
	if err != nil {
		return nil, err
	}
	wes, err := e.we.FindElements(kind, selector)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, err
	}
	return wrapSeleniumElements(wes), nil
}

func (e *seleniumElement) SendKeys(text string) error { return e.we.SendKeys(text) }
func (e *seleniumElement) Clear() error               { return e.we.Clear() }
func (e *seleniumElement) Click() error               { return e.we.Click() }

func wrapSeleniumElements(wes []selenium.WebElement) []Element {
	elems := make([]Element, 0, len(wes))
	for _, we := range wes {
		elems = append(elems, &seleniumElement{we: we})
	}
	return elems
}

func seleniumBy(by By) (string, error) {
	switch by {
	case ByCSS:
		return selenium.ByCSSSelector, nil
	case ByXPath:
		return selenium.ByXPATH, nil
	case ByClassName:
		return selenium.ByClassName, nil
	case ByID:
		return selenium.ByID, nil
	case ByTagName:
		return selenium.ByTagName, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSelector, by)
	}
}

func isNoSuchElement(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such element")
}

func seleniumLookupError(err error, by By, selector string) error {
	if isNoSuchElement(err) {
		return &ElementNotFoundError{By: by, Selector: selector}
	}
	return err
}
