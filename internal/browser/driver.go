package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// By names the kind of selector passed to FindElement and FindElements.
type By string

const (
	ByCSS       By = "css"
	ByXPath     By = "xpath"
	ByClassName By = "class"
	ByID        By = "id"
	ByTagName   By = "tag"
)

// KeyEnter is the WebDriver code point for the Enter key. SendKeys submits the
// surrounding form when the text contains it.
const KeyEnter = "\ue007"

var (
	ErrSessionUnavailable  = errors.New("browser session unavailable")
	ErrUnsupportedSelector = errors.New("unsupported selector kind")
	ErrWaitTimeout         = errors.New("timed out waiting for condition")
)

// ElementNotFoundError is returned when a selector matches nothing.
type ElementNotFoundError struct {
	By       By
	Selector string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s=%q", e.By, e.Selector)
}

// IsElementNotFound reports whether err carries an ElementNotFoundError.
func IsElementNotFound(err error) bool {
	var nf *ElementNotFoundError
	return errors.As(err, &nf)
}

// Driver is the narrow browser capability the crawl pipeline consumes.
// A Driver is one live session and is not safe for concurrent use.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL() string
	FindElement(by By, selector string) (Element, error)
	FindElements(by By, selector string) ([]Element, error)
	WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error
	Quit() error
}

// Element is a handle to one node of the currently loaded page.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
	FindElement(by By, selector string) (Element, error)
	FindElements(by By, selector string) ([]Element, error)
	SendKeys(text string) error
	Clear() error
	Click() error
}

// Condition is polled by WaitUntil until it returns true or an error.
type Condition func(d Driver) (bool, error)

// ElementPresent is satisfied once the selector matches at least one element.
func ElementPresent(by By, selector string) Condition {
	return func(d Driver) (bool, error) {
		elems, err := d.FindElements(by, selector)
		if err != nil {
			return false, err
		}
		return len(elems) > 0, nil
	}
}

const pollInterval = 100 * time.Millisecond

// Poll evaluates cond until it holds, fails, the timeout elapses or ctx ends.
func Poll(ctx context.Context, d Driver, cond Condition, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := cond(d)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrWaitTimeout
		}

		wait := min(pollInterval, time.Until(deadline))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Opener acquires a fresh browser session.
type Opener func(ctx context.Context) (Driver, error)

// WithSession opens a session, hands it to fn and always releases it,
// including when fn fails or panics.
func WithSession(ctx context.Context, open Opener, fn func(Driver) error) (err error) {
	d, err := open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}
	defer func() {
		if qerr := d.Quit(); qerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to quit browser: %w", qerr))
		}
	}()

	return fn(d)
}
