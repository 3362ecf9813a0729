// Package scraper turns storefront pages into attribute records: it resolves
// catalog names through the site search, walks a product's color variants and
// extracts one record per listing page.
package scraper

import (
	"errors"
	"fmt"
)

// ErrNoResults means a search produced no listing that matches the catalog name.
var ErrNoResults = errors.New("no matching search results")

// ExtractionError reports a required field that could not be read from a page.
// The record for that page is discarded.
type ExtractionError struct {
	Field string
	URL   string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s from %s: %v", e.Field, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NavigationError reports a page that failed to load or settle.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
