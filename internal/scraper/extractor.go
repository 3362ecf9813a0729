package scraper

import (
	"log/slog"
	"strings"

	"github.com/maltedev/catalog-crawler/internal/browser"
	"github.com/maltedev/catalog-crawler/internal/models"
)

// Extractor reads one AttributeRecord from the page the driver is on.
type Extractor struct {
	sel    Selectors
	logger *slog.Logger
}

func NewExtractor(sel Selectors, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		sel:    sel,
		logger: logger.With("component", "extractor"),
	}
}

// Extract returns Failed with an *ExtractionError when a required field is
// missing; no partial record is ever returned.
func (e *Extractor) Extract(d browser.Driver) Outcome[models.AttributeRecord] {
	url := d.CurrentURL()

	var rec models.AttributeRecord
	var description string

	required := []struct {
		field string
		sel   Selector
		dst   *string
	}{
		{"name", e.sel.Title, &rec.Name},
		{"description", e.sel.Description, &description},
		{"price", e.sel.Price, &rec.Price},
		{"article number", e.sel.Identifier, &rec.ArticleNum},
		{"summary", e.sel.Summary, &rec.Summary},
	}

	for _, f := range required {
		text, err := readText(d, f.sel)
		if err != nil {
			return Failure[models.AttributeRecord](&ExtractionError{Field: f.field, URL: url, Err: err})
		}
		*f.dst = text
	}

	rec.Color = ParseColor(description)
	rec.Dimension = e.dimension(d)

	e.logger.Debug("extracted record", "url", url, "name", rec.Name, "article", rec.ArticleNum)
	return Success(rec)
}

func (e *Extractor) dimension(d browser.Driver) string {
	text, err := readText(d, e.sel.Measurement)
	if err != nil || text == "" {
		return models.NotSpecified
	}
	return text
}

// ParseColor takes the second comma-separated segment of a product
// description, or the whole description when there is no comma.
func ParseColor(description string) string {
	parts := strings.Split(description, ",")
	if len(parts) < 2 {
		return description
	}
	return strings.TrimSpace(parts[1])
}

func readText(scope finder, s Selector) (string, error) {
	el, err := find(scope, s)
	if err != nil {
		return "", err
	}
	return el.Text()
}
