package scraper_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/catalog-crawler/internal/browser"
	"github.com/maltedev/catalog-crawler/internal/browser/browsertest"
	"github.com/maltedev/catalog-crawler/internal/models"
	"github.com/maltedev/catalog-crawler/internal/scraper"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"White, Oak veneer, 120 cm", "Oak veneer"},
		{"Solid beech", "Solid beech"},
		{"Bookcase,  black-brown  ", "black-brown"},
		{"Bookcase,", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, scraper.ParseColor(tt.description))
		})
	}
}

func extractAt(t *testing.T, p product) scraper.Outcome[models.AttributeRecord] {
	t.Helper()
	const url = "https://shop.test/my/en/p/item/"
	d, _ := browsertest.NewDriver(browsertest.Pages{url: productPage(p)})
	require.NoError(t, d.Navigate(context.Background(), url))
	return scraper.NewExtractor(scraper.DefaultSelectors(), nil).Extract(d)
}

func TestExtractor_Extract(t *testing.T) {
	out := extractAt(t, billy("white", "002.638.50"))

	require.True(t, out.OK(), "unexpected failure: %v", out.Err)
	assert.Equal(t, models.AttributeRecord{
		Name:       "BILLY",
		Color:      "white",
		Price:      "299",
		ArticleNum: "002.638.50",
		Summary:    "Adjustable shelves for your needs.",
		Dimension:  "80x28x202 cm",
	}, out.Value)
}

func TestExtractor_ColorFallback(t *testing.T) {
	p := billy("white", "1")
	p.description = "Solid beech"

	out := extractAt(t, p)
	require.True(t, out.OK())
	assert.Equal(t, "Solid beech", out.Value.Color)
}

func TestExtractor_MissingMeasurement(t *testing.T) {
	p := billy("white", "1")
	p.measurement = ""

	out := extractAt(t, p)
	require.True(t, out.OK())
	assert.Equal(t, models.NotSpecified, out.Value.Dimension)
}

func TestExtractor_MissingRequiredField(t *testing.T) {
	tests := []struct {
		field string
		class string
	}{
		{field: "name", class: "pip-header-section__title--big"},
		{field: "description", class: "pip-header-section__description-text"},
		{field: "price", class: "pip-temp-price__integer"},
		{field: "article number", class: "pip-product-identifier__value"},
		{field: "summary", class: "pip-product-summary__description"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			const url = "https://shop.test/my/en/p/item/"
			page := strings.Replace(productPage(billy("white", "1")), `class="`+tt.class+`"`, `class="removed"`, 1)
			d, _ := browsertest.NewDriver(browsertest.Pages{url: page})
			require.NoError(t, d.Navigate(context.Background(), url))

			out := scraper.NewExtractor(scraper.DefaultSelectors(), nil).Extract(d)

			assert.Equal(t, scraper.Failed, out.Status)
			assert.Equal(t, models.AttributeRecord{}, out.Value)

			var exErr *scraper.ExtractionError
			require.True(t, errors.As(out.Err, &exErr))
			assert.Equal(t, tt.field, exErr.Field)
			assert.Equal(t, url, exErr.URL)
			assert.True(t, browser.IsElementNotFound(out.Err))
		})
	}
}
