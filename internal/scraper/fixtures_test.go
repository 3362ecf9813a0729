package scraper_test

import (
	"fmt"
	"strings"
)

const (
	landingURL = "https://shop.test/my/en/"
	searchURL  = "https://shop.test/my/en/search/"
)

const landingPage = `<html><body>
<header><form action="/my/en/search/" method="get"><input id="ikea-search-input" name="q" value=""></form></header>
</body></html>`

type card struct {
	name string
	href string
}

func resultsPage(cards ...card) string {
	var b strings.Builder
	b.WriteString(`<html><body><form action="/my/en/search/"><input id="ikea-search-input" name="q"></form><div class="plp-grid">`)
	for _, c := range cards {
		fmt.Fprintf(&b, `<div class="plp-fragment-wrapper"><div data-product-name=%q>%s</div>`, c.name, c.name)
		if c.href != "" {
			fmt.Fprintf(&b, `<a class="plp-product__image-link" href=%q><img src="x.jpg"></a>`, c.href)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

type product struct {
	title       string
	description string
	price       string
	article     string
	summary     string
	measurement string
	variants    []string
}

func productPage(p product) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="pip-header-section">`)
	fmt.Fprintf(&b, `<span class="pip-header-section__title--big">%s</span>`, p.title)
	fmt.Fprintf(&b, `<span class="pip-header-section__description-text">%s</span>`, p.description)
	if p.measurement != "" {
		fmt.Fprintf(&b, `<span class="pip-header-section__description-measurement">%s</span>`, p.measurement)
	}
	b.WriteString(`</div>`)
	if p.price != "" {
		fmt.Fprintf(&b, `<span class="pip-temp-price__integer">%s</span>`, p.price)
	}
	fmt.Fprintf(&b, `<span class="pip-product-identifier__value">%s</span>`, p.article)
	fmt.Fprintf(&b, `<p class="pip-product-summary__description">%s</p>`, p.summary)
	if p.variants != nil {
		b.WriteString(`<div class="pip-product-styles__items">`)
		for _, v := range p.variants {
			fmt.Fprintf(&b, `<a href=%q><img alt="swatch"></a>`, v)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func billy(color, article string, variants ...string) product {
	return product{
		title:       "BILLY",
		description: "Bookcase, " + color + ", 80x28x202 cm",
		price:       "299",
		article:     article,
		summary:     "Adjustable shelves for your needs.",
		measurement: "80x28x202 cm",
		variants:    variants,
	}
}
