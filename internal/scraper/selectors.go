package scraper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maltedev/catalog-crawler/internal/browser"
)

// Selector locates one kind of element on a storefront page.
type Selector struct {
	By    browser.By `yaml:"by"`
	Value string     `yaml:"value"`
}

func (s Selector) IsZero() bool { return s.Value == "" }

// Selectors describes the storefront markup the crawler depends on.
type Selectors struct {
	SearchInput   Selector `yaml:"search_input"`
	SearchButton  Selector `yaml:"search_button"`
	ResultCard    Selector `yaml:"result_card"`
	CardName      Selector `yaml:"card_name"`
	CardNameAttr  string   `yaml:"card_name_attr"`
	CardLink      Selector `yaml:"card_link"`
	VariantRegion Selector `yaml:"variant_region"`
	VariantLink   Selector `yaml:"variant_link"`
	Title         Selector `yaml:"title"`
	Description   Selector `yaml:"description"`
	Price         Selector `yaml:"price"`
	Identifier    Selector `yaml:"identifier"`
	Summary       Selector `yaml:"summary"`
	Measurement   Selector `yaml:"measurement"`
	CookieAccept  Selector `yaml:"cookie_accept"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		SearchInput:   Selector{browser.ByID, "ikea-search-input"},
		SearchButton:  Selector{browser.ByXPath, "/html/body/header/div/div[2]/div/div/form/div[1]/div/span[2]/span[2]/div/button"},
		ResultCard:    Selector{browser.ByClassName, "plp-fragment-wrapper"},
		CardName:      Selector{browser.ByCSS, "div[data-product-name]"},
		CardNameAttr:  "data-product-name",
		CardLink:      Selector{browser.ByClassName, "plp-product__image-link"},
		VariantRegion: Selector{browser.ByClassName, "pip-product-styles__items"},
		VariantLink:   Selector{browser.ByTagName, "a"},
		Title:         Selector{browser.ByClassName, "pip-header-section__title--big"},
		Description:   Selector{browser.ByClassName, "pip-header-section__description-text"},
		Price:         Selector{browser.ByClassName, "pip-temp-price__integer"},
		Identifier:    Selector{browser.ByClassName, "pip-product-identifier__value"},
		Summary:       Selector{browser.ByClassName, "pip-product-summary__description"},
		Measurement:   Selector{browser.ByClassName, "pip-header-section__description-measurement"},
		CookieAccept:  Selector{browser.ByID, "onetrust-accept-btn-handler"},
	}
}

// LoadSelectors overlays the YAML file at path onto the defaults. An empty
// path returns the defaults unchanged.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("failed to read selectors file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return sel, fmt.Errorf("failed to parse selectors file: %w", err)
	}
	return sel, nil
}

// finder is satisfied by both a Driver and an Element.
type finder interface {
	FindElement(by browser.By, selector string) (browser.Element, error)
	FindElements(by browser.By, selector string) ([]browser.Element, error)
}

func find(scope finder, s Selector) (browser.Element, error) {
	return scope.FindElement(s.By, s.Value)
}

func findAll(scope finder, s Selector) ([]browser.Element, error) {
	return scope.FindElements(s.By, s.Value)
}
