package models

import (
	"fmt"
	"slices"
)

// NotSpecified is stored in Dimension when the page shows no measurement.
const NotSpecified = "Not specified"

// Columns is the fixed column order of every persisted row.
var Columns = []string{"Name", "Color", "Price", "Article Num", "Summary", "Dimension"}

// AttributeRecord is the unit of output: the attributes read from one listing page.
type AttributeRecord struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Price      string `json:"price"`
	ArticleNum string `json:"article_num"`
	Summary    string `json:"summary"`
	Dimension  string `json:"dimension"`
}

// Values returns the record fields in Columns order.
func (r AttributeRecord) Values() []string {
	return []string{r.Name, r.Color, r.Price, r.ArticleNum, r.Summary, r.Dimension}
}

// Validate reports whether the record can be handed to persistence.
// Dimension must carry either a measurement or the NotSpecified sentinel.
func (r AttributeRecord) Validate() error {
	if r.Dimension == "" {
		return fmt.Errorf("dimension must be a measurement or %q", NotSpecified)
	}
	return nil
}

// RecordFromValues builds a record from a persisted row. Short rows are padded with empty strings.
func RecordFromValues(values []string) AttributeRecord {
	padded := make([]string, len(Columns))
	copy(padded, values)
	return AttributeRecord{
		Name:       padded[0],
		Color:      padded[1],
		Price:      padded[2],
		ArticleNum: padded[3],
		Summary:    padded[4],
		Dimension:  padded[5],
	}
}

// SearchResult is one rendered result card, alive only while a catalog entry is resolved.
type SearchResult struct {
	DisplayName string `json:"display_name"`
	DetailURL   string `json:"detail_url"`
}

// VariantGroup is the set of listing URLs for one product family.
// Links are kept raw: they may repeat or include BaseURL again.
type VariantGroup struct {
	BaseURL string   `json:"base_url"`
	Links   []string `json:"links"`
}

// URLs returns the base URL followed by every collected variant link.
func (g VariantGroup) URLs() []string {
	return append([]string{g.BaseURL}, g.Links...)
}

func (g VariantGroup) HasVariants() bool {
	return len(g.Links) > 0
}

// Catalog is the ordered, immutable list of product names to crawl.
type Catalog struct {
	names []string
}

func NewCatalog(names []string) Catalog {
	return Catalog{names: slices.Clone(names)}
}

// Names returns a copy of the catalog names in input order.
func (c Catalog) Names() []string {
	return slices.Clone(c.names)
}

func (c Catalog) Len() int {
	return len(c.names)
}
