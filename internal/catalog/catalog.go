// Package catalog loads the list of product names to crawl.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maltedev/catalog-crawler/internal/models"
)

const DefaultFile = "ProductName.csv"

// Load reads the catalog file at path. See Read.
func Load(path string) (models.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.NewCatalog(nil), fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a delimited table whose first row is a header. The first column
// of every later row is a product name; rows where it is empty are skipped.
// When the input turns malformed part way, the names read so far are returned
// together with the error.
func Read(r io.Reader) (models.Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var names []string
	header := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.NewCatalog(names), fmt.Errorf("failed to read catalog: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		names = append(names, row[0])
	}

	return models.NewCatalog(names), nil
}
