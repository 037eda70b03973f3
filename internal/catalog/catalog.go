// Package catalog holds the static watch catalog and samples
// recommendations from it.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

var ErrNoBrandColumn = errors.New("catalog: brand column not found")

// Catalog is an in-memory, read-only copy of the watch spreadsheet.
type Catalog struct {
	// Columns lists the descriptive headers in spreadsheet order, excluding
	// the brand column.
	Columns []string
	Watches []models.Watch
}

// Empty returns a catalog with no rows, used when the spreadsheet is missing.
func Empty() *Catalog {
	return &Catalog{}
}

func (c *Catalog) Len() int {
	return len(c.Watches)
}

// Load reads the catalog sheet. An empty sheet name selects the first sheet.
// Rows with any empty cell are dropped and brand names are lowercased.
func Load(path, sheet, brandColumn string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return FromRows(rows, brandColumn)
}

// FromRows builds a catalog from a header row followed by data rows.
func FromRows(rows [][]string, brandColumn string) (*Catalog, error) {
	if len(rows) == 0 {
		return Empty(), nil
	}

	header := rows[0]
	brandIdx := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), brandColumn) {
			brandIdx = i
			break
		}
	}
	if brandIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoBrandColumn, brandColumn)
	}

	c := &Catalog{}
	for i, h := range header {
		if i != brandIdx {
			c.Columns = append(c.Columns, strings.TrimSpace(h))
		}
	}

	for _, row := range rows[1:] {
		if !complete(row, len(header)) {
			continue
		}
		w := models.Watch{
			Brand:      strings.ToLower(strings.TrimSpace(row[brandIdx])),
			Attributes: make(map[string]string, len(header)-1),
		}
		for i, h := range header {
			if i == brandIdx {
				continue
			}
			w.Attributes[strings.TrimSpace(h)] = strings.TrimSpace(row[i])
		}
		c.Watches = append(c.Watches, w)
	}
	return c, nil
}

// complete reports whether the row has a non-blank value for every column.
func complete(row []string, width int) bool {
	if len(row) < width {
		return false
	}
	for _, cell := range row[:width] {
		if strings.TrimSpace(cell) == "" {
			return false
		}
	}
	return true
}

// Matching returns the watches whose brand is in brands, in catalog order.
// Brand comparison ignores case.
func (c *Catalog) Matching(brands []string) []models.Watch {
	wanted := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		wanted[strings.ToLower(strings.TrimSpace(b))] = struct{}{}
	}

	var out []models.Watch
	for _, w := range c.Watches {
		if _, ok := wanted[w.Brand]; ok {
			out = append(out, w)
		}
	}
	return out
}
