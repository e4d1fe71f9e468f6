package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// FilterAll is the passthrough value for category and price range filters.
const FilterAll = "All"

// PriceRanges lists the supported price bands, in display order.
var PriceRanges = []string{FilterAll, "0-50", "50-100", "100-200", "200+"}

var priceBands = map[string]struct{ min, max decimal.Decimal }{
	"0-50":    {decimal.Zero, decimal.NewFromInt(50)},
	"50-100":  {decimal.NewFromInt(50), decimal.NewFromInt(100)},
	"100-200": {decimal.NewFromInt(100), decimal.NewFromInt(200)},
}

// Filters describe the browse page's client-side filtering knobs.
type Filters struct {
	Query      string
	Category   string
	PriceRange string
}

// Apply narrows products down to those matching every active filter.
func (f Filters) Apply(products []Product) []Product {
	matched := make([]Product, 0, len(products))
	for _, product := range products {
		if f.matches(product) {
			matched = append(matched, product)
		}
	}
	return matched
}

func (f Filters) matches(product Product) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		name := strings.ToLower(product.Name)
		description := strings.ToLower(product.Description)
		if !strings.Contains(name, term) && !strings.Contains(description, term) {
			return false
		}
	}

	if f.Category != "" && !strings.EqualFold(f.Category, FilterAll) {
		if !strings.EqualFold(product.Category, f.Category) {
			return false
		}
	}

	if f.PriceRange != "" && f.PriceRange != FilterAll {
		if band, ok := priceBands[f.PriceRange]; ok {
			low := band.min
			// The lowest band is inclusive at zero, the others exclude their
			// lower bound.
			if f.PriceRange == "0-50" {
				if product.Price.Cmp(low) < 0 || product.Price.Cmp(band.max) > 0 {
					return false
				}
			} else if product.Price.Cmp(low) <= 0 || product.Price.Cmp(band.max) > 0 {
				return false
			}
		} else if product.Price.Cmp(decimal.NewFromInt(200)) <= 0 {
			// "200+" and anything unrecognized falls through to the top band.
			return false
		}
	}

	return true
}

// Categories returns the sorted distinct category list for the filter
// sidebar, with the passthrough option included.
func Categories(products []Product) []string {
	seen := map[string]struct{}{}
	categories := []string{FilterAll}
	for _, product := range products {
		if product.Category == "" {
			continue
		}
		if _, ok := seen[product.Category]; ok {
			continue
		}
		seen[product.Category] = struct{}{}
		categories = append(categories, product.Category)
	}
	sort.Strings(categories)
	return categories
}
