package learning

import "strings"

// DefaultCategoryRate is the global fallback when a category has no entry
const DefaultCategoryRate = 0.25

// defaultCategoryRates maps grocery categories to baseline daily consumption
// rates, used when an item has no usable history and no rated siblings.
var defaultCategoryRates = map[string]float64{
	"dairy":      0.5,
	"produce":    0.3,
	"meat":       0.3,
	"bakery":     0.4,
	"beverages":  0.5,
	"frozen":     0.15,
	"pantry":     0.1,
	"snacks":     0.2,
	"household":  0.05,
	"condiments": 0.05,
}

// CategoryRate returns the baseline daily rate for a category. Matching is
// case-insensitive; unknown or empty categories get DefaultCategoryRate.
func CategoryRate(category string) float64 {
	if rate, ok := defaultCategoryRates[strings.ToLower(strings.TrimSpace(category))]; ok {
		return rate
	}
	return DefaultCategoryRate
}
