package models

import "github.com/shopspring/decimal"

// MenuEntry is a catalog item. Entries are read-only reference data; the
// session never owns or mutates them.
type MenuEntry struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ImageRef    string          `json:"image_ref"`
	Featured    bool            `json:"featured,omitempty"`
}

const (
	CategoryPopular   = "popular"
	CategoryChicken   = "chicken"
	CategoryBurgers   = "burgers"
	CategorySides     = "sides"
	CategoryBeverages = "beverages"
	CategoryDesserts  = "desserts"
)

// MenuCategories returns the categories in display order.
func MenuCategories() []string {
	return []string{
		CategoryPopular,
		CategoryChicken,
		CategoryBurgers,
		CategorySides,
		CategoryBeverages,
		CategoryDesserts,
	}
}

func ValidCategory(category string) bool {
	for _, c := range MenuCategories() {
		if c == category {
			return true
		}
	}
	return false
}
