package recipe

import (
	"strings"

	"smart-shopping-list/internal/shopping"
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name  string  `json:"name"`
	Qty   float64 `json:"qty"`
	Unit  string  `json:"unit"`
	Notes string  `json:"notes"`
}

// Recipe is the shopping-relevant part of a recipe.
type Recipe struct {
	Title       string       `json:"title"`
	Icon        string       `json:"icon"`
	Ingredients []Ingredient `json:"ingredients"`
}

// ToDrafts turns the ingredient list into drafts ready to enqueue. Nameless
// ingredients are skipped and a missing quantity means 1.
func (r Recipe) ToDrafts() []shopping.Draft {
	drafts := make([]shopping.Draft, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		qty := ing.Qty
		if qty <= 0 {
			qty = 1
		}
		drafts = append(drafts, shopping.Draft{
			Name:  name,
			Qty:   qty,
			Unit:  strings.TrimSpace(ing.Unit),
			Notes: strings.TrimSpace(ing.Notes),
		})
	}
	return drafts
}
