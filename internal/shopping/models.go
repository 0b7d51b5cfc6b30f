package shopping

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultIcon is used whenever an item has no better emoji.
const DefaultIcon = "🛒"

// DefaultCategory is the catch-all category for unclassified items.
const DefaultCategory = "Other"

// Item is one purchasable entry on a shopping list.
type Item struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	CanonicalName string  `json:"canonicalName"`
	Category      string  `json:"category"`
	Icon          string  `json:"icon"`
	Qty           float64 `json:"qty"`
	Unit          string  `json:"unit,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Store         string  `json:"store,omitempty"`
	Urgent        bool    `json:"urgent"`
	GF            bool    `json:"gf"`
	Checked       bool    `json:"checked"`
}

// ValidQty reports whether q is usable as a quantity: finite and positive.
func ValidQty(q float64) bool {
	return !math.IsNaN(q) && !math.IsInf(q, 0) && q > 0
}

// Validate checks the invariants every stored item must hold.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("item id cannot be empty")
	}
	if CanonicalKey(i.CanonicalName) == "" {
		return fmt.Errorf("item %s: canonical name cannot be empty", i.ID)
	}
	if !ValidQty(i.Qty) {
		return fmt.Errorf("item %s: qty must be a positive number, got %v", i.ID, i.Qty)
	}
	return nil
}

// Draft is what a caller asks to add: an item that has not been committed yet.
type Draft struct {
	Name          string  `json:"name"`
	CanonicalName string  `json:"canonicalName,omitempty"`
	Category      string  `json:"category,omitempty"`
	Icon          string  `json:"icon,omitempty"`
	Qty           float64 `json:"qty"`
	Unit          string  `json:"unit,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Store         string  `json:"store,omitempty"`
	Urgent        bool    `json:"urgent"`
	GF            bool    `json:"gf"`
}

// Validate rejects drafts that can never become a valid item.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("item name cannot be empty")
	}
	if !ValidQty(d.Qty) {
		return fmt.Errorf("item %q: qty must be a positive number, got %v", d.Name, d.Qty)
	}
	return nil
}

// ToItem turns the draft into an unchecked item with the given id.
// An empty canonical name defaults to the display name.
func (d Draft) ToItem(id string) Item {
	canonical := CanonicalKey(d.CanonicalName)
	if canonical == "" {
		canonical = CanonicalKey(d.Name)
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = DefaultCategory
	}
	icon := strings.TrimSpace(d.Icon)
	if icon == "" {
		icon = DefaultIcon
	}
	return Item{
		ID:            id,
		Name:          strings.TrimSpace(d.Name),
		CanonicalName: canonical,
		Category:      category,
		Icon:          icon,
		Qty:           d.Qty,
		Unit:          strings.TrimSpace(d.Unit),
		Notes:         strings.TrimSpace(d.Notes),
		Store:         strings.TrimSpace(d.Store),
		Urgent:        d.Urgent,
		GF:            d.GF,
	}
}

// List is a shared shopping list. Version increases on every successful write
// and is used to reject writes computed from a stale read.
type List struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Icon          string    `json:"icon"`
	OwnerID       string    `json:"ownerId"`
	Collaborators []string  `json:"collaborators"`
	Items         []Item    `json:"items"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FindItem returns the index of the item with the given id, or -1.
func (l *List) FindItem(id string) int {
	return indexOfItem(l.Items, id)
}

// HasMember reports whether userID owns or collaborates on the list.
func (l *List) HasMember(userID string) bool {
	if l.OwnerID == userID {
		return true
	}
	for _, c := range l.Collaborators {
		if c == userID {
			return true
		}
	}
	return false
}

// CloneItems returns a copy of the items slice safe to mutate.
func (l *List) CloneItems() []Item {
	out := make([]Item, len(l.Items))
	copy(out, l.Items)
	return out
}
