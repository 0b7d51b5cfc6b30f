package shopping

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, "Whole Milk", CanonicalKey("  Whole \t  Milk "))
	// "é" precomposed vs "e" + combining acute.
	assert.Equal(t, CanonicalKey("Caf\u00e9"), CanonicalKey("Cafe\u0301"))
	assert.NotEqual(t, CanonicalKey("milk"), CanonicalKey("Milk"))
}

func TestDraftToItem_Defaults(t *testing.T) {
	item := Draft{Name: " Oat milk ", Qty: 1}.ToItem("x")

	assert.Equal(t, "x", item.ID)
	assert.Equal(t, "Oat milk", item.Name)
	assert.Equal(t, "Oat milk", item.CanonicalName)
	assert.Equal(t, DefaultCategory, item.Category)
	assert.Equal(t, DefaultIcon, item.Icon)
	assert.False(t, item.Checked)
	assert.NoError(t, item.Validate())
}

func TestItemValidate(t *testing.T) {
	assert.Error(t, Item{CanonicalName: "Milk", Qty: 1}.Validate())
	assert.Error(t, Item{ID: "a", CanonicalName: "  ", Qty: 1}.Validate())
	assert.Error(t, Item{ID: "a", CanonicalName: "Milk", Qty: 0}.Validate())
	assert.Error(t, Item{ID: "a", CanonicalName: "Milk", Qty: math.NaN()}.Validate())
	assert.Error(t, Item{ID: "a", CanonicalName: "Milk", Qty: math.Inf(1)}.Validate())
}

func TestDraftValidate_Qty(t *testing.T) {
	tests := []struct {
		name    string
		qty     float64
		wantErr bool
	}{
		{"positive", 2.5, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"nan", math.NaN(), true},
		{"plus inf", math.Inf(1), true},
		{"minus inf", math.Inf(-1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Draft{Name: "bread", Qty: tt.qty}.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
