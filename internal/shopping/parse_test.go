package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Draft
	}{
		{"bare name", "milk", Draft{Name: "milk", Qty: 1}},
		{"qty and unit", "2 kg tomatoes", Draft{Name: "tomatoes", Qty: 2, Unit: "kg"}},
		{"qty suffix", "3x lemons", Draft{Name: "lemons", Qty: 3}},
		{"comma decimal", "1,5 l milk", Draft{Name: "milk", Qty: 1.5, Unit: "L"}},
		{"unit word as name", "2 cans", Draft{Name: "cans", Qty: 2}},
		{"nan is a word", "nan bread", Draft{Name: "nan bread", Qty: 1}},
		{"inf is a word", "inf eggs", Draft{Name: "inf eggs", Qty: 1}},
		{"infinity is a word", "infinity milk", Draft{Name: "infinity milk", Qty: 1}},
		{"negative is a word", "-2 apples", Draft{Name: "-2 apples", Qty: 1}},
		{
			"all markers",
			"2 kg tomatoes @Super Mart #very ripe ! +gf",
			Draft{Name: "tomatoes", Qty: 2, Unit: "kg", Store: "Super Mart", Notes: "very ripe", Urgent: true, GF: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDraft(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDraft_Invalid(t *testing.T) {
	for _, line := range []string{"", "   ", "2", "@store only"} {
		_, err := ParseDraft(line)
		assert.Error(t, err, "line %q", line)
	}
}
