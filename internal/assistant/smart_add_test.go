package assistant

import (
	"context"
	"errors"
	"testing"

	"smart-shopping-list/internal/llm"
	"smart-shopping-list/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTextGenerator struct {
	content string
	err     error
	prompt  string
}

func (m *mockTextGenerator) GenerateContent(_ context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompt = prompt
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{Content: m.content, Usage: shared.TokenUsage{TotalTokens: 77}}, nil
}

func TestSmartAdd(t *testing.T) {
	gen := &mockTextGenerator{content: `{"items":[
		{"name":"Milk","canonicalName":"milk","qty":2,"unit":"L","category":"dairy & eggs","icon":"🥛"},
		{"name":"Bread","category":"Bakery","urgent":true},
		{"name":"Bananas","canonicalName":"banana","qty":0,"category":"Fruit salad"},
		{"name":""}
	]}`}

	res, err := SmartAdd(context.Background(), gen, "two litres of milk, bread asap and some bananas")
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "bread asap")
	assert.Contains(t, gen.prompt, "Dairy & Eggs")
	assert.Equal(t, "SmartAdd", res.Meta.AgentName)
	assert.Equal(t, 77, res.Meta.Usage.TotalTokens)

	require.Len(t, res.Drafts, 3)

	milk := res.Drafts[0]
	assert.Equal(t, "milk", milk.CanonicalName)
	assert.Equal(t, 2.0, milk.Qty)
	assert.Equal(t, "L", milk.Unit)
	assert.Equal(t, "Dairy & Eggs", milk.Category)

	bread := res.Drafts[1]
	assert.Equal(t, "Bread", bread.CanonicalName, "missing canonical name falls back to the name")
	assert.Equal(t, 1.0, bread.Qty, "missing qty defaults to 1")
	assert.True(t, bread.Urgent)

	bananas := res.Drafts[2]
	assert.Equal(t, 1.0, bananas.Qty, "non-positive qty defaults to 1")
	assert.Equal(t, "Other", bananas.Category)

	for _, d := range res.Drafts {
		assert.NoError(t, d.Validate())
	}
}

func TestSmartAdd_BareArray(t *testing.T) {
	gen := &mockTextGenerator{content: "Sure!\n```json\n[{\"name\":\"Eggs\",\"qty\":12}]\n```"}

	res, err := SmartAdd(context.Background(), gen, "a dozen eggs")
	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	assert.Equal(t, 12.0, res.Drafts[0].Qty)
}

func TestSmartAdd_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		gen   *mockTextGenerator
	}{
		{"empty input", "   ", &mockTextGenerator{}},
		{"llm failure", "milk", &mockTextGenerator{err: errors.New("quota exceeded")}},
		{"bad json", "milk", &mockTextGenerator{content: "I could not understand"}},
		{"no items", "hmm", &mockTextGenerator{content: `{"items":[]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SmartAdd(context.Background(), tt.gen, tt.input)
			assert.Error(t, err)
		})
	}
}
