package recipe

import (
	"context"
	"errors"
	"testing"

	"smart-shopping-list/internal/llm"
	"smart-shopping-list/internal/shared"
	"smart-shopping-list/internal/shopping"

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
	return llm.ContentResponse{Content: m.content, Usage: shared.TokenUsage{PromptTokens: 40, CompletionTokens: 60, TotalTokens: 100}}, nil
}

func TestBreakdown(t *testing.T) {
	gen := &mockTextGenerator{content: `{"title":"Pancakes","icon":"🥞","ingredients":[
		{"name":"Flour","qty":200,"unit":"g"},
		{"name":"Eggs","qty":2},
		{"name":"Milk","qty":300,"unit":"ml","notes":"cold"},
		{"name":"  "}
	]}`}

	res, err := Breakdown(context.Background(), gen, "Pancakes")
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "Recipe Name: Pancakes")
	assert.Equal(t, "RecipeBreakdown", res.Meta.AgentName)
	assert.Equal(t, 100, res.Meta.Usage.TotalTokens)

	drafts := res.Recipe.ToDrafts()
	require.Len(t, drafts, 3)
	assert.Equal(t, shopping.Draft{Name: "Flour", Qty: 200, Unit: "g"}, drafts[0])
	assert.Equal(t, 2.0, drafts[1].Qty)
	assert.Equal(t, "cold", drafts[2].Notes)
}

func TestBreakdown_Errors(t *testing.T) {
	_, err := Breakdown(context.Background(), &mockTextGenerator{}, " ")
	assert.Error(t, err)

	_, err = Breakdown(context.Background(), &mockTextGenerator{err: errors.New("quota")}, "Soup")
	assert.ErrorContains(t, err, "quota")

	_, err = Breakdown(context.Background(), &mockTextGenerator{content: "sorry"}, "Soup")
	assert.ErrorContains(t, err, "unmarshal")

	_, err = Breakdown(context.Background(), &mockTextGenerator{content: `{"ingredients":[]}`}, "Soup")
	assert.ErrorContains(t, err, "no ingredients")
}

func TestToDrafts_DefaultsQty(t *testing.T) {
	drafts := Recipe{Ingredients: []Ingredient{{Name: "Salt", Qty: 0, Unit: " pinch "}}}.ToDrafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, 1.0, drafts[0].Qty)
	assert.Equal(t, "pinch", drafts[0].Unit)
}
