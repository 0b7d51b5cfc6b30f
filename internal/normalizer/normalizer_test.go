package normalizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"smart-shopping-list/internal/llm"
	"smart-shopping-list/internal/shared"
	"smart-shopping-list/internal/shopping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator answers prompts with a function so a test can branch on
// which template produced the prompt.
type scriptedGenerator struct {
	respond func(ctx context.Context, prompt string) (string, error)
	calls   int
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	g.calls++
	content, err := g.respond(ctx, prompt)
	if err != nil {
		return llm.ContentResponse{}, err
	}
	return llm.ContentResponse{Content: content, Usage: shared.TokenUsage{TotalTokens: 7, Model: "test"}}, nil
}

func reply(s string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return s, nil }
}

func TestNormalize_Success(t *testing.T) {
	gen := &scriptedGenerator{respond: reply(`{"name":"Milch","canonicalName":" Milk ","category":"dairy & eggs","icon":"🥛"}`)}
	n := NewLLMNormalizer(gen, Options{})

	res, err := n.Normalize(context.Background(), NormalizeRequest{Name: "Milch", Qty: 2, Unit: "L"})
	require.NoError(t, err)

	assert.Equal(t, "Milch", res.Name)
	assert.Equal(t, "Milk", res.CanonicalName)
	assert.Equal(t, "Dairy & Eggs", res.Category)
	assert.Equal(t, "🥛", res.Icon)
	assert.Equal(t, 2.0, res.Qty)
	assert.Equal(t, "L", res.Unit)
	assert.Equal(t, "Normalizer", res.Meta.AgentName)
	assert.Equal(t, 7, res.Meta.Usage.TotalTokens)
}

func TestNormalize_PromptCarriesNameAndCategories(t *testing.T) {
	var seen string
	gen := &scriptedGenerator{respond: func(_ context.Context, p string) (string, error) {
		seen = p
		return `{"canonicalName":"Cucumber","category":"Vegetables","icon":"🥒"}`, nil
	}}
	_, err := NewLLMNormalizer(gen, Options{}).Normalize(context.Background(), NormalizeRequest{Name: "cucumbr", Qty: 1})
	require.NoError(t, err)

	assert.Contains(t, seen, "Item name: cucumbr")
	assert.Contains(t, seen, "Frozen Foods")
}

func TestNormalize_DefaultsAndCoercion(t *testing.T) {
	gen := &scriptedGenerator{respond: reply("```json\n{\"canonicalName\":\"Sponge\",\"category\":\"Cleaning\"}\n```")}

	res, err := NewLLMNormalizer(gen, Options{}).Normalize(context.Background(), NormalizeRequest{Name: " sponge ", Qty: 1})
	require.NoError(t, err)

	assert.Equal(t, "sponge", res.Name)
	assert.Equal(t, shopping.DefaultCategory, res.Category)
	assert.Equal(t, shopping.DefaultIcon, res.Icon)
}

func TestNormalize_Failures(t *testing.T) {
	tests := []struct {
		name    string
		respond func(context.Context, string) (string, error)
		stage   string
	}{
		{"transport", func(context.Context, string) (string, error) { return "", errors.New("connection reset") }, StageGenerate},
		{"malformed", reply("not json at all"), StageParse},
		{"empty canonical", reply(`{"canonicalName":"  ","category":"Pantry"}`), StageParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewLLMNormalizer(&scriptedGenerator{respond: tt.respond}, Options{})
			_, err := n.Normalize(context.Background(), NormalizeRequest{Name: "rice", Qty: 1})

			var nerr *NormalizationError
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, tt.stage, nerr.Stage)
			assert.Equal(t, "rice", nerr.Item)
		})
	}
}

func TestNormalize_Timeout(t *testing.T) {
	gen := &scriptedGenerator{respond: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	n := NewLLMNormalizer(gen, Options{Timeout: 20 * time.Millisecond})

	_, err := n.Normalize(context.Background(), NormalizeRequest{Name: "rice", Qty: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNormalize_UnitConversion(t *testing.T) {
	respond := func(conversion string) func(context.Context, string) (string, error) {
		return func(_ context.Context, p string) (string, error) {
			if strings.Contains(p, "kitchen scientist") {
				return conversion, nil
			}
			return `{"canonicalName":"Flour","category":"Pantry","icon":"🌾"}`, nil
		}
	}

	t.Run("converted", func(t *testing.T) {
		gen := &scriptedGenerator{respond: respond(`{"qty":240,"unit":"G"}`)}
		res, err := NewLLMNormalizer(gen, Options{ConvertUnits: true}).
			Normalize(context.Background(), NormalizeRequest{Name: "flour", Qty: 2, Unit: "cup"})
		require.NoError(t, err)
		assert.Equal(t, 240.0, res.Qty)
		assert.Equal(t, "g", res.Unit)
		assert.Equal(t, 14, res.Meta.Usage.TotalTokens)
	})

	t.Run("conversion error keeps original", func(t *testing.T) {
		gen := &scriptedGenerator{respond: respond(`{"error":"a pinch is not measurable"}`)}
		res, err := NewLLMNormalizer(gen, Options{ConvertUnits: true}).
			Normalize(context.Background(), NormalizeRequest{Name: "flour", Qty: 1, Unit: "pinch"})
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Qty)
		assert.Equal(t, "pinch", res.Unit)
	})

	t.Run("no unit skips conversion", func(t *testing.T) {
		gen := &scriptedGenerator{respond: respond(`{"qty":1,"unit":"g"}`)}
		_, err := NewLLMNormalizer(gen, Options{ConvertUnits: true}).
			Normalize(context.Background(), NormalizeRequest{Name: "flour", Qty: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, gen.calls)
	})
}

func TestUnitConverter_NoUnit(t *testing.T) {
	c := NewUnitConverter(&scriptedGenerator{respond: reply(`{}`)}, nil)
	_, _, err := c.Convert(context.Background(), "Milk", 1, " ")
	assert.ErrorIs(t, err, ErrNoUnit)
}

func TestFallback(t *testing.T) {
	res := Fallback(NormalizeRequest{Name: "  tahini  paste ", Qty: 3, Unit: "jar"})

	assert.Equal(t, "tahini  paste", res.Name)
	assert.Equal(t, "tahini paste", res.CanonicalName)
	assert.Equal(t, shopping.DefaultCategory, res.Category)
	assert.Equal(t, shopping.DefaultIcon, res.Icon)
	assert.Equal(t, 3.0, res.Qty)
	assert.Equal(t, "jar", res.Unit)
}
