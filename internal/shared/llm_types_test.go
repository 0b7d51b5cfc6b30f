package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenUsage_Add(t *testing.T) {
	a := TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	b := TokenUsage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5, Model: "gemini"}

	assert.Equal(t, TokenUsage{PromptTokens: 13, CompletionTokens: 7, TotalTokens: 20, Model: "gemini"}, a.Add(b))
	assert.Equal(t, "groq", TokenUsage{Model: "groq"}.Add(b).Model)
}

func TestTokenUsage_IsZero(t *testing.T) {
	assert.True(t, TokenUsage{Model: "cached"}.IsZero())
	assert.False(t, TokenUsage{TotalTokens: 1}.IsZero())
}
