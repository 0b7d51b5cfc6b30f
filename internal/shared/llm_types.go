package shared

import (
	"time"
)

// Agent names as recorded in execution metrics.
const (
	AgentNormalizer      = "Normalizer"
	AgentUnitConverter   = "UnitConverter"
	AgentRecipeBreakdown = "RecipeBreakdown"
	AgentClipper         = "Clipper"
	AgentSmartAdd        = "SmartAdd"
)

// TokenUsage tracks the tokens consumed by one or more LLM calls.
type TokenUsage struct {
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
	Model            string `json:"model,omitempty"`
}

// Add sums two usages. The first non-empty model name wins.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	u.PromptTokens += o.PromptTokens
	u.CompletionTokens += o.CompletionTokens
	u.TotalTokens += o.TotalTokens
	if u.Model == "" {
		u.Model = o.Model
	}
	return u
}

// IsZero reports whether no tokens were consumed, e.g. on a cache hit.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// AgentMeta holds operational metadata for an agent execution.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}
