package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"smart-shopping-list/internal/llm"
	"smart-shopping-list/internal/shared"
)

//go:embed breakdown_prompt.md
var breakdownPrompt string

// BreakdownResult is the ingredient list the model proposed for a dish.
type BreakdownResult struct {
	Recipe Recipe
	Meta   shared.AgentMeta
}

// Breakdown asks the model for the usual ingredients of recipeName.
func Breakdown(ctx context.Context, textGen llm.TextGenerator, recipeName string) (BreakdownResult, error) {
	recipeName = strings.TrimSpace(recipeName)
	if recipeName == "" {
		return BreakdownResult{}, fmt.Errorf("recipe name cannot be empty")
	}
	start := time.Now()

	prompt, err := buildBreakdownPrompt(recipeName)
	if err != nil {
		return BreakdownResult{}, err
	}

	llmResp, err := textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return BreakdownResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta := shared.AgentMeta{
		AgentName: shared.AgentRecipeBreakdown,
		Usage:     llmResp.Usage,
		Latency:   time.Since(start),
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(llm.ExtractJSON(llmResp.Content)), &rec); err != nil {
		return BreakdownResult{Meta: meta}, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}
	if rec.Title == "" {
		rec.Title = recipeName
	}
	if len(rec.ToDrafts()) == 0 {
		return BreakdownResult{Meta: meta}, fmt.Errorf("no ingredients found for %q", recipeName)
	}

	return BreakdownResult{Recipe: rec, Meta: meta}, nil
}

func buildBreakdownPrompt(recipeName string) (string, error) {
	tmpl, err := template.New("breakdown").Parse(breakdownPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ RecipeName string }{recipeName}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
