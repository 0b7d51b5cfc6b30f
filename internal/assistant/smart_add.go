package assistant

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
	"smart-shopping-list/internal/normalizer"
	"smart-shopping-list/internal/shared"
	"smart-shopping-list/internal/shopping"
)

//go:embed smart_add_prompt.md
var smartAddPrompt string

type smartAddPromptData struct {
	Input      string
	Categories []string
}

// SmartAddResult holds the drafts parsed out of a free-form request.
// The drafts already carry canonical names and categories, so callers
// enqueue them without another normalization round-trip.
type SmartAddResult struct {
	Drafts []shopping.Draft
	Meta   shared.AgentMeta
}

type rawItem struct {
	Name          string   `json:"name"`
	CanonicalName string   `json:"canonicalName"`
	Qty           *float64 `json:"qty"`
	Unit          string   `json:"unit"`
	Category      string   `json:"category"`
	Urgent        bool     `json:"urgent"`
	Icon          string   `json:"icon"`
}

// SmartAdd turns dictated or typed text ("two litres of milk and some
// bread, the bread is urgent") into shopping list drafts.
func SmartAdd(ctx context.Context, textGen llm.TextGenerator, input string) (SmartAddResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return SmartAddResult{}, fmt.Errorf("smart add input cannot be empty")
	}
	start := time.Now()

	prompt, err := buildSmartAddPrompt(smartAddPromptData{Input: input, Categories: normalizer.Categories})
	if err != nil {
		return SmartAddResult{}, err
	}

	resp, err := textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return SmartAddResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta := shared.AgentMeta{
		AgentName: shared.AgentSmartAdd,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}

	raw, err := parseItems(llm.ExtractJSON(resp.Content))
	if err != nil {
		return SmartAddResult{Meta: meta}, fmt.Errorf(
			"failed to parse smart add response %w. Response: %s",
			err,
			resp.Content,
		)
	}

	drafts := make([]shopping.Draft, 0, len(raw))
	for _, it := range raw {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		qty := 1.0
		if it.Qty != nil && *it.Qty > 0 {
			qty = *it.Qty
		}
		canonical := strings.TrimSpace(it.CanonicalName)
		if canonical == "" {
			canonical = name
		}
		drafts = append(drafts, shopping.Draft{
			Name:          name,
			CanonicalName: canonical,
			Category:      normalizer.CoerceCategory(it.Category),
			Icon:          it.Icon,
			Qty:           qty,
			Unit:          it.Unit,
			Urgent:        it.Urgent,
		})
	}
	if len(drafts) == 0 {
		return SmartAddResult{Meta: meta}, fmt.Errorf("no items found in %q", input)
	}

	return SmartAddResult{Drafts: drafts, Meta: meta}, nil
}

// parseItems accepts a bare array or an object wrapping it under "items";
// JSON mode on some providers refuses top-level arrays.
func parseItems(s string) ([]rawItem, error) {
	var items []rawItem
	if strings.HasPrefix(s, "[") {
		err := json.Unmarshal([]byte(s), &items)
		return items, err
	}
	var wrapped struct {
		Items []rawItem `json:"items"`
	}
	err := json.Unmarshal([]byte(s), &wrapped)
	return wrapped.Items, err
}

func buildSmartAddPrompt(data smartAddPromptData) (string, error) {
	tmpl, err := template.New("smart_add").Parse(smartAddPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
