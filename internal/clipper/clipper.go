package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"smart-shopping-list/internal/llm"
	"smart-shopping-list/internal/recipe"
	"smart-shopping-list/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

//go:embed clipper_prompt.md
var clipperPrompt string

var clipperTmpl = template.Must(template.New("clipper").Parse(clipperPrompt))

// maxPageChars bounds how much page text is sent to the model.
const maxPageChars = 20000

// Clipper handles fetching recipe pages and extracting their ingredients.
type Clipper struct {
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// ClipResult is the recipe found on a page.
type ClipResult struct {
	Recipe    recipe.Recipe
	SourceURL string
	Meta      shared.AgentMeta
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL fetches the URL and extracts the recipe's ingredients using AI.
func (c *Clipper) ClipURL(ctx context.Context, url string) (ClipResult, error) {
	start := time.Now()

	// 1. Fetch and clean HTML
	content, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return ClipResult{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	// 2. Extract ingredients
	var buf bytes.Buffer
	if err := clipperTmpl.Execute(&buf, struct{ PageContent string }{content}); err != nil {
		return ClipResult{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	llmResponse, err := c.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return ClipResult{}, fmt.Errorf("ai extraction failed: %w", err)
	}
	meta := shared.AgentMeta{AgentName: shared.AgentClipper, Usage: llmResponse.Usage, Latency: time.Since(start)}

	var extracted recipe.Recipe
	if err := json.Unmarshal([]byte(llm.ExtractJSON(llmResponse.Content)), &extracted); err != nil {
		return ClipResult{Meta: meta}, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, llmResponse.Content)
	}
	if len(extracted.ToDrafts()) == 0 {
		return ClipResult{Meta: meta}, fmt.Errorf("no recipe found at %s", url)
	}

	return ClipResult{Recipe: extracted, SourceURL: url, Meta: meta}, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; smart-shopping-list)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, header, footer, iframe, form, aside, .ads, #ads, .comments").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxPageChars {
		text = text[:maxPageChars]
	}
	return text, nil
}

// Summary renders a clipped recipe as a short plain-text message.
func Summary(r ClipResult) string {
	var sb strings.Builder
	icon := r.Recipe.Icon
	if icon == "" {
		icon = "🍽"
	}
	fmt.Fprintf(&sb, "%s %s\n", icon, r.Recipe.Title)
	if r.SourceURL != "" {
		fmt.Fprintf(&sb, "Imported from: %s\n", r.SourceURL)
	}
	for _, d := range r.Recipe.ToDrafts() {
		line := fmt.Sprintf("%g", d.Qty)
		if d.Unit != "" {
			line += " " + d.Unit
		}
		line += " " + d.Name
		if d.Notes != "" {
			line += " (" + d.Notes + ")"
		}
		fmt.Fprintf(&sb, "• %s\n", line)
	}
	return sb.String()
}
