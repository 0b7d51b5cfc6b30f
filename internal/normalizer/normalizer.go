package normalizer

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
	"smart-shopping-list/internal/shopping"

	"golang.org/x/time/rate"
)

//go:embed normalizer_prompt.md
var normalizerPrompt string

var normalizerTmpl = template.Must(template.New("normalizer").Parse(normalizerPrompt))

// Categories is the fixed set an item can be filed under.
var Categories = []string{
	"Fruits", "Vegetables", "Dairy & Eggs", "Meat & Seafood", "Bakery", "Pantry",
	"Frozen Foods", "Beverages", "Snacks", "Household", "Personal Care",
	"Baby", "Pets", shopping.DefaultCategory,
}

// NormalizeRequest is the raw user input for one item.
type NormalizeRequest struct {
	Name string
	Qty  float64
	Unit string
}

// Result is the enriched record for an item. Meta carries the token usage of
// every LLM call made to produce it.
type Result struct {
	Name          string
	CanonicalName string
	Category      string
	Icon          string
	Qty           float64
	Unit          string
	Meta          shared.AgentMeta
}

// Normalizer turns raw item input into a Result.
type Normalizer interface {
	Normalize(ctx context.Context, req NormalizeRequest) (Result, error)
}

// Options tune an LLMNormalizer.
type Options struct {
	// Timeout bounds one Normalize call, including unit conversion. Zero disables it.
	Timeout time.Duration
	// RequestsPerMinute caps LLM calls. Zero means unlimited.
	RequestsPerMinute int
	// ConvertUnits rewrites qty/unit into g or ml when a unit is given.
	ConvertUnits bool
}

// LLMNormalizer normalizes items with a language model.
type LLMNormalizer struct {
	textGen   llm.TextGenerator
	converter *UnitConverter
	limiter   *rate.Limiter
	timeout   time.Duration
}

var _ Normalizer = (*LLMNormalizer)(nil)

// NewLLMNormalizer creates a normalizer backed by textGen.
func NewLLMNormalizer(textGen llm.TextGenerator, opts Options) *LLMNormalizer {
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	limiter := rate.NewLimiter(limit, 1)

	n := &LLMNormalizer{
		textGen: textGen,
		limiter: limiter,
		timeout: opts.Timeout,
	}
	if opts.ConvertUnits {
		n.converter = &UnitConverter{textGen: textGen, limiter: limiter}
	}
	return n
}

type normalizerReply struct {
	Name          string `json:"name"`
	CanonicalName string `json:"canonicalName"`
	Category      string `json:"category"`
	Icon          string `json:"icon"`
}

// Normalize asks the model for the canonical name, category and icon of an
// item. Every failure is reported as a *NormalizationError.
func (n *LLMNormalizer) Normalize(ctx context.Context, req NormalizeRequest) (Result, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	start := time.Now()
	meta := shared.AgentMeta{AgentName: shared.AgentNormalizer}

	if err := n.limiter.Wait(ctx); err != nil {
		return Result{Meta: meta}, &NormalizationError{Item: req.Name, Stage: StageRateLimit, Err: err}
	}

	prompt, err := buildNormalizerPrompt(req)
	if err != nil {
		return Result{Meta: meta}, &NormalizationError{Item: req.Name, Stage: StagePrompt, Err: err}
	}

	resp, err := n.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return Result{Meta: meta}, &NormalizationError{Item: req.Name, Stage: StageGenerate, Err: err}
	}
	meta.Usage = resp.Usage

	var reply normalizerReply
	if err := json.Unmarshal([]byte(llm.ExtractJSON(resp.Content)), &reply); err != nil {
		return Result{Meta: meta}, &NormalizationError{
			Item:  req.Name,
			Stage: StageParse,
			Err:   fmt.Errorf("failed to unmarshal LLM response: %w: %s", err, resp.Content),
		}
	}
	canonical := shopping.CanonicalKey(reply.CanonicalName)
	if canonical == "" {
		return Result{Meta: meta}, &NormalizationError{Item: req.Name, Stage: StageParse, Err: ErrEmptyCanonicalName}
	}

	result := Result{
		Name:          strings.TrimSpace(reply.Name),
		CanonicalName: canonical,
		Category:      CoerceCategory(reply.Category),
		Icon:          strings.TrimSpace(reply.Icon),
		Qty:           req.Qty,
		Unit:          strings.TrimSpace(req.Unit),
	}
	if result.Name == "" {
		result.Name = strings.TrimSpace(req.Name)
	}
	if result.Icon == "" {
		result.Icon = shopping.DefaultIcon
	}

	if n.converter != nil && result.Unit != "" {
		conv, convMeta, err := n.converter.Convert(ctx, result.CanonicalName, result.Qty, result.Unit)
		meta.Usage = meta.Usage.Add(convMeta.Usage)
		// A failed conversion keeps the quantity as the user typed it.
		if err == nil {
			result.Qty = conv.Qty
			result.Unit = conv.Unit
		}
	}

	meta.Latency = time.Since(start)
	result.Meta = meta
	return result, nil
}

// Fallback is the degraded record used when normalization fails: the raw
// name becomes the canonical name and the item is filed under Other.
func Fallback(req NormalizeRequest) Result {
	name := strings.TrimSpace(req.Name)
	return Result{
		Name:          name,
		CanonicalName: shopping.CanonicalKey(name),
		Category:      shopping.DefaultCategory,
		Icon:          shopping.DefaultIcon,
		Qty:           req.Qty,
		Unit:          strings.TrimSpace(req.Unit),
	}
}

// CoerceCategory maps c onto one of Categories, case-insensitively.
func CoerceCategory(c string) string {
	c = strings.TrimSpace(c)
	for _, known := range Categories {
		if strings.EqualFold(c, known) {
			return known
		}
	}
	return shopping.DefaultCategory
}

func buildNormalizerPrompt(req NormalizeRequest) (string, error) {
	var buf bytes.Buffer
	err := normalizerTmpl.Execute(&buf, struct {
		Name       string
		Categories string
	}{
		Name:       req.Name,
		Categories: strings.Join(Categories, ", "),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
