package normalizer

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"smart-shopping-list/internal/llm"
	"smart-shopping-list/internal/shared"

	"golang.org/x/time/rate"
)

//go:embed convert_units_prompt.md
var convertUnitsPrompt string

var convertTmpl = template.Must(template.New("convert").Parse(convertUnitsPrompt))

// ErrNoUnit is returned when there is nothing to convert from.
var ErrNoUnit = errors.New("no unit provided")

// Conversion is a quantity expressed in grams or milliliters.
type Conversion struct {
	Qty  float64 `json:"qty"`
	Unit string  `json:"unit"`
}

// UnitConverter rewrites kitchen units (cups, oz, tbsp, ...) into g or ml.
type UnitConverter struct {
	textGen llm.TextGenerator
	limiter *rate.Limiter
}

// NewUnitConverter creates a converter. A nil limiter means unlimited.
func NewUnitConverter(textGen llm.TextGenerator, limiter *rate.Limiter) *UnitConverter {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &UnitConverter{textGen: textGen, limiter: limiter}
}

// Convert converts qty of unit for the named ingredient.
func (c *UnitConverter) Convert(ctx context.Context, name string, qty float64, unit string) (Conversion, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: shared.AgentUnitConverter}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return Conversion{}, meta, ErrNoUnit
	}
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return Conversion{}, meta, err
	}

	var buf bytes.Buffer
	if err := convertTmpl.Execute(&buf, struct {
		Name string
		Qty  float64
		Unit string
	}{name, qty, unit}); err != nil {
		return Conversion{}, meta, fmt.Errorf("failed to build conversion prompt: %w", err)
	}

	resp, err := c.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return Conversion{}, meta, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)

	var reply struct {
		Conversion
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(resp.Content)), &reply); err != nil {
		return Conversion{}, meta, fmt.Errorf("failed to unmarshal conversion: %w", err)
	}
	if reply.Error != "" {
		return Conversion{}, meta, fmt.Errorf("cannot convert %v %s of %s: %s", qty, unit, name, reply.Error)
	}

	reply.Unit = strings.ToLower(strings.TrimSpace(reply.Unit))
	if reply.Qty <= 0 || (reply.Unit != "g" && reply.Unit != "ml") {
		return Conversion{}, meta, fmt.Errorf("invalid conversion result %v %q", reply.Qty, reply.Unit)
	}
	return reply.Conversion, meta, nil
}
