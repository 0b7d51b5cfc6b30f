package normalizer

import (
	"errors"
	"fmt"
)

// Stages at which normalization can fail.
const (
	StageRateLimit = "rate_limit"
	StagePrompt    = "prompt"
	StageGenerate  = "generate"
	StageParse     = "parse"
)

// ErrEmptyCanonicalName marks a reply without a usable canonical name.
var ErrEmptyCanonicalName = errors.New("response has an empty canonical name")

// NormalizationError wraps any failure to normalize an item.
type NormalizationError struct {
	Item  string
	Stage string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("failed to normalize %q at %s: %v", e.Item, e.Stage, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}
