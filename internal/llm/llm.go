// Package llm is the optional language-model fallback for questions the
// pattern interpreter reads with low confidence. It is an injected
// capability: the pipeline works identically with the Disabled
// implementation, which is also what tests use.
package llm

import (
	"context"
	"errors"

	"github.com/crmlens/crmlens/internal/interpreter"
)

// ErrDisabled is returned by Disabled so callers fall back to the pattern
// result without treating the miss as a failure worth surfacing.
var ErrDisabled = errors.New("llm fallback disabled")

// Service produces a best-effort interpretation of a raw question. The
// result is untrusted: callers compare its confidence against the pattern
// interpretation and the generator's whitelists neutralize anything the
// model invented. Implementations must honor ctx cancellation and never
// block indefinitely.
type Service interface {
	InterpretQuery(ctx context.Context, query string) (*interpreter.Interpretation, error)
}

// Disabled is the no-op implementation used when no API key is configured.
type Disabled struct{}

func (Disabled) InterpretQuery(context.Context, string) (*interpreter.Interpretation, error) {
	return nil, ErrDisabled
}
