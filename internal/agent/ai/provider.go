// Package ai wraps text generation as a fallible external capability. The
// decision layer must be fully correct with this capability absent: every
// error from Generate collapses to ErrUnavailable semantics upstream.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the generation capability could not produce text.
// Provider errors and timeouts are both folded into it; callers never
// distinguish the two.
var ErrUnavailable = errors.New("generation unavailable")

// Generator is the single non-deterministic boundary of the system.
type Generator interface {
	// ID returns the provider identifier (e.g. "openai", "anthropic").
	ID() string

	// Generate sends a prompt and returns the generated text. Implementations
	// must honor ctx cancellation and deadlines.
	Generate(ctx context.Context, prompt string) (string, error)
}
