package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

const defaultProviderTimeout = 15 * time.Second

// Chain tries a fixed order of generators, each under its own timeout, and
// returns the first success. A provider timing out or erroring is treated
// exactly like the provider being absent; when every provider fails the
// chain reports ErrUnavailable so callers take their deterministic path.
type Chain struct {
	generators []Generator
	timeout    time.Duration
}

// NewChain builds a chain over the given generators. A zero timeout uses the
// default per-provider timeout.
func NewChain(timeout time.Duration, generators ...Generator) *Chain {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Chain{generators: generators, timeout: timeout}
}

// ID returns the provider identifier.
func (c *Chain) ID() string { return "chain" }

// Empty reports whether the chain has no providers configured.
func (c *Chain) Empty() bool { return c == nil || len(c.generators) == 0 }

// Generate tries each provider in order under the per-provider timeout.
func (c *Chain) Generate(ctx context.Context, prompt string) (string, error) {
	if c.Empty() {
		return "", ErrUnavailable
	}
	for _, gen := range c.generators {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := gen.Generate(attemptCtx, prompt)
		cancel()
		if err == nil && text != "" {
			return text, nil
		}
		logx.WithContext(ctx).Infof("generator %s unavailable: %v", gen.ID(), err)
	}
	return "", ErrUnavailable
}
