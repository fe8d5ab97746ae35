// Package llm adapts hosted and local language models to the single
// prompt-in, text-out Oracle contract used by the query pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyResponse  = errors.New("llm returned an empty response")
	ErrOracleDisabled = errors.New("llm oracle is disabled")
)

// Oracle answers a single prompt. Implementations must honour ctx; a
// deadline or transport problem is reported as an error, never as text.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

type boundedOracle struct {
	inner   Oracle
	timeout time.Duration
}

// WithTimeout gives every Generate call its own deadline. Exceeding it is
// reported as an error wrapping context.DeadlineExceeded.
func WithTimeout(o Oracle, timeout time.Duration) Oracle {
	if o == nil || timeout <= 0 {
		return o
	}
	return &boundedOracle{inner: o, timeout: timeout}
}

func (b *boundedOracle) Name() string { return b.inner.Name() }

func (b *boundedOracle) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := b.inner.Generate(ctx, prompt)
		done <- reply{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if strings.TrimSpace(r.text) == "" {
			return "", ErrEmptyResponse
		}
		return r.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%s oracle: %w", b.inner.Name(), ctx.Err())
	}
}

// disabled is used when no provider is configured so callers always hold a
// usable Oracle and take their fallback path.
type disabled struct{}

func Disabled() Oracle { return disabled{} }

func (disabled) Name() string { return "none" }

func (disabled) Generate(context.Context, string) (string, error) {
	return "", ErrOracleDisabled
}
