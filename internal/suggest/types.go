package suggest

import (
	"context"
	"time"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
)

// Config is an alias to the config package type
type Config = config.SuggestConfig

// DefaultConfig returns default configuration for the suggestion client
func DefaultConfig() Config {
	return config.DefaultSuggestConfig()
}

// Generator issues one call to the external suggestion service
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, model, prompt string) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// Suggestion is a successful suggestion response
type Suggestion struct {
	Text     string
	Duration time.Duration
	Attempts int
}

// Info is the read-only view of the client configuration used by health reporting
type Info struct {
	Configured     bool
	Model          string
	MaxRetries     int
	Timeout        time.Duration
	MaxInputLength int
}
