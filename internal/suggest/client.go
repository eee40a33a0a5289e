package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AltairaLabs/codegen-suggest/internal/retry"
)

// Client wraps the external suggestion call with validation, a per-attempt
// timeout race, and fixed-delay retries
type Client struct {
	generator Generator
	cfg       Config
	policy    retry.Policy
	logger    *slog.Logger
}

// NewClient creates a suggestion client
func NewClient(generator Generator, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		generator: generator,
		cfg:       cfg,
		policy:    retry.FixedPolicy(cfg.MaxRetries, cfg.RetryDelay),
		logger:    logger,
	}
}

// Info reports the client configuration
func (c *Client) Info() Info {
	return Info{
		Configured:     c.cfg.APIKey != "",
		Model:          c.cfg.Model,
		MaxRetries:     c.cfg.MaxRetries,
		Timeout:        c.cfg.RequestTimeout,
		MaxInputLength: c.cfg.MaxInputLength,
	}
}

// GetSuggestion returns a suggestion for code. Every failure is a *Failure.
func (c *Client) GetSuggestion(ctx context.Context, code string) (*Suggestion, error) {
	return c.getSuggestion(ctx, code, 0)
}

func (c *Client) getSuggestion(ctx context.Context, code string, attempt int) (*Suggestion, error) {
	if err := c.checkPreconditions(code); err != nil {
		recordFailure(ctx, err.Kind)
		return nil, err
	}

	start := time.Now()
	prompt := BuildPrompt(code)

	for ; ; attempt++ {
		c.logger.DebugContext(ctx, "Calling suggestion service",
			"attempt", attempt+1,
			"max_attempts", c.policy.MaxAttempts(),
			"model", c.cfg.Model,
		)

		text, err := c.call(ctx, prompt)
		if err == nil {
			c.logger.InfoContext(ctx, "Suggestion received",
				"attempt", attempt+1,
				"characters", len(text),
			)
			return &Suggestion{
				Text:     text,
				Duration: time.Since(start),
				Attempts: attempt + 1,
			}, nil
		}

		failure := classify(err, attempt+1)
		c.logger.WarnContext(ctx, "Suggestion attempt failed",
			"attempt", attempt+1,
			"kind", failure.Kind,
			"error", err,
		)

		if !failure.Retryable() {
			recordFailure(ctx, failure.Kind)
			return nil, failure
		}
		if !c.policy.ShouldRetry(attempt) || ctx.Err() != nil {
			failure = exhausted(failure)
			recordFailure(ctx, failure.Kind)
			return nil, failure
		}

		c.logger.InfoContext(ctx, "Retrying suggestion",
			"next_attempt", attempt+2,
			"delay", c.policy.CalculateDelay(attempt),
		)
		if waitErr := c.policy.Wait(ctx, attempt); waitErr != nil {
			failure = exhausted(&Failure{Kind: KindTransient, Attempts: attempt + 1, Err: waitErr})
			recordFailure(ctx, failure.Kind)
			return nil, failure
		}
	}
}

func (c *Client) checkPreconditions(code string) *Failure {
	if c.cfg.APIKey == "" {
		return &Failure{
			Kind:    KindConfiguration,
			Message: "suggestion service API key is not configured",
		}
	}
	if strings.TrimSpace(code) == "" {
		return &Failure{
			Kind:    KindValidation,
			Message: "Code input cannot be empty",
		}
	}
	if utf8.RuneCountInString(code) > c.cfg.MaxInputLength {
		return &Failure{
			Kind:    KindValidation,
			Message: fmt.Sprintf("Code input too long. Maximum %d characters allowed.", c.cfg.MaxInputLength),
		}
	}
	return nil
}

type callResult struct {
	text string
	err  error
}

// call races one generator call against the request timeout. The losing
// generator call is abandoned; its buffered slot lets it finish without a
// receiver.
func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	recordAttempt(ctx)

	slot := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slot <- callResult{err: fmt.Errorf("suggestion service panic: %v", r)}
			}
		}()
		text, err := c.generator.Generate(ctx, c.cfg.Model, prompt)
		slot <- callResult{text: text, err: err}
	}()

	timer := time.NewTimer(c.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case res := <-slot:
		if res.err != nil {
			return "", res.err
		}
		if strings.TrimSpace(res.text) == "" {
			return "", errEmptyResponse
		}
		return res.text, nil
	case <-timer.C:
		return "", errAttemptTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
