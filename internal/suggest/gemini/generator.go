// Package gemini provides the Gemini-backed suggestion generator
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Generator calls the Gemini generateContent API
type Generator struct {
	client *genai.Client
}

// NewGenerator creates a generator authenticated with apiKey
func NewGenerator(ctx context.Context, apiKey string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &Generator{client: client}, nil
}

// Generate sends prompt to model and returns the response text
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", wrapAPIError(err)
	}
	return resp.Text(), nil
}

// ServiceError carries the structured status of a failed Gemini call
type ServiceError struct {
	Code    int
	Status  string
	Message string
	err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Status, e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// ServiceStatus returns the canonical status name, e.g. RESOURCE_EXHAUSTED
func (e *ServiceError) ServiceStatus() string {
	return e.Status
}

// HTTPStatus returns the HTTP status code of the failed call
func (e *ServiceError) HTTPStatus() int {
	return e.Code
}

func wrapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{Code: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message, err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &ServiceError{Code: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message, err: err}
	}
	return err
}
