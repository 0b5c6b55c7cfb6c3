// Package provider adapts vendor model APIs to a single completion call.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/prime3679/bishop-bench/internal/catalog"
)

// Completion is a vendor response reduced to text and token usage.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

//go:generate mockgen -destination=mock_provider.go -package=provider . Provider

// Provider issues one request to one vendor API.
type Provider interface {
	Kind() catalog.Provider
	// CredentialEnv names the environment variable the API key comes from.
	CredentialEnv() string
	// Ready reports whether a credential is configured.
	Ready() bool
	Complete(ctx context.Context, modelID, prompt string) (Completion, error)
}

var ErrMissingCredential = errors.New("missing credential")

func missingCredential(env string) error {
	return fmt.Errorf("%w: Missing %s", ErrMissingCredential, env)
}

// StatusError is a non-2xx response from a vendor API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned %d", e.StatusCode)
	}
	return fmt.Sprintf("API returned %d: %s", e.StatusCode, e.Message)
}

// StatusCode extracts the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode, true
	}
	return 0, false
}
