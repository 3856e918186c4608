// Package provider defines the interface for the external completion
// collaborator used both for conversational replies and for structured
// fact extraction.
package provider

import "context"

// Provider is the interface for communicating with an LLM.
// Concrete implementations live in separate packages (e.g., provider.openai)
// and are treated as untrusted with respect to schema enforcement: callers
// that supply a ResponseSchema must still validate the returned payload.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}
