// Package llm abstracts the reasoning model behind a Provider interface.
package llm

import (
	"context"
	"time"
)

// Message is a single conversation message.
type Message struct {
	Role    string // system|user|assistant
	Content string
}

// ChatRequest is a request to the reasoning model.
type ChatRequest struct {
	Messages  []Message
	MaxTokens int
	JSON      bool // ask the provider for a JSON response where supported
}

// ChatResponse is the model's reply.
type ChatResponse struct {
	Content      string
	StopReason   string
	InputTokens  int
	OutputTokens int
	Model        string
}

// Provider is the reasoner boundary. Implementations retry transient
// provider failures internally; errors that escape are either fatal
// (billing) or exhausted.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string
}

// RetryConfig bounds provider-level retries.
type RetryConfig struct {
	MaxRetries  int
	InitBackoff time.Duration
	MaxBackoff  time.Duration
}

// ProviderConfig configures a provider built by NewProvider.
type ProviderConfig struct {
	Provider  string // anthropic|openai|google|openai-compat; inferred from Model when empty
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Retry     RetryConfig
}
