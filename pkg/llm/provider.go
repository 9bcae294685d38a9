package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// ApplyOptions folds opts over defaults.
func ApplyOptions(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// TokenStream yields answer fragments in the order the upstream produced
// them. Recv returns io.EOF once the upstream finished normally.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// ChatStream returns once the upstream accepted the request and the
	// response stream has begun.
	ChatStream(ctx context.Context, history []Message, options ...Option) (TokenStream, error)
}
