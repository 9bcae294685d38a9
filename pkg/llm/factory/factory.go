package factory

import (
	"fmt"

	"curriculum-rag-be/pkg/llm"
	"curriculum-rag-be/pkg/llm/ollama"
	"curriculum-rag-be/pkg/llm/openai"
)

type ProviderOptions struct {
	Provider       string // "openai", "huggingface" or "ollama"
	Model          string
	BaseURL        string
	OpenAIKey      string
	HuggingFaceKey string
	OllamaBaseURL  string
}

func NewLLMProvider(opts ProviderOptions) (llm.LLMProvider, error) {
	switch opts.Provider {
	case "openai":
		return openai.NewProvider(opts.OpenAIKey, opts.BaseURL, opts.Model), nil
	case "huggingface":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = openai.HuggingFaceRouterURL
		}
		return openai.NewProvider(opts.HuggingFaceKey, baseURL, opts.Model), nil
	case "ollama":
		baseURL := opts.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, opts.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", opts.Provider)
	}
}
