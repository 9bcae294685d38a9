package embedding

import "fmt"

type ProviderOptions struct {
	Provider  string // "openai", "ollama" or "gemini"
	Model     string
	BaseURL   string
	OpenAIKey string
	GeminiKey string
	OllamaURL string
}

func NewProvider(opts ProviderOptions) (EmbeddingProvider, error) {
	switch opts.Provider {
	case "openai":
		return NewOpenAIProvider(opts.OpenAIKey, opts.BaseURL, opts.Model), nil
	case "ollama":
		return NewOllamaProvider(opts.OllamaURL, opts.Model), nil
	case "gemini":
		return NewGeminiProvider(opts.GeminiKey, opts.Model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", opts.Provider)
	}
}
