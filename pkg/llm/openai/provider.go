package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/pkg/llm"
)

const (
	DefaultBaseURL       = "https://api.openai.com/v1"
	HuggingFaceRouterURL = "https://router.huggingface.co/v1"
)

// Provider streams chat completions from any OpenAI-compatible endpoint
// (OpenAI itself, the HuggingFace router, vLLM, ...).
type Provider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.LLMProvider = &Provider{}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewProvider(apiKey, baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		// No client timeout: streams are long-lived and bounded by ctx.
		client: &http.Client{},
	}
}

func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (llm.TokenStream, error) {
	opts := llm.ApplyOptions(llm.Options{
		Model:       p.model,
		Temperature: 0.7,
	}, options...)

	jsonData, err := json.Marshal(chatRequest{
		Model:       opts.Model,
		Messages:    history,
		Stream:      true,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if p.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, err, "chat completion request failed")
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperror.Newf(apperror.KindProvider, "chat completion api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &stream{body: resp.Body, scanner: scanner}, nil
}

// stream decodes the "data: {...}" server-sent event framing.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *stream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", apperror.Wrap(apperror.KindProvider, err, "decode chat completion chunk")
		}
		if chunk.Error != nil {
			return "", apperror.Newf(apperror.KindProvider, "chat completion stream error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", apperror.Wrap(apperror.KindProvider, err, "read chat completion stream")
	}
	// Some compatible servers close the connection without a [DONE] marker.
	s.done = true
	return "", io.EOF
}

func (s *stream) Close() error {
	return s.body.Close()
}
