package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/pkg/llm"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client:    &http.Client{},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (o *OllamaProvider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.TokenStream, error) {
	options := llm.ApplyOptions(llm.Options{
		Temperature: 0.7,
		Model:       o.ModelName,
	}, opts...)

	ollamaMessages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		ollamaMessages[i] = ollamaMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	reqPayload := ollamaChatRequest{
		Model:    options.Model,
		Messages: ollamaMessages,
		Stream:   true,
		Options: &ollamaOptions{
			Temperature: options.Temperature,
		},
	}
	if options.MaxTokens > 0 {
		reqPayload.Options.NumPredict = options.MaxTokens
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := o.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, err, "ollama request failed")
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperror.Newf(apperror.KindProvider, "ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &stream{body: resp.Body, scanner: scanner}, nil
}

// stream decodes Ollama's newline-delimited JSON chat frames.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *stream) Recv() (string, error) {
	for !s.done && s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var frame ollamaChatResponse
		if err := json.Unmarshal(line, &frame); err != nil {
			return "", apperror.Wrap(apperror.KindProvider, err, "decode ollama frame")
		}
		if frame.Error != "" {
			return "", apperror.Newf(apperror.KindProvider, "ollama stream error: %s", frame.Error)
		}
		if frame.Done {
			s.done = true
		}
		if frame.Message.Content != "" {
			return frame.Message.Content, nil
		}
	}

	if !s.done {
		if err := s.scanner.Err(); err != nil {
			return "", apperror.Wrap(apperror.KindProvider, err, "read ollama stream")
		}
		s.done = true
	}
	return "", io.EOF
}

func (s *stream) Close() error {
	return s.body.Close()
}
