package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"curriculum-rag-be/internal/pkg/apperror"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-3-small"
)

// OpenAIProvider talks to any OpenAI-compatible /embeddings endpoint.
type OpenAIProvider struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewOpenAIProvider(apiKey, baseURL, model string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *OpenAIProvider) ModelName() string {
	return p.Model
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	reqBody, err := json.Marshal(openAIEmbeddingRequest{
		Model: p.Model,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, err, "embedding request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, err, "read embedding response")
	}

	var embeddingResp openAIEmbeddingResponse
	decodeErr := json.Unmarshal(body, &embeddingResp)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && embeddingResp.Error != nil && embeddingResp.Error.Message != "" {
			return nil, apperror.Newf(apperror.KindProvider, "embedding API error (%d): %s", resp.StatusCode, embeddingResp.Error.Message)
		}
		return nil, apperror.Newf(apperror.KindProvider, "embedding API error (%d): %s", resp.StatusCode, string(body))
	}
	if decodeErr != nil {
		return nil, apperror.Wrap(apperror.KindProvider, decodeErr, "decode embedding response")
	}
	if len(embeddingResp.Data) == 0 || len(embeddingResp.Data[0].Embedding) == 0 {
		return nil, apperror.New(apperror.KindProvider, "embedding API returned no data")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: embeddingResp.Data[0].Embedding,
		},
	}, nil
}
