package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"curriculum-rag-be/internal/pkg/apperror"
)

const defaultGeminiModel = "text-embedding-004"

type GeminiProvider struct {
	ApiKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewGeminiProvider(apiKey string, model string) EmbeddingProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{
		ApiKey:  apiKey,
		Model:   model,
		BaseURL: "https://generativelanguage.googleapis.com/v1",
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GeminiProvider) ModelName() string {
	return p.Model
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	geminiReq := EmbeddingRequest{
		Model: p.Model,
		Content: EmbeddingRequestContent{
			Parts: []EmbeddingRequestContentPart{
				{
					Text: text,
				},
			},
		},
		TaskType: taskType,
	}
	geminiReqJson, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:embedContent", p.BaseURL, p.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(geminiReqJson))
	if err != nil {
		return nil, err
	}

	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, err, "gemini embedding request failed")
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, err, "read gemini embedding response")
	}

	if res.StatusCode != http.StatusOK {
		return nil, apperror.Newf(apperror.KindProvider, "error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var resEmbedding EmbeddingResponse
	if err := json.Unmarshal(resByte, &resEmbedding); err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, err, "decode gemini embedding response")
	}
	if len(resEmbedding.Embedding.Values) == 0 {
		return nil, apperror.New(apperror.KindProvider, "gemini returned no embedding")
	}

	return &resEmbedding, nil
}
