package embedding

type EmbeddingRequestContentPart struct {
	Text string `json:"text"`
}

type EmbeddingRequestContent struct {
	Parts []EmbeddingRequestContentPart `json:"parts"`
}

type EmbeddingRequest struct {
	Model    string                  `json:"model"`
	Content  EmbeddingRequestContent `json:"content"`
	TaskType string                  `json:"task_type,omitempty"`
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

// EmbeddingResponse is the provider-neutral result. Its shape follows the
// Gemini wire format, which the other providers are converted into.
type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

func (r *EmbeddingResponse) Values() []float32 {
	if r == nil {
		return nil
	}
	return r.Embedding.Values
}
