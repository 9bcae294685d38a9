package embedding

import "context"

// Task types understood by providers that embed documents and queries
// differently. Providers without the distinction ignore them.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings.
// One provider instance is bound to exactly one model for its lifetime.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
	ModelName() string
}
