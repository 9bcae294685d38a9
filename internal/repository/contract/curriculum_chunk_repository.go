package contract

import (
	"context"

	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/repository/specification"
)

type CurriculumChunkRepository interface {
	Create(ctx context.Context, chunk *entity.CurriculumChunk) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CurriculumChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	ExistsByDocumentName(ctx context.Context, documentName string) (bool, error)
	// SearchSimilar calls match_curriculum_chunks and only compares rows
	// embedded with embeddingModel.
	SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int, embeddingModel string) ([]*entity.ScoredCurriculumChunk, error)
	DistinctEmbeddingModels(ctx context.Context) ([]string, error)
}
