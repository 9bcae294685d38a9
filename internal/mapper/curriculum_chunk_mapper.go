package mapper

import (
	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type CurriculumChunkMapper struct{}

func NewCurriculumChunkMapper() *CurriculumChunkMapper {
	return &CurriculumChunkMapper{}
}

func (m *CurriculumChunkMapper) ToEntity(c *model.CurriculumChunk) *entity.CurriculumChunk {
	if c == nil {
		return nil
	}

	return &entity.CurriculumChunk{
		Id:             c.Id,
		DocumentName:   c.DocumentName,
		ChunkIndex:     c.ChunkIndex,
		Content:        c.Content,
		Embedding:      c.Embedding.Slice(),
		EmbeddingModel: c.EmbeddingModel,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *CurriculumChunkMapper) ToModel(c *entity.CurriculumChunk) *model.CurriculumChunk {
	if c == nil {
		return nil
	}

	return &model.CurriculumChunk{
		Id:             c.Id,
		DocumentName:   c.DocumentName,
		ChunkIndex:     c.ChunkIndex,
		Content:        c.Content,
		Embedding:      pgvector.NewVector(c.Embedding),
		EmbeddingModel: c.EmbeddingModel,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *CurriculumChunkMapper) ToEntities(chunks []*model.CurriculumChunk) []*entity.CurriculumChunk {
	entities := make([]*entity.CurriculumChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
