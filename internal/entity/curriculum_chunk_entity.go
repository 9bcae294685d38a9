package entity

import (
	"time"

	"github.com/google/uuid"
)

// CurriculumChunk is one embedded slice of a curriculum document.
// Rows are written once during ingestion and never updated.
type CurriculumChunk struct {
	Id             uuid.UUID
	DocumentName   string
	ChunkIndex     int
	Content        string
	Embedding      []float32
	EmbeddingModel string
	CreatedAt      time.Time
}

type ScoredCurriculumChunk struct {
	Chunk      *CurriculumChunk
	Similarity float64
}
