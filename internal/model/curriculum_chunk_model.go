package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// CurriculumChunk is created by the SQL migration rather than AutoMigrate
// because the vector dimension comes from configuration.
type CurriculumChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentName   string          `gorm:"type:text;not null;index"`
	ChunkIndex     int             `gorm:"not null;default:0"`
	Content        string          `gorm:"type:text;not null"`
	Embedding      pgvector.Vector `gorm:"type:vector"`
	EmbeddingModel string          `gorm:"type:text;not null"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (CurriculumChunk) TableName() string {
	return "curriculum_chunks"
}
