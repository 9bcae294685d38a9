package contract

import (
	"context"

	"curriculum-rag-be/internal/entity"
)

type IngestionRunRepository interface {
	Create(ctx context.Context, run *entity.IngestionRun) error
	FindRecent(ctx context.Context, limit int) ([]*entity.IngestionRun, error)
}
