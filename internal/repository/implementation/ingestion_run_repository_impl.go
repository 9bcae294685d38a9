package implementation

import (
	"context"

	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/mapper"
	"curriculum-rag-be/internal/model"
	"curriculum-rag-be/internal/repository/contract"
	"curriculum-rag-be/internal/repository/scope"
	"curriculum-rag-be/internal/repository/specification"

	"gorm.io/gorm"
)

type IngestionRunRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IngestionRunMapper
}

func NewIngestionRunRepository(db *gorm.DB) contract.IngestionRunRepository {
	return &IngestionRunRepositoryImpl{
		db:     db,
		mapper: mapper.NewIngestionRunMapper(),
	}
}

func (r *IngestionRunRepositoryImpl) Create(ctx context.Context, run *entity.IngestionRun) error {
	m, err := r.mapper.ToModel(run)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	run.Id = m.Id
	return nil
}

func (r *IngestionRunRepositoryImpl) FindRecent(ctx context.Context, limit int) ([]*entity.IngestionRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var models []*model.IngestionRun
	err := r.db.WithContext(ctx).
		Scopes(scope.OrderByStartedDesc, specification.Pagination{Limit: limit}.Apply).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	runs := make([]*entity.IngestionRun, len(models))
	for i, m := range models {
		runs[i] = r.mapper.ToEntity(m)
	}
	return runs, nil
}
