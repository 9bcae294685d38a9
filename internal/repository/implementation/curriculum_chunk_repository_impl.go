package implementation

import (
	"context"

	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/mapper"
	"curriculum-rag-be/internal/model"
	"curriculum-rag-be/internal/repository/contract"
	"curriculum-rag-be/internal/repository/scope"
	"curriculum-rag-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CurriculumChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CurriculumChunkMapper
}

func NewCurriculumChunkRepository(db *gorm.DB) contract.CurriculumChunkRepository {
	return &CurriculumChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewCurriculumChunkMapper(),
	}
}

func (r *CurriculumChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CurriculumChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.CurriculumChunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *CurriculumChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CurriculumChunk, error) {
	var models []*model.CurriculumChunk
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByChunkPosition), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *CurriculumChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.CurriculumChunk{}).Count(&count).Error
	return count, err
}

func (r *CurriculumChunkRepositoryImpl) ExistsByDocumentName(ctx context.Context, documentName string) (bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.CurriculumChunk{}).
		Scopes(specification.ByDocumentName{DocumentName: documentName}.Apply).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (r *CurriculumChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int, embeddingModel string) ([]*entity.ScoredCurriculumChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.CurriculumChunk
		Similarity float64
	}
	var results []result

	err := r.db.WithContext(ctx).
		Raw(`SELECT id, document_name, chunk_index, content, embedding_model, created_at, similarity
			FROM match_curriculum_chunks(?::vector, ?, ?, ?)`,
			pgvector.NewVector(embedding), threshold, limit, embeddingModel).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredCurriculumChunk, len(results))
	for i := range results {
		scored[i] = &entity.ScoredCurriculumChunk{
			Chunk:      r.mapper.ToEntity(&results[i].CurriculumChunk),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}

func (r *CurriculumChunkRepositoryImpl) DistinctEmbeddingModels(ctx context.Context) ([]string, error) {
	var models []string
	err := r.db.WithContext(ctx).
		Model(&model.CurriculumChunk{}).
		Distinct("embedding_model").
		Order("embedding_model").
		Pluck("embedding_model", &models).Error
	return models, err
}
