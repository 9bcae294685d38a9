package service

import (
	"context"
	"sort"
	"strings"

	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/internal/repository/contract"
	"curriculum-rag-be/internal/repository/specification"
	"curriculum-rag-be/pkg/objectstore"
)

// ICurriculumStore is the single view of source documents and their stored
// chunks shared by both pipelines.
type ICurriculumStore interface {
	ListDocuments(ctx context.Context) ([]string, error)
	ListUnprocessedDocuments(ctx context.Context) ([]string, error)
	IsProcessed(ctx context.Context, documentName string) (bool, error)
	DownloadDocument(ctx context.Context, documentName string) ([]byte, error)
	InsertChunk(ctx context.Context, documentName string, chunkIndex int, content string, embedding []float32) error
	// Search returns at most limit matches, best first, none below threshold.
	Search(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*entity.ScoredCurriculumChunk, error)
	// DocumentChunks returns the stored chunks of one document in order.
	DocumentChunks(ctx context.Context, documentName string) ([]*entity.CurriculumChunk, error)
	CountChunks(ctx context.Context) (int64, error)
	// VerifyEmbeddingModel fails with a Configuration error when the store
	// holds chunks embedded by a model other than the configured one.
	VerifyEmbeddingModel(ctx context.Context) error
}

type curriculumStore struct {
	objects        objectstore.Store
	chunks         contract.CurriculumChunkRepository
	embeddingModel string
}

func NewCurriculumStore(objects objectstore.Store, chunks contract.CurriculumChunkRepository, embeddingModel string) ICurriculumStore {
	return &curriculumStore{
		objects:        objects,
		chunks:         chunks,
		embeddingModel: embeddingModel,
	}
}

func (s *curriculumStore) ListDocuments(ctx context.Context) ([]string, error) {
	objects, err := s.objects.List(ctx)
	if err != nil {
		return nil, asKind(apperror.KindPersistence, err, "failed to list source documents")
	}

	names := make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, o.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *curriculumStore) ListUnprocessedDocuments(ctx context.Context) ([]string, error) {
	names, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]string, 0, len(names))
	for _, name := range names {
		processed, err := s.IsProcessed(ctx, name)
		if err != nil {
			return nil, err
		}
		if !processed {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

func (s *curriculumStore) IsProcessed(ctx context.Context, documentName string) (bool, error) {
	exists, err := s.chunks.ExistsByDocumentName(ctx, documentName)
	if err != nil {
		return false, apperror.Wrap(apperror.KindPersistence, err, "failed to check document "+documentName)
	}
	return exists, nil
}

func (s *curriculumStore) DownloadDocument(ctx context.Context, documentName string) ([]byte, error) {
	data, err := s.objects.Download(ctx, documentName)
	if err != nil {
		return nil, asKind(apperror.KindPersistence, err, "failed to download "+documentName)
	}
	if len(data) == 0 {
		return nil, apperror.Newf(apperror.KindEmptyPayload, "object %s is empty", documentName)
	}
	return data, nil
}

func (s *curriculumStore) InsertChunk(ctx context.Context, documentName string, chunkIndex int, content string, embedding []float32) error {
	chunk := &entity.CurriculumChunk{
		DocumentName:   documentName,
		ChunkIndex:     chunkIndex,
		Content:        content,
		Embedding:      embedding,
		EmbeddingModel: s.embeddingModel,
	}
	if err := s.chunks.Create(ctx, chunk); err != nil {
		return apperror.Wrap(apperror.KindPersistence, err, "failed to insert chunk")
	}
	return nil
}

func (s *curriculumStore) Search(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*entity.ScoredCurriculumChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	matches, err := s.chunks.SearchSimilar(ctx, embedding, threshold, limit, s.embeddingModel)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, err, "similarity search failed")
	}

	// The SQL function already filters and orders; enforce the contract
	// here too so a drifted function definition cannot break callers.
	filtered := make([]*entity.ScoredCurriculumChunk, 0, len(matches))
	for _, m := range matches {
		if m == nil || m.Chunk == nil || m.Similarity < threshold {
			continue
		}
		filtered = append(filtered, m)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Similarity > filtered[j].Similarity
	})
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (s *curriculumStore) DocumentChunks(ctx context.Context, documentName string) ([]*entity.CurriculumChunk, error) {
	chunks, err := s.chunks.FindAll(ctx,
		specification.ByDocumentName{DocumentName: documentName},
		specification.ByEmbeddingModel{Model: s.embeddingModel},
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, err, "failed to load chunks of "+documentName)
	}
	if len(chunks) == 0 {
		return nil, apperror.Newf(apperror.KindNotFound, "document %s has no stored chunks", documentName)
	}
	return chunks, nil
}

func (s *curriculumStore) CountChunks(ctx context.Context) (int64, error) {
	n, err := s.chunks.Count(ctx, specification.ByEmbeddingModel{Model: s.embeddingModel})
	if err != nil {
		return 0, apperror.Wrap(apperror.KindPersistence, err, "failed to count chunks")
	}
	return n, nil
}

func (s *curriculumStore) VerifyEmbeddingModel(ctx context.Context) error {
	models, err := s.chunks.DistinctEmbeddingModels(ctx)
	if err != nil {
		return apperror.Wrap(apperror.KindPersistence, err, "failed to read stored embedding models")
	}

	var foreign []string
	for _, m := range models {
		if m != s.embeddingModel {
			foreign = append(foreign, m)
		}
	}
	if len(foreign) > 0 {
		return apperror.Newf(apperror.KindConfiguration,
			"embedding model mismatch: configured %q but store holds chunks from %s; re-embed the corpus or change EMBEDDING_MODEL",
			s.embeddingModel, strings.Join(quoteAll(foreign), ", "))
	}
	return nil
}

// asKind keeps an existing apperror kind and wraps anything else as kind.
func asKind(kind apperror.Kind, err error, message string) error {
	if apperror.KindOf(err) != apperror.KindUnknown {
		return err
	}
	return apperror.Wrap(kind, err, message)
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = `"` + v + `"`
	}
	return out
}
