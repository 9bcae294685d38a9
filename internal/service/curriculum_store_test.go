package service

import (
	"context"
	"errors"
	"testing"

	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurriculumStoreListUnprocessed(t *testing.T) {
	objects := &fakeObjectStore{objects: map[string][]byte{
		"b.pdf": []byte("b"),
		"a.pdf": []byte("a"),
		"c.pdf": []byte("c"),
	}}
	repo := &fakeChunkRepo{}
	store := NewCurriculumStore(objects, repo, "test-embed")
	ctx := context.Background()

	require.NoError(t, store.InsertChunk(ctx, "b.pdf", 0, "content", []float32{1}))

	names, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, names)

	pending, err := store.ListUnprocessedDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, pending)

	processed, err := store.IsProcessed(ctx, "b.pdf")
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, "test-embed", repo.documentChunks("b.pdf")[0].EmbeddingModel)
}

func TestCurriculumStoreDownload(t *testing.T) {
	objects := &fakeObjectStore{
		objects:      map[string][]byte{"empty.pdf": {}, "ok.pdf": []byte("x")},
		downloadErrs: map[string]error{"broken.pdf": errors.New("connection reset")},
	}
	store := NewCurriculumStore(objects, &fakeChunkRepo{}, "m")
	ctx := context.Background()

	data, err := store.DownloadDocument(ctx, "ok.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	_, err = store.DownloadDocument(ctx, "missing.pdf")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = store.DownloadDocument(ctx, "empty.pdf")
	assert.ErrorIs(t, err, apperror.ErrEmptyPayload)

	_, err = store.DownloadDocument(ctx, "broken.pdf")
	assert.ErrorIs(t, err, apperror.ErrPersistence)
}

func TestCurriculumStoreSearchEnforcesContract(t *testing.T) {
	chunk := func(name string) *entity.CurriculumChunk {
		return &entity.CurriculumChunk{DocumentName: name}
	}
	repo := &fakeChunkRepo{searchOverride: []*entity.ScoredCurriculumChunk{
		{Chunk: chunk("low.pdf"), Similarity: 0.2},
		{Chunk: chunk("b.pdf"), Similarity: 0.7},
		{Chunk: chunk("a.pdf"), Similarity: 0.9},
		{Chunk: chunk("c.pdf"), Similarity: 0.6},
		{Chunk: chunk("d.pdf"), Similarity: 0.55},
		{Chunk: chunk("e.pdf"), Similarity: 0.51},
		{Chunk: chunk("f.pdf"), Similarity: 0.5},
		nil,
	}}
	store := NewCurriculumStore(&fakeObjectStore{}, repo, "m")

	matches, err := store.Search(context.Background(), []float32{1}, 0.5, 5)
	require.NoError(t, err)

	require.Len(t, matches, 5)
	var names []string
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Similarity, 0.5)
		names = append(names, m.Chunk.DocumentName)
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"}, names)
}

func TestCurriculumStoreSearchError(t *testing.T) {
	repo := &fakeChunkRepo{searchErr: errors.New("rpc failed")}
	_, err := NewCurriculumStore(&fakeObjectStore{}, repo, "m").Search(context.Background(), []float32{1}, 0.5, 5)
	assert.ErrorIs(t, err, apperror.ErrPersistence)
}

func TestCurriculumStoreVerifyEmbeddingModel(t *testing.T) {
	ctx := context.Background()
	repo := &fakeChunkRepo{}
	store := NewCurriculumStore(&fakeObjectStore{}, repo, "text-embedding-3-small")

	require.NoError(t, store.VerifyEmbeddingModel(ctx), "empty store is fine")

	require.NoError(t, repo.Create(ctx, &entity.CurriculumChunk{DocumentName: "a.pdf", EmbeddingModel: "text-embedding-3-small"}))
	require.NoError(t, store.VerifyEmbeddingModel(ctx))

	require.NoError(t, repo.Create(ctx, &entity.CurriculumChunk{DocumentName: "b.pdf", EmbeddingModel: "text-embedding-ada-002"}))
	err := store.VerifyEmbeddingModel(ctx)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
	assert.Contains(t, err.Error(), `"text-embedding-ada-002"`)
}

func TestCurriculumStoreDocumentChunks(t *testing.T) {
	repo := &fakeChunkRepo{}
	store := NewCurriculumStore(&fakeObjectStore{}, repo, "current")
	ctx := context.Background()

	require.NoError(t, store.InsertChunk(ctx, "a.pdf", 1, "second", []float32{1}))
	require.NoError(t, store.InsertChunk(ctx, "a.pdf", 0, "first", []float32{1}))
	require.NoError(t, store.InsertChunk(ctx, "b.pdf", 0, "other", []float32{1}))
	require.NoError(t, repo.Create(ctx, &entity.CurriculumChunk{DocumentName: "a.pdf", ChunkIndex: 0, Content: "stale", EmbeddingModel: "old"}))

	chunks, err := store.DocumentChunks(ctx, "a.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first", chunks[0].Content)
	assert.Equal(t, "second", chunks[1].Content)

	_, err = store.DocumentChunks(ctx, "missing.pdf")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
