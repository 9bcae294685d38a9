package service

import (
	"context"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/internal/repository/specification"
	"curriculum-rag-be/pkg/embedding"
	"curriculum-rag-be/pkg/llm"
	"curriculum-rag-be/pkg/objectstore"

	"github.com/google/uuid"
)

type fakeObjectStore struct {
	objects      map[string][]byte
	downloadErrs map[string]error
	listErr      error
}

func (f *fakeObjectStore) List(ctx context.Context) ([]objectstore.Object, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []objectstore.Object
	for name, data := range f.objects {
		out = append(out, objectstore.Object{Name: name, Size: int64(len(data))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeObjectStore) Download(ctx context.Context, name string) ([]byte, error) {
	if err := f.downloadErrs[name]; err != nil {
		return nil, err
	}
	data, ok := f.objects[name]
	if !ok {
		return nil, apperror.Newf(apperror.KindNotFound, "object %s not found", name)
	}
	return data, nil
}

type fakeChunkRepo struct {
	mu        sync.Mutex
	chunks    []*entity.CurriculumChunk
	failOn    func(*entity.CurriculumChunk) bool
	searchErr error
	// searchOverride replaces the cosine search, e.g. to return a
	// misbehaving result set.
	searchOverride []*entity.ScoredCurriculumChunk
	searchCalls    atomic.Int32
}

func (f *fakeChunkRepo) Create(ctx context.Context, chunk *entity.CurriculumChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil && f.failOn(chunk) {
		return io.ErrUnexpectedEOF
	}
	for _, c := range f.chunks {
		if c.DocumentName == chunk.DocumentName && c.ChunkIndex == chunk.ChunkIndex && c.EmbeddingModel == chunk.EmbeddingModel {
			return io.ErrShortWrite
		}
	}
	copied := *chunk
	copied.Id = uuid.New()
	f.chunks = append(f.chunks, &copied)
	return nil
}

// matching evaluates the curriculum specifications in memory.
func matching(c *entity.CurriculumChunk, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByDocumentName:
			if c.DocumentName != s.DocumentName {
				return false
			}
		case specification.ByEmbeddingModel:
			if c.EmbeddingModel != s.Model {
				return false
			}
		}
	}
	return true
}

func (f *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CurriculumChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.CurriculumChunk
	for _, c := range f.chunks {
		if matching(c, specs) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DocumentName != out[j].DocumentName {
			return out[i].DocumentName < out[j].DocumentName
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out, nil
}

func (f *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.chunks {
		if matching(c, specs) {
			n++
		}
	}
	return n, nil
}

func (f *fakeChunkRepo) ExistsByDocumentName(ctx context.Context, documentName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chunks {
		if c.DocumentName == documentName {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChunkRepo) SearchSimilar(ctx context.Context, emb []float32, threshold float64, limit int, embeddingModel string) ([]*entity.ScoredCurriculumChunk, error) {
	f.searchCalls.Add(1)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.searchOverride != nil {
		return f.searchOverride, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var scored []*entity.ScoredCurriculumChunk
	for _, c := range f.chunks {
		if c.EmbeddingModel != embeddingModel {
			continue
		}
		sim := cosine(emb, c.Embedding)
		if sim >= threshold {
			scored = append(scored, &entity.ScoredCurriculumChunk{Chunk: c, Similarity: sim})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (f *fakeChunkRepo) DistinctEmbeddingModels(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var models []string
	for _, c := range f.chunks {
		if !seen[c.EmbeddingModel] {
			seen[c.EmbeddingModel] = true
			models = append(models, c.EmbeddingModel)
		}
	}
	sort.Strings(models)
	return models, nil
}

func (f *fakeChunkRepo) documentChunks(name string) []*entity.CurriculumChunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.CurriculumChunk
	for _, c := range f.chunks {
		if c.DocumentName == name {
			out = append(out, c)
		}
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// plainExtractor treats the payload as text.
type plainExtractor struct{}

func (plainExtractor) Extract(name string, data []byte) (string, error) {
	if strings.TrimSpace(string(data)) == "" {
		return "", apperror.New(apperror.KindNoTextExtracted, "no text extracted")
	}
	return string(data), nil
}

// keywordEmbedder maps text onto a vector of keyword hits so similarity is
// predictable in tests.
type keywordEmbedder struct {
	keywords []string
	failOn   string
	err      error
	calls    atomic.Int32
}

func (e *keywordEmbedder) ModelName() string { return "test-embed" }

func (e *keywordEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, apperror.New(apperror.KindProvider, "embedding upstream error")
	}
	lower := strings.ToLower(text)
	values := make([]float32, len(e.keywords))
	for i, k := range e.keywords {
		if strings.Contains(lower, k) {
			values[i] = 1
		}
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: values}}, nil
}

type fakeTokenStream struct {
	tokens []string
	err    error
	closed atomic.Bool
}

func (s *fakeTokenStream) Recv() (string, error) {
	if len(s.tokens) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	t := s.tokens[0]
	s.tokens = s.tokens[1:]
	return t, nil
}

func (s *fakeTokenStream) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeLLM struct {
	tokens   []string
	midErr   error
	openErr  error
	calls    atomic.Int32
	messages []llm.Message
	stream   *fakeTokenStream
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (llm.TokenStream, error) {
	f.calls.Add(1)
	f.messages = history
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.stream = &fakeTokenStream{tokens: append([]string(nil), f.tokens...), err: f.midErr}
	return f.stream, nil
}
