package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"curriculum-rag-be/internal/dto"
	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryFixture struct {
	repo     *fakeChunkRepo
	embedder *keywordEmbedder
	llm      *fakeLLM
	service  IQueryService
}

func newQueryFixture(t *testing.T) *queryFixture {
	f := &queryFixture{
		repo:     &fakeChunkRepo{},
		embedder: &keywordEmbedder{keywords: []string{"fraction", "plant", "history"}},
		llm:      &fakeLLM{tokens: []string{"A", "B", "C"}},
	}
	store := NewCurriculumStore(&fakeObjectStore{}, f.repo, f.embedder.ModelName())

	seed := []struct {
		doc, content string
		vec          []float32
	}{
		{"math-grade4.pdf", "Fractions compare parts of a whole.", []float32{1, 0, 0}},
		{"math-grade5.pdf", "Adding fractions with like denominators.", []float32{1, 0, 0}},
		{"math-grade4.pdf", "Fractions on a number line.", []float32{1, 0.2, 0}},
		{"science-grade4.pdf", "Plants make food from light.", []float32{0, 1, 0}},
	}
	for i, s := range seed {
		require.NoError(t, store.InsertChunk(context.Background(), s.doc, i, s.content, s.vec))
	}

	f.service = NewQueryService(store, f.embedder, f.llm, nil, QueryOptions{
		SimilarityThreshold: 0.5,
		MatchCount:          5,
		MinQuestionLength:   3,
		MaxQuestionLength:   1000,
		EmbedTimeout:        time.Second,
		StreamTimeout:       time.Second,
		Temperature:         0.3,
		MaxTokens:           256,
	})
	return f
}

func collect(events *[]dto.StreamEvent) StreamSink {
	return func(e dto.StreamEvent) error {
		*events = append(*events, e)
		return nil
	}
}

func TestAnswerStreamOrdering(t *testing.T) {
	f := newQueryFixture(t)
	var events []dto.StreamEvent

	err := f.service.Answer(context.Background(), "How are fractions taught?", collect(&events))
	require.NoError(t, err)

	sources := []string{"math-grade4.pdf", "math-grade5.pdf"}
	assert.Equal(t, []dto.StreamEvent{
		dto.StartEvent(sources),
		dto.TokenEvent("A"),
		dto.TokenEvent("B"),
		dto.TokenEvent("C"),
		dto.EndEvent(sources),
	}, events)
	assert.True(t, f.llm.stream.closed.Load())
}

func TestAnswerPromptIsGrounded(t *testing.T) {
	f := newQueryFixture(t)
	var events []dto.StreamEvent

	require.NoError(t, f.service.Answer(context.Background(), "  fractions?  ", collect(&events)))

	require.Len(t, f.llm.messages, 2)
	assert.Equal(t, llm.RoleSystem, f.llm.messages[0].Role)
	user := f.llm.messages[1].Content
	assert.Contains(t, user, "Fractions compare parts of a whole.\n\nAdding fractions with like denominators.")
	assert.Contains(t, user, "Question: fractions?")
	assert.NotContains(t, user, "Plants make food")
}

func TestAnswerRejectsInvalidQuestionsWithoutEmbedding(t *testing.T) {
	tests := []struct {
		name     string
		question string
		wantMsg  string
	}{
		{"empty", "", "question is required"},
		{"whitespace", "   ", "question is required"},
		{"too short", " ab ", "question must be at least 3 characters"},
		{"too long", strings.Repeat("x", 1001), "question must be at most 1000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQueryFixture(t)
			var events []dto.StreamEvent

			err := f.service.Answer(context.Background(), tt.question, collect(&events))
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.wantMsg, apperror.Message(err))
			assert.Zero(t, f.embedder.calls.Load())
			assert.Zero(t, f.repo.searchCalls.Load())
			assert.Empty(t, events)
		})
	}
}

func TestAnswerNoMatch(t *testing.T) {
	f := newQueryFixture(t)
	var events []dto.StreamEvent

	err := f.service.Answer(context.Background(), "What about the history curriculum?", collect(&events))

	assert.ErrorIs(t, err, apperror.ErrNoRelevantInformation)
	assert.Zero(t, f.llm.calls.Load())
	assert.Empty(t, events)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	f := newQueryFixture(t)
	f.embedder.err = errors.New("upstream 503")

	_, err := f.service.Retrieve(context.Background(), "fractions please")
	assert.ErrorIs(t, err, apperror.ErrProvider)
	assert.Zero(t, f.repo.searchCalls.Load())
	assert.Zero(t, f.llm.calls.Load())
}

func TestRetrieveSearchFailure(t *testing.T) {
	f := newQueryFixture(t)
	f.repo.searchErr = errors.New("rpc down")

	_, err := f.service.Retrieve(context.Background(), "fractions please")
	assert.ErrorIs(t, err, apperror.ErrPersistence)
}

func TestStreamUpstreamErrors(t *testing.T) {
	t.Run("open fails", func(t *testing.T) {
		f := newQueryFixture(t)
		f.llm.openErr = apperror.New(apperror.KindProvider, "chat completion failed with status 429")
		var events []dto.StreamEvent

		err := f.service.Answer(context.Background(), "fractions please", collect(&events))
		require.NoError(t, err)
		assert.Equal(t, []dto.StreamEvent{dto.ErrorEvent("chat completion failed with status 429")}, events)
	})

	t.Run("fails mid stream", func(t *testing.T) {
		f := newQueryFixture(t)
		f.llm.tokens = []string{"Partial"}
		f.llm.midErr = errors.New("connection reset")
		var events []dto.StreamEvent

		err := f.service.Answer(context.Background(), "fractions please", collect(&events))
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, dto.StreamEventStart, events[0].Type)
		assert.Equal(t, dto.TokenEvent("Partial"), events[1])
		assert.Equal(t, dto.ErrorEvent("failed to generate an answer"), events[2])
	})
}

func TestStreamStopsWhenSinkFails(t *testing.T) {
	f := newQueryFixture(t)
	f.llm.tokens = []string{"A", "B", "C", "D"}
	gone := errors.New("client disconnected")

	var seen int
	err := f.service.Answer(context.Background(), "fractions please", func(e dto.StreamEvent) error {
		seen++
		if e.Type == dto.StreamEventToken && e.Content == "B" {
			return gone
		}
		return nil
	})

	assert.ErrorIs(t, err, gone)
	assert.Equal(t, 3, seen)
	assert.True(t, f.llm.stream.closed.Load())
	assert.Len(t, f.llm.stream.tokens, 2, "remaining tokens are not consumed")
}

func TestDistinctSources(t *testing.T) {
	match := func(name string) *entity.ScoredCurriculumChunk {
		return &entity.ScoredCurriculumChunk{Chunk: &entity.CurriculumChunk{DocumentName: name}}
	}
	got := distinctSources([]*entity.ScoredCurriculumChunk{match("b"), match("a"), match("b"), match("c")})
	assert.Equal(t, []string{"b", "a", "c"}, got)
}
