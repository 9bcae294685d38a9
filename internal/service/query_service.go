package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"curriculum-rag-be/internal/constant"
	"curriculum-rag-be/internal/dto"
	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/internal/pkg/logger"
	"curriculum-rag-be/pkg/embedding"
	"curriculum-rag-be/pkg/llm"
	"curriculum-rag-be/pkg/rag/prompt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const queryModule = "QUERY"

// StreamSink receives answer events in order. An error means the consumer
// is gone and streaming should stop.
type StreamSink func(event dto.StreamEvent) error

// Retrieval is the outcome of the pre-stream phase of a query.
type Retrieval struct {
	Question string
	Matches  []*entity.ScoredCurriculumChunk
	Sources  []string
}

type IQueryService interface {
	// Retrieve validates, embeds and searches. It fails before anything is
	// streamed, so callers can still pick an HTTP status.
	Retrieve(ctx context.Context, question string) (*Retrieval, error)
	// Stream emits start, token* and end, or error. Only a sink failure is
	// returned; upstream failures become an error event.
	Stream(ctx context.Context, retrieval *Retrieval, sink StreamSink) error
	Answer(ctx context.Context, question string, sink StreamSink) error
}

type QueryOptions struct {
	SimilarityThreshold float64
	MatchCount          int
	MinQuestionLength   int
	MaxQuestionLength   int
	EmbedTimeout        time.Duration
	StreamTimeout       time.Duration
	Temperature         float64
	MaxTokens           int
	// MaxContextRunes caps the context block; zero leaves it unbounded.
	MaxContextRunes int
}

type queryService struct {
	store    ICurriculumStore
	embedder embedding.EmbeddingProvider
	llm      llm.LLMProvider
	prompt   *prompt.GroundedBuilder
	logger   logger.ILogger
	opts     QueryOptions
}

func NewQueryService(store ICurriculumStore, embedder embedding.EmbeddingProvider, llmProvider llm.LLMProvider, log logger.ILogger, opts QueryOptions) IQueryService {
	if opts.MatchCount <= 0 {
		opts.MatchCount = 5
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &queryService{
		store:    store,
		embedder: embedder,
		llm:      llmProvider,
		prompt:   prompt.NewGroundedBuilder(constant.CurriculumSystemPrompt, constant.CurriculumUserPromptTemplate, opts.MaxContextRunes),
		logger:   log,
		opts:     opts,
	}
}

// ValidateQuestion trims the question and enforces the length bounds. It
// is the only place question validation happens.
func ValidateQuestion(question string, minLength, maxLength int) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", apperror.New(apperror.KindValidation, "question is required")
	}
	n := utf8.RuneCountInString(q)
	if minLength > 0 && n < minLength {
		return "", apperror.Newf(apperror.KindValidation, "question must be at least %d characters", minLength)
	}
	if maxLength > 0 && n > maxLength {
		return "", apperror.Newf(apperror.KindValidation, "question must be at most %d characters", maxLength)
	}
	return q, nil
}

func (s *queryService) Retrieve(ctx context.Context, question string) (*Retrieval, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "QueryService.Retrieve")
	defer span.End()

	q, err := ValidateQuestion(question, s.opts.MinQuestionLength, s.opts.MaxQuestionLength)
	if err != nil {
		return nil, err
	}

	embedCtx := ctx
	if s.opts.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, s.opts.EmbedTimeout)
		defer cancel()
	}

	emb, err := s.embedder.Generate(embedCtx, q, embedding.TaskRetrievalQuery)
	if err != nil {
		if errors.Is(embedCtx.Err(), context.DeadlineExceeded) {
			err = apperror.Wrap(apperror.KindProvider, err, "embedding the question timed out")
		}
		err = asKind(apperror.KindProvider, err, "failed to embed the question")
		span.RecordError(err)
		s.logger.Error(queryModule, "Question embedding failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	values := emb.Values()
	if len(values) == 0 {
		return nil, apperror.New(apperror.KindProvider, "embedding provider returned no data")
	}

	matches, err := s.store.Search(ctx, values, s.opts.SimilarityThreshold, s.opts.MatchCount)
	if err != nil {
		span.RecordError(err)
		s.logger.Error(queryModule, "Similarity search failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	span.SetAttributes(attribute.Int("query.matches", len(matches)))
	if len(matches) == 0 {
		return nil, apperror.New(apperror.KindNoRelevantInformation, constant.NoRelevantInformationMessage)
	}

	return &Retrieval{
		Question: q,
		Matches:  matches,
		Sources:  distinctSources(matches),
	}, nil
}

func (s *queryService) Stream(ctx context.Context, retrieval *Retrieval, sink StreamSink) error {
	ctx, span := otel.Tracer("service").Start(ctx, "QueryService.Stream")
	defer span.End()

	if s.opts.StreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.StreamTimeout)
		defer cancel()
	}

	excerpts := make([]string, len(retrieval.Matches))
	for i, m := range retrieval.Matches {
		excerpts[i] = m.Chunk.Content
	}
	messages := s.prompt.Build(excerpts, retrieval.Question)

	stream, err := s.llm.ChatStream(ctx, messages,
		llm.WithTemperature(s.opts.Temperature),
		llm.WithMaxTokens(s.opts.MaxTokens),
	)
	if err != nil {
		return s.streamFailed(ctx, sink, err)
	}
	defer stream.Close()

	if err := sink(dto.StartEvent(retrieval.Sources)); err != nil {
		return err
	}

	tokens := 0
	for {
		token, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s.streamFailed(ctx, sink, err)
		}
		if token == "" {
			continue
		}
		tokens++
		if err := sink(dto.TokenEvent(token)); err != nil {
			s.logger.Info(queryModule, "Client disconnected during stream", map[string]interface{}{"tokens": tokens})
			return err
		}
	}

	span.SetAttributes(attribute.Int("query.tokens", tokens))
	return sink(dto.EndEvent(retrieval.Sources))
}

func (s *queryService) streamFailed(ctx context.Context, sink StreamSink, err error) error {
	message := "failed to generate an answer"
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		message = "the answer took too long and was stopped"
	case apperror.KindOf(err) != apperror.KindUnknown:
		message = apperror.Message(err)
	}
	s.logger.Error(queryModule, "Answer stream failed", map[string]interface{}{"error": err.Error()})
	return sink(dto.ErrorEvent(message))
}

func (s *queryService) Answer(ctx context.Context, question string, sink StreamSink) error {
	retrieval, err := s.Retrieve(ctx, question)
	if err != nil {
		return err
	}
	return s.Stream(ctx, retrieval, sink)
}

// distinctSources lists document names in ranked order, first occurrence wins.
func distinctSources(matches []*entity.ScoredCurriculumChunk) []string {
	seen := make(map[string]bool, len(matches))
	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m.Chunk.DocumentName
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, name)
	}
	return sources
}
