package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/internal/pkg/logger"
	"curriculum-rag-be/internal/pkg/mailer"
	"curriculum-rag-be/internal/repository/contract"
	"curriculum-rag-be/pkg/embedding"
	"curriculum-rag-be/pkg/events"
	"curriculum-rag-be/pkg/extract"
	"curriculum-rag-be/pkg/lock"
	"curriculum-rag-be/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const ingestModule = "INGEST"

type IIngestionService interface {
	// IngestAll processes every unprocessed source document. The returned
	// run is never nil; err is set only when the whole run was aborted.
	IngestAll(ctx context.Context) (*entity.IngestionRun, error)
	ListPending(ctx context.Context) ([]string, error)
	RecentRuns(ctx context.Context, limit int) ([]*entity.IngestionRun, error)
}

type IngestionOptions struct {
	ChunkSize int
	// Workers bounds how many documents are processed at once. One keeps
	// the run strictly sequential.
	Workers     int
	LockTTL     time.Duration
	ReportEmail string
	// Precheck runs before any document is touched, e.g. settings that
	// only ingestion needs.
	Precheck func() error
}

type IngestionServiceParams struct {
	Store     ICurriculumStore
	Extractor extract.Extractor
	Embedder  embedding.EmbeddingProvider
	Locker    lock.Locker
	Logger    logger.ILogger
	// Optional collaborators; nil disables them.
	Runs      contract.IngestionRunRepository
	Publisher events.Publisher
	Mailer    mailer.IEmailService
	Options   IngestionOptions
}

type ingestionService struct {
	store     ICurriculumStore
	extractor extract.Extractor
	embedder  embedding.EmbeddingProvider
	locker    lock.Locker
	logger    logger.ILogger
	runs      contract.IngestionRunRepository
	publisher events.Publisher
	mailer    mailer.IEmailService
	opts      IngestionOptions
	now       func() time.Time
}

func NewIngestionService(p IngestionServiceParams) IIngestionService {
	opts := p.Options
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = utils.DefaultChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 15 * time.Minute
	}
	log := p.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ingestionService{
		store:     p.Store,
		extractor: p.Extractor,
		embedder:  p.Embedder,
		locker:    p.Locker,
		logger:    log,
		runs:      p.Runs,
		publisher: p.Publisher,
		mailer:    p.Mailer,
		opts:      opts,
		now:       time.Now,
	}
}

// documentResult carries one document's outcome and its log lines so the
// run can report them in listing order whatever the worker count.
type documentResult struct {
	outcome entity.DocumentOutcome
	logs    []string
}

func (r *documentResult) logf(format string, args ...interface{}) {
	r.logs = append(r.logs, fmt.Sprintf(format, args...))
}

func (s *ingestionService) IngestAll(ctx context.Context) (*entity.IngestionRun, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "IngestionService.IngestAll")
	defer span.End()

	run := &entity.IngestionRun{StartedAt: s.now()}

	abort := func(err error) (*entity.IngestionRun, error) {
		run.Success = false
		run.Error = apperror.Message(err)
		run.Logs = append(run.Logs, "Ingestion aborted: "+err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, run.Error)
		s.logger.Error(ingestModule, "Ingestion aborted", map[string]interface{}{"error": err.Error()})
		s.finish(ctx, run)
		return run, err
	}

	if s.opts.Precheck != nil {
		if err := s.opts.Precheck(); err != nil {
			return abort(err)
		}
	}
	if err := s.store.VerifyEmbeddingModel(ctx); err != nil {
		return abort(err)
	}

	names, err := s.store.ListDocuments(ctx)
	if err != nil {
		return abort(err)
	}
	run.Logs = append(run.Logs, fmt.Sprintf("Found %d document(s)", len(names)))
	span.SetAttributes(attribute.Int("ingest.documents", len(names)))

	results := s.processAll(ctx, names)

	for _, res := range results {
		run.Logs = append(run.Logs, res.logs...)
		run.Documents = append(run.Documents, res.outcome)
	}
	counts := countStates(run.Documents)
	run.Logs = append(run.Logs, fmt.Sprintf("Finished: %d done, %d skipped, %d failed",
		counts[entity.DocumentDone], counts[entity.DocumentSkipped], counts[entity.DocumentFailed]))
	run.Success = true

	s.finish(ctx, run)
	return run, nil
}

func (s *ingestionService) processAll(ctx context.Context, names []string) []documentResult {
	results := make([]documentResult, len(names))

	workers := s.opts.Workers
	if workers > len(names) {
		workers = len(names)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.processDocument(ctx, names[i])
			}
		}()
	}

	for i := range names {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (s *ingestionService) processDocument(ctx context.Context, name string) (res documentResult) {
	ctx, span := otel.Tracer("service").Start(ctx, "IngestionService.processDocument")
	span.SetAttributes(attribute.String("document.name", name))
	defer span.End()

	res.outcome = entity.DocumentOutcome{Name: name, State: entity.DocumentPending}

	setState := func(state entity.DocumentState) {
		res.outcome.State = state
		s.logger.Debug(ingestModule, "Document state changed", map[string]interface{}{"document": name, "state": string(state)})
	}
	skip := func(reason string) documentResult {
		setState(entity.DocumentSkipped)
		res.outcome.Reason = reason
		res.logf("Skipped %s: %s", name, reason)
		return res
	}
	fail := func(reason string, err error) documentResult {
		setState(entity.DocumentFailed)
		res.outcome.Reason = reason
		details := map[string]interface{}{"document": name, "reason": reason}
		if err != nil {
			details["error"] = err.Error()
			res.logf("Failed %s: %s: %v", name, reason, err)
			span.RecordError(err)
		} else {
			res.logf("Failed %s: %s", name, reason)
		}
		span.SetStatus(codes.Error, reason)
		s.logger.Error(ingestModule, "Document failed", details)
		return res
	}

	processed, err := s.store.IsProcessed(ctx, name)
	if err != nil {
		return fail("existence check failed", err)
	}
	if processed {
		return skip("already processed")
	}

	release, acquired, err := s.locker.Acquire(ctx, "ingest:"+name, s.opts.LockTTL)
	if err != nil {
		return fail("could not lock document", err)
	}
	if !acquired {
		return skip("being processed by another worker")
	}
	defer release()

	// Another worker may have finished it between the first check and the lock.
	processed, err = s.store.IsProcessed(ctx, name)
	if err != nil {
		return fail("existence check failed", err)
	}
	if processed {
		return skip("already processed")
	}

	res.logf("Processing %s", name)

	setState(entity.DocumentDownloading)
	data, err := s.store.DownloadDocument(ctx, name)
	if err != nil {
		return fail("download failed", err)
	}

	setState(entity.DocumentExtracting)
	text, err := s.extractor.Extract(name, data)
	if err != nil {
		return fail("no text extracted", err)
	}

	setState(entity.DocumentChunking)
	chunks := utils.ChunkText(text, s.opts.ChunkSize)
	if len(chunks) == 0 {
		return fail("no text extracted", nil)
	}
	res.outcome.TotalChunks = len(chunks)

	setState(entity.DocumentEmbedding)
	for i, chunk := range chunks {
		if err := s.storeChunk(ctx, name, i, chunk); err != nil {
			res.logf("Chunk %d/%d of %s skipped: %v", i+1, len(chunks), name, err)
			s.logger.Warn(ingestModule, "Chunk skipped", map[string]interface{}{
				"document":    name,
				"chunk_index": i,
				"error":       err.Error(),
			})
			continue
		}
		res.outcome.StoredChunks++
	}

	if res.outcome.StoredChunks == 0 {
		return fail("no chunks stored", nil)
	}

	setState(entity.DocumentDone)
	res.logf("Done %s: %d/%d chunks stored", name, res.outcome.StoredChunks, res.outcome.TotalChunks)
	s.logger.Info(ingestModule, "Document ingested", map[string]interface{}{
		"document":      name,
		"total_chunks":  res.outcome.TotalChunks,
		"stored_chunks": res.outcome.StoredChunks,
	})
	return res
}

func (s *ingestionService) storeChunk(ctx context.Context, name string, index int, content string) error {
	emb, err := s.embedder.Generate(ctx, content, embedding.TaskRetrievalDocument)
	if err != nil {
		return asKind(apperror.KindProvider, err, "embedding failed")
	}
	values := emb.Values()
	if len(values) == 0 {
		return apperror.New(apperror.KindProvider, "embedding provider returned no data")
	}
	return s.store.InsertChunk(ctx, name, index, content, values)
}

// finish records the run. Every step is best effort: a history or
// notification failure never changes the run result.
func (s *ingestionService) finish(ctx context.Context, run *entity.IngestionRun) {
	run.FinishedAt = s.now()
	// The caller may have gone away; the run still happened.
	ctx = context.WithoutCancel(ctx)

	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			s.logger.Warn(ingestModule, "Failed to save ingestion run", map[string]interface{}{"error": err.Error()})
		}
	}

	if s.publisher != nil {
		counts := map[string]int{}
		for state, n := range countStates(run.Documents) {
			counts[string(state)] = n
		}
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := s.publisher.Publish(pubCtx, events.NewIngestionCompleted(run.Id.String(), run.Success, counts, run.FinishedAt))
		cancel()
		if err != nil {
			s.logger.Warn(ingestModule, "Failed to publish ingestion event", map[string]interface{}{"error": err.Error()})
		}
	}

	if s.mailer != nil && s.opts.ReportEmail != "" {
		report := *run
		go func() {
			if err := s.mailer.SendIngestionReport(s.opts.ReportEmail, &report); err != nil {
				s.logger.Warn(ingestModule, "Failed to send ingestion report", map[string]interface{}{"error": err.Error()})
			}
		}()
	}
}

func (s *ingestionService) ListPending(ctx context.Context) ([]string, error) {
	if err := s.store.VerifyEmbeddingModel(ctx); err != nil {
		return nil, err
	}
	return s.store.ListUnprocessedDocuments(ctx)
}

func (s *ingestionService) RecentRuns(ctx context.Context, limit int) ([]*entity.IngestionRun, error) {
	if s.runs == nil {
		return []*entity.IngestionRun{}, nil
	}
	runs, err := s.runs.FindRecent(ctx, limit)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, err, "failed to load ingestion runs")
	}
	return runs, nil
}

func countStates(documents []entity.DocumentOutcome) map[entity.DocumentState]int {
	counts := map[entity.DocumentState]int{}
	for _, d := range documents {
		counts[d.State]++
	}
	return counts
}
