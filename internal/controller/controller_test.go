package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"curriculum-rag-be/internal/dto"
	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/internal/pkg/serverutils"
	"curriculum-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngestion struct {
	run     *entity.IngestionRun
	err     error
	pending []string
	calls   int
}

func (f *fakeIngestion) IngestAll(ctx context.Context) (*entity.IngestionRun, error) {
	f.calls++
	return f.run, f.err
}

func (f *fakeIngestion) ListPending(ctx context.Context) ([]string, error) {
	return f.pending, nil
}

func (f *fakeIngestion) RecentRuns(ctx context.Context, limit int) ([]*entity.IngestionRun, error) {
	return []*entity.IngestionRun{f.run}, nil
}

type fakeTrigger struct{}

func (fakeTrigger) Request(ctx context.Context) (string, error) { return "req-1", nil }

type fakeQuery struct {
	retrieveErr error
	events      []dto.StreamEvent
	question    string
}

func (f *fakeQuery) Retrieve(ctx context.Context, question string) (*service.Retrieval, error) {
	f.question = question
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	return &service.Retrieval{Question: question, Sources: []string{"math.pdf"}}, nil
}

func (f *fakeQuery) Stream(ctx context.Context, r *service.Retrieval, sink service.StreamSink) error {
	for _, e := range f.events {
		if err := sink(e); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeQuery) Answer(ctx context.Context, question string, sink service.StreamSink) error {
	r, err := f.Retrieve(ctx, question)
	if err != nil {
		return err
	}
	return f.Stream(ctx, r, sink)
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	return app
}

func TestIngestController(t *testing.T) {
	run := &entity.IngestionRun{
		Success: true,
		Logs:    []string{"Found 1 document(s)", "Done a.pdf: 2/2 chunks stored"},
		Documents: []entity.DocumentOutcome{
			{Name: "a.pdf", State: entity.DocumentDone, TotalChunks: 2, StoredChunks: 2},
		},
	}

	tests := []struct {
		name       string
		auth       string
		run        *entity.IngestionRun
		err        error
		wantStatus int
		wantBody   dto.IngestResponse
		wantCalls  int
	}{
		{
			name:       "success",
			auth:       "Bearer s3cret",
			run:        run,
			wantStatus: 200,
			wantBody: dto.IngestResponse{
				Success:   true,
				Logs:      run.Logs,
				Documents: []dto.DocumentResult{{Name: "a.pdf", State: "done", TotalChunks: 2, StoredChunks: 2}},
			},
			wantCalls: 1,
		},
		{
			name:       "aborted run",
			auth:       "Bearer s3cret",
			run:        &entity.IngestionRun{Logs: []string{"Ingestion aborted: boom"}},
			err:        apperror.New(apperror.KindConfiguration, "missing configuration: SUPABASE_URL"),
			wantStatus: 500,
			wantBody:   dto.IngestResponse{Success: false, Error: "missing configuration: SUPABASE_URL", Logs: []string{"Ingestion aborted: boom"}},
			wantCalls:  1,
		},
		{
			name:       "wrong secret",
			auth:       "Bearer nope",
			wantStatus: 401,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingestion := &fakeIngestion{run: tt.run, err: tt.err}
			app := newApp()
			NewIngestController(ingestion, fakeTrigger{}, "s3cret").RegisterRoutes(app)

			req := httptest.NewRequest("POST", "/ingest", nil)
			req.Header.Set("Authorization", tt.auth)
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, ingestion.calls)
			if tt.wantStatus == 401 {
				return
			}
			var body dto.IngestResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestIngestControllerAsyncAndPending(t *testing.T) {
	app := newApp()
	NewIngestController(&fakeIngestion{pending: []string{"b.pdf"}}, fakeTrigger{}, "s3cret").RegisterRoutes(app)

	req := httptest.NewRequest("POST", "/ingest/async", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)

	req = httptest.NewRequest("GET", "/ingest/pending", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = app.Test(req)
	require.NoError(t, err)

	var body serverutils.BaseResponse[dto.PendingDocumentsResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"b.pdf"}, body.Data.Documents)
}

func postQuery(t *testing.T, app *fiber.App, body string) (int, string, string) {
	req := httptest.NewRequest("POST", "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Content-Type"), string(data)
}

func readEvents(t *testing.T, body string) []dto.StreamEvent {
	var events []dto.StreamEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e dto.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		events = append(events, e)
	}
	return events
}

func TestQueryControllerStreams(t *testing.T) {
	q := &fakeQuery{events: []dto.StreamEvent{
		dto.StartEvent([]string{"math.pdf"}),
		dto.TokenEvent("A"),
		dto.TokenEvent("B"),
		dto.EndEvent([]string{"math.pdf"}),
	}}
	app := newApp()
	NewQueryController(q, "").RegisterRoutes(app)

	status, contentType, body := postQuery(t, app, `{"question":"What is a fraction?"}`)

	assert.Equal(t, 200, status)
	assert.Equal(t, "text/event-stream", contentType)
	assert.Equal(t, q.events, readEvents(t, body))
	assert.Equal(t, "What is a fraction?", q.question)
}

func TestQueryControllerErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		retrieveErr error
		wantStatus  int
		wantSSE     bool
		wantMessage string
	}{
		{"missing question", `{}`, nil, 400, false, "question is required"},
		{"bad json", `{`, nil, 400, false, "invalid request body"},
		{"validation from service", `{"question":"  "}`, apperror.New(apperror.KindValidation, "question is required"), 400, false, "question is required"},
		{"no relevant chunks", `{"question":"Who won the cup?"}`, apperror.New(apperror.KindNoRelevantInformation, "No relevant curriculum information was found"), 404, false, "No relevant curriculum information was found"},
		{"embedding failure", `{"question":"What is a fraction?"}`, apperror.New(apperror.KindProvider, "failed to embed the question"), 500, true, "failed to embed the question"},
		{"unknown failure", `{"question":"What is a fraction?"}`, errors.New("secret dsn leaked"), 500, true, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			NewQueryController(&fakeQuery{retrieveErr: tt.retrieveErr}, "").RegisterRoutes(app)

			status, contentType, body := postQuery(t, app, tt.body)
			assert.Equal(t, tt.wantStatus, status)

			if tt.wantSSE {
				assert.Equal(t, "text/event-stream", contentType)
				assert.Equal(t, []dto.StreamEvent{dto.ErrorEvent(tt.wantMessage)}, readEvents(t, body))
				return
			}
			var res serverutils.BaseResponse[any]
			require.NoError(t, json.Unmarshal([]byte(body), &res))
			assert.Equal(t, tt.wantMessage, res.Message)
		})
	}
}

func TestQueryControllerJwtGuard(t *testing.T) {
	app := newApp()
	NewQueryController(&fakeQuery{}, "jwt-secret").RegisterRoutes(app)

	status, _, _ := postQuery(t, app, `{"question":"What is a fraction?"}`)
	assert.Equal(t, 401, status)
}

func TestHealthController(t *testing.T) {
	tests := []struct {
		name       string
		ping       func(context.Context) error
		wantStatus int
		wantBody   string
	}{
		{"no ping", nil, 200, `{"status":"ok"}`},
		{"db up", func(context.Context) error { return nil }, 200, `{"status":"ok"}`},
		{"db down", func(context.Context) error { return errors.New("refused") }, 503, `{"status":"degraded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			NewHealthController(tt.ping).RegisterRoutes(app)

			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.JSONEq(t, tt.wantBody, string(body))
		})
	}
}
