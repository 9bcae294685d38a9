package mailer

import (
	"testing"
	"time"

	"curriculum-rag-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIngestionReport(t *testing.T) {
	start := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	run := &entity.IngestionRun{
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Minute),
		Success:    true,
		Documents: []entity.DocumentOutcome{
			{Name: "math-<5>.pdf", State: entity.DocumentDone, TotalChunks: 4, StoredChunks: 4},
			{Name: "science.pdf", State: entity.DocumentFailed, Reason: "no text extracted"},
			{Name: "art.pdf", State: entity.DocumentSkipped, Reason: "already processed"},
		},
	}

	subject, body, err := RenderIngestionReport(run)
	require.NoError(t, err)

	assert.Equal(t, "Curriculum ingestion: 1 done, 1 skipped, 1 failed", subject)
	assert.Contains(t, body, "math-&lt;5&gt;.pdf")
	assert.Contains(t, body, "4/4")
	assert.Contains(t, body, "no text extracted")
}

func TestRenderIngestionReportFailedRun(t *testing.T) {
	subject, body, err := RenderIngestionReport(&entity.IngestionRun{Error: "missing configuration: INGEST_SECRET"})
	require.NoError(t, err)
	assert.Equal(t, "Curriculum ingestion failed", subject)
	assert.Contains(t, body, "missing configuration: INGEST_SECRET")
}
