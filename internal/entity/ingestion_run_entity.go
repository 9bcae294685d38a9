package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentState string

const (
	DocumentPending     DocumentState = "pending"
	DocumentDownloading DocumentState = "downloading"
	DocumentExtracting  DocumentState = "extracting"
	DocumentChunking    DocumentState = "chunking"
	DocumentEmbedding   DocumentState = "embedding"
	DocumentDone        DocumentState = "done"
	DocumentSkipped     DocumentState = "skipped"
	DocumentFailed      DocumentState = "failed"
)

// DocumentOutcome is the final state of one document in an ingestion run.
type DocumentOutcome struct {
	Name         string        `json:"name"`
	State        DocumentState `json:"state"`
	Reason       string        `json:"reason,omitempty"`
	TotalChunks  int           `json:"total_chunks"`
	StoredChunks int           `json:"stored_chunks"`
}

type IngestionRun struct {
	Id         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Success    bool
	Error      string
	Documents  []DocumentOutcome
	Logs       []string
}
