package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResult struct {
	Name         string `json:"name"`
	State        string `json:"state"`
	Reason       string `json:"reason,omitempty"`
	TotalChunks  int    `json:"total_chunks"`
	StoredChunks int    `json:"stored_chunks"`
}

// IngestResponse is returned by POST /ingest. Error is only set when the
// whole run was aborted.
type IngestResponse struct {
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	Logs      []string         `json:"logs"`
	Documents []DocumentResult `json:"documents,omitempty"`
}

type IngestionRunResponse struct {
	Id         uuid.UUID        `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Success    bool             `json:"success"`
	Error      string           `json:"error,omitempty"`
	Documents  []DocumentResult `json:"documents"`
	Logs       []string         `json:"logs"`
}

type PendingDocumentsResponse struct {
	Documents []string `json:"documents"`
}

type AsyncIngestResponse struct {
	RequestId string `json:"request_id"`
}

// IngestRequestedMessage is the payload of the async ingestion topic.
type IngestRequestedMessage struct {
	RequestId   string    `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
}
