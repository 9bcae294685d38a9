package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type IngestionRun struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StartedAt  time.Time      `gorm:"not null;index" json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Success    bool           `gorm:"not null;default:false" json:"success"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	Documents  datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"documents"`
	Logs       datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"logs"`
}

func (IngestionRun) TableName() string {
	return "ingestion_runs"
}
