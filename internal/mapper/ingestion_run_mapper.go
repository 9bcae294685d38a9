package mapper

import (
	"encoding/json"

	"curriculum-rag-be/internal/dto"
	"curriculum-rag-be/internal/entity"
	"curriculum-rag-be/internal/model"

	"gorm.io/datatypes"
)

type IngestionRunMapper struct{}

func NewIngestionRunMapper() *IngestionRunMapper {
	return &IngestionRunMapper{}
}

func (m *IngestionRunMapper) ToEntity(r *model.IngestionRun) *entity.IngestionRun {
	if r == nil {
		return nil
	}

	run := &entity.IngestionRun{
		Id:         r.Id,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Success:    r.Success,
		Error:      r.Error,
		Documents:  []entity.DocumentOutcome{},
		Logs:       []string{},
	}
	// Malformed history rows are shown empty rather than failing the listing.
	if len(r.Documents) > 0 {
		_ = json.Unmarshal(r.Documents, &run.Documents)
	}
	if len(r.Logs) > 0 {
		_ = json.Unmarshal(r.Logs, &run.Logs)
	}
	return run
}

func (m *IngestionRunMapper) ToModel(r *entity.IngestionRun) (*model.IngestionRun, error) {
	if r == nil {
		return nil, nil
	}

	documents := r.Documents
	if documents == nil {
		documents = []entity.DocumentOutcome{}
	}
	logs := r.Logs
	if logs == nil {
		logs = []string{}
	}

	documentsJSON, err := json.Marshal(documents)
	if err != nil {
		return nil, err
	}
	logsJSON, err := json.Marshal(logs)
	if err != nil {
		return nil, err
	}

	return &model.IngestionRun{
		Id:         r.Id,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Success:    r.Success,
		Error:      r.Error,
		Documents:  datatypes.JSON(documentsJSON),
		Logs:       datatypes.JSON(logsJSON),
	}, nil
}

func (m *IngestionRunMapper) ToDocumentResults(documents []entity.DocumentOutcome) []dto.DocumentResult {
	results := make([]dto.DocumentResult, len(documents))
	for i, d := range documents {
		results[i] = dto.DocumentResult{
			Name:         d.Name,
			State:        string(d.State),
			Reason:       d.Reason,
			TotalChunks:  d.TotalChunks,
			StoredChunks: d.StoredChunks,
		}
	}
	return results
}

func (m *IngestionRunMapper) ToResponse(r *entity.IngestionRun) dto.IngestionRunResponse {
	logs := r.Logs
	if logs == nil {
		logs = []string{}
	}
	return dto.IngestionRunResponse{
		Id:         r.Id,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Success:    r.Success,
		Error:      r.Error,
		Documents:  m.ToDocumentResults(r.Documents),
		Logs:       logs,
	}
}
