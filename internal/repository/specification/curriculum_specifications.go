package specification

import "gorm.io/gorm"

type ByDocumentName struct {
	DocumentName string
}

func (s ByDocumentName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_name = ?", s.DocumentName)
}

type ByEmbeddingModel struct {
	Model string
}

func (s ByEmbeddingModel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding_model = ?", s.Model)
}
