package scope

import "gorm.io/gorm"

func OrderByStartedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("started_at DESC")
}

// OrderByChunkPosition returns chunks in document reading order.
func OrderByChunkPosition(db *gorm.DB) *gorm.DB {
	return db.Order("document_name ASC").Order("chunk_index ASC")
}
