package scope

import "gorm.io/gorm"

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// OrderByChunkIndex returns a source's chunks in their original text order.
func OrderByChunkIndex(db *gorm.DB) *gorm.DB {
	return db.Order("chunk_index ASC")
}
