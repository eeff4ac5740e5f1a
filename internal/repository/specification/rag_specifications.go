package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByQueryID struct {
	QueryID uuid.UUID
}

func (s ByQueryID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("query_id = ?", s.QueryID)
}

type ByBookID struct {
	BookID string
}

func (s ByBookID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("book_id = ?", s.BookID)
}

// ByValidationStatus filters responses by their final status.
type ByValidationStatus struct {
	Status string
}

func (s ByValidationStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("validation_status = ?", s.Status)
}
