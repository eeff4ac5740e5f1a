package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EmbeddingDimension must match the vector column below.
const EmbeddingDimension = 768

type BookContent struct {
	Id              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookId          string          `gorm:"type:varchar(128);not null;index"`
	Title           string          `gorm:"type:text;not null"`
	Content         string          `gorm:"type:text;not null"`
	SourceReference string          `gorm:"type:text;not null"`
	ChapterNumber   *int            `gorm:"index"`
	PageNumber      *int
	SectionTitle    *string         `gorm:"type:text"`
	Tags            datatypes.JSON  `gorm:"type:jsonb"`
	ChunkIndex      int             `gorm:"default:0"`
	Embedding       pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt  `gorm:"index"`
}

func (BookContent) TableName() string {
	return "book_contents"
}
