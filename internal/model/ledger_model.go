package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ConversationSession struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId       *uuid.UUID     `gorm:"type:uuid;index"`
	CreatedAt    time.Time      `gorm:"not null"`
	LastActivity time.Time      `gorm:"not null;index"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
}

func (ConversationSession) TableName() string {
	return "sessions"
}

type Query struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId    uuid.UUID `gorm:"type:uuid;not null;index:idx_queries_session_created,priority:1"`
	Content      string    `gorm:"type:text;not null"`
	ContextMode  string    `gorm:"type:varchar(32);not null"`
	SelectedText *string   `gorm:"type:text"`
	// Written once, after the response for this query is produced.
	SourceReferences datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"not null;index:idx_queries_session_created,priority:2"`
}

func (Query) TableName() string {
	return "queries"
}

type Response struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	QueryId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	Content          string         `gorm:"type:text;not null"`
	SourceReferences datatypes.JSON `gorm:"type:jsonb"`
	ValidationStatus string         `gorm:"type:varchar(16);not null;index"`
	CreatedAt        time.Time      `gorm:"not null"`

	Query Query `gorm:"foreignKey:QueryId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Response) TableName() string {
	return "responses"
}
