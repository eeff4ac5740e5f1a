package entity

import (
	"time"

	"github.com/google/uuid"
)

type ValidationStatus string

const (
	ValidationPending ValidationStatus = "PENDING"
	ValidationPassed  ValidationStatus = "PASSED"
	ValidationFailed  ValidationStatus = "FAILED"
)

type SourceReference struct {
	Reference      string   `json:"reference"`
	Text           string   `json:"text"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
	PageNumber     *int     `json:"page_number,omitempty"`
	Chapter        *string  `json:"chapter,omitempty"`
	Section        *string  `json:"section,omitempty"`
	ContentId      *string  `json:"content_id,omitempty"`
}

type Response struct {
	Id               uuid.UUID
	QueryId          uuid.UUID
	Content          string
	SourceReferences []SourceReference
	CreatedAt        time.Time
	ValidationStatus ValidationStatus
}
