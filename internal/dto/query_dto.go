package dto

import (
	"time"

	"github.com/google/uuid"
)

// Query length and emptiness are checked by the pipeline guard so the
// rejection reasons stay in one place.
type FullCorpusQueryRequest struct {
	Query     string     `json:"query"`
	SessionId *uuid.UUID `json:"session_id,omitempty"`
}

type SelectedPassageQueryRequest struct {
	Query        string     `json:"query"`
	SelectedText string     `json:"selected_text" validate:"required,max=5000"`
	SessionId    *uuid.UUID `json:"session_id,omitempty"`
}

type ContextModeQueryRequest struct {
	Query        string     `json:"query"`
	ContextMode  string     `json:"context_mode" validate:"omitempty,oneof=FULL_CORPUS SELECTED_PASSAGE"`
	SelectedText *string    `json:"selected_text,omitempty" validate:"omitempty,max=5000"`
	SessionId    *uuid.UUID `json:"session_id,omitempty"`
}

type SourceReferenceDTO struct {
	Reference      string   `json:"reference"`
	Text           string   `json:"text"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
	PageNumber     *int     `json:"page_number,omitempty"`
	Chapter        *string  `json:"chapter,omitempty"`
	Section        *string  `json:"section,omitempty"`
	ContentId      *string  `json:"content_id,omitempty"`
}

type QueryResponse struct {
	ResponseId       uuid.UUID            `json:"response_id"`
	QueryId          uuid.UUID            `json:"query_id"`
	SessionId        uuid.UUID            `json:"session_id"`
	Answer           string               `json:"answer"`
	SourceReferences []SourceReferenceDTO `json:"source_references"`
	ValidationStatus string               `json:"validation_status"`
	ContextMode      string               `json:"context_mode"`
	State            string               `json:"state"`
	CreatedAt        time.Time            `json:"created_at"`
}

type SessionQueryDTO struct {
	QueryId   uuid.UUID `json:"query_id"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionResponse struct {
	SessionId     uuid.UUID              `json:"session_id"`
	UserId        *uuid.UUID             `json:"user_id,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	LastActivity  time.Time              `json:"last_activity"`
	Queries       []SessionQueryDTO      `json:"queries"`
	RecentQueries []SessionQueryDTO      `json:"recent_queries"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}
