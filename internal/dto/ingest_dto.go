package dto

import "github.com/google/uuid"

type IngestContentRequest struct {
	BookId          string   `json:"book_id" validate:"required"`
	Title           string   `json:"title" validate:"required"`
	Content         string   `json:"content" validate:"required"`
	ChapterNumber   *int     `json:"chapter_number,omitempty" validate:"omitempty,min=0"`
	PageNumber      *int     `json:"page_number,omitempty" validate:"omitempty,min=0"`
	SectionTitle    *string  `json:"section_title,omitempty"`
	SourceReference string   `json:"source_reference,omitempty"`
	Tags            []string `json:"tags,omitempty" validate:"max=20"`
}

type IngestContentResponse struct {
	ContentIds       []uuid.UUID `json:"content_ids"`
	Chunks           int         `json:"chunks"`
	Status           string      `json:"status"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
}

// PublishIngestMessage is the payload on the ingestion topic. Chunks and
// ContentIds are parallel slices.
type PublishIngestMessage struct {
	ContentIds      []uuid.UUID `json:"content_ids"`
	Chunks          []string    `json:"chunks"`
	BookId          string      `json:"book_id"`
	Title           string      `json:"title"`
	ChapterNumber   *int        `json:"chapter_number,omitempty"`
	PageNumber      *int        `json:"page_number,omitempty"`
	SectionTitle    *string     `json:"section_title,omitempty"`
	SourceReference string      `json:"source_reference"`
	Tags            []string    `json:"tags,omitempty"`
}

type DeleteContentResponse struct {
	Id      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type DeleteBookResponse struct {
	BookId  string `json:"book_id"`
	Deleted int64  `json:"deleted"`
}
