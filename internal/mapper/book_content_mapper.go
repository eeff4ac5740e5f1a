package mapper

import (
	"encoding/json"
	"time"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/model"
	"book-rag-be/internal/pkg/logger"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

const moduleName = "MAPPER"

type BookContentMapper struct {
	logger logger.ILogger
}

func NewBookContentMapper(log logger.ILogger) *BookContentMapper {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &BookContentMapper{logger: log}
}

func (m *BookContentMapper) ToEntity(c *model.BookContent) *entity.BookContent {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var tags []string
	if len(c.Tags) > 0 {
		if err := json.Unmarshal(c.Tags, &tags); err != nil {
			m.logger.Warn(moduleName, "Dropping unreadable content tags", map[string]interface{}{
				"content_id": c.Id.String(),
				"error":      err.Error(),
			})
			tags = nil
		}
	}

	return &entity.BookContent{
		Id:              c.Id,
		BookId:          c.BookId,
		Title:           c.Title,
		Content:         c.Content,
		SourceReference: c.SourceReference,
		ChapterNumber:   c.ChapterNumber,
		PageNumber:      c.PageNumber,
		SectionTitle:    c.SectionTitle,
		Tags:            tags,
		ChunkIndex:      c.ChunkIndex,
		Embedding:       c.Embedding.Slice(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *BookContentMapper) ToModel(c *entity.BookContent) *model.BookContent {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	var tags datatypes.JSON
	if len(c.Tags) > 0 {
		raw, err := json.Marshal(c.Tags)
		if err != nil {
			m.logger.Error(moduleName, "Failed to encode content tags", map[string]interface{}{
				"content_id": c.Id.String(),
				"error":      err.Error(),
			})
		} else {
			tags = raw
		}
	}

	return &model.BookContent{
		Id:              c.Id,
		BookId:          c.BookId,
		Title:           c.Title,
		Content:         c.Content,
		SourceReference: c.SourceReference,
		ChapterNumber:   c.ChapterNumber,
		PageNumber:      c.PageNumber,
		SectionTitle:    c.SectionTitle,
		Tags:            tags,
		ChunkIndex:      c.ChunkIndex,
		Embedding:       pgvector.NewVector(c.Embedding),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}
