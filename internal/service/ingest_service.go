package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/utils"
	"book-rag-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IIngestService interface {
	Ingest(ctx context.Context, req *dto.IngestContentRequest) (*dto.IngestContentResponse, error)
	Delete(ctx context.Context, id string) (*dto.DeleteContentResponse, error)
	DeleteBook(ctx context.Context, bookId string) (*dto.DeleteBookResponse, error)
}

type ingestService struct {
	publisher    message.Publisher
	topicName    string
	index        vectorindex.Index
	chunkSize    int
	chunkOverlap int
	logger       logger.ILogger
}

func NewIngestService(
	publisher message.Publisher,
	topicName string,
	index vectorindex.Index,
	chunkSize int,
	chunkOverlap int,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		publisher:    publisher,
		topicName:    topicName,
		index:        index,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       log,
	}
}

// Ingest splits the content and queues it for embedding. The returned ids
// become searchable once the consumer has processed the message.
func (s *ingestService) Ingest(ctx context.Context, req *dto.IngestContentRequest) (*dto.IngestContentResponse, error) {
	started := time.Now()

	chunks := utils.SplitText(strings.TrimSpace(req.Content), s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ingest: content has no text")
	}

	ids := make([]uuid.UUID, len(chunks))
	for i := range chunks {
		ids[i] = uuid.New()
	}

	locator := req.SourceReference
	if locator == "" {
		locator = req.Title
	}
	payload := dto.PublishIngestMessage{
		ContentIds:      ids,
		Chunks:          chunks,
		BookId:          req.BookId,
		Title:           req.Title,
		ChapterNumber:   req.ChapterNumber,
		PageNumber:      req.PageNumber,
		SectionTitle:    req.SectionTitle,
		SourceReference: locator,
		Tags:            req.Tags,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(ctx)
	if err := s.publisher.Publish(s.topicName, msg); err != nil {
		return nil, fmt.Errorf("ingest: publish: %w", err)
	}

	s.logger.Info(ingestModule, "Content queued for embedding", map[string]interface{}{
		"book_id": req.BookId,
		"title":   req.Title,
		"chunks":  len(chunks),
	})

	return &dto.IngestContentResponse{
		ContentIds:       ids,
		Chunks:           len(chunks),
		Status:           "queued",
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	}, nil
}

func (s *ingestService) Delete(ctx context.Context, id string) (*dto.DeleteContentResponse, error) {
	deleted, err := s.index.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ingestModule, "Content delete requested", map[string]interface{}{
		"content_id": id,
		"deleted":    deleted,
	})
	return &dto.DeleteContentResponse{Id: id, Deleted: deleted}, nil
}

func (s *ingestService) DeleteBook(ctx context.Context, bookId string) (*dto.DeleteBookResponse, error) {
	removed, err := s.index.DeleteBook(ctx, bookId)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ingestModule, "Book removed from index", map[string]interface{}{
		"book_id": bookId,
		"chunks":  removed,
	})
	return &dto.DeleteBookResponse{BookId: bookId, Deleted: removed}, nil
}
