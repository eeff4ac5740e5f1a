package service

import (
	"context"
	"encoding/json"
	"strconv"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/metrics"
	"book-rag-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill/message"
)

const ingestModule = "INGEST"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// BatchEmbedder is the part of the embedding gateway the consumer needs.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	embedder   BatchEmbedder
	index      vectorindex.Index
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	embedder BatchEmbedder,
	index vectorindex.Index,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		embedder:   embedder,
		index:      index,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(ingestModule, "Dropping malformed ingest message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		metrics.ObserveIngest("malformed", 0)
		// Redelivery would fail the same way.
		msg.Ack()
		return
	}
	if len(payload.Chunks) != len(payload.ContentIds) {
		cs.logger.Error(ingestModule, "Dropping ingest message with mismatched ids", map[string]interface{}{
			"message_id": msg.UUID,
			"chunks":     len(payload.Chunks),
			"ids":        len(payload.ContentIds),
		})
		metrics.ObserveIngest("malformed", 0)
		msg.Ack()
		return
	}

	vectors, err := cs.embedder.EmbedBatch(ctx, payload.Chunks)
	if err != nil {
		cs.logger.Warn(ingestModule, "Embedding failed, message will be redelivered", map[string]interface{}{
			"book_id": payload.BookId,
			"error":   err.Error(),
		})
		metrics.ObserveIngest("retry", 0)
		msg.Nack()
		return
	}

	records := make([]vectorindex.Record, 0, len(payload.Chunks))
	skipped := 0
	for i, chunk := range payload.Chunks {
		if vectors[i] == nil {
			skipped++
			continue
		}
		records = append(records, vectorindex.Record{
			Id:              payload.ContentIds[i].String(),
			BookId:          payload.BookId,
			Title:           payload.Title,
			Text:            chunk,
			SourceReference: payload.SourceReference,
			ChunkIndex:      i,
			Tags:            payload.Tags,
			Vector:          vectors[i],
			Metadata:        metadataOf(payload),
		})
	}

	if err := cs.index.Upsert(ctx, records...); err != nil {
		cs.logger.Warn(ingestModule, "Index upsert failed, message will be redelivered", map[string]interface{}{
			"book_id": payload.BookId,
			"error":   err.Error(),
		})
		metrics.ObserveIngest("retry", 0)
		msg.Nack()
		return
	}

	cs.logger.Info(ingestModule, "Content indexed", map[string]interface{}{
		"book_id": payload.BookId,
		"indexed": len(records),
		"skipped": skipped,
	})
	metrics.ObserveIngest("indexed", len(records))
	msg.Ack()
}

func metadataOf(p dto.PublishIngestMessage) vectorindex.Metadata {
	md := vectorindex.Metadata{
		PageNumber:   p.PageNumber,
		SectionTitle: p.SectionTitle,
	}
	if p.ChapterNumber != nil {
		ch := strconv.Itoa(*p.ChapterNumber)
		md.Chapter = &ch
	}
	return md
}
