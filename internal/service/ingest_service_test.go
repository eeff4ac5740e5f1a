package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/embedding"
	"book-rag-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "EMBED_BOOK_CONTENT_TEST"

func newTestGateway() *embedding.Gateway {
	return embedding.NewGateway(logger.NewNopLogger(), []embedding.NamedProvider{
		{Name: "hashing", Provider: embedding.NewHashingProvider(128)},
	})
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}

func TestIngestRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, watermill.NopLogger{})
	defer pubSub.Close()

	index := vectorindex.NewMemoryIndex()
	log := logger.NewNopLogger()
	consumer := NewConsumerService(pubSub, testTopic, newTestGateway(), index, log)
	require.NoError(t, consumer.Consume(ctx))

	svc := NewIngestService(pubSub, testTopic, index, 200, 20, log)
	chapter := 2
	res, err := svc.Ingest(ctx, &dto.IngestContentRequest{
		BookId:        "rag-handbook",
		Title:         "Retrieval",
		Content:       strings.Repeat("Retrieval finds the passages most similar to the question. ", 20),
		ChapterNumber: &chapter,
	})
	require.NoError(t, err)
	require.Greater(t, res.Chunks, 1)
	assert.Len(t, res.ContentIds, res.Chunks)
	assert.Equal(t, "queued", res.Status)

	require.Eventually(t, func() bool { return index.Len() == res.Chunks }, 2*time.Second, 10*time.Millisecond)

	del, err := svc.Delete(ctx, res.ContentIds[0].String())
	require.NoError(t, err)
	assert.True(t, del.Deleted)
	assert.Equal(t, res.Chunks-1, index.Len())

	del, err = svc.Delete(ctx, res.ContentIds[0].String())
	require.NoError(t, err)
	assert.False(t, del.Deleted)

	book, err := svc.DeleteBook(ctx, "rag-handbook")
	require.NoError(t, err)
	assert.Equal(t, int64(res.Chunks-1), book.Deleted)
	assert.Zero(t, index.Len())
}

func TestIngestRejectsBlankContent(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	svc := NewIngestService(pubSub, testTopic, vectorindex.NewMemoryIndex(), 200, 20, logger.NewNopLogger())
	_, err := svc.Ingest(context.Background(), &dto.IngestContentRequest{BookId: "b", Title: "t", Content: "   "})
	assert.Error(t, err)
}

func TestConsumerAcknowledgement(t *testing.T) {
	mismatched, err := json.Marshal(dto.PublishIngestMessage{
		ContentIds: nil,
		Chunks:     []string{"orphan chunk"},
		BookId:     "b",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		embedder BatchEmbedder
		payload  []byte
		wantAck  bool
	}{
		{name: "malformed json is dropped", embedder: newTestGateway(), payload: []byte("{"), wantAck: true},
		{name: "mismatched ids are dropped", embedder: newTestGateway(), payload: mismatched, wantAck: true},
		{name: "embedding failure is redelivered", embedder: failingEmbedder{}, payload: mustPayload(t), wantAck: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewConsumerService(nil, testTopic, tt.embedder, vectorindex.NewMemoryIndex(), logger.NewNopLogger()).(*consumerService)
			msg := message.NewMessage(watermill.NewUUID(), tt.payload)

			cs.processMessage(context.Background(), msg)

			if tt.wantAck {
				assertClosed(t, msg.Acked())
			} else {
				assertClosed(t, msg.Nacked())
			}
		})
	}
}

func mustPayload(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(dto.PublishIngestMessage{
		ContentIds: []uuid.UUID{uuid.New()},
		Chunks:     []string{"Grounding checks the answer against its sources."},
		BookId:     "b",
	})
	require.NoError(t, err)
	return body
}

func assertClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("message was not settled as expected")
	}
}
