package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"book-rag-be/internal/corpus"
	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/specification"
	"book-rag-be/internal/repository/unitofwork"
	"book-rag-be/pkg/database"
	"book-rag-be/pkg/embedding"
	"book-rag-be/pkg/rag/ledger"
	"book-rag-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Expects a database prepared with cmd/migrate and EMBEDDING_DIMENSION=768.
func connect(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.Open(context.Background(), dsn, "warn", logger.NewNopLogger())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
	return db
}

func TestLedgerRoundTrip(t *testing.T) {
	db := connect(t)
	ctx := context.Background()
	factory := unitofwork.NewRepositoryFactory(db, logger.NewNopLogger())
	l := ledger.NewGormLedger(factory, logger.NewNopLogger())

	now := time.Now().UTC().Truncate(time.Millisecond)
	sess := &entity.ConversationSession{Id: uuid.New(), CreatedAt: now, LastActivity: now}
	require.NoError(t, l.RecordSession(ctx, sess))

	q := &entity.Query{Id: uuid.New(), SessionId: sess.Id, Content: "What is a RAG system?", ContextMode: entity.ContextModeFullCorpus, CreatedAt: now}
	require.NoError(t, l.RecordQuery(ctx, q))
	// Replays are idempotent.
	require.NoError(t, l.RecordQuery(ctx, q))

	resp := &entity.Response{
		Id:               uuid.New(),
		QueryId:          q.Id,
		Content:          "A RAG system retrieves passages and generates an answer from them.",
		SourceReferences: []entity.SourceReference{{Reference: "Chapter 1", Text: "RAG combines retrieval with generation."}},
		CreatedAt:        now,
		ValidationStatus: entity.ValidationPassed,
	}
	require.NoError(t, l.RecordResponse(ctx, resp))

	uow := factory.NewUnitOfWork(ctx)
	stored, err := uow.ResponseRepository().FindOne(ctx, specification.ByQueryID{QueryID: q.Id})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, resp.Id, stored.Id)

	storedQuery, err := uow.QueryRepository().FindOne(ctx, specification.ByID{ID: q.Id})
	require.NoError(t, err)
	require.NotNil(t, storedQuery)
	require.Len(t, storedQuery.SourceReferences, 1)
	assert.Equal(t, "Chapter 1", storedQuery.SourceReferences[0].Reference)

	got, err := l.GetSession(ctx, sess.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Queries, 1)
	assert.Equal(t, q.Id, got.Queries[0].QueryId)

	st, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, st.ByStatus[entity.ValidationPassed], int64(1))
}

func TestPgVectorIndexSampleCorpus(t *testing.T) {
	db := connect(t)
	ctx := context.Background()
	index := vectorindex.NewPgVectorIndex(unitofwork.NewRepositoryFactory(db, logger.NewNopLogger()), 0)
	gateway := embedding.NewGateway(logger.NewNopLogger(), []embedding.NamedProvider{
		{Name: "hashing", Provider: embedding.NewHashingProvider(768)},
	})

	n, err := corpus.Load(ctx, gateway, index)
	require.NoError(t, err)
	require.Equal(t, len(corpus.SampleRecords()), n)

	probe, err := gateway.Embed(ctx, "How does retrieval find relevant passages?")
	require.NoError(t, err)
	hits, err := index.Search(ctx, probe, 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}

	removed, err := index.DeleteBook(ctx, corpus.SampleBookId)
	require.NoError(t, err)
	assert.Equal(t, int64(n), removed)
}
