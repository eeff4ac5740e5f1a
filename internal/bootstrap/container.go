package bootstrap

import (
	"context"
	"fmt"
	"time"

	"book-rag-be/internal/config"
	"book-rag-be/internal/controller"
	"book-rag-be/internal/handler"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/memory"
	redisRepo "book-rag-be/internal/repository/redis"
	"book-rag-be/internal/repository/unitofwork"
	"book-rag-be/internal/service"
	"book-rag-be/internal/websocket"
	"book-rag-be/pkg/database"
	"book-rag-be/pkg/embedding"
	embeddingFactory "book-rag-be/pkg/embedding/factory"
	"book-rag-be/pkg/events"
	llmFactory "book-rag-be/pkg/llm/factory"
	pkgNats "book-rag-be/pkg/nats"
	"book-rag-be/pkg/rag/executor"
	"book-rag-be/pkg/rag/grounding"
	"book-rag-be/pkg/rag/guard"
	"book-rag-be/pkg/rag/ledger"
	"book-rag-be/pkg/rag/response"
	"book-rag-be/pkg/rag/retrieval"
	"book-rag-be/pkg/rag/session"
	"book-rag-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	QueryController    controller.IQueryController
	IngestController   controller.IIngestController
	HealthController   controller.IHealthController
	QuerySocketHandler *handler.QuerySocketHandler

	// Domain
	Pipeline *executor.Pipeline
	Sessions *session.Registry
	Gateway  *embedding.Gateway
	Index    vectorindex.Index
	Stats    ledger.StatsReader

	// Services
	QueryService    service.IQueryService
	IngestService   service.IIngestService
	ConsumerService service.IConsumerService
	// AuditService is nil when NATS is disabled or unreachable.
	AuditService service.IAuditService

	WebSocketHub *websocket.Hub

	closers []func()
}

// NewContainer wires every collaborator. A nil db selects the in-memory
// ledger and vector index, which is what the CLI and tests use.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, log logger.ILogger) (*Container, error) {
	c := &Container{Logger: log}

	// 1. Storage
	var (
		rag   ledger.Ledger
		index vectorindex.Index
		uow   unitofwork.RepositoryFactory
	)
	if db != nil {
		uow = unitofwork.NewRepositoryFactory(db, log)
		gormLedger := ledger.NewGormLedger(uow, log)
		rag, c.Stats = gormLedger, gormLedger
		index = vectorindex.NewPgVectorIndex(uow, cfg.Rag.MinIndexScore)
	} else {
		memLedger := ledger.NewMemoryLedger()
		rag, c.Stats = memLedger, memLedger
		index = vectorindex.NewMemoryIndex()
		log.Warn("BOOTSTRAP", "No database configured, using in-memory ledger and index", nil)
	}
	c.Index = index

	// 2. Redis (optional)
	var rdb *redis.Client
	if cfg.Session.CacheBackend == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("BOOTSTRAP", "Redis unreachable, falling back to in-memory session cache", map[string]interface{}{"error": err.Error()})
			_ = rdb.Close()
			rdb = nil
		} else {
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	var sessionCache session.Cache
	if rdb != nil {
		sessionCache = redisRepo.NewSessionRepository(rdb, sessionTTL)
	} else {
		sessionCache = memory.NewSessionRepository(sessionTTL)
	}
	c.Sessions = session.NewRegistry(sessionCache, rag, log, session.WithRecentQueryCap(cfg.Session.RecentQueryCap))

	// 3. Models
	embedders, err := embeddingFactory.NewProviderChain(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding providers: %w", err)
	}
	c.Gateway = embedding.NewGateway(log, embedders,
		embedding.WithCache(30*time.Minute),
		embedding.WithRateLimit(cfg.Ai.EmbeddingRatePerSecond),
		embedding.WithDimension(cfg.Ai.EmbeddingDimension),
	)

	chain, err := llmFactory.NewChain(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("llm providers: %w", err)
	}

	// 4. Events (optional)
	var publisher events.Publisher
	if cfg.App.NatsEnabled {
		natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL, log)
		if err != nil {
			log.Warn("BOOTSTRAP", "NATS publisher unavailable, audit events disabled", map[string]interface{}{"error": err.Error()})
		} else {
			publisher = natsPub
			c.closers = append(c.closers, natsPub.Close)

			natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL, log)
			if err != nil {
				log.Warn("BOOTSTRAP", "NATS subscriber unavailable", map[string]interface{}{"error": err.Error()})
			} else {
				c.AuditService = service.NewAuditService(natsSub, log)
				c.closers = append(c.closers, natsSub.Close)
			}
		}
	}

	// 5. Pipeline
	g := guard.New(guard.Limits{
		MaxQueryLength:    cfg.Rag.MaxQueryLength,
		MaxResponseLength: cfg.Rag.MaxResponseLength,
		MinPassageLength:  cfg.Rag.MinPassageLength,
	})
	c.Pipeline = executor.NewPipeline(executor.Deps{
		Guard:     g,
		Sessions:  c.Sessions,
		Ledger:    rag,
		Retriever: retrieval.NewRetriever(c.Gateway, index, log),
		Generator: response.NewGenerator(chain, g, response.Options{
			MaxTokens:   cfg.Rag.GenerationMaxTokens,
			Temperature: cfg.Rag.GenerationTemperature,
		}, log),
		Validator: grounding.NewValidator(c.Gateway, log),
		Publisher: publisher,
	}, executor.Config{
		TopKFullCorpus:      cfg.Rag.TopKFullCorpus,
		TopKSelectedPassage: cfg.Rag.TopKSelectedPassage,
	}, log)

	// 6. Ingestion bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: cfg.Ingest.Synchronous,
	}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	c.QueryService = service.NewQueryService(c.Pipeline, c.Sessions,
		time.Duration(cfg.Rag.ResponseTimeoutSeconds)*time.Second, cfg.Rag.ValidateGrounding)
	c.IngestService = service.NewIngestService(pubSub, cfg.Ingest.TopicName, index, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, log)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Ingest.TopicName, c.Gateway, index, log)

	// 7. Transport
	c.WebSocketHub = websocket.NewHub(rdb, logger.NewIsolatedLogger(cfg.App.WsLogFilePath))
	go c.WebSocketHub.Run(ctx)

	checks := map[string]controller.HealthCheck{}
	if db != nil {
		checks["database"] = database.Ping(db)
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if p, ok := publisher.(*pkgNats.Publisher); ok {
		checks["nats"] = func(context.Context) error {
			if !p.Connected() {
				return fmt.Errorf("disconnected")
			}
			return nil
		}
	}

	c.QueryController = controller.NewQueryController(c.QueryService)
	c.IngestController = controller.NewIngestController(c.IngestService)
	c.HealthController = controller.NewHealthController(cfg.App.Name, cfg.App.Version, checks)
	c.QuerySocketHandler = handler.NewQuerySocketHandler(ctx, c.WebSocketHub, c.QueryService, log)

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
