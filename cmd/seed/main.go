package main

import (
	"context"
	"os"
	"time"

	"book-rag-be/internal/config"
	"book-rag-be/internal/corpus"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/unitofwork"
	"book-rag-be/pkg/database"
	"book-rag-be/pkg/embedding"
	embeddingFactory "book-rag-be/pkg/embedding/factory"
	"book-rag-be/pkg/vectorindex"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		color.Red("DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.Open(context.Background(), cfg.Database.Connection, cfg.Database.LogLevel, logger.NewNopLogger())
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	providers, err := embeddingFactory.NewProviderChain(cfg)
	if err != nil {
		color.Red("Embedding providers: %v", err)
		os.Exit(1)
	}
	gateway := embedding.NewGateway(logger.NewNopLogger(), providers,
		embedding.WithDimension(cfg.Ai.EmbeddingDimension))
	index := vectorindex.NewPgVectorIndex(unitofwork.NewRepositoryFactory(db, logger.NewNopLogger()), cfg.Rag.MinIndexScore)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	color.Cyan("Seeding sample corpus (%s) with providers %v...", corpus.SampleBookId, cfg.Ai.EmbeddingProviders)
	n, err := corpus.Load(ctx, gateway, index)
	if err != nil {
		color.Red("Seeding failed: %v", err)
		os.Exit(1)
	}

	for _, r := range corpus.SampleRecords() {
		color.White("  %s  %s", r.Id, r.SourceReference)
	}
	color.Green("Indexed %d of %d sample chunks", n, len(corpus.SampleRecords()))
}
