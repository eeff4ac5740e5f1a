package main

import (
	"context"
	"os"

	"book-rag-be/internal/config"
	"book-rag-be/internal/model"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/database"

	"github.com/fatih/color"
)

const moduleName = "MIGRATE"

func main() {
	cfg := config.Load()
	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer log.Sync()

	fail := func(msg string, err error) {
		details := map[string]interface{}{}
		if err != nil {
			details["error"] = err.Error()
		}
		log.Error(moduleName, msg, details)
		color.Red("%s", msg)
		_ = log.Sync()
		os.Exit(1)
	}

	if cfg.Database.Connection == "" {
		fail("DB_CONNECTION_STRING is not set", nil)
	}

	db, err := database.Open(context.Background(), cfg.Database.Connection, cfg.Database.LogLevel, log)
	if err != nil {
		fail("Failed to connect to database", err)
	}

	if cfg.Ai.EmbeddingDimension != model.EmbeddingDimension {
		log.Error(moduleName, "Embedding dimension does not match the column", map[string]interface{}{
			"configured": cfg.Ai.EmbeddingDimension,
			"column":     model.EmbeddingDimension,
		})
		color.Red("EMBEDDING_DIMENSION=%d but book_contents.embedding is vector(%d)",
			cfg.Ai.EmbeddingDimension, model.EmbeddingDimension)
		os.Exit(1)
	}

	color.Cyan("Step 1: extensions")
	for _, sql := range []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	} {
		if err := db.Exec(sql).Error; err != nil {
			fail("Failed to create extension", err)
		}
	}

	color.Cyan("Step 2: auto-migrate")
	models := []interface{}{
		&model.BookContent{},
		&model.ConversationSession{},
		&model.Query{},
		&model.Response{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		fail("AutoMigrate failed", err)
	}

	color.Cyan("Step 3: indexes")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_book_contents_embedding_hnsw
		 ON book_contents USING hnsw (embedding vector_cosine_ops);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_responses_query_id_unique ON responses (query_id);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Warn(moduleName, "Post-migration statement failed", map[string]interface{}{
				"sql":   sql,
				"error": err.Error(),
			})
			color.Yellow("post-migration statement failed: %v", err)
		}
	}

	log.Info(moduleName, "Database migration completed", nil)
	color.Green("Database migration completed.")
}
