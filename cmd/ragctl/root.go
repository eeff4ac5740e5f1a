package main

import (
	"context"
	"fmt"

	"book-rag-be/internal/bootstrap"
	"book-rag-be/internal/config"
	"book-rag-be/internal/corpus"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	useDatabase bool
	withAudit   bool
	seedSample  bool
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Ask questions about indexed book content",
	Long: `ragctl runs the question answering pipeline in-process.
Without --db it uses an in-memory index and ledger; pass --seed to load the
sample corpus into it first.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&useDatabase, "db", false, "use DB_CONNECTION_STRING for the index and ledger")
	rootCmd.PersistentFlags().BoolVar(&withAudit, "audit", false, "publish audit events to NATS")
	rootCmd.PersistentFlags().BoolVar(&seedSample, "seed", false, "load the sample corpus before running")
}

// buildContainer assembles the same container the HTTP server uses.
func buildContainer(ctx context.Context) (*bootstrap.Container, error) {
	cfg := config.Load()
	cfg.App.NatsEnabled = withAudit
	cfg.Ingest.Synchronous = true

	var db *gorm.DB
	if useDatabase {
		if cfg.Database.Connection == "" {
			return nil, fmt.Errorf("--db given but DB_CONNECTION_STRING is not set")
		}
		var err error
		db, err = database.Open(ctx, cfg.Database.Connection, cfg.Database.LogLevel, logger.NewIsolatedLogger(cfg.App.LogFilePath))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
	}

	c, err := bootstrap.NewContainer(ctx, db, cfg, logger.NewIsolatedLogger(cfg.App.LogFilePath))
	if err != nil {
		return nil, err
	}
	if err := c.ConsumerService.Consume(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("start ingestion consumer: %w", err)
	}
	if seedSample {
		if _, err := corpus.Load(ctx, c.Gateway, c.Index); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}
