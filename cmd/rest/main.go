package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"book-rag-be/internal/bootstrap"
	"book-rag-be/internal/config"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/server"
	"book-rag-be/internal/tracer"
	"book-rag-be/pkg/database"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	shutdownTracer := tracer.InitTracer(cfg.App.Name, cfg.App.Version, tracer.OptionsFromEnv(), sysLogger)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.Open(ctx, cfg.Database.Connection, cfg.Database.LogLevel, sysLogger)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg, sysLogger)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}
	defer container.Close()

	srv := server.New(cfg, container)

	// 4. Run server and background workers until a signal or a failure
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return container.ConsumerService.Consume(gCtx)
	})
	if container.AuditService != nil {
		g.Go(func() error {
			if err := container.AuditService.Start(gCtx); err != nil {
				sysLogger.Warn("AUDIT", "Audit subscriber not started", map[string]interface{}{"error": err.Error()})
			}
			return nil
		})
	}
	g.Go(srv.Run)
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sysLogger.Error("HTTP", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
