package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"curriculum-rag-be/internal/bootstrap"
	"curriculum-rag-be/internal/config"
	"curriculum-rag-be/internal/server"
	"curriculum-rag-be/internal/tracer"
	"curriculum-rag-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Fatalf("Unable to build container: %v", err)
	}
	defer container.Close()

	// Refuse to serve answers from vectors of a different embedding model.
	verifyCtx, cancelVerify := context.WithTimeout(context.Background(), 10*time.Second)
	if err := container.Store.VerifyEmbeddingModel(verifyCtx); err != nil {
		cancelVerify()
		log.Fatalf("Embedding model check failed: %v", err)
	}
	cancelVerify()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := srv.Shutdown(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
