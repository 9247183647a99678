package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/okezie-c/docingest/internal/app"
	"github.com/okezie-c/docingest/internal/config"
)

// Standalone worker process: polls the job queue without serving HTTP.
// Multiple instances may run against the same queue; the claim SQL keeps
// them from stepping on each other.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer application.Close()

	application.Worker.Run(ctx)
}
