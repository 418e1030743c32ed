package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/opslens/runboard/internal/app"
	"github.com/opslens/runboard/internal/config"
	"github.com/opslens/runboard/internal/database"
	"github.com/opslens/runboard/internal/httpserver"
	"github.com/opslens/runboard/internal/mongoclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := database.RunMigrations(ctx, cfg.Database); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	dbPool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer dbPool.Close()

	mongoClient, err := mongoclient.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("connect mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	container, err := app.NewContainer(ctx, cfg, dbPool, mongoClient)
	if err != nil {
		log.Fatalf("build container: %v", err)
	}
	if container.Observability != nil {
		defer container.Observability.Shutdown(ctx)
	}

	server, err := httpserver.New(container)
	if err != nil {
		log.Fatalf("construct server: %v", err)
	}

	if err := server.Listen(ctx); err != nil && err != context.Canceled {
		log.Fatalf("server stopped: %v", err)
	}
}
