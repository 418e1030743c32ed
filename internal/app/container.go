package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/opslens/runboard/internal/billing"
	"github.com/opslens/runboard/internal/config"
	"github.com/opslens/runboard/internal/export"
	"github.com/opslens/runboard/internal/observability"
	insightsvc "github.com/opslens/runboard/internal/services/insight"
	reportsvc "github.com/opslens/runboard/internal/services/report"
	"github.com/opslens/runboard/internal/storage/blob"
	"github.com/opslens/runboard/internal/store"
)

// Container aggregates runtime dependencies for handlers and services.
type Container struct {
	Config            *config.Config
	DBPool            *pgxpool.Pool
	MongoClient       *mongo.Client
	Store             *store.MongoStore
	Billing           *billing.Service
	Reports           *reportsvc.Service
	Insights          *insightsvc.Service
	Exports           blob.Store
	Archiver          *export.Archiver
	Observability     *observability.Provider
	ReportingLocation *time.Location
}

// NewContainer builds a dependency container from the provided primitives.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, mongoClient *mongo.Client) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("db pool is required")
	}
	if mongoClient == nil {
		return nil, fmt.Errorf("mongo client is required")
	}

	locName := strings.TrimSpace(cfg.Reporting.Timezone)
	if locName == "" {
		locName = "UTC"
	}
	reportingLoc, err := time.LoadLocation(locName)
	if err != nil {
		return nil, fmt.Errorf("load reporting timezone: %w", err)
	}

	mongoDB := mongoClient.Database(cfg.Mongo.Database)
	activityStore := store.NewMongoStore(mongoDB, cfg.Mongo.QueryTimeout)
	billingSvc := billing.NewService(pool)
	reportSvc := reportsvc.NewService(activityStore, billingSvc, slog.Default())
	insightSvc := insightsvc.NewService(mongoDB, cfg.Mongo.QueryTimeout)

	obsProvider, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	blobStore, err := blob.New(ctx, cfg.Exports)
	if err != nil {
		return nil, fmt.Errorf("init export store: %w", err)
	}
	archiver := export.NewArchiver(blobStore, cfg.Exports.Archive, slog.Default())

	return &Container{
		Config:            cfg,
		DBPool:            pool,
		MongoClient:       mongoClient,
		Store:             activityStore,
		Billing:           billingSvc,
		Reports:           reportSvc,
		Insights:          insightSvc,
		Exports:           blobStore,
		Archiver:          archiver,
		Observability:     obsProvider,
		ReportingLocation: reportingLoc,
	}, nil
}

// ReportingLoc returns the configured reporting timezone location (defaults to UTC).
func (c *Container) ReportingLoc() *time.Location {
	if c != nil && c.ReportingLocation != nil {
		return c.ReportingLocation
	}
	return time.UTC
}

// Shutdown releases long-lived resources in reverse dependency order.
func (c *Container) Shutdown(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var firstErr error
	if c.Observability != nil {
		if err := c.Observability.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.DBPool != nil {
		c.DBPool.Close()
	}
	return firstErr
}
