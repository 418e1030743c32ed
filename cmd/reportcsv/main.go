package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/opslens/runboard/internal/billing"
	"github.com/opslens/runboard/internal/config"
	"github.com/opslens/runboard/internal/database"
	"github.com/opslens/runboard/internal/export"
	"github.com/opslens/runboard/internal/mongoclient"
	reportsvc "github.com/opslens/runboard/internal/services/report"
	"github.com/opslens/runboard/internal/store"
	"github.com/opslens/runboard/internal/timeutil"
)

func main() {
	var (
		mode     = flag.String("mode", "calendar", "report mode: calendar or payment")
		start    = flag.String("start", "", "calendar range start (YYYY-MM-DD)")
		end      = flag.String("end", "", "calendar range end (YYYY-MM-DD)")
		days     = flag.Int("days", 0, "payment-mode lookback window in days")
		plans    = flag.String("plans", "", "comma-separated plan allow-list")
		statuses = flag.String("statuses", "", "comma-separated status allow-list")
		outPath  = flag.String("out", "", "output file (defaults to stdout)")
		confFile = flag.String("config", "", "config file path")
	)
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(config.Options{ConfigFile: *confFile})
	if err != nil {
		log.Fatalf("load config: %v", err)
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

	mongoDB := mongoClient.Database(cfg.Mongo.Database)
	activityStore := store.NewMongoStore(mongoDB, cfg.Mongo.QueryTimeout)
	svc := reportsvc.NewService(activityStore, billing.NewService(dbPool), slog.Default())

	var table *reportsvc.Table
	switch strings.ToLower(*mode) {
	case "calendar":
		startDay, endDay, err := resolveRange(cfg, *start, *end)
		if err != nil {
			log.Fatalf("resolve range: %v", err)
		}
		table, err = svc.BuildCalendarReport(ctx, startDay, endDay)
		if err != nil {
			log.Fatalf("build calendar report: %v", err)
		}
	case "payment":
		window := *days
		if window <= 0 {
			window = cfg.Reporting.DefaultRangeDays
		}
		table, err = svc.BuildPaymentReport(ctx, window)
		if err != nil {
			log.Fatalf("build payment report: %v", err)
		}
	default:
		log.Fatalf("unknown mode %q, expected calendar or payment", *mode)
	}

	table = reportsvc.ApplyFilter(table, splitList(*plans), splitList(*statuses))

	data, err := export.WriteCSV(table)
	if err != nil {
		log.Fatalf("write csv: %v", err)
	}

	if *outPath == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Fatalf("write stdout: %v", err)
		}
		return
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	for _, diag := range table.Diagnostics {
		log.Printf("diagnostic: %s", diag)
	}
	log.Printf("wrote %d rows to %s", len(table.Rows), *outPath)
}

func resolveRange(cfg *config.Config, startRaw, endRaw string) (time.Time, time.Time, error) {
	if startRaw == "" && endRaw == "" {
		loc, err := time.LoadLocation(cfg.Reporting.Timezone)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		today := time.Now().In(loc).Format(timeutil.DateKeyFormat)
		end, err := timeutil.ParseDateKey(today)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start := end.AddDate(0, 0, -(cfg.Reporting.DefaultRangeDays - 1))
		return start, end, nil
	}
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start and end must be provided together")
	}
	start, err := timeutil.ParseDateKey(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := timeutil.ParseDateKey(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
