package store

import (
	"context"
	"time"
)

// RunType identifies one tracked activity counter.
type RunType struct {
	Key   string
	Label string
}

// RunTypes lists the five tracked counters in their fixed report order.
var RunTypes = []RunType{
	{Key: "feed_run", Label: "Feed Run"},
	{Key: "reel_run", Label: "Reel Run"},
	{Key: "feed_theme_run", Label: "Feed Theme Run"},
	{Key: "reel_theme_run", Label: "Reel Theme Run"},
	{Key: "data_analysis_run", Label: "Data Analysis Run"},
}

// RunCounts holds the per-day counters of one performance document. Fields
// absent from the stored document decode to zero.
type RunCounts struct {
	FeedRun         int64 `bson:"feed_run" json:"feed_run"`
	ReelRun         int64 `bson:"reel_run" json:"reel_run"`
	FeedThemeRun    int64 `bson:"feed_theme_run" json:"feed_theme_run"`
	ReelThemeRun    int64 `bson:"reel_theme_run" json:"reel_theme_run"`
	DataAnalysisRun int64 `bson:"data_analysis_run" json:"data_analysis_run"`
}

// Get returns the counter for the given run type key.
func (c RunCounts) Get(key string) int64 {
	switch key {
	case "feed_run":
		return c.FeedRun
	case "reel_run":
		return c.ReelRun
	case "feed_theme_run":
		return c.FeedThemeRun
	case "reel_theme_run":
		return c.ReelThemeRun
	case "data_analysis_run":
		return c.DataAnalysisRun
	}
	return 0
}

// UserProfile is one entry of the users collection.
type UserProfile struct {
	ID          string    `bson:"_id" json:"uid"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// PerformanceDoc is one per-user per-day counter document. DateKey is the
// raw document identifier; the store may contain non-date housekeeping ids,
// which callers are expected to skip.
type PerformanceDoc struct {
	DateKey string    `bson:"date_key" json:"date_key"`
	Counts  RunCounts `bson:"counts" json:"counts"`
}

// IndexEntry is a named project label attached to a user, keyed by category.
type IndexEntry struct {
	Category    string `bson:"category" json:"category"`
	ProjectName string `bson:"project_name" json:"project_name"`
}

// Reader is the document-store surface the report core consumes.
type Reader interface {
	ListUsers(ctx context.Context) ([]UserProfile, error)
	ListPerformance(ctx context.Context, userID string) ([]PerformanceDoc, error)
	ListUserIndex(ctx context.Context, userID string) ([]IndexEntry, error)
}
