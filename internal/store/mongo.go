package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection       = "users"
	performanceCollection = "performance"
	userIndexCollection   = "user_index"
)

// MongoStore reads user profiles and performance documents from MongoDB.
type MongoStore struct {
	users        *mongo.Collection
	performance  *mongo.Collection
	userIndex    *mongo.Collection
	queryTimeout time.Duration
}

// NewMongoStore wires the store against the provided database handle.
func NewMongoStore(db *mongo.Database, queryTimeout time.Duration) *MongoStore {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &MongoStore{
		users:        db.Collection(usersCollection),
		performance:  db.Collection(performanceCollection),
		userIndex:    db.Collection(userIndexCollection),
		queryTimeout: queryTimeout,
	}
}

// ListUsers enumerates every user profile, ordered by id so downstream
// reports are stable across runs.
func (s *MongoStore) ListUsers(ctx context.Context) ([]UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]UserProfile, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// ListPerformance returns the raw per-date documents for one user. The
// result is sparse and unordered; date keys are returned as stored and may
// include non-date housekeeping identifiers.
func (s *MongoStore) ListPerformance(ctx context.Context, userID string) ([]PerformanceDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	cursor, err := s.performance.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list performance for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	docs := make([]PerformanceDoc, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode performance for %s: %w", userID, err)
	}
	return docs, nil
}

// ListUserIndex returns the project-name labels attached to one user.
func (s *MongoStore) ListUserIndex(ctx context.Context, userID string) ([]IndexEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}})
	cursor, err := s.userIndex.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list user index for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	entries := make([]IndexEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode user index for %s: %w", userID, err)
	}
	return entries, nil
}
