package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const insightsCollection = "insights"

var (
	ErrNotFound     = errors.New("insight not found")
	ErrMissingField = errors.New("required field missing")
)

// Insight is one tracked post with its engagement counters.
type Insight struct {
	PostID              string    `bson:"_id" json:"post_id"`
	UserID              string    `bson:"user_id" json:"user_id"`
	PostURL             string    `bson:"post_url" json:"post_url"`
	Plot                string    `bson:"plot" json:"plot"`
	SaveCount           int64     `bson:"save_count" json:"save_count"`
	LikeCount           int64     `bson:"like_count" json:"like_count"`
	ReachCount          int64     `bson:"reach_count" json:"reach_count"`
	NewReachCount       int64     `bson:"new_reach_count" json:"new_reach_count"`
	FollowersReachCount int64     `bson:"followers_reach_count" json:"followers_reach_count"`
	PostedAt            time.Time `bson:"posted_at" json:"posted_at"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
}

// repository is the persistence surface the service drives. The mongo
// implementation below is the production one; tests substitute a fake.
type repository interface {
	listByUser(ctx context.Context, userID string) ([]Insight, error)
	get(ctx context.Context, userID, postID string) (Insight, error)
	insert(ctx context.Context, entry Insight) error
	replace(ctx context.Context, entry Insight) (int64, error)
	deleteOne(ctx context.Context, userID, postID string) (int64, error)
}

// Service provides create/read/update/delete over the insight collection.
type Service struct {
	repo repository
	now  func() time.Time
}

func NewService(db *mongo.Database, queryTimeout time.Duration) *Service {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	repo := &mongoRepository{
		coll:         db.Collection(insightsCollection),
		queryTimeout: queryTimeout,
	}
	return &Service{repo: repo, now: time.Now}
}

// ListByUser returns the user's insights, most recently posted first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Insight, error) {
	return s.repo.listByUser(ctx, userID)
}

// Create stores a new insight, assigning a post id and creation timestamp.
func (s *Service) Create(ctx context.Context, entry Insight) (Insight, error) {
	if err := validate(entry); err != nil {
		return Insight{}, err
	}
	entry.PostID = uuid.NewString()
	entry.CreatedAt = s.now().UTC()

	if err := s.repo.insert(ctx, entry); err != nil {
		return Insight{}, fmt.Errorf("insert insight: %w", err)
	}
	return entry, nil
}

// Update replaces an existing insight owned by the same user. The stored
// creation timestamp is preserved regardless of what the caller submits.
func (s *Service) Update(ctx context.Context, entry Insight) (Insight, error) {
	if err := validate(entry); err != nil {
		return Insight{}, err
	}
	if strings.TrimSpace(entry.PostID) == "" {
		return Insight{}, fmt.Errorf("%w: post_id", ErrMissingField)
	}

	existing, err := s.repo.get(ctx, entry.UserID, entry.PostID)
	if err != nil {
		return Insight{}, err
	}
	entry.CreatedAt = existing.CreatedAt

	matched, err := s.repo.replace(ctx, entry)
	if err != nil {
		return Insight{}, fmt.Errorf("update insight %s: %w", entry.PostID, err)
	}
	if matched == 0 {
		return Insight{}, ErrNotFound
	}
	return entry, nil
}

// Delete removes one insight owned by the user.
func (s *Service) Delete(ctx context.Context, userID, postID string) error {
	deleted, err := s.repo.deleteOne(ctx, userID, postID)
	if err != nil {
		return fmt.Errorf("delete insight %s: %w", postID, err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func validate(entry Insight) error {
	if strings.TrimSpace(entry.UserID) == "" {
		return fmt.Errorf("%w: user_id", ErrMissingField)
	}
	if strings.TrimSpace(entry.PostURL) == "" {
		return fmt.Errorf("%w: post_url", ErrMissingField)
	}
	return nil
}

type mongoRepository struct {
	coll         *mongo.Collection
	queryTimeout time.Duration
}

func (r *mongoRepository) listByUser(ctx context.Context, userID string) ([]Insight, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "posted_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list insights for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	insights := make([]Insight, 0)
	if err := cursor.All(ctx, &insights); err != nil {
		return nil, fmt.Errorf("decode insights for %s: %w", userID, err)
	}
	return insights, nil
}

func (r *mongoRepository) get(ctx context.Context, userID, postID string) (Insight, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var entry Insight
	err := r.coll.FindOne(ctx, bson.M{"_id": postID, "user_id": userID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Insight{}, ErrNotFound
		}
		return Insight{}, fmt.Errorf("get insight %s: %w", postID, err)
	}
	return entry, nil
}

func (r *mongoRepository) insert(ctx context.Context, entry Insight) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()
	_, err := r.coll.InsertOne(ctx, entry)
	return err
}

func (r *mongoRepository) replace(ctx context.Context, entry Insight) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": entry.PostID, "user_id": entry.UserID}, entry)
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

func (r *mongoRepository) deleteOne(ctx context.Context, userID, postID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": postID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
