package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	entries map[string]Insight
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{entries: make(map[string]Insight)}
}

func (f *fakeRepository) listByUser(_ context.Context, userID string) ([]Insight, error) {
	out := make([]Insight, 0)
	for _, entry := range f.entries {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeRepository) get(_ context.Context, userID, postID string) (Insight, error) {
	entry, ok := f.entries[postID]
	if !ok || entry.UserID != userID {
		return Insight{}, ErrNotFound
	}
	return entry, nil
}

func (f *fakeRepository) insert(_ context.Context, entry Insight) error {
	f.entries[entry.PostID] = entry
	return nil
}

func (f *fakeRepository) replace(_ context.Context, entry Insight) (int64, error) {
	existing, ok := f.entries[entry.PostID]
	if !ok || existing.UserID != entry.UserID {
		return 0, nil
	}
	f.entries[entry.PostID] = entry
	return 1, nil
}

func (f *fakeRepository) deleteOne(_ context.Context, userID, postID string) (int64, error) {
	entry, ok := f.entries[postID]
	if !ok || entry.UserID != userID {
		return 0, nil
	}
	delete(f.entries, postID)
	return 1, nil
}

func newTestService(repo *fakeRepository, now time.Time) *Service {
	return &Service{repo: repo, now: func() time.Time { return now }}
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	repo := newFakeRepository()
	now := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	created, err := svc.Create(context.Background(), Insight{
		UserID:  "u1",
		PostURL: "https://example.com/p/1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.PostID)
	require.Equal(t, now, created.CreatedAt)

	stored, ok := repo.entries[created.PostID]
	require.True(t, ok)
	require.Equal(t, "u1", stored.UserID)
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc := newTestService(newFakeRepository(), time.Now())

	_, err := svc.Create(context.Background(), Insight{PostURL: "https://example.com/p/1"})
	require.ErrorIs(t, err, ErrMissingField)

	_, err = svc.Create(context.Background(), Insight{UserID: "u1"})
	require.ErrorIs(t, err, ErrMissingField)
}

func TestUpdateUnknownPostReturnsNotFound(t *testing.T) {
	svc := newTestService(newFakeRepository(), time.Now())

	_, err := svc.Update(context.Background(), Insight{
		PostID:  "missing",
		UserID:  "u1",
		PostURL: "https://example.com/p/1",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	repo := newFakeRepository()
	createdAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	repo.entries["p1"] = Insight{
		PostID:    "p1",
		UserID:    "u1",
		PostURL:   "https://example.com/p/1",
		LikeCount: 3,
		CreatedAt: createdAt,
	}
	svc := newTestService(repo, time.Now())

	// The request body carries no created_at; the stored value must survive.
	updated, err := svc.Update(context.Background(), Insight{
		PostID:    "p1",
		UserID:    "u1",
		PostURL:   "https://example.com/p/1",
		LikeCount: 9,
	})
	require.NoError(t, err)
	require.Equal(t, createdAt, updated.CreatedAt)
	require.Equal(t, int64(9), updated.LikeCount)
	require.Equal(t, createdAt, repo.entries["p1"].CreatedAt)
}

func TestUpdateRejectsOtherUsersPost(t *testing.T) {
	repo := newFakeRepository()
	repo.entries["p1"] = Insight{PostID: "p1", UserID: "u1", PostURL: "https://example.com/p/1"}
	svc := newTestService(repo, time.Now())

	_, err := svc.Update(context.Background(), Insight{
		PostID:  "p1",
		UserID:  "u2",
		PostURL: "https://example.com/p/1",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := newFakeRepository()
	repo.entries["p1"] = Insight{PostID: "p1", UserID: "u1", PostURL: "https://example.com/p/1"}
	svc := newTestService(repo, time.Now())

	require.NoError(t, svc.Delete(context.Background(), "u1", "p1"))
	require.Empty(t, repo.entries)

	err := svc.Delete(context.Background(), "u1", "p1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListByUser(t *testing.T) {
	repo := newFakeRepository()
	repo.entries["p1"] = Insight{PostID: "p1", UserID: "u1", PostURL: "https://example.com/p/1"}
	repo.entries["p2"] = Insight{PostID: "p2", UserID: "u2", PostURL: "https://example.com/p/2"}
	svc := newTestService(repo, time.Now())

	insights, err := svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, insights, 1)
	require.Equal(t, "p1", insights[0].PostID)
}

func TestValidate(t *testing.T) {
	valid := Insight{UserID: "u1", PostURL: "https://example.com/p/1"}
	require.NoError(t, validate(valid))

	missingUser := Insight{PostURL: "https://example.com/p/1"}
	require.True(t, errors.Is(validate(missingUser), ErrMissingField))

	missingURL := Insight{UserID: "u1", PostURL: "  "}
	require.True(t, errors.Is(validate(missingURL), ErrMissingField))
}
