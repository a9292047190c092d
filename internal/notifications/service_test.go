package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type fakeRepo struct {
	nextID        int64
	notifications map[int64]Notification
	unreadQueries int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, notifications: map[int64]Notification{}}
}

func (f *fakeRepo) Create(ctx context.Context, n Notification) (int64, error) {
	n.ID = f.nextID
	n.CreatedAt = time.Now()
	f.nextID++
	f.notifications[n.ID] = n
	return n.ID, nil
}

func (f *fakeRepo) Get(ctx context.Context, userID, id int64) (Notification, error) {
	n, ok := f.notifications[id]
	if !ok || n.UserID != userID {
		return Notification{}, shared.ErrNotFound
	}
	return n, nil
}

func (f *fakeRepo) List(ctx context.Context, userID int64, filters ListFilters) ([]Notification, int, error) {
	var out []Notification
	for _, n := range f.notifications {
		if n.UserID != userID {
			continue
		}
		if filters.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	f.unreadQueries++
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, userID, id int64) error {
	n, ok := f.notifications[id]
	if !ok || n.UserID != userID || n.IsRead {
		return shared.ErrNotFound
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	f.notifications[id] = n
	return nil
}

func (f *fakeRepo) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	affected := 0
	now := time.Now()
	for id, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			f.notifications[id] = n
			affected++
		}
	}
	return affected, nil
}

func newTestService(t *testing.T, repo *fakeRepo) *Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewUnreadCache(client, time.Minute))
}

func TestCreateDefaultsPriority(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	n, err := svc.Create(context.Background(), CreateInput{
		UserID: 7,
		Title:  "Contract approved",
	})
	require.NoError(t, err)
	require.Equal(t, PriorityNormal, n.Priority)
	require.False(t, n.IsRead)
}

func TestUnreadCountUsesCacheUntilInvalidated(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{UserID: 7, Title: "one"})
	require.NoError(t, err)
	created, err := svc.Create(context.Background(), CreateInput{UserID: 7, Title: "two"})
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, 1, repo.unreadQueries)

	// second read is served from cache
	count, err = svc.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, 1, repo.unreadQueries)

	require.NoError(t, svc.MarkRead(context.Background(), 7, created.ID))

	count, err = svc.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, 2, repo.unreadQueries)
}

func TestMarkAllRead(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Create(context.Background(), CreateInput{UserID: 7, Title: title})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), CreateInput{UserID: 8, Title: "other user"})
	require.NoError(t, err)

	affected, err := svc.MarkAllRead(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 3, affected)

	count, err := svc.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	require.Zero(t, count)

	count, err = svc.UnreadCount(context.Background(), 8)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	n, err := svc.Create(context.Background(), CreateInput{UserID: 7, Title: "private"})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), 9, n.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
