package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/store"
)

func seedPost(t *testing.T, mem *store.Memory, id, title string) {
	t.Helper()
	err := mem.Set(context.Background(), "posts", id, map[string]interface{}{
		"teacherId": "t1",
		"title":     title,
		"text":      "body",
	}, false)
	require.NoError(t, err)
}

func TestSubscribeDeliversCurrentSnapshot(t *testing.T) {
	mem := store.NewMemory()
	seedPost(t, mem, "p1", "Field trip")

	sync := NewSynchronizer(mem, nil, zap.NewNop())
	require.NoError(t, sync.Start(context.Background()))
	defer sync.Close()

	var last dto.FeedSnapshot
	sync.Subscribe(func(s dto.FeedSnapshot) { last = s })

	require.Len(t, last.Posts, 1)
	assert.Equal(t, "p1", last.Posts[0].ID)
	assert.Empty(t, last.Posts[0].Comments)
}

func TestNewPostTriggersRebuild(t *testing.T) {
	mem := store.NewMemory()
	seedPost(t, mem, "p1", "Field trip")

	sync := NewSynchronizer(mem, nil, zap.NewNop())
	require.NoError(t, sync.Start(context.Background()))
	defer sync.Close()

	var last dto.FeedSnapshot
	var deliveries int
	sync.Subscribe(func(s dto.FeedSnapshot) {
		last = s
		deliveries++
	})

	seedPost(t, mem, "p2", "Science fair")

	require.Len(t, last.Posts, 2)
	assert.GreaterOrEqual(t, deliveries, 2)
}

func TestCommentArrivalMergesIntoPost(t *testing.T) {
	mem := store.NewMemory()
	seedPost(t, mem, "p1", "Field trip")

	sync := NewSynchronizer(mem, nil, zap.NewNop())
	require.NoError(t, sync.Start(context.Background()))
	defer sync.Close()

	var last dto.FeedSnapshot
	sync.Subscribe(func(s dto.FeedSnapshot) { last = s })

	_, err := mem.Add(context.Background(), store.ChildCollection("posts", "p1", "comments"), map[string]interface{}{
		"authorId": "u1",
		"text":     "Looks fun!",
	})
	require.NoError(t, err)

	require.Len(t, last.Posts, 1)
	require.Len(t, last.Posts[0].Comments, 1)
	assert.Equal(t, "Looks fun!", last.Posts[0].Comments[0].Text)
	assert.Equal(t, "p1", last.Posts[0].Comments[0].PostID)
}

func TestRebuildDoesNotDuplicateCommentWatches(t *testing.T) {
	mem := store.NewMemory()
	seedPost(t, mem, "p1", "Field trip")

	sync := NewSynchronizer(mem, nil, zap.NewNop())
	require.NoError(t, sync.Start(context.Background()))
	defer sync.Close()

	var last dto.FeedSnapshot
	sync.Subscribe(func(s dto.FeedSnapshot) { last = s })

	// A second rebuild must reuse the existing comment watch for p1.
	seedPost(t, mem, "p2", "Science fair")

	base := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	mem.SetClock(func() time.Time { return base })
	_, err := mem.Add(context.Background(), store.ChildCollection("posts", "p1", "comments"), map[string]interface{}{
		"authorId": "u1",
		"text":     "First",
	})
	require.NoError(t, err)
	mem.SetClock(func() time.Time { return base.Add(time.Second) })
	_, err = mem.Add(context.Background(), store.ChildCollection("posts", "p1", "comments"), map[string]interface{}{
		"authorId": "u2",
		"text":     "Second",
	})
	require.NoError(t, err)

	for _, post := range last.Posts {
		if post.ID == "p1" {
			require.Len(t, post.Comments, 2)
			assert.Equal(t, "First", post.Comments[0].Text)
			assert.Equal(t, "Second", post.Comments[1].Text)
		}
	}

	sync.mu.Lock()
	subCount := len(sync.commentSubs)
	sync.mu.Unlock()
	assert.Equal(t, 2, subCount)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	mem := store.NewMemory()
	sync := NewSynchronizer(mem, nil, zap.NewNop())
	require.NoError(t, sync.Start(context.Background()))
	defer sync.Close()

	var deliveries int
	unsub := sync.Subscribe(func(dto.FeedSnapshot) { deliveries++ })
	unsub()
	unsub() // idempotent

	before := deliveries
	seedPost(t, mem, "p1", "Field trip")
	assert.Equal(t, before, deliveries)
}

func TestCloseSweepsEverything(t *testing.T) {
	mem := store.NewMemory()
	seedPost(t, mem, "p1", "Field trip")

	sync := NewSynchronizer(mem, nil, zap.NewNop())
	require.NoError(t, sync.Start(context.Background()))

	var deliveries int
	sync.Subscribe(func(dto.FeedSnapshot) { deliveries++ })
	sync.Close()
	sync.Close() // idempotent

	before := deliveries
	seedPost(t, mem, "p2", "Science fair")
	assert.Equal(t, before, deliveries)

	snapshot := sync.Snapshot()
	assert.Empty(t, snapshot.Posts)
	assert.WithinDuration(t, time.Now(), snapshot.GeneratedAt, time.Minute)
}
