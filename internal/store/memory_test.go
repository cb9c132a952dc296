package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGetRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "teachers", "t-1", map[string]interface{}{"name": "Bu Sari"}, false))

	doc, err := m.Get(ctx, "teachers", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Bu Sari", doc.String("name"))
	assert.False(t, doc.CreatedAt.IsZero())

	_, err = m.Get(ctx, "teachers", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySetMergePreservesFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "posts", "p-1", map[string]interface{}{"title": "Sports day", "text": "photos"}, false))
	require.NoError(t, m.Set(ctx, "posts", "p-1", map[string]interface{}{"text": "updated"}, true))

	doc, err := m.Get(ctx, "posts", "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Sports day", doc.String("title"))
	assert.Equal(t, "updated", doc.String("text"))
}

func TestMemoryQueryFilterOrderLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	tick := 0
	m.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	require.NoError(t, m.Set(ctx, "attendance", "a-1", map[string]interface{}{"className": "5A", "date": "2026-03-02"}, false))
	require.NoError(t, m.Set(ctx, "attendance", "a-2", map[string]interface{}{"className": "5B", "date": "2026-03-02"}, false))
	require.NoError(t, m.Set(ctx, "attendance", "a-3", map[string]interface{}{"className": "5A", "date": "2026-03-03"}, false))

	docs, err := m.Query(ctx, "attendance", Query{
		Filters: []Filter{{Field: "className", Value: "5A"}},
		OrderBy: "date",
		Desc:    true,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a-3", docs[0].ID)
	assert.Equal(t, "a-1", docs[1].ID)

	docs, err = m.Query(ctx, "attendance", Query{OrderBy: "createdAt", Desc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a-3", docs[0].ID)
}

func TestMemoryApplyIsAtomicPerCall(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "posts", "p-1", map[string]interface{}{"likes": map[string]interface{}{}}, false))

	toggle := func(user string) Mutator {
		return func(data map[string]interface{}) (map[string]interface{}, error) {
			likes, _ := data["likes"].(map[string]interface{})
			if likes == nil {
				likes = map[string]interface{}{}
			}
			if _, ok := likes[user]; ok {
				delete(likes, user)
			} else {
				likes[user] = true
			}
			data["likes"] = likes
			return data, nil
		}
	}

	require.NoError(t, m.Apply(ctx, "posts", "p-1", toggle("u-1")))
	require.NoError(t, m.Apply(ctx, "posts", "p-1", toggle("u-2")))
	require.NoError(t, m.Apply(ctx, "posts", "p-1", toggle("u-1")))

	doc, err := m.Get(ctx, "posts", "p-1")
	require.NoError(t, err)
	likes := doc.Data["likes"].(map[string]interface{})
	assert.Len(t, likes, 1)
	assert.Contains(t, likes, "u-2")
}

func TestMemoryWatchDeliversInitialAndChangeSnapshots(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "announcements", "n-1", map[string]interface{}{"title": "Exam week"}, false))

	var snaps []Snapshot
	unsub, err := m.Watch(ctx, "announcements", func(s Snapshot) {
		snaps = append(snaps, s)
	})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Len(t, snaps[0].Documents, 1)

	_, err = m.Add(ctx, "announcements", map[string]interface{}{"title": "Holiday"})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Len(t, snaps[1].Documents, 2)

	unsub()
	_, err = m.Add(ctx, "announcements", map[string]interface{}{"title": "Ignored"})
	require.NoError(t, err)
	assert.Len(t, snaps, 2, "no snapshots after unsubscribe")
}

func TestMemoryDocumentsAreIsolatedCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "students", "s-1", map[string]interface{}{"profile": map[string]interface{}{"name": "Ayu"}}, false))

	doc, err := m.Get(ctx, "students", "s-1")
	require.NoError(t, err)
	doc.Data["profile"].(map[string]interface{})["name"] = "mutated"

	again, err := m.Get(ctx, "students", "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Ayu", again.Data["profile"].(map[string]interface{})["name"])
}
