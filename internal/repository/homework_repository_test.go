package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulink-id/parent-portal-api/internal/store"
)

func TestHomeworkFlattensNestedBatch(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "classes/5A/homeworks", "2026-03-02", map[string]interface{}{
		"date": "2026-03-02",
		"homeworks": []interface{}{
			map[string]interface{}{"id": "hw-1", "subject": "Math", "details": "Page 40, ex 1-5", "date": "2026-03-02"},
			map[string]interface{}{"subject": "Science", "details": []interface{}{"Read chapter 3", "Lab notes"}, "createdAt": "2026-03-01T10:00:00Z"},
			map[string]interface{}{"subject": "Art"},
		},
	}, false))

	repo := NewHomeworkRepository(m)
	items, err := repo.ListRecent(ctx, "5A", 10)
	require.NoError(t, err)
	require.Len(t, items, 3, "batch of 3 flattens to exactly 3 items")

	byName := map[string]int{}
	for i, item := range items {
		byName[item.Subject] = i
	}

	math := items[byName["Math"]]
	assert.Equal(t, "hw-1", math.ID)
	assert.Equal(t, []string{"Page 40, ex 1-5"}, math.Details)
	assert.Equal(t, "2026-03-02", math.EffectiveDate.Format("2006-01-02"))

	// no item date: falls back to the item's createdAt
	science := items[byName["Science"]]
	assert.Equal(t, "2026-03-01T10:00:00Z", science.EffectiveDate.Format(time.RFC3339))
	assert.Len(t, science.Details, 2)
	assert.NotEmpty(t, science.ID, "id synthesized from creation timestamp")

	// neither item date nor createdAt: falls back to the container date
	art := items[byName["Art"]]
	assert.Equal(t, "2026-03-02", art.EffectiveDate.Format("2006-01-02"))
	assert.Equal(t, "2026-03-02", art.DateID)
}

func TestHomeworkFlatContainerYieldsSingleItem(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "classes/5A/homeworks", "2026-03-03", map[string]interface{}{
		"date":    "2026-03-03",
		"subject": "English",
		"details": "Essay draft",
	}, false))

	repo := NewHomeworkRepository(m)
	items, err := repo.ListRecent(ctx, "5A", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2026-03-03", items[0].ID)
	assert.Equal(t, "English", items[0].Subject)
	assert.Equal(t, "2026-03-03", items[0].EffectiveDate.Format("2006-01-02"))
}

func TestHomeworkFallsBackToNowWithoutAnyDate(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "classes/5A/homeworks", "batch-x", map[string]interface{}{
		"homeworks": []interface{}{
			map[string]interface{}{"subject": "Music"},
		},
	}, false))

	repo := NewHomeworkRepository(m)
	fixed := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	items, err := repo.ListRecent(ctx, "5A", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, fixed, items[0].EffectiveDate)
}

func TestHomeworkListRecentLimitsContainers(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	for _, day := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		require.NoError(t, m.Set(ctx, "classes/5A/homeworks", day, map[string]interface{}{
			"date":    day,
			"subject": "Math",
			"details": "Daily drill",
		}, false))
	}

	repo := NewHomeworkRepository(m)
	items, err := repo.ListRecent(ctx, "5A", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// most recent containers first
	assert.Equal(t, "2026-03-03", items[0].ID)
	assert.Equal(t, "2026-03-02", items[1].ID)
}
