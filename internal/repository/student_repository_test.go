package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulink-id/parent-portal-api/internal/store"
)

func seedClasses(t *testing.T, m *store.Memory, classes ...string) {
	t.Helper()
	ctx := context.Background()
	for _, name := range classes {
		require.NoError(t, m.Set(ctx, "classes", name, map[string]interface{}{"name": name}, false))
	}
}

func TestStudentRepositoryFindByIdentityScansPartitions(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedClasses(t, m, "4B", "5A", "6C")
	require.NoError(t, m.Set(ctx, "classes/5A/students", "uid-1", map[string]interface{}{
		"name": "Ayu Lestari",
		"profile": map[string]interface{}{
			"parent": map[string]interface{}{"father": "Pak Budi"},
		},
		"grades": []interface{}{
			map[string]interface{}{
				"examName": "Midterm",
				"date":     "2026-03-01",
				"subjects": map[string]interface{}{"Math": "92", "Science": "78"},
			},
		},
	}, false))

	repo := NewStudentRepository(m)

	student, err := repo.FindByIdentity(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Ayu Lestari", student.Name)
	assert.Equal(t, "5A", student.ClassName)
	require.Len(t, student.Grades, 1)
	assert.Equal(t, "92", student.Grades[0].Subjects["Math"])
	assert.Equal(t, "Pak Budi", student.Profile["parent"].(map[string]interface{})["father"])
}

func TestStudentRepositoryFindByIdentityNotFound(t *testing.T) {
	m := store.NewMemory()
	seedClasses(t, m, "5A")
	repo := NewStudentRepository(m)

	_, err := repo.FindByIdentity(context.Background(), "uid-unknown")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.FindByIdentity(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStudentRepositoryStopsAtFirstMatchingClass(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedClasses(t, m, "1A", "2A")
	// same identity in two partitions; the scan keeps the first
	require.NoError(t, m.Set(ctx, "classes/1A/students", "uid-1", map[string]interface{}{"name": "First"}, false))
	require.NoError(t, m.Set(ctx, "classes/2A/students", "uid-1", map[string]interface{}{"name": "Second"}, false))

	repo := NewStudentRepository(m)
	student, err := repo.FindByIdentity(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "First", student.Name)
	assert.Equal(t, "1A", student.ClassName)
}
