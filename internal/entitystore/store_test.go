package entitystore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
)

func openStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "entities.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutResolve(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, search.Entity{
		ID:        42,
		ClassName: "Note",
		Fields:    map[string]any{"title": "mock entity", "stars": 3.0},
	}))

	e, err := s.Resolve(ctx, "Note", 42)
	require.NoError(t, err)
	assert.Equal(t, search.DocumentID(42), e.ID)
	assert.Equal(t, "Note", e.ClassName)
	assert.True(t, e.Materialized())
	assert.Equal(t, "mock entity", e.Fields["title"])
	assert.Equal(t, 3.0, e.Fields["stars"])
}

func TestStore_ResolveMissing(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, search.Entity{ID: 1, ClassName: "Note"}))

	_, err := s.Resolve(ctx, "Note", 2)
	require.ErrorIs(t, err, internalErrors.ErrEntityNotFound)

	_, err = s.Resolve(ctx, "Unknown", 1)
	require.ErrorIs(t, err, internalErrors.ErrEntityNotFound)
}

func TestStore_NilFieldsResolveMaterialized(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, search.Entity{ID: 1, ClassName: "Note"}))

	e, err := s.Resolve(ctx, "Note", 1)
	require.NoError(t, err)
	assert.True(t, e.Materialized())
	assert.Empty(t, e.Fields)
}

func TestStore_PutInvalidatesCache(t *testing.T) {
	s := openStore(t, WithCacheSize(8))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, search.Entity{ID: 1, ClassName: "Note", Fields: map[string]any{"v": "old"}}))
	e, err := s.Resolve(ctx, "Note", 1)
	require.NoError(t, err)
	assert.Equal(t, "old", e.Fields["v"])

	require.NoError(t, s.Put(ctx, search.Entity{ID: 1, ClassName: "Note", Fields: map[string]any{"v": "new"}}))
	e, err = s.Resolve(ctx, "Note", 1)
	require.NoError(t, err)
	assert.Equal(t, "new", e.Fields["v"])
}

func TestStore_CachedEntityIsolated(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, search.Entity{ID: 1, ClassName: "Note", Fields: map[string]any{"v": "a"}}))

	e, err := s.Resolve(ctx, "Note", 1)
	require.NoError(t, err)
	e.Fields["v"] = "mutated"

	again, err := s.Resolve(ctx, "Note", 1)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Fields["v"])
}

func TestStore_PutRequiresClass(t *testing.T) {
	s := openStore(t)
	err := s.Put(context.Background(), search.Entity{ID: 1})
	require.ErrorIs(t, err, internalErrors.ErrInvalidInput)
}

func TestStore_Delete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, search.Entity{ID: 1, ClassName: "Note"}))
	_, err := s.Resolve(ctx, "Note", 1)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "Note", 1))
	_, err = s.Resolve(ctx, "Note", 1)
	require.ErrorIs(t, err, internalErrors.ErrEntityNotFound)

	err = s.Delete(ctx, "Note", 1)
	require.ErrorIs(t, err, internalErrors.ErrEntityNotFound)
}

func TestStore_ClassesCountForEach(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx,
		search.Entity{ID: 300, ClassName: "Task"},
		search.Entity{ID: 2, ClassName: "Note", Fields: map[string]any{"n": "two"}},
		search.Entity{ID: 1, ClassName: "Note", Fields: map[string]any{"n": "one"}},
	))

	classes, err := s.Classes()
	require.NoError(t, err)
	assert.Equal(t, []string{"Note", "Task"}, classes)

	n, err := s.Count("Note")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var ids []search.DocumentID
	require.NoError(t, s.ForEach(ctx, "Note", func(e search.Entity) error {
		ids = append(ids, e.ID)
		assert.Equal(t, "Note", e.ClassName)
		return nil
	}))
	assert.Equal(t, []search.DocumentID{1, 2}, ids)

	stop := errors.New("stop")
	err = s.ForEach(ctx, "Note", func(search.Entity) error { return stop })
	require.ErrorIs(t, err, stop)

	require.NoError(t, s.ForEach(ctx, "Missing", func(search.Entity) error {
		t.Fatal("callback called for missing class")
		return nil
	}))
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, search.Entity{ID: 9, ClassName: "Note", Fields: map[string]any{"k": "v"}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	e, err := s.Resolve(ctx, "Note", 9)
	require.NoError(t, err)
	assert.Equal(t, "v", e.Fields["k"])
}

func TestStore_CanceledContext(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Resolve(ctx, "Note", 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_IDUniqueAcrossClasses(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, search.Entity{ID: 1, ClassName: "Note", Fields: map[string]any{"v": "note"}}))

	err := s.Put(ctx, search.Entity{ID: 1, ClassName: "Task"})
	require.ErrorIs(t, err, internalErrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Note")

	_, err = s.Resolve(ctx, "Task", 1)
	require.ErrorIs(t, err, internalErrors.ErrEntityNotFound)

	// Replacing within the same class is still allowed.
	require.NoError(t, s.Put(ctx, search.Entity{ID: 1, ClassName: "Note", Fields: map[string]any{"v": "again"}}))

	// A batch reusing an id across classes is rejected as a whole.
	err = s.Put(ctx,
		search.Entity{ID: 2, ClassName: "Note"},
		search.Entity{ID: 2, ClassName: "Task"},
	)
	require.ErrorIs(t, err, internalErrors.ErrInvalidInput)
	_, err = s.Resolve(ctx, "Note", 2)
	require.ErrorIs(t, err, internalErrors.ErrEntityNotFound)

	require.NoError(t, s.Delete(ctx, "Note", 1))
	require.NoError(t, s.Put(ctx, search.Entity{ID: 1, ClassName: "Task"}))
}
