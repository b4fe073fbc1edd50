package processor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"harshagw/searchcore/internal/entitystore"
	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
)

type mapStore map[search.DocumentID]search.Entity

func (s mapStore) Resolve(_ context.Context, className string, id search.DocumentID) (search.Entity, error) {
	e, ok := s[id]
	if !ok || e.ClassName != className {
		return search.Entity{}, internalErrors.NewEntityNotFoundError(className, uint32(id))
	}
	return e, nil
}

func hit(class string) search.Attributes {
	return search.Attributes{search.AttrEntityClassName: class}
}

func TestEntityManager_ResolvesInHitOrder(t *testing.T) {
	store := mapStore{
		1: {ID: 1, ClassName: "Note", Fields: map[string]any{"title": "one"}},
		2: {ID: 2, ClassName: "Task", Fields: map[string]any{"title": "two"}},
	}
	result := search.NewSearchResult()
	result.AddHit(2, hit("Task"))
	result.AddHit(1, hit("Note"))

	m := NewEntityManager(store, WithLogger(zaptest.NewLogger(t)))
	entities, err := m.ProcessResults(context.Background(), result, nil)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, search.DocumentID(2), entities[0].ID)
	assert.Equal(t, "two", entities[0].Fields["title"])
	assert.Equal(t, search.DocumentID(1), entities[1].ID)
}

func TestEntityManager_MissingClassFailsBatch(t *testing.T) {
	store := mapStore{1: {ID: 1, ClassName: "Note"}}
	result := search.NewSearchResult()
	result.AddHit(1, hit("Note"))
	result.AddHit(5, nil)

	entities, err := NewEntityManager(store).ProcessResults(context.Background(), result, nil)
	require.ErrorIs(t, err, internalErrors.ErrProcess)
	assert.Nil(t, entities)

	var pe *internalErrors.ProcessError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, uint32(5), pe.DocumentID)
	assert.Empty(t, pe.ClassName)
}

func TestEntityManager_ResolveFailureFailsBatch(t *testing.T) {
	result := search.NewSearchResult()
	result.AddHit(3, hit("Note"))

	_, err := NewEntityManager(mapStore{}).ProcessResults(context.Background(), result, nil)
	require.ErrorIs(t, err, internalErrors.ErrProcess)
	require.ErrorIs(t, err, internalErrors.ErrEntityNotFound)

	var pe *internalErrors.ProcessError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Note", pe.ClassName)
}

func TestEntityManager_EmptyResult(t *testing.T) {
	m := NewEntityManager(mapStore{})

	entities, err := m.ProcessResults(context.Background(), search.NewSearchResult(), nil)
	require.NoError(t, err)
	assert.Empty(t, entities)

	entities, err = m.ProcessResults(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestEntityManager_FieldProjection(t *testing.T) {
	store := mapStore{1: {ID: 1, ClassName: "Note", Fields: map[string]any{"title": "t", "body": "b"}}}
	result := search.NewSearchResult()
	result.AddHit(1, hit("Note"))

	entities, err := NewEntityManager(store).ProcessResults(context.Background(), result,
		search.Properties{PropFields: "title, missing"})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, map[string]any{"title": "t"}, entities[0].Fields)
	assert.True(t, entities[0].Materialized())
}

func TestEntityManager_ThroughEngine(t *testing.T) {
	store, err := entitystore.Open(filepath.Join(t.TempDir(), "entities.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, search.Entity{ID: 4, ClassName: "Note", Fields: map[string]any{"title": "mock"}}))

	engine := search.NewEngine()
	require.NoError(t, engine.Processors().Register(EntityManagerTypeTag, NewEntityManager(store)))

	result := search.NewSearchResult()
	result.AddHit(4, hit("Note"))
	entities, err := engine.ProcessResults(ctx, result, search.Properties{search.PropProcessorType: EntityManagerTypeTag})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "mock", entities[0].Fields["title"])

	result.AddHit(9, hit("Note"))
	_, err = engine.ProcessResults(ctx, result, search.Properties{search.PropProcessorType: EntityManagerTypeTag})
	require.ErrorIs(t, err, internalErrors.ErrProcess)
	assert.NotErrorIs(t, err, internalErrors.ErrAdapter)
}
