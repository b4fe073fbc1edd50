package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"harshagw/searchcore/internal/crawler"
	"harshagw/searchcore/internal/entitystore"
	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
)

type staticCrawler struct {
	docs  []search.Document
	delay time.Duration
	err   error
}

func (c staticCrawler) Crawl(ctx context.Context, _ search.Properties) ([]search.Document, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return c.docs, c.err
}

func doc(id search.DocumentID, class, text string) search.Document {
	return search.Document{ID: id, ClassName: class, Fields: map[string]any{"text": text}}
}

func newEngine(t *testing.T, crawlers map[string]search.CrawlerAdapter) *search.Engine {
	t.Helper()
	e := search.NewEngine()
	for tag, c := range crawlers {
		require.NoError(t, e.Crawlers().Register(tag, c))
	}
	return e
}

func TestBuild_MergesCrawlers(t *testing.T) {
	engine := newEngine(t, map[string]search.CrawlerAdapter{
		"slow": staticCrawler{delay: 20 * time.Millisecond, docs: []search.Document{
			doc(2, "Note", "mock text"),
			doc(1, "Note", "mock entity"),
		}},
		"fast": staticCrawler{docs: []search.Document{doc(3, "Task", "entity action")}},
	})

	idx, err := New(engine, WithLogger(zaptest.NewLogger(t))).Build(context.Background(), []string{"slow", "fast"}, nil)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, uint64(3), idx.TotalDocs())
	df, err := idx.DocFreq("entity")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), df)

	class, ok := idx.ClassName(3)
	require.True(t, ok)
	assert.Equal(t, "Task", class)
}

func TestBuild_Deterministic(t *testing.T) {
	engine := newEngine(t, map[string]search.CrawlerAdapter{
		"a": staticCrawler{delay: 10 * time.Millisecond, docs: []search.Document{doc(1, "Note", "mock mock entity")}},
		"b": staticCrawler{docs: []search.Document{doc(2, "Note", "mock")}},
		"c": staticCrawler{docs: []search.Document{doc(3, "Task", "action")}},
	})
	ix := New(engine, WithParallelism(3))

	first, err := ix.Build(context.Background(), []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	defer first.Close()
	second, err := ix.Build(context.Background(), []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	defer second.Close()

	for _, term := range []string{"mock", "entity", "action"} {
		p1, err := first.Lookup(term)
		require.NoError(t, err)
		p2, err := second.Lookup(term)
		require.NoError(t, err)
		assert.Equal(t, p1, p2, term)
	}
	assert.Equal(t, first.NumTerms(), second.NumTerms())
	assert.Equal(t, first.AvgDocLength(), second.AvgDocLength())
}

func TestBuild_CrawlerError(t *testing.T) {
	engine := newEngine(t, map[string]search.CrawlerAdapter{
		"ok":     staticCrawler{delay: time.Second, docs: []search.Document{doc(1, "Note", "x")}},
		"broken": staticCrawler{err: errors.New("source offline")},
	})

	start := time.Now()
	_, err := New(engine).Build(context.Background(), []string{"ok", "broken"}, nil)
	require.ErrorIs(t, err, internalErrors.ErrAdapter)
	assert.Contains(t, err.Error(), "source offline")
	assert.Less(t, time.Since(start), time.Second)
}

func TestBuild_UnknownCrawler(t *testing.T) {
	_, err := New(newEngine(t, nil)).Build(context.Background(), []string{"missing"}, nil)
	require.ErrorIs(t, err, internalErrors.ErrAdapterNotFound)
}

func TestBuild_NoCrawlers(t *testing.T) {
	_, err := New(newEngine(t, nil)).Build(context.Background(), nil, nil)
	require.ErrorIs(t, err, internalErrors.ErrInvalidInput)
}

func TestBuild_DuplicateDocumentAcrossCrawlers(t *testing.T) {
	engine := newEngine(t, map[string]search.CrawlerAdapter{
		"a": staticCrawler{docs: []search.Document{doc(1, "Note", "x")}},
		"b": staticCrawler{docs: []search.Document{doc(1, "Task", "y")}},
	})

	_, err := New(engine).Build(context.Background(), []string{"a", "b"}, nil)
	require.ErrorIs(t, err, internalErrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "crawler b")
}

func TestBuild_EntityStoreAcrossClasses(t *testing.T) {
	store, err := entitystore.Open(filepath.Join(t.TempDir(), "entities.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx,
		search.Entity{ID: 1, ClassName: "Note", Fields: map[string]any{"title": "mock entity"}},
		search.Entity{ID: 2, ClassName: "Task", Fields: map[string]any{"title": "entity action"}},
	))
	err = store.Put(ctx, search.Entity{ID: 1, ClassName: "Task", Fields: map[string]any{"title": "clash"}})
	require.ErrorIs(t, err, internalErrors.ErrInvalidInput)

	engine := newEngine(t, map[string]search.CrawlerAdapter{
		crawler.EntityStoreTypeTag: crawler.NewEntityStore(store),
	})
	idx, err := New(engine).Build(ctx, []string{crawler.EntityStoreTypeTag}, nil)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, uint64(2), idx.TotalDocs())
	class, ok := idx.ClassName(1)
	require.True(t, ok)
	assert.Equal(t, "Note", class)
}
