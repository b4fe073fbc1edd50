// Package crawler provides crawler adapters that feed documents to the indexer.
package crawler

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"harshagw/searchcore/internal/search"
)

// EntityStoreTypeTag is the registry tag of the entity store crawler.
const EntityStoreTypeTag = "entity_store"

// PropEntityClasses restricts crawling to a comma-separated list of classes.
const PropEntityClasses = "crawler.entity_classes"

// EntitySource is the part of an entity store the crawler walks.
type EntitySource interface {
	Classes() ([]string, error)
	ForEach(ctx context.Context, className string, fn func(search.Entity) error) error
}

// EntityStore emits one document per stored entity.
type EntityStore struct {
	src    EntitySource
	logger *zap.Logger
}

// Option configures a crawler.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewEntityStore creates a crawler over src.
func NewEntityStore(src EntitySource, opts ...Option) *EntityStore {
	return &EntityStore{src: src, logger: buildOptions(opts).logger}
}

// Crawl walks the selected classes in order and entities by id.
func (c *EntityStore) Crawl(ctx context.Context, props search.Properties) ([]search.Document, error) {
	classes, err := c.classes(props)
	if err != nil {
		return nil, err
	}

	var docs []search.Document
	for _, class := range classes {
		err := c.src.ForEach(ctx, class, func(e search.Entity) error {
			docs = append(docs, search.Document{ID: e.ID, ClassName: e.ClassName, Fields: e.Fields})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to crawl class %s: %w", class, err)
		}
	}

	c.logger.Debug("entity store crawled",
		zap.Strings("classes", classes),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

func (c *EntityStore) classes(props search.Properties) ([]string, error) {
	raw, ok := props.Get(PropEntityClasses)
	if !ok {
		return c.src.Classes()
	}
	var classes []string
	for _, class := range strings.Split(raw, ",") {
		if class = strings.TrimSpace(class); class != "" {
			classes = append(classes, class)
		}
	}
	return classes, nil
}
