// Package processor provides result-processor adapters.
package processor

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
)

// EntityManagerTypeTag is the registry tag of the entity manager processor.
const EntityManagerTypeTag = "entity_manager"

// PropFields restricts materialized entities to a comma-separated list of
// field names.
const PropFields = "processor.fields"

var errNoClassName = errors.New("hit has no entity class name")

// EntityManager resolves every hit of a result through an entity store.
// A single failing hit fails the whole batch.
type EntityManager struct {
	store  search.EntityStore
	logger *zap.Logger
}

// Option configures an EntityManager.
type Option func(*EntityManager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *EntityManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewEntityManager creates a processor backed by store.
func NewEntityManager(store search.EntityStore, opts ...Option) *EntityManager {
	m := &EntityManager{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProcessResults returns one entity per hit, in hit order.
func (m *EntityManager) ProcessResults(ctx context.Context, result *search.SearchResult, props search.Properties) ([]search.Entity, error) {
	fields := projection(props)
	entities := make([]search.Entity, 0, result.Len())
	if result == nil {
		return entities, nil
	}

	for _, id := range result.HitList {
		class := result.Attributes(id).ClassName()
		if class == "" {
			return nil, internalErrors.NewProcessError(uint32(id), "", errNoClassName)
		}
		e, err := m.store.Resolve(ctx, class, id)
		if err != nil {
			m.logger.Debug("entity resolution failed",
				zap.Uint32("id", uint32(id)),
				zap.String("class", class),
				zap.Error(err),
			)
			return nil, internalErrors.NewProcessError(uint32(id), class, err)
		}
		if fields != nil {
			e.Fields = project(e.Fields, fields)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func projection(props search.Properties) []string {
	raw, ok := props.Get(PropFields)
	if !ok {
		return nil
	}
	fields := []string{}
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func project(src map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := src[f]; ok {
			out[f] = v
		}
	}
	return out
}
