// Package registry maps string type tags to adapters.
package registry

import (
	"sync"

	"go.uber.org/zap"

	internalErrors "harshagw/searchcore/internal/errors"
)

// Registry is a name-keyed set of adapters of one kind.
// It is safe for concurrent use.
type Registry[T any] struct {
	name   string
	logger *zap.Logger

	mu       sync.RWMutex
	adapters map[string]T
	order    []string
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for registration events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an empty registry. The name appears in errors and logs.
func New[T any](name string, opts ...Option) *Registry[T] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[T]{
		name:     name,
		logger:   o.logger.With(zap.String("registry", name)),
		adapters: make(map[string]T),
	}
}

// Name returns the registry name.
func (r *Registry[T]) Name() string { return r.name }

// Register binds adapter to typeTag. An occupied tag is rejected and the
// existing adapter stays in place.
func (r *Registry[T]) Register(typeTag string, adapter T) error {
	if typeTag == "" {
		return internalErrors.NewValidationError("type_tag", "cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[typeTag]; exists {
		return internalErrors.NewDuplicateAdapterError(r.name, typeTag)
	}
	r.adapters[typeTag] = adapter
	r.order = append(r.order, typeTag)

	r.logger.Debug("adapter registered", zap.String("type_tag", typeTag))
	return nil
}

// Unregister removes the adapter bound to typeTag.
func (r *Registry[T]) Unregister(typeTag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[typeTag]; !exists {
		return internalErrors.NewAdapterNotFoundError(r.name, typeTag)
	}
	delete(r.adapters, typeTag)
	for i, tag := range r.order {
		if tag == typeTag {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Debug("adapter unregistered", zap.String("type_tag", typeTag))
	return nil
}

// Get returns the adapter bound to typeTag.
func (r *Registry[T]) Get(typeTag string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[typeTag]
	if !ok {
		var zero T
		return zero, internalErrors.NewAdapterNotFoundError(r.name, typeTag)
	}
	return adapter, nil
}

// ListTypes returns the registered tags in registration order.
func (r *Registry[T]) ListTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, len(r.order))
	copy(types, r.order)
	return types
}

// Each calls fn for every adapter in registration order until fn returns false.
// fn runs on a snapshot, so it may call back into the registry.
func (r *Registry[T]) Each(fn func(typeTag string, adapter T) bool) {
	r.mu.RLock()
	tags := make([]string, len(r.order))
	copy(tags, r.order)
	adapters := make([]T, len(tags))
	for i, tag := range tags {
		adapters[i] = r.adapters[tag]
	}
	r.mu.RUnlock()

	for i, tag := range tags {
		if !fn(tag, adapters[i]) {
			return
		}
	}
}

// Len returns the number of registered adapters.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
