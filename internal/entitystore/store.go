// Package entitystore persists entities in BoltDB, one bucket per entity
// class, with snappy-compressed JSON payloads and an LRU read cache.
package entitystore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/boltdb/bolt"
	"github.com/golang/snappy"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
)

// DefaultCacheSize is the number of resolved entities kept in memory.
const DefaultCacheSize = 1024

type cacheKey struct {
	class string
	id    search.DocumentID
}

// Store is a bolt-backed search.EntityStore.
type Store struct {
	db     *bolt.DB
	cache  *lru.Cache[cacheKey, search.Entity]
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*options)

type options struct {
	cacheSize int
	logger    *zap.Logger
}

// WithCacheSize sets the resolve cache capacity.
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open opens or creates the store at path.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{cacheSize: DefaultCacheSize, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open entity store %s: %w", path, err)
	}

	cache, err := lru.New[cacheKey, search.Entity](o.cacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	o.logger.Debug("entity store opened", zap.String("path", path), zap.Int("cache_size", o.cacheSize))
	return &Store{db: db, cache: cache, logger: o.logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(id search.DocumentID) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(id))
	return buf
}

func encodeFields(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, data), nil
}

func decodeFields(data []byte) (map[string]any, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress entity: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse entity: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Put stores entities, replacing any with the same class and id. Ids are
// unique across classes, so storing an id under a second class is a
// ValidationError and nothing in the batch is written.
func (s *Store) Put(ctx context.Context, entities ...search.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, e := range entities {
		if e.ClassName == "" {
			return internalErrors.NewValidationError("class", fmt.Sprintf("entity %d has no class name", e.ID))
		}
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, e := range entities {
			if other := classOf(tx, e.ID, e.ClassName); other != "" {
				return internalErrors.NewValidationError("id",
					fmt.Sprintf("entity %d already stored as class %s", e.ID, other))
			}
			b, err := tx.CreateBucketIfNotExists([]byte(e.ClassName))
			if err != nil {
				return err
			}
			data, err := encodeFields(e.Fields)
			if err != nil {
				return fmt.Errorf("failed to encode entity %s/%d: %w", e.ClassName, e.ID, err)
			}
			if err := b.Put(key(e.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, e := range entities {
		s.cache.Remove(cacheKey{class: e.ClassName, id: e.ID})
	}
	return nil
}

// classOf returns the class other than except that holds id, or "".
func classOf(tx *bolt.Tx, id search.DocumentID, except string) string {
	k := key(id)
	var found string
	tx.ForEach(func(name []byte, b *bolt.Bucket) error {
		if string(name) != except && b.Get(k) != nil {
			found = string(name)
		}
		return nil
	})
	return found
}

// Resolve returns the entity className/id with its fields.
func (s *Store) Resolve(ctx context.Context, className string, id search.DocumentID) (search.Entity, error) {
	if err := ctx.Err(); err != nil {
		return search.Entity{}, err
	}

	ck := cacheKey{class: className, id: id}
	if e, ok := s.cache.Get(ck); ok {
		e.Fields = maps.Clone(e.Fields)
		return e, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(className))
		if b == nil {
			return nil
		}
		if v := b.Get(key(id)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return search.Entity{}, err
	}
	if data == nil {
		return search.Entity{}, internalErrors.NewEntityNotFoundError(className, uint32(id))
	}

	fields, err := decodeFields(data)
	if err != nil {
		return search.Entity{}, err
	}

	e := search.Entity{ID: id, ClassName: className, Fields: fields}
	s.cache.Add(ck, e)
	e.Fields = maps.Clone(fields)
	return e, nil
}

// Delete removes className/id. Deleting a missing entity is an error.
func (s *Store) Delete(ctx context.Context, className string, id search.DocumentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(className))
		if b == nil || b.Get(key(id)) == nil {
			return internalErrors.NewEntityNotFoundError(className, uint32(id))
		}
		return b.Delete(key(id))
	})
	if err != nil {
		return err
	}
	s.cache.Remove(cacheKey{class: className, id: id})
	return nil
}

// Classes returns the stored entity class names in byte order.
func (s *Store) Classes() ([]string, error) {
	var classes []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			classes = append(classes, string(name))
			return nil
		})
	})
	return classes, err
}

// Count returns the number of entities of className.
func (s *Store) Count(className string) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(className)); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// ForEach calls fn for every entity of className in id order. Iteration
// stops at the first error, which is returned.
func (s *Store) ForEach(ctx context.Context, className string, fn func(search.Entity) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(className))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fields, err := decodeFields(v)
			if err != nil {
				return err
			}
			return fn(search.Entity{
				ID:        search.DocumentID(binary.BigEndian.Uint32(k)),
				ClassName: className,
				Fields:    fields,
			})
		})
	})
}
