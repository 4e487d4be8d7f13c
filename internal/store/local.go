package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/OpenSkyDrones/opensky/internal/storage"
)

// LocalBackend keeps a whole collection serialized as one JSON array in a slot.
// Every mutation rewrites the full collection. A slot that was never written is
// initialised with the schema seed.
type LocalBackend[T any, D any] struct {
	slots  SlotStore
	schema Schema[T, D]
	clock  func() time.Time
	mutex  sync.Mutex
}

// NewLocalBackend returns a backend over the schema slot.
func NewLocalBackend[T any, D any](slots SlotStore, schema Schema[T, D]) *LocalBackend[T, D] {
	return &LocalBackend[T, D]{slots: slots, schema: schema, clock: time.Now}
}

func (backend *LocalBackend[T, D]) Load(ctx context.Context) ([]T, error) {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	return backend.readCollection(ctx)
}

func (backend *LocalBackend[T, D]) Insert(ctx context.Context, record T) (T, error) {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	var zero T
	collection, readErr := backend.readCollection(ctx)
	if readErr != nil {
		return zero, readErr
	}
	created := backend.schema.Stamp(record, storage.NewID(), backend.clock().UTC())
	next := make([]T, 0, len(collection)+1)
	next = append(next, created)
	next = append(next, collection...)
	if err := backend.writeCollection(ctx, next); err != nil {
		return zero, err
	}
	return created, nil
}

func (backend *LocalBackend[T, D]) Replace(ctx context.Context, identifier string, record T) (T, error) {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	var zero T
	collection, readErr := backend.readCollection(ctx)
	if readErr != nil {
		return zero, readErr
	}
	position := -1
	for index, existing := range collection {
		if backend.schema.Identify(existing) == identifier {
			position = index
			break
		}
	}
	if position < 0 {
		return zero, fmt.Errorf("replace %s %s: %w", backend.schema.Name, identifier, ErrNotFound)
	}
	replacement := backend.schema.Stamp(record, identifier, backend.schema.CreatedAt(collection[position]))
	next := append([]T(nil), collection...)
	next[position] = replacement
	if err := backend.writeCollection(ctx, next); err != nil {
		return zero, err
	}
	return replacement, nil
}

// Remove deletes the record if present. Removing an unknown identifier succeeds.
func (backend *LocalBackend[T, D]) Remove(ctx context.Context, identifier string) error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	collection, readErr := backend.readCollection(ctx)
	if readErr != nil {
		return readErr
	}
	next := make([]T, 0, len(collection))
	for _, existing := range collection {
		if backend.schema.Identify(existing) != identifier {
			next = append(next, existing)
		}
	}
	return backend.writeCollection(ctx, next)
}

func (backend *LocalBackend[T, D]) readCollection(ctx context.Context) ([]T, error) {
	payload, found, readErr := backend.slots.Read(ctx, backend.schema.Slot)
	if readErr != nil {
		return nil, readErr
	}
	if !found {
		seed := backend.schema.seedCopy()
		if err := backend.writeCollection(ctx, seed); err != nil {
			return nil, err
		}
		return seed, nil
	}
	var collection []T
	if err := json.Unmarshal(payload, &collection); err != nil {
		return nil, fmt.Errorf("decode slot %s: %w", backend.schema.Slot, err)
	}
	return collection, nil
}

func (backend *LocalBackend[T, D]) writeCollection(ctx context.Context, collection []T) error {
	if collection == nil {
		collection = []T{}
	}
	payload, encodeErr := json.Marshal(collection)
	if encodeErr != nil {
		return fmt.Errorf("encode slot %s: %w", backend.schema.Slot, encodeErr)
	}
	return backend.slots.Write(ctx, backend.schema.Slot, payload)
}
