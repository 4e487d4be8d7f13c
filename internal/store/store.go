package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	logFieldCollection = "collection"
	logFieldRecordID   = "record_id"
	logFieldMode       = "mode"
)

// Store is the in-memory list of one collection backed by a remote or local Backend.
// Reads never block on the backend. Mutations are write-through: the list changes only
// after the backend accepted the change.
type Store[T any, D any] struct {
	schema      Schema[T, D]
	backend     Backend[T]
	mode        Mode
	logger      *zap.Logger
	broadcaster *ChangeBroadcaster

	mutex          sync.Mutex
	items          []T
	loading        bool
	loaded         bool
	lastError      string
	refreshStarted bool
	generation     uint64
	inFlight       map[string]struct{}
	background     sync.WaitGroup
}

// New constructs a store over backend. The mode is recorded for callers that need to report it.
func New[T any, D any](schema Schema[T, D], backend Backend[T], mode Mode, logger *zap.Logger, broadcaster *ChangeBroadcaster) *Store[T, D] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T, D]{
		schema:      schema,
		backend:     backend,
		mode:        mode,
		logger:      logger,
		broadcaster: broadcaster,
		inFlight:    make(map[string]struct{}),
	}
}

// Name returns the collection name.
func (store *Store[T, D]) Name() string {
	return store.schema.Name
}

// Mode returns the mode the store was built for.
func (store *Store[T, D]) Mode() Mode {
	return store.mode
}

// List returns the current snapshot. The first call starts a background refresh and
// returns without waiting for it.
func (store *Store[T, D]) List(ctx context.Context) State[T] {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if !store.refreshStarted {
		store.refreshStarted = true
		store.loading = true
		store.background.Add(1)
		go func() {
			defer store.background.Done()
			_ = store.Refresh(context.WithoutCancel(ctx))
		}()
	}
	return store.snapshotLocked()
}

// Snapshot returns the current state without triggering a refresh.
func (store *Store[T, D]) Snapshot() State[T] {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.snapshotLocked()
}

// Get returns the cached record with the given identifier.
func (store *Store[T, D]) Get(identifier string) (T, bool) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, record := range store.items {
		if store.schema.Identify(record) == identifier {
			return record, true
		}
	}
	var zero T
	return zero, false
}

// Refresh loads the collection from the backend. On failure the list becomes the seed
// dataset, the failure is kept in the state and the error is returned.
// A load that overlapped a successful mutation is discarded so the list keeps that mutation.
func (store *Store[T, D]) Refresh(ctx context.Context) error {
	store.mutex.Lock()
	store.refreshStarted = true
	store.loading = true
	startGeneration := store.generation
	store.mutex.Unlock()

	records, loadErr := store.backend.Load(ctx)

	store.mutex.Lock()
	store.loading = false
	stale := store.generation != startGeneration
	switch {
	case loadErr != nil && stale:
		store.lastError = describeFailure(store.schema.Messages.Load, loadErr)
	case loadErr != nil:
		store.items = store.schema.seedCopy()
		store.lastError = describeFailure(store.schema.Messages.Load, loadErr)
	case stale:
		store.lastError = ""
	default:
		store.items = append([]T(nil), records...)
		store.lastError = ""
	}
	store.loaded = true
	count := len(store.items)
	lastError := store.lastError
	store.mutex.Unlock()

	store.publish(ChangeRefreshed, "", count, lastError)
	if loadErr != nil {
		store.logger.Warn("store_load_failed",
			zap.String(logFieldCollection, store.schema.Name),
			zap.String(logFieldMode, string(store.mode)),
			zap.Error(loadErr))
		return fmt.Errorf("refresh %s: %w", store.schema.Name, loadErr)
	}
	return nil
}

// Create persists a record built from draft and prepends it to the list.
func (store *Store[T, D]) Create(ctx context.Context, draft D) Result[T] {
	record := store.schema.Build("", time.Time{}, draft)
	created, insertErr := store.backend.Insert(ctx, record)
	if insertErr != nil {
		store.logger.Warn("store_create_failed", zap.String(logFieldCollection, store.schema.Name), zap.Error(insertErr))
		return failed[T](store.schema.Messages.Create, insertErr)
	}

	store.mutex.Lock()
	next := make([]T, 0, len(store.items)+1)
	next = append(next, created)
	store.items = append(next, store.items...)
	store.generation++
	count := len(store.items)
	store.mutex.Unlock()

	store.publish(ChangeCreated, store.schema.Identify(created), count, "")
	return succeeded(&created)
}

// Update replaces the editable fields of the record, keeping its identifier and creation time.
func (store *Store[T, D]) Update(ctx context.Context, identifier string, draft D) Result[T] {
	recordID := strings.TrimSpace(identifier)
	if recordID == "" {
		return failed[T](store.schema.Messages.Update, ErrMissingIdentifier)
	}
	if !store.acquire(recordID) {
		return failed[T](store.schema.Messages.Update, ErrOperationInProgress)
	}
	defer store.release(recordID)

	record := store.schema.Build(recordID, time.Time{}, draft)
	updated, replaceErr := store.backend.Replace(ctx, recordID, record)
	if replaceErr != nil {
		store.logger.Warn("store_update_failed",
			zap.String(logFieldCollection, store.schema.Name),
			zap.String(logFieldRecordID, recordID),
			zap.Error(replaceErr))
		return failed[T](store.schema.Messages.Update, replaceErr)
	}

	store.mutex.Lock()
	next := append([]T(nil), store.items...)
	for index, existing := range next {
		if store.schema.Identify(existing) == recordID {
			next[index] = updated
		}
	}
	store.items = next
	store.generation++
	count := len(store.items)
	store.mutex.Unlock()

	store.publish(ChangeUpdated, recordID, count, "")
	return succeeded(&updated)
}

// Delete removes the record from the backend and from the list.
func (store *Store[T, D]) Delete(ctx context.Context, identifier string) Result[T] {
	recordID := strings.TrimSpace(identifier)
	if recordID == "" {
		return failed[T](store.schema.Messages.Delete, ErrMissingIdentifier)
	}
	if !store.acquire(recordID) {
		return failed[T](store.schema.Messages.Delete, ErrOperationInProgress)
	}
	defer store.release(recordID)

	if removeErr := store.backend.Remove(ctx, recordID); removeErr != nil {
		store.logger.Warn("store_delete_failed",
			zap.String(logFieldCollection, store.schema.Name),
			zap.String(logFieldRecordID, recordID),
			zap.Error(removeErr))
		return failed[T](store.schema.Messages.Delete, removeErr)
	}

	store.mutex.Lock()
	next := make([]T, 0, len(store.items))
	for _, existing := range store.items {
		if store.schema.Identify(existing) != recordID {
			next = append(next, existing)
		}
	}
	store.items = next
	store.generation++
	count := len(store.items)
	store.mutex.Unlock()

	store.publish(ChangeDeleted, recordID, count, "")
	return succeeded[T](nil)
}

// Wait blocks until background refreshes started by List have finished.
func (store *Store[T, D]) Wait() {
	store.background.Wait()
}

func (store *Store[T, D]) acquire(identifier string) bool {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, busy := store.inFlight[identifier]; busy {
		return false
	}
	store.inFlight[identifier] = struct{}{}
	return true
}

func (store *Store[T, D]) release(identifier string) {
	store.mutex.Lock()
	delete(store.inFlight, identifier)
	store.mutex.Unlock()
}

func (store *Store[T, D]) snapshotLocked() State[T] {
	items := make([]T, len(store.items))
	copy(items, store.items)
	return State[T]{
		Items:   items,
		Loading: store.loading,
		Loaded:  store.loaded,
		Error:   store.lastError,
	}
}

func (store *Store[T, D]) publish(kind ChangeKind, recordID string, count int, errorText string) {
	store.broadcaster.Publish(Change{
		Collection: store.schema.Name,
		Kind:       kind,
		RecordID:   recordID,
		Count:      count,
		Error:      errorText,
		At:         time.Now().UTC(),
	})
}
