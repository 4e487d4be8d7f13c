package store

import "context"

// Backend is a backing store for one collection.
type Backend[T any] interface {
	// Load returns every record, newest first.
	Load(ctx context.Context) ([]T, error)
	// Insert persists a new record and returns it with its assigned identity.
	Insert(ctx context.Context, record T) (T, error)
	// Replace overwrites the editable fields of the record with the given identifier.
	Replace(ctx context.Context, identifier string, record T) (T, error)
	// Remove deletes the record with the given identifier.
	Remove(ctx context.Context, identifier string) error
}

// SlotStore persists opaque payloads under fixed slot names.
type SlotStore interface {
	Read(ctx context.Context, name string) ([]byte, bool, error)
	Write(ctx context.Context, name string, payload []byte) error
}
