package store

import "time"

// Messages are the per-entity texts reported when an operation fails.
type Messages struct {
	Load   string
	Create string
	Update string
	Delete string
}

// Schema describes one entity kind: where it lives and how records are built from drafts.
type Schema[T any, D any] struct {
	// Name identifies the collection in logs and change events.
	Name string
	// Slot names the local slot holding the serialized collection.
	Slot string
	// Build creates a record from a validated draft.
	Build func(identifier string, createdAt time.Time, draft D) T
	// Stamp returns record with the given identity.
	Stamp func(record T, identifier string, createdAt time.Time) T
	// Identify returns the record identifier.
	Identify func(record T) string
	// CreatedAt returns the record creation time.
	CreatedAt func(record T) time.Time
	// Seed is the built-in dataset used when nothing can be loaded.
	Seed     []T
	Messages Messages
}

func (schema Schema[T, D]) seedCopy() []T {
	return append([]T(nil), schema.Seed...)
}
