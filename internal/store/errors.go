package store

import "errors"

var (
	// ErrNotFound indicates the addressed record does not exist in the backing store.
	ErrNotFound = errors.New("store: record not found")
	// ErrOperationInProgress indicates another update or delete of the same record has not finished.
	ErrOperationInProgress = errors.New("store: operation in progress")
	// ErrMissingIdentifier indicates an update or delete without a record identifier.
	ErrMissingIdentifier = errors.New("store: missing record identifier")
	// ErrUnknownMode indicates an unrecognised mode value.
	ErrUnknownMode = errors.New("store: unknown mode")
	// ErrMissingDatabase indicates remote mode was selected without a database.
	ErrMissingDatabase = errors.New("store: remote mode requires a database")
	// ErrMissingSlots indicates local mode was selected without a slot store.
	ErrMissingSlots = errors.New("store: local mode requires a slot store")
	// ErrInvalidStatus indicates an unknown contact status.
	ErrInvalidStatus = errors.New("store: invalid contact status")
)
