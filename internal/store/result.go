package store

import (
	"errors"
	"strings"

	"github.com/OpenSkyDrones/opensky/internal/storage"
)

const (
	messageOperationInProgress = "Operação em andamento para este registro"
	messageMissingIdentifier   = "Identificador ausente"
)

// Result is the outcome of a store mutation. Failures carry a display message and never panic.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

// State is a snapshot of a store's in-memory list.
type State[T any] struct {
	Items   []T    `json:"items"`
	Loading bool   `json:"loading"`
	Loaded  bool   `json:"loaded"`
	Error   string `json:"error,omitempty"`
}

func succeeded[T any](record *T) Result[T] {
	return Result[T]{Success: true, Data: record}
}

func failed[T any](operationMessage string, err error) Result[T] {
	return Result[T]{Success: false, Error: describeFailure(operationMessage, err), Err: err}
}

func describeFailure(operationMessage string, err error) string {
	switch {
	case errors.Is(err, ErrOperationInProgress):
		return messageOperationInProgress
	case errors.Is(err, ErrMissingIdentifier):
		return messageMissingIdentifier
	}
	detail := strings.TrimSpace(storage.DescribeError(err))
	if detail == "" {
		return operationMessage
	}
	return operationMessage + ": " + detail
}
