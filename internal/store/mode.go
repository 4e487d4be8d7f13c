package store

import (
	"fmt"
	"strings"
)

// Mode selects the backing store used by every Resource Store of a process.
type Mode string

const (
	// ModeRemote persists records in the configured database backend.
	ModeRemote Mode = "remote"
	// ModeLocal persists whole collections in local slots and needs no backend.
	ModeLocal Mode = "local"
)

// placeholderBackendURLs are values shipped in sample configuration that never point at a real backend.
var placeholderBackendURLs = map[string]struct{}{
	"https://demo.supabase.co": {},
	"your-supabase-url":        {},
	"demo":                     {},
	"placeholder":              {},
}

// ResolveMode returns ModeLocal when backendURL is empty or a known placeholder, ModeRemote otherwise.
func ResolveMode(backendURL string) Mode {
	normalized := strings.TrimRight(strings.ToLower(strings.TrimSpace(backendURL)), "/")
	if normalized == "" {
		return ModeLocal
	}
	if _, placeholder := placeholderBackendURLs[normalized]; placeholder {
		return ModeLocal
	}
	return ModeRemote
}

// ParseMode parses an explicit mode override.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeRemote:
		return ModeRemote, nil
	case ModeLocal:
		return ModeLocal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

// IsDemo reports whether the mode runs without a remote backend.
func (mode Mode) IsDemo() bool {
	return mode == ModeLocal
}
