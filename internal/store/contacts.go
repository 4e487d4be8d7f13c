package store

import (
	"context"
	"strings"

	"github.com/OpenSkyDrones/opensky/internal/model"
)

const messageInvalidStatus = "Status inválido"

// ContactStore is the Resource Store of contact submissions with lead status handling.
type ContactStore struct {
	*Store[model.ContactSubmission, model.ContactDraft]
}

// UpdateStatus replaces the full submission with the new status.
func (contacts *ContactStore) UpdateStatus(ctx context.Context, identifier string, status string) Result[model.ContactSubmission] {
	normalizedStatus := strings.ToLower(strings.TrimSpace(status))
	if !model.IsContactStatus(normalizedStatus) {
		return Result[model.ContactSubmission]{Error: messageInvalidStatus, Err: ErrInvalidStatus}
	}
	existing, found := contacts.Get(strings.TrimSpace(identifier))
	if !found {
		return failed[model.ContactSubmission](contacts.schema.Messages.Update, ErrNotFound)
	}
	draft := model.DraftFromContact(existing)
	draft.Status = normalizedStatus
	return contacts.Update(ctx, existing.ID, draft)
}

// ContactFilter narrows a contact listing.
type ContactFilter struct {
	// Query matches name, email or message, case-insensitively.
	Query string
	// Status keeps only submissions with this status when set.
	Status string
}

// Filter returns the submissions of items matching filter, preserving order.
func (filter ContactFilter) Filter(items []model.ContactSubmission) []model.ContactSubmission {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	status := strings.ToLower(strings.TrimSpace(filter.Status))
	matches := make([]model.ContactSubmission, 0, len(items))
	for _, contact := range items {
		if status != "" && contact.Status != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(contact.Name), query) &&
			!strings.Contains(strings.ToLower(contact.Email), query) &&
			!strings.Contains(strings.ToLower(contact.Message), query) {
			continue
		}
		matches = append(matches, contact)
	}
	return matches
}

// CountByStatus counts submissions per known status. Every status has an entry.
func CountByStatus(items []model.ContactSubmission) map[string]int {
	counts := make(map[string]int, len(model.ContactStatuses))
	for _, option := range model.ContactStatuses {
		counts[option.Value] = 0
	}
	for _, contact := range items {
		counts[contact.Status]++
	}
	return counts
}
