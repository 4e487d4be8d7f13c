package model

import (
	"strings"
	"time"
)

const (
	ContactStatusNew       = "new"
	ContactStatusContacted = "contacted"
	ContactStatusConverted = "converted"

	contactTableName = "contact_forms"
)

// ContactStatuses lists the lead statuses in pipeline order.
var ContactStatuses = []Option{
	{Value: ContactStatusNew, Label: "Novo"},
	{Value: ContactStatusContacted, Label: "Contatado"},
	{Value: ContactStatusConverted, Label: "Convertido"},
}

// ContactSubmission is a lead captured by the public contact form.
type ContactSubmission struct {
	ID        string    `json:"id" yaml:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" yaml:"name" gorm:"not null;size:200"`
	Email     string    `json:"email" yaml:"email" gorm:"not null;size:320;index"`
	Phone     string    `json:"phone,omitempty" yaml:"phone" gorm:"size:40"`
	Message   string    `json:"message" yaml:"message" gorm:"not null;size:5000"`
	Status    string    `json:"status" yaml:"status" gorm:"not null;size:16;default:new;index"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" gorm:"autoCreateTime;index"`
}

func (ContactSubmission) TableName() string {
	return contactTableName
}

// RecordID returns the submission identifier.
func (contact ContactSubmission) RecordID() string {
	return contact.ID
}

// StatusLabel returns the display label of the submission status.
func (contact ContactSubmission) StatusLabel() string {
	return LabelFor(ContactStatuses, contact.Status)
}

// ContactDraft holds the fields accepted from the contact form and the admin screen.
type ContactDraft struct {
	Name    string `json:"name" form:"name" validate:"required,min=2,max=200"`
	Email   string `json:"email" form:"email" validate:"required,email,max=320"`
	Phone   string `json:"phone" form:"phone" validate:"omitempty,max=40"`
	Message string `json:"message" form:"message" validate:"required,min=10,max=5000"`
	Status  string `json:"status" form:"status" validate:"omitempty,oneof=new contacted converted"`
}

// NewContactDraft normalizes and validates a contact draft. An empty status becomes "new".
func NewContactDraft(draft ContactDraft) (ContactDraft, error) {
	normalized := ContactDraft{
		Name:    strings.TrimSpace(draft.Name),
		Email:   strings.TrimSpace(draft.Email),
		Phone:   strings.TrimSpace(draft.Phone),
		Message: strings.TrimSpace(draft.Message),
		Status:  strings.ToLower(strings.TrimSpace(draft.Status)),
	}
	if err := validateDraft(normalized); err != nil {
		return normalized, err
	}
	if normalized.Status == "" {
		normalized.Status = ContactStatusNew
	}
	return normalized, nil
}

// IsContactStatus reports whether status is one of the known lead statuses.
func IsContactStatus(status string) bool {
	for _, option := range ContactStatuses {
		if option.Value == status {
			return true
		}
	}
	return false
}

// DraftFromContact returns the editable fields of an existing submission.
func DraftFromContact(contact ContactSubmission) ContactDraft {
	return ContactDraft{
		Name:    contact.Name,
		Email:   contact.Email,
		Phone:   contact.Phone,
		Message: contact.Message,
		Status:  contact.Status,
	}
}

// BuildContact creates a ContactSubmission carrying the draft fields and the given identity.
func BuildContact(identifier string, createdAt time.Time, draft ContactDraft) ContactSubmission {
	status := draft.Status
	if status == "" {
		status = ContactStatusNew
	}
	return ContactSubmission{
		ID:        identifier,
		Name:      draft.Name,
		Email:     draft.Email,
		Phone:     draft.Phone,
		Message:   draft.Message,
		Status:    status,
		CreatedAt: createdAt,
	}
}
