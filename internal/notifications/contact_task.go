package notifications

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/OpenSkyDrones/opensky/internal/model"
)

// TaskTypeContactNotification is enqueued for every stored contact submission.
const TaskTypeContactNotification = "contact:notify"

// ContactPayload is the task body read by the worker.
type ContactPayload struct {
	ContactID string    `json:"contact_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewContactTask encodes the submission into an asynq task.
func NewContactTask(contact model.ContactSubmission) (*asynq.Task, error) {
	payload, marshalErr := json.Marshal(ContactPayload{
		ContactID: contact.ID,
		Name:      contact.Name,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Message:   contact.Message,
		CreatedAt: contact.CreatedAt,
	})
	if marshalErr != nil {
		return nil, fmt.Errorf("marshal contact payload: %w", marshalErr)
	}
	return asynq.NewTask(TaskTypeContactNotification, payload), nil
}

// DecodeContactPayload reads the payload written by NewContactTask.
func DecodeContactPayload(task *asynq.Task) (ContactPayload, error) {
	var payload ContactPayload
	if decodeErr := json.Unmarshal(task.Payload(), &payload); decodeErr != nil {
		return ContactPayload{}, fmt.Errorf("decode contact payload: %w", decodeErr)
	}
	return payload, nil
}

// Subject is the notification headline.
func (payload ContactPayload) Subject() string {
	return fmt.Sprintf("Novo contato de %s", strings.TrimSpace(payload.Name))
}

// Body renders the plain-text notification message.
func (payload ContactPayload) Body() string {
	messageBuilder := &strings.Builder{}
	_, _ = fmt.Fprintf(messageBuilder, "Um novo contato foi enviado pelo site.\n\n")
	_, _ = fmt.Fprintf(messageBuilder, "Nome: %s\n", strings.TrimSpace(payload.Name))
	_, _ = fmt.Fprintf(messageBuilder, "Email: %s\n", strings.TrimSpace(payload.Email))
	if strings.TrimSpace(payload.Phone) != "" {
		_, _ = fmt.Fprintf(messageBuilder, "Telefone: %s\n", strings.TrimSpace(payload.Phone))
	}
	_, _ = fmt.Fprintf(messageBuilder, "Mensagem:\n%s\n", strings.TrimSpace(payload.Message))
	return messageBuilder.String()
}
