package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const defaultWebhookTimeout = 10 * time.Second

var errWebhookURLRequired = errors.New("notification webhook url is required")

// WebhookConfig describes where the worker delivers contact notifications.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

type webhookMessage struct {
	Subject   string         `json:"subject"`
	Text      string         `json:"text"`
	Contact   ContactPayload `json:"contact"`
	Delivered time.Time      `json:"delivered_at"`
}

// Processor handles contact notification tasks inside the asynq worker.
type Processor struct {
	logger     *zap.Logger
	httpClient *http.Client
	webhookURL string
	clock      func() time.Time
}

// NewProcessor validates the webhook configuration.
func NewProcessor(logger *zap.Logger, config WebhookConfig) (*Processor, error) {
	webhookURL := strings.TrimSpace(config.URL)
	if webhookURL == "" {
		return nil, errWebhookURLRequired
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultWebhookTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		logger:     logger,
		httpClient: &http.Client{Timeout: config.Timeout},
		webhookURL: webhookURL,
		clock:      time.Now,
	}, nil
}

// Handler registers the task handlers on a fresh mux.
func (processor *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeContactNotification, processor.HandleContact)
	return mux
}

// HandleContact posts the notification to the webhook. Malformed payloads and
// 4xx answers are not retried.
func (processor *Processor) HandleContact(ctx context.Context, task *asynq.Task) error {
	payload, decodeErr := DecodeContactPayload(task)
	if decodeErr != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, decodeErr)
	}

	body, marshalErr := json.Marshal(webhookMessage{
		Subject:   payload.Subject(),
		Text:      payload.Body(),
		Contact:   payload,
		Delivered: processor.clock().UTC(),
	})
	if marshalErr != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, marshalErr)
	}

	request, requestErr := http.NewRequestWithContext(ctx, http.MethodPost, processor.webhookURL, bytes.NewReader(body))
	if requestErr != nil {
		return fmt.Errorf("%w: build webhook request: %v", asynq.SkipRetry, requestErr)
	}
	request.Header.Set("Content-Type", "application/json")

	response, sendErr := processor.httpClient.Do(request)
	if sendErr != nil {
		processor.logger.Warn("contact_notification_failed", zap.String("contact_id", payload.ContactID), zap.Error(sendErr))
		return fmt.Errorf("post webhook: %w", sendErr)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		processor.logger.Info("contact_notification_sent", zap.String("contact_id", payload.ContactID))
		return nil
	case response.StatusCode >= 400 && response.StatusCode < 500:
		processor.logger.Warn("contact_notification_rejected", zap.String("contact_id", payload.ContactID), zap.Int("status", response.StatusCode))
		return fmt.Errorf("%w: webhook answered %d", asynq.SkipRetry, response.StatusCode)
	default:
		processor.logger.Warn("contact_notification_failed", zap.String("contact_id", payload.ContactID), zap.Int("status", response.StatusCode))
		return fmt.Errorf("webhook answered %d", response.StatusCode)
	}
}
