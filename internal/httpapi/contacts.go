package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/model"
	"github.com/OpenSkyDrones/opensky/internal/store"
)

// ContactReadPolicy decides who may list contact submissions through GET /api/contacts.
type ContactReadPolicy string

const (
	// ContactReadPolicyAdmin requires an administrator session or bearer token.
	ContactReadPolicyAdmin ContactReadPolicy = "admin"
	// ContactReadPolicyPublic lets anyone list submissions.
	ContactReadPolicyPublic ContactReadPolicy = "public"

	jsonKeyStatus = "status"
)

// ErrUnknownReadPolicy indicates an unsupported contact read policy value.
var ErrUnknownReadPolicy = errors.New("httpapi: unknown contact read policy")

// ParseContactReadPolicy parses a configured policy. Empty selects the admin policy.
func ParseContactReadPolicy(value string) (ContactReadPolicy, error) {
	switch ContactReadPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", ContactReadPolicyAdmin:
		return ContactReadPolicyAdmin, nil
	case ContactReadPolicyPublic:
		return ContactReadPolicyPublic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownReadPolicy, value)
	}
}

// ContactNotifier is told about every stored public submission.
type ContactNotifier interface {
	NotifyContact(ctx context.Context, contact model.ContactSubmission) error
}

// ContactHandlersConfig wires the contact endpoints.
type ContactHandlersConfig struct {
	Logger      *zap.Logger
	Contacts    *store.ContactStore
	Notifier    ContactNotifier
	RateLimiter *RateLimiter
	ReadPolicy  ContactReadPolicy
	AuthManager *AuthManager
	Pages       *AdminPages
}

// ContactHandlers serve the public contact form endpoint and the contacts admin screen.
type ContactHandlers struct {
	logger      *zap.Logger
	contacts    *store.ContactStore
	notifier    ContactNotifier
	rateLimiter *RateLimiter
	readPolicy  ContactReadPolicy
	authManager *AuthManager
	pages       *AdminPages
	descriptor  ResourceDescriptor[model.ContactSubmission, model.ContactDraft]
}

// NewContactHandlers builds the contact handlers.
func NewContactHandlers(configuration ContactHandlersConfig) *ContactHandlers {
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	readPolicy := configuration.ReadPolicy
	if readPolicy == "" {
		readPolicy = ContactReadPolicyAdmin
	}
	return &ContactHandlers{
		logger:      logger,
		contacts:    configuration.Contacts,
		notifier:    configuration.Notifier,
		rateLimiter: configuration.RateLimiter,
		readPolicy:  readPolicy,
		authManager: configuration.AuthManager,
		pages:       configuration.Pages,
		descriptor:  ContactDescriptor(),
	}
}

// Submit stores a public contact form submission.
func (handlers *ContactHandlers) Submit(context *gin.Context) {
	if handlers.rateLimiter != nil && !handlers.rateLimiter.Allow(context.ClientIP()) {
		context.JSON(http.StatusTooManyRequests, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueRateLimited, jsonKeyMessage: messageTooManyRequests})
		return
	}

	var submitted model.ContactDraft
	if bindErr := context.ShouldBindJSON(&submitted); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueInvalidJSON, jsonKeyMessage: messageInvalidData})
		return
	}
	submitted.Status = ""
	draft, validateErr := model.NewContactDraft(submitted)
	if validateErr != nil {
		respondValidationError(context, validateErr)
		return
	}

	result := handlers.contacts.Create(context.Request.Context(), draft)
	if !result.Success {
		handlers.logger.Error(logEventSaveContact, zap.String("detail", result.Error), zap.Error(result.Err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeySuccess: false, jsonKeyMessage: messageInternalError})
		return
	}

	if handlers.notifier != nil {
		if notifyErr := handlers.notifier.NotifyContact(context.Request.Context(), *result.Data); notifyErr != nil {
			handlers.logger.Warn(logEventNotifyContact, zap.String("contact_id", result.Data.ID), zap.Error(notifyErr))
		}
	}

	message := messageContactSaved
	if handlers.contacts.Mode().IsDemo() {
		message = messageContactSavedDemo
	}
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true, jsonKeyMessage: message, jsonKeyData: result.Data})
}

// List returns submissions, newest first, subject to the read policy.
func (handlers *ContactHandlers) List(context *gin.Context) {
	if handlers.readPolicy != ContactReadPolicyPublic {
		if handlers.authManager == nil {
			context.JSON(http.StatusUnauthorized, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueUnauthorized})
			return
		}
		if _, authorized := handlers.authManager.Authorize(context); !authorized {
			context.JSON(http.StatusUnauthorized, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueUnauthorized})
			return
		}
	}
	state := handlers.contacts.List(context.Request.Context())
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true, jsonKeyData: handlers.descriptor.Filter(context, state.Items)})
}

type contactStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatusJSON changes the lead status of a submission.
func (handlers *ContactHandlers) UpdateStatusJSON(context *gin.Context) {
	var request contactStatusRequest
	if bindErr := context.ShouldBindJSON(&request); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueInvalidJSON, jsonKeyMessage: messageInvalidData})
		return
	}
	result := handlers.contacts.UpdateStatus(context.Request.Context(), context.Param(paramRecordID), request.Status)
	if !result.Success {
		handlers.logger.Warn(logEventMutationRejected, zap.String("collection", store.CollectionContacts), zap.Error(result.Err))
		context.JSON(failureStatus(result.Err), gin.H{jsonKeySuccess: false, jsonKeyMessage: result.Error})
		return
	}
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true, jsonKeyData: result.Data})
}

type statusCount struct {
	Value string
	Label string
	Count int
}

type adminContactsData struct {
	adminChrome
	adminFormView
	BasePath     string
	Query        string
	Status       string
	Statuses     []model.Option
	StatusCounts []statusCount
	Contacts     []model.ContactSubmission
	Total        int
	LoadError    string
}

// Page renders the contacts screen with search and status filters.
func (handlers *ContactHandlers) Page(context *gin.Context) {
	handlers.renderPage(context, http.StatusOK, handlers.descriptor.Blank(), nil, nil)
}

// CreateFromForm stores a submission entered by the administrator.
func (handlers *ContactHandlers) CreateFromForm(context *gin.Context) {
	var submitted model.ContactDraft
	if bindErr := context.ShouldBind(&submitted); bindErr != nil {
		handlers.renderPage(context, http.StatusBadRequest, submitted, nil, &flashMessage{Kind: flashKindError, Text: messageInvalidData})
		return
	}
	draft, validateErr := model.NewContactDraft(submitted)
	if validateErr != nil {
		validationError, _ := model.AsValidationError(validateErr)
		handlers.renderPage(context, http.StatusBadRequest, draft, validationError, nil)
		return
	}
	result := handlers.contacts.Create(context.Request.Context(), draft)
	if !result.Success {
		handlers.renderPage(context, failureStatus(result.Err), draft, nil, &flashMessage{Kind: flashKindError, Text: result.Error})
		return
	}
	handlers.pages.flashSuccess(context, messageRecordSaved)
	context.Redirect(http.StatusSeeOther, adminContactsPath)
}

// UpdateStatusFromForm changes the status chosen in the contacts table.
func (handlers *ContactHandlers) UpdateStatusFromForm(context *gin.Context) {
	result := handlers.contacts.UpdateStatus(context.Request.Context(), context.Param(paramRecordID), context.PostForm(jsonKeyStatus))
	if result.Success {
		handlers.pages.flashSuccess(context, messageStatusUpdated)
	} else {
		handlers.pages.flashError(context, result.Error)
	}
	context.Redirect(http.StatusSeeOther, adminContactsPath)
}

// DeleteFromForm removes a submission.
func (handlers *ContactHandlers) DeleteFromForm(context *gin.Context) {
	result := handlers.contacts.Delete(context.Request.Context(), context.Param(paramRecordID))
	if result.Success {
		handlers.pages.flashSuccess(context, messageRecordDeleted)
	} else {
		handlers.pages.flashError(context, result.Error)
	}
	context.Redirect(http.StatusSeeOther, adminContactsPath)
}

func (handlers *ContactHandlers) renderPage(context *gin.Context, status int, draft model.ContactDraft, validationError *model.ValidationError, banner *flashMessage) {
	chrome := handlers.pages.chrome(context, handlers.descriptor.Title, adminContactsPath)
	if banner != nil {
		chrome.Flashes = append(chrome.Flashes, *banner)
	}

	state := handlers.contacts.List(context.Request.Context())
	filter := store.ContactFilter{Query: context.Query(queryContactSearch), Status: context.Query(queryContactStatus)}
	fields := applyFieldErrors(handlers.descriptor.Fields(draft), validationError)

	handlers.pages.render(context, status, templateNameAdminContacts, adminContactsData{
		adminChrome:   chrome,
		adminFormView: handlers.pages.formView(handlers.descriptor.CreateFormTitle, adminContactsPath, fields, false, adminContactsPath),
		BasePath:      adminContactsPath,
		Query:         strings.TrimSpace(filter.Query),
		Status:        strings.TrimSpace(filter.Status),
		Statuses:      model.ContactStatuses,
		StatusCounts:  statusCounts(state.Items),
		Contacts:      filter.Filter(state.Items),
		Total:         len(state.Items),
		LoadError:     state.Error,
	})
}

func statusCounts(items []model.ContactSubmission) []statusCount {
	counts := store.CountByStatus(items)
	result := make([]statusCount, 0, len(model.ContactStatuses))
	for _, option := range model.ContactStatuses {
		result = append(result, statusCount{Value: option.Value, Label: option.Label, Count: counts[option.Value]})
	}
	return result
}
