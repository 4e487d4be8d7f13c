package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OpenSkyDrones/opensky/internal/model"
	"github.com/OpenSkyDrones/opensky/internal/store"
)

const (
	jsonKeyLoading = "loading"
	jsonKeyLoaded  = "loaded"
	jsonKeyWarning = "warning"

	errorValueNotFound = "not_found"

	paramRecordID   = "id"
	queryEditRecord = "edit"

	messageRecordNotFound = "Registro não encontrado"
)

// ResourceStore is the part of a Resource Store the admin handlers use.
type ResourceStore[T any, D any] interface {
	Name() string
	List(ctx context.Context) store.State[T]
	Get(identifier string) (T, bool)
	Refresh(ctx context.Context) error
	Create(ctx context.Context, draft D) store.Result[T]
	Update(ctx context.Context, identifier string, draft D) store.Result[T]
	Delete(ctx context.Context, identifier string) store.Result[T]
}

// ResourceDescriptor adapts one entity kind to the admin screens and the admin API.
type ResourceDescriptor[T any, D any] struct {
	// Slug is the path segment under /admin and /api/admin.
	Slug            string
	Title           string
	CreateFormTitle string
	EditFormTitle   string
	Columns         []string
	Identify        func(record T) string
	Row             func(record T) []string
	Thumbnail       func(record T) string
	// Blank returns the draft shown in an empty create form.
	Blank     func() D
	DraftOf   func(record T) D
	Fields    func(draft D) []formField
	Normalize func(draft D) (D, error)
	// Filter narrows JSON listings from query parameters when set.
	Filter func(context *gin.Context, items []T) []T
}

// ResourceHandlers serve the CRUD screens and JSON endpoints of one Resource Store.
type ResourceHandlers[T any, D any] struct {
	logger     *zap.Logger
	pages      *AdminPages
	store      ResourceStore[T, D]
	descriptor ResourceDescriptor[T, D]
}

// NewResourceHandlers binds a descriptor to its store.
func NewResourceHandlers[T any, D any](logger *zap.Logger, pages *AdminPages, resourceStore ResourceStore[T, D], descriptor ResourceDescriptor[T, D]) *ResourceHandlers[T, D] {
	return &ResourceHandlers[T, D]{
		logger:     logger,
		pages:      pages,
		store:      resourceStore,
		descriptor: descriptor,
	}
}

// RegisterAPI mounts the JSON endpoints on an /api/admin group.
func (handlers *ResourceHandlers[T, D]) RegisterAPI(routes gin.IRoutes) {
	collectionPath := "/" + handlers.descriptor.Slug
	recordPath := collectionPath + "/:" + paramRecordID
	routes.GET(collectionPath, handlers.ListJSON)
	routes.POST(collectionPath, handlers.CreateJSON)
	routes.POST(collectionPath+"/refresh", handlers.RefreshJSON)
	routes.GET(recordPath, handlers.GetJSON)
	routes.PUT(recordPath, handlers.UpdateJSON)
	routes.DELETE(recordPath, handlers.DeleteJSON)
}

// RegisterPages mounts the HTML screens on an /admin group.
func (handlers *ResourceHandlers[T, D]) RegisterPages(routes gin.IRoutes) {
	collectionPath := "/" + handlers.descriptor.Slug
	recordPath := collectionPath + "/:" + paramRecordID
	routes.GET(collectionPath, handlers.Page)
	routes.POST(collectionPath, handlers.CreateFromForm)
	routes.POST(recordPath, handlers.UpdateFromForm)
	routes.POST(recordPath+"/delete", handlers.DeleteFromForm)
}

// ListJSON returns the current snapshot.
func (handlers *ResourceHandlers[T, D]) ListJSON(context *gin.Context) {
	state := handlers.store.List(context.Request.Context())
	items := state.Items
	if handlers.descriptor.Filter != nil {
		items = handlers.descriptor.Filter(context, items)
	}
	response := gin.H{
		jsonKeySuccess: true,
		jsonKeyData:    items,
		jsonKeyLoading: state.Loading,
		jsonKeyLoaded:  state.Loaded,
	}
	if state.Error != "" {
		response[jsonKeyWarning] = state.Error
	}
	context.JSON(http.StatusOK, response)
}

// GetJSON returns one cached record.
func (handlers *ResourceHandlers[T, D]) GetJSON(context *gin.Context) {
	record, found := handlers.store.Get(strings.TrimSpace(context.Param(paramRecordID)))
	if !found {
		context.JSON(http.StatusNotFound, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueNotFound, jsonKeyMessage: messageRecordNotFound})
		return
	}
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true, jsonKeyData: record})
}

// RefreshJSON reloads the collection from its backing store.
func (handlers *ResourceHandlers[T, D]) RefreshJSON(context *gin.Context) {
	refreshErr := handlers.store.Refresh(context.Request.Context())
	state := handlers.store.List(context.Request.Context())
	if refreshErr != nil {
		context.JSON(http.StatusBadGateway, gin.H{jsonKeySuccess: false, jsonKeyMessage: state.Error, jsonKeyData: state.Items})
		return
	}
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true, jsonKeyData: state.Items})
}

// CreateJSON validates the body and creates a record.
func (handlers *ResourceHandlers[T, D]) CreateJSON(context *gin.Context) {
	draft, ok := handlers.bindDraftJSON(context)
	if !ok {
		return
	}
	result := handlers.store.Create(context.Request.Context(), draft)
	if !result.Success {
		handlers.respondFailure(context, result.Error, result.Err)
		return
	}
	context.JSON(http.StatusCreated, gin.H{jsonKeySuccess: true, jsonKeyData: result.Data})
}

// UpdateJSON validates the body and replaces the record.
func (handlers *ResourceHandlers[T, D]) UpdateJSON(context *gin.Context) {
	draft, ok := handlers.bindDraftJSON(context)
	if !ok {
		return
	}
	result := handlers.store.Update(context.Request.Context(), context.Param(paramRecordID), draft)
	if !result.Success {
		handlers.respondFailure(context, result.Error, result.Err)
		return
	}
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true, jsonKeyData: result.Data})
}

// DeleteJSON removes the record.
func (handlers *ResourceHandlers[T, D]) DeleteJSON(context *gin.Context) {
	result := handlers.store.Delete(context.Request.Context(), context.Param(paramRecordID))
	if !result.Success {
		handlers.respondFailure(context, result.Error, result.Err)
		return
	}
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true})
}

// Page renders the list with a create form, or an edit form when ?edit=<id> names a record.
func (handlers *ResourceHandlers[T, D]) Page(context *gin.Context) {
	editID := strings.TrimSpace(context.Query(queryEditRecord))
	if editID == "" {
		handlers.renderPage(context, http.StatusOK, handlers.blankDraft(), "", nil, nil)
		return
	}
	record, found := handlers.store.Get(editID)
	if !found {
		banner := &flashMessage{Kind: flashKindError, Text: messageRecordNotFound}
		handlers.renderPage(context, http.StatusNotFound, handlers.blankDraft(), "", nil, banner)
		return
	}
	handlers.renderPage(context, http.StatusOK, handlers.descriptor.DraftOf(record), editID, nil, nil)
}

// CreateFromForm handles the create form submission.
func (handlers *ResourceHandlers[T, D]) CreateFromForm(context *gin.Context) {
	handlers.submitForm(context, "")
}

// UpdateFromForm handles the edit form submission.
func (handlers *ResourceHandlers[T, D]) UpdateFromForm(context *gin.Context) {
	handlers.submitForm(context, strings.TrimSpace(context.Param(paramRecordID)))
}

// DeleteFromForm deletes the record and redirects back to the list.
func (handlers *ResourceHandlers[T, D]) DeleteFromForm(context *gin.Context) {
	result := handlers.store.Delete(context.Request.Context(), context.Param(paramRecordID))
	if result.Success {
		handlers.pages.flashSuccess(context, messageRecordDeleted)
	} else {
		handlers.logRejected(context, result.Err)
		handlers.pages.flashError(context, result.Error)
	}
	context.Redirect(http.StatusSeeOther, handlers.basePath())
}

func (handlers *ResourceHandlers[T, D]) submitForm(context *gin.Context, recordID string) {
	var submitted D
	if bindErr := context.ShouldBind(&submitted); bindErr != nil {
		banner := &flashMessage{Kind: flashKindError, Text: messageInvalidData}
		handlers.renderPage(context, http.StatusBadRequest, submitted, recordID, nil, banner)
		return
	}
	draft, validateErr := handlers.descriptor.Normalize(submitted)
	if validateErr != nil {
		validationError, _ := model.AsValidationError(validateErr)
		handlers.renderPage(context, http.StatusBadRequest, draft, recordID, validationError, nil)
		return
	}

	var result store.Result[T]
	if recordID == "" {
		result = handlers.store.Create(context.Request.Context(), draft)
	} else {
		result = handlers.store.Update(context.Request.Context(), recordID, draft)
	}
	if !result.Success {
		handlers.logRejected(context, result.Err)
		banner := &flashMessage{Kind: flashKindError, Text: result.Error}
		handlers.renderPage(context, failureStatus(result.Err), draft, recordID, nil, banner)
		return
	}
	handlers.pages.flashSuccess(context, messageRecordSaved)
	context.Redirect(http.StatusSeeOther, handlers.basePath())
}

type adminResourceData struct {
	adminChrome
	adminFormView
	Resource  string
	Columns   []string
	Rows      []adminRow
	Loading   bool
	LoadError string
}

type adminRow struct {
	ID         string
	Thumbnail  string
	Cells      []string
	EditPath   string
	DeletePath string
}

func (handlers *ResourceHandlers[T, D]) renderPage(context *gin.Context, status int, draft D, editID string, validationError *model.ValidationError, banner *flashMessage) {
	basePath := handlers.basePath()
	chrome := handlers.pages.chrome(context, handlers.descriptor.Title, basePath)
	if banner != nil {
		chrome.Flashes = append(chrome.Flashes, *banner)
	}

	state := handlers.store.List(context.Request.Context())
	rows := make([]adminRow, 0, len(state.Items))
	for _, record := range state.Items {
		identifier := handlers.descriptor.Identify(record)
		row := adminRow{
			ID:         identifier,
			Cells:      handlers.descriptor.Row(record),
			EditPath:   basePath + "?" + queryEditRecord + "=" + identifier,
			DeletePath: basePath + "/" + identifier + "/delete",
		}
		if handlers.descriptor.Thumbnail != nil {
			row.Thumbnail = handlers.descriptor.Thumbnail(record)
		}
		rows = append(rows, row)
	}

	formTitle := handlers.descriptor.CreateFormTitle
	formAction := basePath
	if editID != "" {
		formTitle = handlers.descriptor.EditFormTitle
		formAction = basePath + "/" + editID
	}
	fields := applyFieldErrors(handlers.descriptor.Fields(draft), validationError)

	handlers.pages.render(context, status, templateNameAdminResource, adminResourceData{
		adminChrome:   chrome,
		adminFormView: handlers.pages.formView(formTitle, formAction, fields, editID != "", basePath),
		Resource:      handlers.descriptor.Slug,
		Columns:       handlers.descriptor.Columns,
		Rows:          rows,
		Loading:       state.Loading && !state.Loaded,
		LoadError:     state.Error,
	})
}

func (handlers *ResourceHandlers[T, D]) bindDraftJSON(context *gin.Context) (D, bool) {
	var submitted D
	if bindErr := context.ShouldBindJSON(&submitted); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueInvalidJSON, jsonKeyMessage: messageInvalidData})
		return submitted, false
	}
	draft, validateErr := handlers.descriptor.Normalize(submitted)
	if validateErr != nil {
		respondValidationError(context, validateErr)
		return draft, false
	}
	return draft, true
}

func (handlers *ResourceHandlers[T, D]) respondFailure(context *gin.Context, message string, err error) {
	handlers.logRejected(context, err)
	context.JSON(failureStatus(err), gin.H{jsonKeySuccess: false, jsonKeyMessage: message})
}

func (handlers *ResourceHandlers[T, D]) logRejected(context *gin.Context, err error) {
	handlers.logger.Warn(logEventMutationRejected,
		zap.String("collection", handlers.store.Name()),
		zap.String("path", context.Request.URL.Path),
		zap.Error(err))
}

func (handlers *ResourceHandlers[T, D]) blankDraft() D {
	if handlers.descriptor.Blank != nil {
		return handlers.descriptor.Blank()
	}
	var draft D
	return draft
}

func (handlers *ResourceHandlers[T, D]) basePath() string {
	return AdminHomePath + "/" + handlers.descriptor.Slug
}

func respondValidationError(context *gin.Context, validateErr error) {
	response := gin.H{jsonKeySuccess: false, jsonKeyMessage: messageInvalidData}
	if validationError, ok := model.AsValidationError(validateErr); ok {
		response[jsonKeyErrors] = validationError.Fields
	}
	context.JSON(http.StatusBadRequest, response)
}

// failureStatus maps a store failure onto an HTTP status.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrOperationInProgress):
		return http.StatusConflict
	case errors.Is(err, store.ErrMissingIdentifier), errors.Is(err, store.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
