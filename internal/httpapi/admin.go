package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/model"
	"github.com/OpenSkyDrones/opensky/internal/store"
)

const (
	storeChangeEventName   = "store_change"
	streamHeartbeatPeriod  = 25 * time.Second
	dashboardLatestContact = 5
	dashboardTitle         = "Painel"
)

// AdminHandlers serve the dashboard, the summary endpoint and the change stream.
type AdminHandlers struct {
	logger  *zap.Logger
	pages   *AdminPages
	catalog *store.Catalog
}

// NewAdminHandlers builds the dashboard handlers.
func NewAdminHandlers(logger *zap.Logger, pages *AdminPages, catalog *store.Catalog) *AdminHandlers {
	return &AdminHandlers{logger: logger, pages: pages, catalog: catalog}
}

type resourceSummary struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Path  string `json:"-"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

type adminDashboardData struct {
	adminChrome
	Resources      []resourceSummary
	StatusCounts   []statusCount
	LatestContacts []model.ContactSubmission
}

// Dashboard renders counts per resource and the latest contacts.
func (handlers *AdminHandlers) Dashboard(context *gin.Context) {
	resources, contacts := handlers.summarize(context)
	latest := contacts
	if len(latest) > dashboardLatestContact {
		latest = latest[:dashboardLatestContact]
	}
	handlers.pages.render(context, http.StatusOK, templateNameAdminDashboard, adminDashboardData{
		adminChrome:    handlers.pages.chrome(context, dashboardTitle, AdminHomePath),
		Resources:      resources,
		StatusCounts:   statusCounts(contacts),
		LatestContacts: latest,
	})
}

// Summary returns the dashboard counts as JSON.
func (handlers *AdminHandlers) Summary(context *gin.Context) {
	resources, contacts := handlers.summarize(context)
	context.JSON(http.StatusOK, gin.H{
		jsonKeySuccess: true,
		jsonKeyData: gin.H{
			"mode":           handlers.catalog.Mode(),
			"resources":      resources,
			"contact_status": store.CountByStatus(contacts),
		},
	})
}

func (handlers *AdminHandlers) summarize(context *gin.Context) ([]resourceSummary, []model.ContactSubmission) {
	requestContext := context.Request.Context()
	services := handlers.catalog.Services.List(requestContext)
	portfolio := handlers.catalog.Portfolio.List(requestContext)
	testimonials := handlers.catalog.Testimonials.List(requestContext)
	contacts := handlers.catalog.Contacts.List(requestContext)
	return []resourceSummary{
		{Name: store.CollectionServices, Label: "Serviços", Path: adminServicesPath, Count: len(services.Items), Error: services.Error},
		{Name: store.CollectionPortfolio, Label: "Projetos no portfólio", Path: adminPortfolioPath, Count: len(portfolio.Items), Error: portfolio.Error},
		{Name: store.CollectionTestimonials, Label: "Depoimentos", Path: adminTestimonialsPath, Count: len(testimonials.Items), Error: testimonials.Error},
		{Name: store.CollectionContacts, Label: "Contatos", Path: adminContactsPath, Count: len(contacts.Items), Error: contacts.Error},
	}, contacts.Items
}

// StreamChanges streams store changes as server-sent events until the client disconnects.
func (handlers *AdminHandlers) StreamChanges(ginContext *gin.Context) {
	subscription := handlers.catalog.Changes().Subscribe()
	if subscription == nil {
		ginContext.JSON(http.StatusServiceUnavailable, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueStreamUnavailable})
		return
	}
	defer subscription.Close()

	flusher, flushable := ginContext.Writer.(http.Flusher)
	if !flushable {
		ginContext.JSON(http.StatusServiceUnavailable, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueStreamUnavailable})
		return
	}

	ginContext.Header("Content-Type", "text/event-stream")
	ginContext.Header("Cache-Control", "no-cache")
	ginContext.Header("Connection", "keep-alive")
	ginContext.Writer.WriteHeaderNow()
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeatPeriod)
	defer heartbeat.Stop()
	requestContext := ginContext.Request.Context()

	for {
		select {
		case <-requestContext.Done():
			return
		case <-heartbeat.C:
			if _, writeErr := ginContext.Writer.WriteString(": ping\n\n"); writeErr != nil {
				return
			}
			flusher.Flush()
		case change, open := <-subscription.Changes():
			if !open {
				return
			}
			serializedChange, marshalErr := json.Marshal(change)
			if marshalErr != nil {
				handlers.logger.Debug("marshal_store_change_failed", zap.Error(marshalErr))
				continue
			}
			var buffer bytes.Buffer
			buffer.WriteString("event: ")
			buffer.WriteString(storeChangeEventName)
			buffer.WriteString("\ndata: ")
			buffer.Write(serializedChange)
			buffer.WriteString("\n\n")
			if _, writeErr := ginContext.Writer.Write(buffer.Bytes()); writeErr != nil {
				return
			}
			flusher.Flush()
		}
	}
}
