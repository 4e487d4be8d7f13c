package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PublicHandlers serve the read-only catalog JSON used by the public site.
type PublicHandlers struct {
	logger  *zap.Logger
	catalog SiteCatalog
}

// NewPublicHandlers builds the public catalog handlers.
func NewPublicHandlers(logger *zap.Logger, catalog SiteCatalog) *PublicHandlers {
	return &PublicHandlers{logger: logger, catalog: catalog}
}

// ListServices returns the current services.
func (handlers *PublicHandlers) ListServices(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true, jsonKeyData: handlers.catalog.ListServices(context.Request.Context())})
}

// ListPortfolio returns the current portfolio items.
func (handlers *PublicHandlers) ListPortfolio(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true, jsonKeyData: handlers.catalog.ListPortfolio(context.Request.Context())})
}

// ListTestimonials returns the current testimonials.
func (handlers *PublicHandlers) ListTestimonials(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true, jsonKeyData: handlers.catalog.ListTestimonials(context.Request.Context())})
}
