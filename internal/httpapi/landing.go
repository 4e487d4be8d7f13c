package httpapi

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/content"
	"github.com/OpenSkyDrones/opensky/internal/model"
	"github.com/OpenSkyDrones/opensky/internal/store"
)

const (
	contactEndpointPath = "/api/contacts"
	logEventLandingData = "render_landing_footer"
)

// SiteCatalog supplies the records shown on the public site.
type SiteCatalog interface {
	ListServices(ctx context.Context) []model.Service
	ListPortfolio(ctx context.Context) []model.PortfolioItem
	ListTestimonials(ctx context.Context) []model.Testimonial
}

type storeSiteCatalog struct {
	catalog *store.Catalog
}

// NewStoreSiteCatalog reads the public collections from the Resource Stores.
func NewStoreSiteCatalog(catalog *store.Catalog) SiteCatalog {
	return storeSiteCatalog{catalog: catalog}
}

func (reader storeSiteCatalog) ListServices(ctx context.Context) []model.Service {
	return reader.catalog.Services.List(ctx).Items
}

func (reader storeSiteCatalog) ListPortfolio(ctx context.Context) []model.PortfolioItem {
	return reader.catalog.Portfolio.List(ctx).Items
}

func (reader storeSiteCatalog) ListTestimonials(ctx context.Context) []model.Testimonial {
	return reader.catalog.Testimonials.List(ctx).Items
}

type staticSiteCatalog struct {
	seeds content.Seeds
}

// NewStaticSiteCatalog serves the built-in seed datasets.
func NewStaticSiteCatalog(seeds content.Seeds) SiteCatalog {
	return staticSiteCatalog{seeds: seeds.Clone()}
}

func (reader staticSiteCatalog) ListServices(context.Context) []model.Service {
	return reader.seeds.Services
}

func (reader staticSiteCatalog) ListPortfolio(context.Context) []model.PortfolioItem {
	return reader.seeds.Portfolio
}

func (reader staticSiteCatalog) ListTestimonials(context.Context) []model.Testimonial {
	return reader.seeds.Testimonials
}

// TrackingConfig holds optional third-party tag identifiers. Empty values disable the tag.
type TrackingConfig struct {
	AnalyticsMeasurementID string
	PixelID                string
}

// LandingPageHandlers renders the public marketing page.
type LandingPageHandlers struct {
	logger   *zap.Logger
	renderer *TemplateRenderer
	catalog  SiteCatalog
	document content.Content
	tracking TrackingConfig
	clock    func() time.Time

	// contactEndpoint is where the contact form posts; absolute for static exports.
	contactEndpoint string
}

type landingPageData struct {
	Site            content.Site
	Hero            content.Hero
	About           content.About
	FAQ             []content.Question
	Services        []model.Service
	Portfolio       []model.PortfolioItem
	Categories      []model.Option
	Testimonials    []model.Testimonial
	Tracking        TrackingConfig
	WhatsAppURL     string
	ContactEndpoint string
	FooterHTML      template.HTML
}

// NewLandingPageHandlers builds the landing page handlers.
func NewLandingPageHandlers(logger *zap.Logger, renderer *TemplateRenderer, catalog SiteCatalog, document content.Content, tracking TrackingConfig) *LandingPageHandlers {
	return &LandingPageHandlers{
		logger:   logger,
		renderer: renderer,
		catalog:  catalog,
		document: document,
		tracking: TrackingConfig{
			AnalyticsMeasurementID: strings.TrimSpace(tracking.AnalyticsMeasurementID),
			PixelID:                strings.TrimSpace(tracking.PixelID),
		},
		clock:           time.Now,
		contactEndpoint: contactEndpointPath,
	}
}

// WithContactEndpoint points the contact form at another URL. Empty keeps the local endpoint.
func (handlers *LandingPageHandlers) WithContactEndpoint(endpoint string) *LandingPageHandlers {
	if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
		handlers.contactEndpoint = trimmed
	}
	return handlers
}

// RenderLandingPage writes the landing page. Empty collections fall back to the static seed content.
func (handlers *LandingPageHandlers) RenderLandingPage(context *gin.Context) {
	page, renderErr := handlers.Render(context.Request.Context())
	if renderErr != nil {
		handlers.logger.Error(logEventRenderTemplate, zap.String("template", templateNameLanding), zap.Error(renderErr))
		context.String(http.StatusInternalServerError, messageInternalError)
		return
	}
	context.Data(http.StatusOK, contentTypeHTML, page)
}

// Render returns the landing page markup.
func (handlers *LandingPageHandlers) Render(ctx context.Context) ([]byte, error) {
	services := handlers.catalog.ListServices(ctx)
	if len(services) == 0 {
		services = handlers.document.Seeds.Services
	}
	portfolio := handlers.catalog.ListPortfolio(ctx)
	if len(portfolio) == 0 {
		portfolio = handlers.document.Seeds.Portfolio
	}
	testimonials := handlers.catalog.ListTestimonials(ctx)
	if len(testimonials) == 0 {
		testimonials = handlers.document.Seeds.Testimonials
	}

	footerHTML, footerErr := renderSiteFooter(handlers.document.Site, handlers.clock())
	if footerErr != nil {
		handlers.logger.Error(logEventLandingData, zap.Error(footerErr))
		footerHTML = template.HTML("")
	}

	data := landingPageData{
		Site:            handlers.document.Site,
		Hero:            handlers.document.Hero,
		About:           handlers.document.About,
		FAQ:             handlers.document.FAQ,
		Services:        services,
		Portfolio:       portfolio,
		Categories:      presentCategories(portfolio),
		Testimonials:    testimonials,
		Tracking:        handlers.tracking,
		WhatsAppURL:     handlers.document.Site.WhatsAppURL(),
		ContactEndpoint: handlers.contactEndpoint,
		FooterHTML:      footerHTML,
	}

	var buffer bytes.Buffer
	if err := handlers.renderer.Execute(&buffer, templateNameLanding, data); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// presentCategories returns the categories used by at least one item, in canonical order.
func presentCategories(items []model.PortfolioItem) []model.Option {
	used := make(map[string]struct{}, len(items))
	for _, item := range items {
		used[item.Category] = struct{}{}
	}
	categories := make([]model.Option, 0, len(used))
	for _, option := range model.PortfolioCategories {
		if _, found := used[option.Value]; found {
			categories = append(categories, option)
		}
	}
	return categories
}
