package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/OpenSkyDrones/opensky/internal/httpapi"
)

const (
	publicRouteLanding      = "/"
	publicRouteHealth       = "/healthz"
	publicRouteServices     = "/api/services"
	publicRoutePortfolio    = "/api/portfolio"
	publicRouteTestimonials = "/api/testimonials"
	publicRouteContacts     = "/api/contacts"
	publicRouteToken        = "/api/auth/token"

	adminRouteContacts          = "/contacts"
	adminRouteContactStatus     = "/contacts/:id/status"
	adminRouteContactDelete     = "/contacts/:id/delete"
	adminRouteSettings          = "/settings"
	adminAPIRoutePrefix         = "/api/admin"
	adminAPIRouteSummary        = "/summary"
	adminAPIRouteEvents         = "/events"
	adminAPIRouteMedia          = "/media"
	adminAPIRouteContactsStatus = "/contacts/:id/status"

	corsOriginWildcard      = "*"
	corsHeaderAuthorization = "Authorization"
	corsHeaderContentType   = "Content-Type"
)

var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsAllowedHeaders = []string{corsHeaderAuthorization, corsHeaderContentType}
	corsExposedHeaders = []string{corsHeaderContentType}
)

type resourceRoutes interface {
	RegisterAPI(routes gin.IRoutes)
	RegisterPages(routes gin.IRoutes)
}

type routeHandlers struct {
	auth         *httpapi.AuthManager
	landing      *httpapi.LandingPageHandlers
	public       *httpapi.PublicHandlers
	contacts     *httpapi.ContactHandlers
	login        *httpapi.LoginHandlers
	admin        *httpapi.AdminHandlers
	media        *httpapi.MediaHandlers
	settings     *httpapi.SettingsHandlers
	services     resourceRoutes
	portfolio    resourceRoutes
	testimonials resourceRoutes
	contactsAPI  resourceRoutes
}

func newPublicCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{corsOriginWildcard},
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

func registerFrontendRoutes(router *gin.Engine, handlers routeHandlers) {
	router.GET(publicRouteLanding, handlers.landing.RenderLandingPage)
	router.GET(publicRouteHealth, func(context *gin.Context) {
		context.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET(httpapi.LoginPath, handlers.login.LoginPage)
	router.POST(httpapi.LoginPath, handlers.login.Login)
	router.POST(httpapi.LogoutPath, handlers.login.Logout)

	adminPages := router.Group(httpapi.AdminHomePath, handlers.auth.RequireAdminWeb())
	adminPages.GET("", handlers.admin.Dashboard)
	handlers.services.RegisterPages(adminPages)
	handlers.portfolio.RegisterPages(adminPages)
	handlers.testimonials.RegisterPages(adminPages)
	adminPages.GET(adminRouteContacts, handlers.contacts.Page)
	adminPages.POST(adminRouteContacts, handlers.contacts.CreateFromForm)
	adminPages.POST(adminRouteContactStatus, handlers.contacts.UpdateStatusFromForm)
	adminPages.POST(adminRouteContactDelete, handlers.contacts.DeleteFromForm)
	adminPages.GET(adminRouteSettings, handlers.settings.Page)
}

func registerBackendRoutes(router *gin.Engine, handlers routeHandlers) {
	publicCORS := newPublicCORS()
	publicGroup := router.Group("/", publicCORS)
	for _, preflightPath := range []string{publicRouteServices, publicRoutePortfolio, publicRouteTestimonials, publicRouteContacts} {
		publicGroup.OPTIONS(preflightPath, func(*gin.Context) {})
	}
	publicGroup.GET(publicRouteServices, handlers.public.ListServices)
	publicGroup.GET(publicRoutePortfolio, handlers.public.ListPortfolio)
	publicGroup.GET(publicRouteTestimonials, handlers.public.ListTestimonials)
	publicGroup.POST(publicRouteContacts, handlers.contacts.Submit)
	publicGroup.GET(publicRouteContacts, handlers.contacts.List)
	router.POST(publicRouteToken, handlers.login.IssueToken)

	adminAPI := router.Group(adminAPIRoutePrefix, handlers.auth.RequireAdminJSON())
	handlers.services.RegisterAPI(adminAPI)
	handlers.portfolio.RegisterAPI(adminAPI)
	handlers.testimonials.RegisterAPI(adminAPI)
	handlers.contactsAPI.RegisterAPI(adminAPI)
	adminAPI.PATCH(adminAPIRouteContactsStatus, handlers.contacts.UpdateStatusJSON)
	adminAPI.GET(adminAPIRouteSummary, handlers.admin.Summary)
	adminAPI.GET(adminAPIRouteEvents, handlers.admin.StreamChanges)
	adminAPI.POST(adminAPIRouteMedia, handlers.media.Upload)
}
