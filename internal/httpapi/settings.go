package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenSkyDrones/opensky/internal/content"
)

const settingsTitle = "Configurações"

type adminSettingsData struct {
	adminChrome
	Site        content.Site
	WhatsAppURL string
	Hero        content.Hero
	About       content.About
	Tracking    TrackingConfig
}

// SettingsHandlers show the site settings loaded from the content document.
// The document is edited on disk, so the screen is read-only.
type SettingsHandlers struct {
	pages    *AdminPages
	document content.Content
	tracking TrackingConfig
}

func NewSettingsHandlers(pages *AdminPages, document content.Content, tracking TrackingConfig) *SettingsHandlers {
	return &SettingsHandlers{pages: pages, document: document, tracking: tracking}
}

func (handlers *SettingsHandlers) Page(context *gin.Context) {
	handlers.pages.render(context, http.StatusOK, templateNameAdminSettings, adminSettingsData{
		adminChrome: handlers.pages.chrome(context, settingsTitle, adminSettingsPath),
		Site:        handlers.document.Site,
		WhatsAppURL: handlers.document.Site.WhatsAppURL(),
		Hero:        handlers.document.Hero,
		About:       handlers.document.About,
		Tracking:    handlers.tracking,
	})
}
