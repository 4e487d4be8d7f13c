package httpapi

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/model"
)

const (
	adminServicesPath     = AdminHomePath + "/services"
	adminPortfolioPath    = AdminHomePath + "/portfolio"
	adminTestimonialsPath = AdminHomePath + "/testimonials"
	adminContactsPath     = AdminHomePath + "/contacts"
	adminSettingsPath     = AdminHomePath + "/settings"
	adminMediaEndpoint    = "/api/admin/media"

	formKindText     = "text"
	formKindTextarea = "textarea"
	formKindSelect   = "select"
	formKindURL      = "url"
	formKindEmail    = "email"
	formKindPhone    = "tel"
	formKindNumber   = "number"
)

type adminNavLink struct {
	Label  string
	Path   string
	Active bool
}

var adminNavigation = []adminNavLink{
	{Label: "Painel", Path: AdminHomePath},
	{Label: "Serviços", Path: adminServicesPath},
	{Label: "Portfólio", Path: adminPortfolioPath},
	{Label: "Depoimentos", Path: adminTestimonialsPath},
	{Label: "Contatos", Path: adminContactsPath},
	{Label: "Configurações", Path: adminSettingsPath},
}

type adminChrome struct {
	PageTitle  string
	User       *CurrentUser
	Navigation []adminNavLink
	Flashes    []flashMessage
	DemoMode   bool
	LogoutPath string
}

type formField struct {
	Name        string
	Label       string
	Kind        string
	Value       string
	Options     []model.Option
	Placeholder string
	Min         string
	Max         string
	Required    bool
	Error       string
}

type adminFormView struct {
	FormTitle     string
	FormAction    string
	Fields        []formField
	Editing       bool
	CancelPath    string
	MediaEnabled  bool
	MediaEndpoint string
}

// AdminPages renders the shared admin layout.
type AdminPages struct {
	logger       *zap.Logger
	renderer     *TemplateRenderer
	authManager  *AuthManager
	demoMode     bool
	mediaEnabled bool
}

// NewAdminPages builds the admin page renderer. demoMode shows the local-mode banner.
func NewAdminPages(logger *zap.Logger, renderer *TemplateRenderer, authManager *AuthManager, demoMode bool, mediaEnabled bool) *AdminPages {
	return &AdminPages{
		logger:       logger,
		renderer:     renderer,
		authManager:  authManager,
		demoMode:     demoMode,
		mediaEnabled: mediaEnabled,
	}
}

func (pages *AdminPages) chrome(context *gin.Context, title string, activePath string) adminChrome {
	navigation := make([]adminNavLink, len(adminNavigation))
	for index, link := range adminNavigation {
		link.Active = link.Path == activePath
		navigation[index] = link
	}
	user, _ := CurrentUserFromContext(context)
	return adminChrome{
		PageTitle:  title,
		User:       user,
		Navigation: navigation,
		Flashes:    pages.authManager.ConsumeFlashes(context),
		DemoMode:   pages.demoMode,
		LogoutPath: LogoutPath,
	}
}

func (pages *AdminPages) render(context *gin.Context, status int, templateName string, data any) {
	var buffer bytes.Buffer
	if err := pages.renderer.Execute(&buffer, templateName, data); err != nil {
		pages.logger.Error(logEventRenderTemplate, zap.String("template", templateName), zap.Error(err))
		context.String(http.StatusInternalServerError, messageInternalError)
		return
	}
	context.Data(status, contentTypeHTML, buffer.Bytes())
}

func (pages *AdminPages) flashSuccess(context *gin.Context, text string) {
	pages.authManager.AddFlash(context, flashKindSuccess, text)
}

func (pages *AdminPages) flashError(context *gin.Context, text string) {
	pages.authManager.AddFlash(context, flashKindError, text)
}

func (pages *AdminPages) formView(title string, action string, fields []formField, editing bool, cancelPath string) adminFormView {
	return adminFormView{
		FormTitle:     title,
		FormAction:    action,
		Fields:        fields,
		Editing:       editing,
		CancelPath:    cancelPath,
		MediaEnabled:  pages.mediaEnabled,
		MediaEndpoint: adminMediaEndpoint,
	}
}

func applyFieldErrors(fields []formField, validationError *model.ValidationError) []formField {
	if validationError == nil {
		return fields
	}
	for index := range fields {
		fields[index].Error = validationError.MessageFor(fields[index].Name)
	}
	return fields
}
