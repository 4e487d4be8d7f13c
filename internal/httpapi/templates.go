package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/OpenSkyDrones/opensky/internal/model"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"

	templateNameLanding        = "landing"
	templateNameLogin          = "login"
	templateNameError          = "error"
	templateNameAdminDashboard = "admin_dashboard"
	templateNameAdminResource  = "admin_resource"
	templateNameAdminContacts  = "admin_contacts"
	templateNameAdminSettings  = "admin_settings"

	displayDateLayout = "02/01/2006 15:04"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

// TemplateRenderer executes the embedded page templates.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses every embedded template.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	parsed, parseErr := template.New("pages").Funcs(templateFunctions()).ParseFS(templateFiles, "templates/*.tmpl")
	if parseErr != nil {
		return nil, fmt.Errorf("parse templates: %w", parseErr)
	}
	return &TemplateRenderer{templates: parsed}, nil
}

// Execute renders the named template into writer.
func (renderer *TemplateRenderer) Execute(writer io.Writer, name string, data any) error {
	return renderer.templates.ExecuteTemplate(writer, name, data)
}

func templateFunctions() template.FuncMap {
	return template.FuncMap{
		"formatDate": formatTimestamp,
		"categoryLabel": func(category string) string {
			return model.LabelFor(model.PortfolioCategories, category)
		},
		"iconLabel": func(icon string) string {
			return model.LabelFor(model.ServiceIcons, icon)
		},
		"statusLabel": func(status string) string {
			return model.LabelFor(model.ContactStatuses, status)
		},
		"iconGlyph": iconGlyph,
		"initials": func(name string) string {
			var letters []rune
			for _, word := range strings.Fields(name) {
				letters = append(letters, []rune(word)[0])
				if len(letters) == 2 {
					break
				}
			}
			return strings.ToUpper(string(letters))
		},
	}
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format(displayDateLayout)
}

var serviceIconGlyphs = map[string]string{
	model.ServiceIconCamera: "📷",
	model.ServiceIconVideo:  "🎥",
	model.ServiceIconMap:    "🗺️",
	model.ServiceIconSearch: "🔍",
	model.ServiceIconDrone:  "🚁",
	model.ServiceIconTower:  "🗼",
}

func iconGlyph(icon string) string {
	if glyph, found := serviceIconGlyphs[icon]; found {
		return glyph
	}
	return serviceIconGlyphs[model.ServiceIconDrone]
}

type errorPageData struct {
	RetryURL string
}
