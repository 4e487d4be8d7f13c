// Package footer renders the site footer shared by the public pages.
package footer

import (
	"bytes"
	"errors"
	"html/template"
	"strings"
)

// ErrMissingBrandName indicates the footer configuration has no brand name.
var ErrMissingBrandName = errors.New("footer: missing brand name")

// Link is a labelled outbound or in-page link.
type Link struct {
	Label string
	URL   string
}

// Config captures the content and style hooks of the footer.
type Config struct {
	ElementID     string
	BaseClass     string
	BrandName     string
	Tagline       string
	Email         string
	Phone         string
	Location      string
	SectionLinks  []Link
	SocialLinks   []Link
	CopyrightYear int
}

var footerTemplate = template.Must(template.New("footer").Parse(`<footer id="{{.ElementID}}" class="{{.BaseClass}}">
  <div class="footer__brand">
    <strong>{{.BrandName}}</strong>
    {{if .Tagline}}<p>{{.Tagline}}</p>{{end}}
  </div>
  {{if .SectionLinks}}
  <nav class="footer__sections" aria-label="Seções">
    <ul>{{range .SectionLinks}}<li><a href="{{.URL}}">{{.Label}}</a></li>{{end}}</ul>
  </nav>
  {{end}}
  <address class="footer__contact">
    {{if .Email}}<a href="mailto:{{.Email}}">{{.Email}}</a>{{end}}
    {{if .Phone}}<span>{{.Phone}}</span>{{end}}
    {{if .Location}}<span>{{.Location}}</span>{{end}}
  </address>
  {{if .SocialLinks}}
  <ul class="footer__social">
    {{range .SocialLinks}}<li><a href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.Label}}</a></li>{{end}}
  </ul>
  {{end}}
  <p class="footer__copyright">&copy; {{if .CopyrightYear}}{{.CopyrightYear}} {{end}}{{.BrandName}}. Todos os direitos reservados.</p>
</footer>`))

// Render returns the footer HTML. Links with an empty URL are skipped.
func Render(config Config) (template.HTML, error) {
	if strings.TrimSpace(config.BrandName) == "" {
		return "", ErrMissingBrandName
	}
	config.SectionLinks = usableLinks(config.SectionLinks)
	config.SocialLinks = usableLinks(config.SocialLinks)

	var buffer bytes.Buffer
	if err := footerTemplate.Execute(&buffer, config); err != nil {
		return "", err
	}
	return template.HTML(buffer.String()), nil
}

func usableLinks(links []Link) []Link {
	usable := make([]Link, 0, len(links))
	for _, link := range links {
		if strings.TrimSpace(link.URL) == "" || strings.TrimSpace(link.URL) == "#" {
			continue
		}
		usable = append(usable, link)
	}
	return usable
}
