package httpapi

import (
	"html/template"
	"time"

	"github.com/OpenSkyDrones/opensky/internal/content"
	"github.com/OpenSkyDrones/opensky/pkg/footer"
)

const (
	footerElementID = "site-footer"
	footerBaseClass = "site-footer"
	footerTagline   = "Serviços profissionais de drone"
)

var footerSectionLinks = []footer.Link{
	{Label: "Serviços", URL: "#servicos"},
	{Label: "Portfólio", URL: "#portfolio"},
	{Label: "Depoimentos", URL: "#depoimentos"},
	{Label: "Perguntas frequentes", URL: "#faq"},
	{Label: "Contato", URL: "#contato"},
}

func renderSiteFooter(site content.Site, now time.Time) (template.HTML, error) {
	socialLinks := make([]footer.Link, 0, len(site.SocialLinks))
	for _, socialLink := range site.SocialLinks {
		socialLinks = append(socialLinks, footer.Link{Label: socialLink.Name, URL: socialLink.URL})
	}
	return footer.Render(footer.Config{
		ElementID:     footerElementID,
		BaseClass:     footerBaseClass,
		BrandName:     site.Name,
		Tagline:       footerTagline,
		Email:         site.Email,
		Phone:         site.Phone,
		Location:      site.Location,
		SectionLinks:  footerSectionLinks,
		SocialLinks:   socialLinks,
		CopyrightYear: now.Year(),
	})
}
