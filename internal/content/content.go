// Package content holds the static copy of the public site and the built-in seed datasets.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OpenSkyDrones/opensky/internal/model"
)

const (
	errorMessageDecodeContent = "content: decode"
	whatsappLinkPrefix        = "https://wa.me/"
)

var (
	// ErrEmptyContent indicates the content document had no data.
	ErrEmptyContent = errors.New("content: empty document")

	//go:embed content.yml
	defaultDocument []byte

	defaultContent = mustLoad(defaultDocument)
)

// SocialLink is a named external profile link.
type SocialLink struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Site carries company contact data and outbound links.
type Site struct {
	Name            string       `yaml:"name"`
	Email           string       `yaml:"email"`
	Phone           string       `yaml:"phone"`
	Location        string       `yaml:"location"`
	WhatsAppNumber  string       `yaml:"whatsapp_number"`
	WhatsAppMessage string       `yaml:"whatsapp_message"`
	SocialLinks     []SocialLink `yaml:"social_links"`
}

// WhatsAppURL returns the click-to-chat link, or an empty string without a number.
func (site Site) WhatsAppURL() string {
	number := strings.Map(func(character rune) rune {
		if character >= '0' && character <= '9' {
			return character
		}
		return -1
	}, site.WhatsAppNumber)
	if number == "" {
		return ""
	}
	link := whatsappLinkPrefix + number
	if strings.TrimSpace(site.WhatsAppMessage) != "" {
		link += "?text=" + url.QueryEscape(site.WhatsAppMessage)
	}
	return link
}

type Hero struct {
	Title        string `yaml:"title"`
	Subtitle     string `yaml:"subtitle"`
	CallToAction string `yaml:"call_to_action"`
}

type Stat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type Feature struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type About struct {
	Title    string    `yaml:"title"`
	Summary  string    `yaml:"summary"`
	Stats    []Stat    `yaml:"stats"`
	Features []Feature `yaml:"features"`
}

type Question struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Seeds are the built-in datasets used when no backing store can be read.
type Seeds struct {
	Services     []model.Service           `yaml:"services"`
	Portfolio    []model.PortfolioItem     `yaml:"portfolio"`
	Testimonials []model.Testimonial       `yaml:"testimonials"`
	Contacts     []model.ContactSubmission `yaml:"contacts"`
}

// Content is the full static document behind the public site.
type Content struct {
	Site  Site       `yaml:"site"`
	Hero  Hero       `yaml:"hero"`
	About About      `yaml:"about"`
	FAQ   []Question `yaml:"faq"`
	Seeds Seeds      `yaml:"seeds"`
}

// Load decodes a content document. Seed records without a timestamp are stamped with loadedAt,
// one second apart so that list order matches document order under newest-first sorting.
func Load(document []byte, loadedAt time.Time) (Content, error) {
	if len(strings.TrimSpace(string(document))) == 0 {
		return Content{}, ErrEmptyContent
	}
	var decoded Content
	if err := yaml.Unmarshal(document, &decoded); err != nil {
		return Content{}, fmt.Errorf("%s: %w", errorMessageDecodeContent, err)
	}
	stampSeeds(&decoded.Seeds, loadedAt.UTC())
	return decoded, nil
}

// Default returns a copy of the embedded content document.
func Default() Content {
	copied := defaultContent
	copied.Seeds = defaultContent.Seeds.Clone()
	return copied
}

// Clone returns seed slices that do not share backing arrays with the receiver.
func (seeds Seeds) Clone() Seeds {
	return Seeds{
		Services:     append([]model.Service(nil), seeds.Services...),
		Portfolio:    append([]model.PortfolioItem(nil), seeds.Portfolio...),
		Testimonials: append([]model.Testimonial(nil), seeds.Testimonials...),
		Contacts:     append([]model.ContactSubmission(nil), seeds.Contacts...),
	}
}

func stampSeeds(seeds *Seeds, loadedAt time.Time) {
	stamp := func(index int, current time.Time) time.Time {
		if !current.IsZero() {
			return current
		}
		return loadedAt.Add(-time.Duration(index) * time.Second)
	}
	for index := range seeds.Services {
		seeds.Services[index].CreatedAt = stamp(index, seeds.Services[index].CreatedAt)
	}
	for index := range seeds.Portfolio {
		seeds.Portfolio[index].CreatedAt = stamp(index, seeds.Portfolio[index].CreatedAt)
	}
	for index := range seeds.Testimonials {
		seeds.Testimonials[index].CreatedAt = stamp(index, seeds.Testimonials[index].CreatedAt)
	}
	for index := range seeds.Contacts {
		seeds.Contacts[index].CreatedAt = stamp(index, seeds.Contacts[index].CreatedAt)
		if seeds.Contacts[index].Status == "" {
			seeds.Contacts[index].Status = model.ContactStatusNew
		}
	}
}

func mustLoad(document []byte) Content {
	loaded, err := Load(document, time.Now())
	if err != nil {
		panic(err)
	}
	return loaded
}
