package httpapi

import (
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/OpenSkyDrones/opensky/internal/model"
	"github.com/OpenSkyDrones/opensky/internal/store"
)

const (
	defaultTestimonialRating = 5
	tableExcerptLength       = 80
	queryContactSearch       = "q"
	queryContactStatus       = "status"
)

// ServiceDescriptor describes the services screens.
func ServiceDescriptor() ResourceDescriptor[model.Service, model.ServiceDraft] {
	return ResourceDescriptor[model.Service, model.ServiceDraft]{
		Slug:            store.CollectionServices,
		Title:           "Serviços",
		CreateFormTitle: "Novo serviço",
		EditFormTitle:   "Editar serviço",
		Columns:         []string{"Título", "Ícone", "Descrição", "Criado em"},
		Identify:        model.Service.RecordID,
		Row: func(service model.Service) []string {
			return []string{service.Title, model.LabelFor(model.ServiceIcons, service.Icon), excerpt(service.Description), formatTimestamp(service.CreatedAt)}
		},
		Thumbnail: func(service model.Service) string { return service.ImageURL },
		Blank:     func() model.ServiceDraft { return model.ServiceDraft{Icon: model.ServiceIconCamera} },
		DraftOf:   model.DraftFromService,
		Fields: func(draft model.ServiceDraft) []formField {
			return []formField{
				{Name: "title", Label: "Título", Kind: formKindText, Value: draft.Title, Required: true},
				{Name: "description", Label: "Descrição", Kind: formKindTextarea, Value: draft.Description, Required: true},
				{Name: "icon", Label: "Ícone", Kind: formKindSelect, Value: draft.Icon, Options: model.ServiceIcons, Required: true},
				{Name: "image_url", Label: "URL da imagem", Kind: formKindURL, Value: draft.ImageURL, Placeholder: "https://"},
			}
		},
		Normalize: model.NewServiceDraft,
	}
}

// PortfolioDescriptor describes the portfolio screens.
func PortfolioDescriptor() ResourceDescriptor[model.PortfolioItem, model.PortfolioDraft] {
	return ResourceDescriptor[model.PortfolioItem, model.PortfolioDraft]{
		Slug:            store.CollectionPortfolio,
		Title:           "Portfólio",
		CreateFormTitle: "Novo projeto",
		EditFormTitle:   "Editar projeto",
		Columns:         []string{"Título", "Categoria", "Descrição", "Criado em"},
		Identify:        model.PortfolioItem.RecordID,
		Row: func(item model.PortfolioItem) []string {
			return []string{item.Title, item.CategoryLabel(), excerpt(item.Description), formatTimestamp(item.CreatedAt)}
		},
		Thumbnail: func(item model.PortfolioItem) string { return item.ImageURL },
		DraftOf:   model.DraftFromPortfolioItem,
		Fields: func(draft model.PortfolioDraft) []formField {
			return []formField{
				{Name: "title", Label: "Título", Kind: formKindText, Value: draft.Title, Required: true},
				{Name: "description", Label: "Descrição", Kind: formKindTextarea, Value: draft.Description, Required: true},
				{Name: "category", Label: "Categoria", Kind: formKindSelect, Value: draft.Category, Options: model.PortfolioCategories, Required: true},
				{Name: "image_url", Label: "URL da imagem", Kind: formKindURL, Value: draft.ImageURL, Placeholder: "https://", Required: true},
				{Name: "video_url", Label: "URL do vídeo", Kind: formKindURL, Value: draft.VideoURL, Placeholder: "https://"},
			}
		},
		Normalize: model.NewPortfolioDraft,
	}
}

// TestimonialDescriptor describes the testimonial screens.
func TestimonialDescriptor() ResourceDescriptor[model.Testimonial, model.TestimonialDraft] {
	return ResourceDescriptor[model.Testimonial, model.TestimonialDraft]{
		Slug:            store.CollectionTestimonials,
		Title:           "Depoimentos",
		CreateFormTitle: "Novo depoimento",
		EditFormTitle:   "Editar depoimento",
		Columns:         []string{"Cliente", "Avaliação", "Depoimento", "Criado em"},
		Identify:        model.Testimonial.RecordID,
		Row: func(testimonial model.Testimonial) []string {
			return []string{testimonial.ClientName, strconv.Itoa(testimonial.Rating) + "/5", excerpt(testimonial.Testimonial), formatTimestamp(testimonial.CreatedAt)}
		},
		Thumbnail: func(testimonial model.Testimonial) string { return testimonial.ClientPhoto },
		Blank:     func() model.TestimonialDraft { return model.TestimonialDraft{Rating: defaultTestimonialRating} },
		DraftOf:   model.DraftFromTestimonial,
		Fields: func(draft model.TestimonialDraft) []formField {
			rating := ""
			if draft.Rating != 0 {
				rating = strconv.Itoa(draft.Rating)
			}
			return []formField{
				{Name: "client_name", Label: "Nome do cliente", Kind: formKindText, Value: draft.ClientName, Required: true},
				{Name: "client_photo", Label: "URL da foto", Kind: formKindURL, Value: draft.ClientPhoto, Placeholder: "https://"},
				{Name: "testimonial", Label: "Depoimento", Kind: formKindTextarea, Value: draft.Testimonial, Required: true},
				{Name: "rating", Label: "Avaliação", Kind: formKindNumber, Value: rating, Min: "1", Max: "5", Required: true},
			}
		},
		Normalize: model.NewTestimonialDraft,
	}
}

// ContactDescriptor describes contact submissions for the admin API and the admin create form.
func ContactDescriptor() ResourceDescriptor[model.ContactSubmission, model.ContactDraft] {
	return ResourceDescriptor[model.ContactSubmission, model.ContactDraft]{
		Slug:            store.CollectionContacts,
		Title:           "Contatos",
		CreateFormTitle: "Novo contato",
		EditFormTitle:   "Editar contato",
		Columns:         []string{"Nome", "Email", "Mensagem", "Status"},
		Identify:        model.ContactSubmission.RecordID,
		Row: func(contact model.ContactSubmission) []string {
			return []string{contact.Name, contact.Email, excerpt(contact.Message), contact.StatusLabel()}
		},
		Blank:   func() model.ContactDraft { return model.ContactDraft{Status: model.ContactStatusNew} },
		DraftOf: model.DraftFromContact,
		Fields: func(draft model.ContactDraft) []formField {
			return []formField{
				{Name: "name", Label: "Nome", Kind: formKindText, Value: draft.Name, Required: true},
				{Name: "email", Label: "Email", Kind: formKindEmail, Value: draft.Email, Required: true},
				{Name: "phone", Label: "Telefone", Kind: formKindPhone, Value: draft.Phone},
				{Name: "message", Label: "Mensagem", Kind: formKindTextarea, Value: draft.Message, Required: true},
				{Name: "status", Label: "Status", Kind: formKindSelect, Value: draft.Status, Options: model.ContactStatuses},
			}
		},
		Normalize: model.NewContactDraft,
		Filter: func(context *gin.Context, items []model.ContactSubmission) []model.ContactSubmission {
			return store.ContactFilter{
				Query:  context.Query(queryContactSearch),
				Status: context.Query(queryContactStatus),
			}.Filter(items)
		},
	}
}

func excerpt(text string) string {
	if utf8.RuneCountInString(text) <= tableExcerptLength {
		return text
	}
	return string([]rune(text)[:tableExcerptLength]) + "…"
}
