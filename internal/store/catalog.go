package store

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/OpenSkyDrones/opensky/internal/content"
	"github.com/OpenSkyDrones/opensky/internal/model"
)

const (
	CollectionServices     = "services"
	CollectionPortfolio    = "portfolio"
	CollectionTestimonials = "testimonials"
	CollectionContacts     = "contacts"

	SlotServices     = "open-sky-services"
	SlotPortfolio    = "open-sky-portfolio"
	SlotTestimonials = "open-sky-testimonials"
	SlotContacts     = "open-sky-contacts"
)

// CatalogConfig carries everything needed to build the four Resource Stores.
type CatalogConfig struct {
	Mode Mode
	// Database backs remote mode.
	Database *gorm.DB
	// Slots backs local mode.
	Slots       SlotStore
	Seeds       content.Seeds
	Logger      *zap.Logger
	Broadcaster *ChangeBroadcaster
}

// Catalog groups the Resource Stores of the site.
type Catalog struct {
	mode         Mode
	broadcaster  *ChangeBroadcaster
	Services     *Store[model.Service, model.ServiceDraft]
	Portfolio    *Store[model.PortfolioItem, model.PortfolioDraft]
	Testimonials *Store[model.Testimonial, model.TestimonialDraft]
	Contacts     *ContactStore
}

// NewCatalog builds every store for the configured mode.
func NewCatalog(configuration CatalogConfig) (*Catalog, error) {
	switch configuration.Mode {
	case ModeRemote:
		if configuration.Database == nil {
			return nil, ErrMissingDatabase
		}
	case ModeLocal:
		if configuration.Slots == nil {
			return nil, ErrMissingSlots
		}
	default:
		return nil, ErrUnknownMode
	}
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	broadcaster := configuration.Broadcaster
	if broadcaster == nil {
		broadcaster = NewChangeBroadcaster()
	}
	seeds := configuration.Seeds.Clone()

	catalog := &Catalog{mode: configuration.Mode, broadcaster: broadcaster}
	catalog.Services = newStore(configuration, ServiceSchema(seeds.Services), logger, broadcaster)
	catalog.Portfolio = newStore(configuration, PortfolioSchema(seeds.Portfolio), logger, broadcaster)
	catalog.Testimonials = newStore(configuration, TestimonialSchema(seeds.Testimonials), logger, broadcaster)
	catalog.Contacts = &ContactStore{Store: newStore(configuration, ContactSchema(seeds.Contacts), logger, broadcaster)}

	logger.Info("catalog_ready", zap.String(logFieldMode, string(configuration.Mode)))
	return catalog, nil
}

func newStore[T any, D any](configuration CatalogConfig, schema Schema[T, D], logger *zap.Logger, broadcaster *ChangeBroadcaster) *Store[T, D] {
	var backend Backend[T]
	if configuration.Mode == ModeRemote {
		backend = NewRemoteBackend(configuration.Database, schema)
	} else {
		backend = NewLocalBackend(configuration.Slots, schema)
	}
	return New(schema, backend, configuration.Mode, logger, broadcaster)
}

// Mode returns the mode every store was built for.
func (catalog *Catalog) Mode() Mode {
	return catalog.mode
}

// Changes returns the broadcaster shared by every store.
func (catalog *Catalog) Changes() *ChangeBroadcaster {
	return catalog.broadcaster
}

// RefreshAll refreshes every store concurrently. A failing store falls back to its seed
// without cancelling the others; the first failure is returned.
func (catalog *Catalog) RefreshAll(ctx context.Context) error {
	var group errgroup.Group
	group.Go(func() error { return catalog.Services.Refresh(ctx) })
	group.Go(func() error { return catalog.Portfolio.Refresh(ctx) })
	group.Go(func() error { return catalog.Testimonials.Refresh(ctx) })
	group.Go(func() error { return catalog.Contacts.Refresh(ctx) })
	return group.Wait()
}

// Wait blocks until every background refresh has finished.
func (catalog *Catalog) Wait() {
	catalog.Services.Wait()
	catalog.Portfolio.Wait()
	catalog.Testimonials.Wait()
	catalog.Contacts.Wait()
}

// ServiceSchema describes services.
func ServiceSchema(seed []model.Service) Schema[model.Service, model.ServiceDraft] {
	return Schema[model.Service, model.ServiceDraft]{
		Name:  CollectionServices,
		Slot:  SlotServices,
		Build: model.BuildService,
		Stamp: func(service model.Service, identifier string, createdAt time.Time) model.Service {
			service.ID = identifier
			service.CreatedAt = createdAt
			return service
		},
		Identify:  model.Service.RecordID,
		CreatedAt: func(service model.Service) time.Time { return service.CreatedAt },
		Seed:      seed,
		Messages: Messages{
			Load:   "Erro ao carregar serviços",
			Create: "Erro ao criar serviço",
			Update: "Erro ao atualizar serviço",
			Delete: "Erro ao excluir serviço",
		},
	}
}

// PortfolioSchema describes portfolio items.
func PortfolioSchema(seed []model.PortfolioItem) Schema[model.PortfolioItem, model.PortfolioDraft] {
	return Schema[model.PortfolioItem, model.PortfolioDraft]{
		Name:  CollectionPortfolio,
		Slot:  SlotPortfolio,
		Build: model.BuildPortfolioItem,
		Stamp: func(item model.PortfolioItem, identifier string, createdAt time.Time) model.PortfolioItem {
			item.ID = identifier
			item.CreatedAt = createdAt
			return item
		},
		Identify:  model.PortfolioItem.RecordID,
		CreatedAt: func(item model.PortfolioItem) time.Time { return item.CreatedAt },
		Seed:      seed,
		Messages: Messages{
			Load:   "Erro ao carregar portfólio",
			Create: "Erro ao criar projeto",
			Update: "Erro ao atualizar projeto",
			Delete: "Erro ao excluir projeto",
		},
	}
}

// TestimonialSchema describes testimonials.
func TestimonialSchema(seed []model.Testimonial) Schema[model.Testimonial, model.TestimonialDraft] {
	return Schema[model.Testimonial, model.TestimonialDraft]{
		Name:  CollectionTestimonials,
		Slot:  SlotTestimonials,
		Build: model.BuildTestimonial,
		Stamp: func(testimonial model.Testimonial, identifier string, createdAt time.Time) model.Testimonial {
			testimonial.ID = identifier
			testimonial.CreatedAt = createdAt
			return testimonial
		},
		Identify:  model.Testimonial.RecordID,
		CreatedAt: func(testimonial model.Testimonial) time.Time { return testimonial.CreatedAt },
		Seed:      seed,
		Messages: Messages{
			Load:   "Erro ao carregar depoimentos",
			Create: "Erro ao criar depoimento",
			Update: "Erro ao atualizar depoimento",
			Delete: "Erro ao excluir depoimento",
		},
	}
}

// ContactSchema describes contact submissions.
func ContactSchema(seed []model.ContactSubmission) Schema[model.ContactSubmission, model.ContactDraft] {
	return Schema[model.ContactSubmission, model.ContactDraft]{
		Name:  CollectionContacts,
		Slot:  SlotContacts,
		Build: model.BuildContact,
		Stamp: func(contact model.ContactSubmission, identifier string, createdAt time.Time) model.ContactSubmission {
			contact.ID = identifier
			contact.CreatedAt = createdAt
			return contact
		},
		Identify:  model.ContactSubmission.RecordID,
		CreatedAt: func(contact model.ContactSubmission) time.Time { return contact.CreatedAt },
		Seed:      seed,
		Messages: Messages{
			Load:   "Erro ao carregar contatos",
			Create: "Erro ao salvar contato",
			Update: "Erro ao atualizar contato",
			Delete: "Erro ao excluir contato",
		},
	}
}
