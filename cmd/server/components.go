package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OpenSkyDrones/opensky/internal/content"
	"github.com/OpenSkyDrones/opensky/internal/httpapi"
	"github.com/OpenSkyDrones/opensky/internal/media"
	"github.com/OpenSkyDrones/opensky/internal/model"
	"github.com/OpenSkyDrones/opensky/internal/notifications"
	"github.com/OpenSkyDrones/opensky/internal/storage"
	"github.com/OpenSkyDrones/opensky/internal/store"
	"github.com/OpenSkyDrones/opensky/internal/task"
)

const (
	logEventOpenDatabase    = "open_db"
	logEventWarmUpFailed    = "warm_up_catalog_failed"
	logEventMediaDisabled   = "media_uploads_disabled"
	logEventQueueDisabled   = "contact_notifications_disabled"
	warmUpTimeout           = 15 * time.Second
	contactRateLimitWindow  = 30 * time.Second
	contactRateLimitPerAddr = 6
)

// DatabaseOpener opens a database connection for the given storage configuration.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

type serverComponents struct {
	router    *gin.Engine
	catalog   *store.Catalog
	refresher *task.Refresher
	closers   []func() error
}

// Close releases every resource opened while building the components.
func (components *serverComponents) Close() error {
	var closeErrors []error
	for index := len(components.closers) - 1; index >= 0; index-- {
		if closeErr := components.closers[index](); closeErr != nil {
			closeErrors = append(closeErrors, closeErr)
		}
	}
	return errors.Join(closeErrors...)
}

func loadContent(path string) (content.Content, error) {
	if path == "" {
		return content.Default(), nil
	}
	document, readErr := os.ReadFile(path)
	if readErr != nil {
		return content.Content{}, fmt.Errorf("read content file: %w", readErr)
	}
	return content.Load(document, time.Now())
}

func buildServerComponents(ctx context.Context, configuration ServerConfig, logger *zap.Logger, openDatabase DatabaseOpener) (*serverComponents, error) {
	components := &serverComponents{}
	fail := func(err error) (*serverComponents, error) {
		_ = components.Close()
		return nil, err
	}

	document, contentErr := loadContent(configuration.ContentFile)
	if contentErr != nil {
		return fail(contentErr)
	}

	catalogConfig := store.CatalogConfig{Mode: configuration.Mode, Seeds: document.Seeds, Logger: logger}
	switch configuration.Mode {
	case store.ModeRemote:
		database, openErr := openDatabase(storage.Config{DriverName: storage.DriverNamePostgres, DataSourceName: configuration.BackendURL, Quiet: true})
		if openErr != nil {
			return fail(fmt.Errorf("%s: %w", logEventOpenDatabase, openErr))
		}
		components.closers = append(components.closers, databaseCloser(database))
		if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
			return fail(migrateErr)
		}
		catalogConfig.Database = database
	default:
		database, openErr := openDatabase(storage.Config{DriverName: storage.DriverNameSQLite, DataSourceName: configuration.LocalCachePath, Quiet: true})
		if openErr != nil {
			return fail(fmt.Errorf("%s: %w", logEventOpenDatabase, openErr))
		}
		components.closers = append(components.closers, databaseCloser(database))
		slots, slotsErr := storage.NewSlotRepository(database)
		if slotsErr != nil {
			return fail(slotsErr)
		}
		catalogConfig.Slots = slots
	}

	catalog, catalogErr := store.NewCatalog(catalogConfig)
	if catalogErr != nil {
		return fail(catalogErr)
	}
	components.catalog = catalog
	components.closers = append(components.closers, func() error {
		catalog.Wait()
		return nil
	})

	warmUpContext, cancelWarmUp := context.WithTimeout(ctx, warmUpTimeout)
	if warmUpErr := catalog.RefreshAll(warmUpContext); warmUpErr != nil {
		logger.Warn(logEventWarmUpFailed, zap.Error(warmUpErr))
	}
	cancelWarmUp()

	renderer, rendererErr := httpapi.NewTemplateRenderer()
	if rendererErr != nil {
		return fail(rendererErr)
	}
	authManager, authErr := httpapi.NewAuthManager(logger, httpapi.AuthConfig{
		Credentials:   configuration.Credentials,
		SessionSecret: configuration.SessionSecret,
	})
	if authErr != nil {
		return fail(authErr)
	}

	var notifier httpapi.ContactNotifier = notifications.NoopNotifier{}
	if configuration.RedisAddress != "" {
		queueClient := asynq.NewClient(asynq.RedisClientOpt{Addr: configuration.RedisAddress, Password: configuration.RedisPassword})
		components.closers = append(components.closers, queueClient.Close)
		notifier = notifications.NewQueueNotifier(logger, queueClient, 0)
	} else {
		logger.Info(logEventQueueDisabled)
	}

	var uploader httpapi.MediaUploader
	if configuration.Media.Configured() {
		mediaStorage, mediaErr := media.New(configuration.Media)
		if mediaErr != nil {
			return fail(mediaErr)
		}
		if bucketErr := mediaStorage.EnsureBucket(ctx); bucketErr != nil {
			return fail(bucketErr)
		}
		uploader = mediaStorage
	} else {
		logger.Info(logEventMediaDisabled)
	}

	demoMode := catalog.Mode().IsDemo()
	siteCatalog := httpapi.NewStoreSiteCatalog(catalog)
	pages := httpapi.NewAdminPages(logger, renderer, authManager, demoMode, uploader != nil)
	handlers := routeHandlers{
		auth:    authManager,
		landing: httpapi.NewLandingPageHandlers(logger, renderer, siteCatalog, document, configuration.Tracking),
		public:  httpapi.NewPublicHandlers(logger, siteCatalog),
		contacts: httpapi.NewContactHandlers(httpapi.ContactHandlersConfig{
			Logger:      logger,
			Contacts:    catalog.Contacts,
			Notifier:    notifier,
			RateLimiter: httpapi.NewRateLimiter(contactRateLimitWindow, contactRateLimitPerAddr),
			ReadPolicy:  configuration.ContactReadPolicy,
			AuthManager: authManager,
			Pages:       pages,
		}),
		login:        httpapi.NewLoginHandlers(logger, authManager, renderer, demoMode),
		admin:        httpapi.NewAdminHandlers(logger, pages, catalog),
		media:        httpapi.NewMediaHandlers(logger, uploader),
		settings:     httpapi.NewSettingsHandlers(pages, document, configuration.Tracking),
		services:     httpapi.NewResourceHandlers[model.Service, model.ServiceDraft](logger, pages, catalog.Services, httpapi.ServiceDescriptor()),
		portfolio:    httpapi.NewResourceHandlers[model.PortfolioItem, model.PortfolioDraft](logger, pages, catalog.Portfolio, httpapi.PortfolioDescriptor()),
		testimonials: httpapi.NewResourceHandlers[model.Testimonial, model.TestimonialDraft](logger, pages, catalog.Testimonials, httpapi.TestimonialDescriptor()),
		contactsAPI:  httpapi.NewResourceHandlers[model.ContactSubmission, model.ContactDraft](logger, pages, catalog.Contacts, httpapi.ContactDescriptor()),
	}

	router := gin.New()
	router.Use(httpapi.RequestLogger(logger), httpapi.RecoverWithRetryPage(logger, renderer))
	registerFrontendRoutes(router, handlers)
	registerBackendRoutes(router, handlers)

	components.router = router
	components.refresher = task.NewRefresher(configuration.RefreshInterval, catalog, logger)
	return components, nil
}

func databaseCloser(database *gorm.DB) func() error {
	return func() error {
		sqlDatabase, sqlErr := database.DB()
		if sqlErr != nil {
			return sqlErr
		}
		return sqlDatabase.Close()
	}
}
