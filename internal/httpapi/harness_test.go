package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/content"
	"github.com/OpenSkyDrones/opensky/internal/httpapi"
	"github.com/OpenSkyDrones/opensky/internal/model"
	"github.com/OpenSkyDrones/opensky/internal/store"
	"github.com/OpenSkyDrones/opensky/internal/testutil"
)

const (
	testSessionSecret  = "test-session-secret"
	testAdminEmail     = "admin@opensydrones.com"
	testAdminPassword  = "admin123"
	adminAPIPrefix     = "/api/admin"
	contentTypeHeader  = "Content-Type"
	contentTypeJSON    = "application/json"
	contentTypeForm    = "application/x-www-form-urlencoded"
	locationHeader     = "Location"
	authorizationKey   = "Authorization"
	bearerTokenPrefix  = "Bearer "
	testContactMessage = "Gostaria de um orçamento para filmagem aérea."
)

var errSlotUnavailable = errors.New("slot unavailable")

type harnessOptions struct {
	slots       store.SlotStore
	readPolicy  httpapi.ContactReadPolicy
	rateLimit   int
	uploader    httpapi.MediaUploader
	tracking    httpapi.TrackingConfig
	skipRefresh bool
}

type apiHarness struct {
	router      *gin.Engine
	catalog     *store.Catalog
	authManager *httpapi.AuthManager
	notifier    *recordingNotifier
}

func buildHarness(testingT *testing.T, options harnessOptions) apiHarness {
	testingT.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	document := content.Default()

	slots := options.slots
	if slots == nil {
		slots = testutil.NewSlotRepository(testingT)
	}
	catalog, catalogErr := store.NewCatalog(store.CatalogConfig{
		Mode:   store.ModeLocal,
		Slots:  slots,
		Seeds:  document.Seeds,
		Logger: logger,
	})
	require.NoError(testingT, catalogErr)
	testingT.Cleanup(catalog.Wait)
	if !options.skipRefresh {
		_ = catalog.RefreshAll(context.Background())
	}

	renderer, rendererErr := httpapi.NewTemplateRenderer()
	require.NoError(testingT, rendererErr)
	authManager, authErr := httpapi.NewAuthManager(logger, httpapi.AuthConfig{SessionSecret: testSessionSecret})
	require.NoError(testingT, authErr)

	notifier := &recordingNotifier{}
	demoMode := catalog.Mode().IsDemo()
	pages := httpapi.NewAdminPages(logger, renderer, authManager, demoMode, options.uploader != nil)
	landing := httpapi.NewLandingPageHandlers(logger, renderer, httpapi.NewStoreSiteCatalog(catalog), document, options.tracking)
	public := httpapi.NewPublicHandlers(logger, httpapi.NewStoreSiteCatalog(catalog))
	login := httpapi.NewLoginHandlers(logger, authManager, renderer, demoMode)
	admin := httpapi.NewAdminHandlers(logger, pages, catalog)
	media := httpapi.NewMediaHandlers(logger, options.uploader)
	settings := httpapi.NewSettingsHandlers(pages, document, options.tracking)
	contacts := httpapi.NewContactHandlers(httpapi.ContactHandlersConfig{
		Logger:      logger,
		Contacts:    catalog.Contacts,
		Notifier:    notifier,
		RateLimiter: httpapi.NewRateLimiter(time.Minute, options.rateLimit),
		ReadPolicy:  options.readPolicy,
		AuthManager: authManager,
		Pages:       pages,
	})
	services := httpapi.NewResourceHandlers[model.Service, model.ServiceDraft](logger, pages, catalog.Services, httpapi.ServiceDescriptor())
	portfolio := httpapi.NewResourceHandlers[model.PortfolioItem, model.PortfolioDraft](logger, pages, catalog.Portfolio, httpapi.PortfolioDescriptor())
	testimonials := httpapi.NewResourceHandlers[model.Testimonial, model.TestimonialDraft](logger, pages, catalog.Testimonials, httpapi.TestimonialDescriptor())
	contactResources := httpapi.NewResourceHandlers[model.ContactSubmission, model.ContactDraft](logger, pages, catalog.Contacts, httpapi.ContactDescriptor())

	router := gin.New()
	router.Use(httpapi.RecoverWithRetryPage(logger, renderer))
	router.GET("/", landing.RenderLandingPage)
	router.GET("/api/services", public.ListServices)
	router.GET("/api/portfolio", public.ListPortfolio)
	router.GET("/api/testimonials", public.ListTestimonials)
	router.POST("/api/contacts", contacts.Submit)
	router.GET("/api/contacts", contacts.List)
	router.POST("/api/auth/token", login.IssueToken)
	router.GET(httpapi.LoginPath, login.LoginPage)
	router.POST(httpapi.LoginPath, login.Login)
	router.POST(httpapi.LogoutPath, login.Logout)

	adminPages := router.Group(httpapi.AdminHomePath, authManager.RequireAdminWeb())
	adminPages.GET("", admin.Dashboard)
	services.RegisterPages(adminPages)
	portfolio.RegisterPages(adminPages)
	testimonials.RegisterPages(adminPages)
	adminPages.GET("/contacts", contacts.Page)
	adminPages.POST("/contacts", contacts.CreateFromForm)
	adminPages.POST("/contacts/:id/status", contacts.UpdateStatusFromForm)
	adminPages.POST("/contacts/:id/delete", contacts.DeleteFromForm)
	adminPages.GET("/settings", settings.Page)

	adminAPI := router.Group(adminAPIPrefix, authManager.RequireAdminJSON())
	services.RegisterAPI(adminAPI)
	portfolio.RegisterAPI(adminAPI)
	testimonials.RegisterAPI(adminAPI)
	contactResources.RegisterAPI(adminAPI)
	adminAPI.PATCH("/contacts/:id/status", contacts.UpdateStatusJSON)
	adminAPI.GET("/summary", admin.Summary)
	adminAPI.GET("/events", admin.StreamChanges)
	adminAPI.POST("/media", media.Upload)

	return apiHarness{router: router, catalog: catalog, authManager: authManager, notifier: notifier}
}

func performRequest(testingT *testing.T, handler http.Handler, request *http.Request) *httptest.ResponseRecorder {
	testingT.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func performJSONRequest(testingT *testing.T, handler http.Handler, method string, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	testingT.Helper()
	var body io.Reader
	switch typed := payload.(type) {
	case nil:
	case string:
		body = strings.NewReader(typed)
	default:
		encoded, encodeErr := json.Marshal(payload)
		require.NoError(testingT, encodeErr)
		body = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, body)
	if body != nil {
		request.Header.Set(contentTypeHeader, contentTypeJSON)
	}
	for name, value := range headers {
		request.Header.Set(name, value)
	}
	return performRequest(testingT, handler, request)
}

func performFormRequest(testingT *testing.T, handler http.Handler, path string, values url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	testingT.Helper()
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	request.Header.Set(contentTypeHeader, contentTypeForm)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	return performRequest(testingT, handler, request)
}

func performPageRequest(testingT *testing.T, handler http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	testingT.Helper()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	return performRequest(testingT, handler, request)
}

func decodeJSON(testingT *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	testingT.Helper()
	var decoded map[string]any
	require.NoError(testingT, json.Unmarshal(recorder.Body.Bytes(), &decoded), recorder.Body.String())
	return decoded
}

// signIn logs in through the form and returns the session cookies.
func signIn(testingT *testing.T, harness apiHarness) []*http.Cookie {
	testingT.Helper()
	recorder := performFormRequest(testingT, harness.router, httpapi.LoginPath, url.Values{
		"email":    {testAdminEmail},
		"password": {testAdminPassword},
	}, nil)
	require.Equal(testingT, http.StatusSeeOther, recorder.Code)
	cookies := recorder.Result().Cookies()
	require.NotEmpty(testingT, cookies)
	return cookies
}

// mergeCookies overlays the cookies set by recorder on the existing jar.
func mergeCookies(existing []*http.Cookie, recorder *httptest.ResponseRecorder) []*http.Cookie {
	byName := map[string]*http.Cookie{}
	order := []string{}
	for _, cookie := range append(append([]*http.Cookie{}, existing...), recorder.Result().Cookies()...) {
		if _, seen := byName[cookie.Name]; !seen {
			order = append(order, cookie.Name)
		}
		byName[cookie.Name] = cookie
	}
	merged := make([]*http.Cookie, 0, len(order))
	for _, name := range order {
		merged = append(merged, byName[name])
	}
	return merged
}

func bearerHeaders(testingT *testing.T, harness apiHarness) map[string]string {
	testingT.Helper()
	recorder := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/auth/token", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	}, nil)
	require.Equal(testingT, http.StatusOK, recorder.Code, recorder.Body.String())
	token, _ := decodeJSON(testingT, recorder)["token"].(string)
	require.NotEmpty(testingT, token)
	return map[string]string{authorizationKey: bearerTokenPrefix + token}
}

func newHTTPTestServer(testingT *testing.T, handler http.Handler) *httptest.Server {
	testingT.Helper()
	listener, listenErr := net.Listen("tcp", "127.0.0.1:0")
	if listenErr != nil {
		testingT.Skipf("network listener unavailable: %v", listenErr)
	}
	server := &httptest.Server{Listener: listener, Config: &http.Server{Handler: handler}}
	server.Start()
	testingT.Cleanup(server.Close)
	return server
}

type recordingNotifier struct {
	mutex    sync.Mutex
	contacts []model.ContactSubmission
	err      error
}

func (notifier *recordingNotifier) NotifyContact(_ context.Context, contact model.ContactSubmission) error {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	notifier.contacts = append(notifier.contacts, contact)
	return notifier.err
}

func (notifier *recordingNotifier) notified() []model.ContactSubmission {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	return append([]model.ContactSubmission(nil), notifier.contacts...)
}

// failingSlots rejects every slot operation.
type failingSlots struct{}

func (failingSlots) Read(context.Context, string) ([]byte, bool, error) {
	return nil, false, errSlotUnavailable
}

func (failingSlots) Write(context.Context, string, []byte) error {
	return errSlotUnavailable
}

// countingSlots counts slot writes on top of a real slot repository.
type countingSlots struct {
	store.SlotStore
	mutex  sync.Mutex
	writes int
}

func (slots *countingSlots) Write(ctx context.Context, name string, payload []byte) error {
	slots.mutex.Lock()
	slots.writes++
	slots.mutex.Unlock()
	return slots.SlotStore.Write(ctx, name, payload)
}

func (slots *countingSlots) writeCount() int {
	slots.mutex.Lock()
	defer slots.mutex.Unlock()
	return slots.writes
}

type recordingUploader struct {
	objectName  string
	contentType string
	payload     []byte
	err         error
}

func (uploader *recordingUploader) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, contentType string) (string, error) {
	if uploader.err != nil {
		return "", uploader.err
	}
	payload, readErr := io.ReadAll(reader)
	if readErr != nil {
		return "", readErr
	}
	uploader.objectName = objectName
	uploader.contentType = contentType
	uploader.payload = payload
	return "https://media.example.com/" + objectName, nil
}
