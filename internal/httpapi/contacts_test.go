package httpapi_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenSkyDrones/opensky/internal/httpapi"
	"github.com/OpenSkyDrones/opensky/internal/model"
)

func validContactPayload() map[string]string {
	return map[string]string{
		"name":    "Maria Souza",
		"email":   "maria@example.com",
		"phone":   "(11) 98888-7777",
		"message": testContactMessage,
	}
}

func TestSubmitContactStoresSubmissionInDemoMode(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	before := len(harness.catalog.Contacts.Snapshot().Items)

	recorder := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/contacts", validContactPayload(), nil)
	require.Equal(testingT, http.StatusOK, recorder.Code, recorder.Body.String())

	body := decodeJSON(testingT, recorder)
	require.Equal(testingT, true, body["success"])
	require.Equal(testingT, "Contato enviado com sucesso! (modo demo)", body["message"])
	data, _ := body["data"].(map[string]any)
	require.Equal(testingT, model.ContactStatusNew, data["status"])
	require.NotEmpty(testingT, data["id"])

	items := harness.catalog.Contacts.Snapshot().Items
	require.Len(testingT, items, before+1)
	require.Equal(testingT, "Maria Souza", items[0].Name)

	notified := harness.notifier.notified()
	require.Len(testingT, notified, 1)
	require.Equal(testingT, items[0].ID, notified[0].ID)
}

func TestSubmitContactIgnoresClientStatus(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	payload := validContactPayload()
	payload["status"] = model.ContactStatusConverted

	recorder := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/contacts", payload, nil)
	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Equal(testingT, model.ContactStatusNew, harness.catalog.Contacts.Snapshot().Items[0].Status)
}

func TestSubmitContactRejectsInvalidFields(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	before := len(harness.catalog.Contacts.Snapshot().Items)

	recorder := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/contacts", map[string]string{
		"name":    "M",
		"email":   "not-an-email",
		"message": "curta",
	}, nil)
	require.Equal(testingT, http.StatusBadRequest, recorder.Code)

	body := decodeJSON(testingT, recorder)
	require.Equal(testingT, false, body["success"])
	require.Equal(testingT, "Dados inválidos", body["message"])
	fieldErrors, _ := body["errors"].([]any)
	messages := map[string]string{}
	for _, entry := range fieldErrors {
		fieldError := entry.(map[string]any)
		messages[fieldError["field"].(string)] = fieldError["message"].(string)
	}
	require.Equal(testingT, "Nome deve ter pelo menos 2 caracteres", messages["name"])
	require.Equal(testingT, "Email inválido", messages["email"])
	require.Equal(testingT, "Mensagem deve ter pelo menos 10 caracteres", messages["message"])

	require.Len(testingT, harness.catalog.Contacts.Snapshot().Items, before)
	require.Empty(testingT, harness.notifier.notified())
}

func TestSubmitContactRejectsMalformedJSON(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	recorder := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/contacts", "{not json", nil)
	require.Equal(testingT, http.StatusBadRequest, recorder.Code)
	require.Equal(testingT, "Dados inválidos", decodeJSON(testingT, recorder)["message"])
}

func TestSubmitContactReportsStorageFailure(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{slots: failingSlots{}})
	recorder := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/contacts", validContactPayload(), nil)
	require.Equal(testingT, http.StatusInternalServerError, recorder.Code)

	body := decodeJSON(testingT, recorder)
	require.Equal(testingT, false, body["success"])
	require.Equal(testingT, "Erro interno do servidor", body["message"])
	require.Empty(testingT, harness.notifier.notified())
}

func TestSubmitContactSucceedsWhenNotifierFails(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	harness.notifier.err = errors.New("queue offline")
	recorder := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/contacts", validContactPayload(), nil)
	require.Equal(testingT, http.StatusOK, recorder.Code)
}

func TestSubmitContactIsRateLimited(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{rateLimit: 2})
	for attempt := 0; attempt < 2; attempt++ {
		recorder := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/contacts", validContactPayload(), nil)
		require.Equal(testingT, http.StatusOK, recorder.Code)
	}
	recorder := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/contacts", validContactPayload(), nil)
	require.Equal(testingT, http.StatusTooManyRequests, recorder.Code)
	require.Equal(testingT, false, decodeJSON(testingT, recorder)["success"])
}

func TestListContactsHonoursReadPolicy(testingT *testing.T) {
	testCases := []struct {
		name           string
		policy         httpapi.ContactReadPolicy
		authenticate   bool
		expectedStatus int
	}{
		{name: "admin policy without credentials", policy: httpapi.ContactReadPolicyAdmin, expectedStatus: http.StatusUnauthorized},
		{name: "admin policy with bearer token", policy: httpapi.ContactReadPolicyAdmin, authenticate: true, expectedStatus: http.StatusOK},
		{name: "public policy", policy: httpapi.ContactReadPolicyPublic, expectedStatus: http.StatusOK},
		{name: "default policy", expectedStatus: http.StatusUnauthorized},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(testingT *testing.T) {
			harness := buildHarness(testingT, harnessOptions{readPolicy: testCase.policy})
			var headers map[string]string
			if testCase.authenticate {
				headers = bearerHeaders(testingT, harness)
			}
			recorder := performJSONRequest(testingT, harness.router, http.MethodGet, "/api/contacts", nil, headers)
			require.Equal(testingT, testCase.expectedStatus, recorder.Code)
			if testCase.expectedStatus == http.StatusOK {
				body := decodeJSON(testingT, recorder)
				require.Equal(testingT, true, body["success"])
				require.Len(testingT, body["data"], len(harness.catalog.Contacts.Snapshot().Items))
			}
		})
	}
}

func TestListContactsFiltersByStatusAndQuery(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{readPolicy: httpapi.ContactReadPolicyPublic})
	require.Equal(testingT, http.StatusOK, performJSONRequest(testingT, harness.router, http.MethodPost, "/api/contacts", validContactPayload(), nil).Code)

	recorder := performJSONRequest(testingT, harness.router, http.MethodGet, "/api/contacts?q=maria@example&status=new", nil, nil)
	require.Equal(testingT, http.StatusOK, recorder.Code)
	data, _ := decodeJSON(testingT, recorder)["data"].([]any)
	require.Len(testingT, data, 1)
	require.Equal(testingT, "Maria Souza", data[0].(map[string]any)["name"])
}

func TestParseContactReadPolicy(testingT *testing.T) {
	testCases := []struct {
		input    string
		expected httpapi.ContactReadPolicy
		fails    bool
	}{
		{input: "", expected: httpapi.ContactReadPolicyAdmin},
		{input: " ADMIN ", expected: httpapi.ContactReadPolicyAdmin},
		{input: "public", expected: httpapi.ContactReadPolicyPublic},
		{input: "everyone", fails: true},
	}
	for _, testCase := range testCases {
		policy, parseErr := httpapi.ParseContactReadPolicy(testCase.input)
		if testCase.fails {
			require.ErrorIs(testingT, parseErr, httpapi.ErrUnknownReadPolicy)
			continue
		}
		require.NoError(testingT, parseErr)
		require.Equal(testingT, testCase.expected, policy)
	}
}

func TestUpdateContactStatusThroughAPI(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	headers := bearerHeaders(testingT, harness)
	contact := harness.catalog.Contacts.Snapshot().Items[0]

	recorder := performJSONRequest(testingT, harness.router, http.MethodPatch, adminAPIPrefix+"/contacts/"+contact.ID+"/status", map[string]string{"status": "converted"}, headers)
	require.Equal(testingT, http.StatusOK, recorder.Code, recorder.Body.String())
	updated, found := harness.catalog.Contacts.Get(contact.ID)
	require.True(testingT, found)
	require.Equal(testingT, model.ContactStatusConverted, updated.Status)
	require.Equal(testingT, contact.Message, updated.Message)

	invalid := performJSONRequest(testingT, harness.router, http.MethodPatch, adminAPIPrefix+"/contacts/"+contact.ID+"/status", map[string]string{"status": "archived"}, headers)
	require.Equal(testingT, http.StatusBadRequest, invalid.Code)

	missing := performJSONRequest(testingT, harness.router, http.MethodPatch, adminAPIPrefix+"/contacts/unknown/status", map[string]string{"status": "new"}, headers)
	require.Equal(testingT, http.StatusNotFound, missing.Code)
}

func TestContactsPageFiltersAndChangesStatus(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	cookies := signIn(testingT, harness)
	contact := harness.catalog.Contacts.Snapshot().Items[0]

	page := performPageRequest(testingT, harness.router, "/admin/contacts?status=converted", cookies)
	require.Equal(testingT, http.StatusOK, page.Code)
	require.NotContains(testingT, page.Body.String(), `data-record-id="`+contact.ID+`"`)

	update := performFormRequest(testingT, harness.router, "/admin/contacts/"+contact.ID+"/status", url.Values{"status": {"converted"}}, cookies)
	require.Equal(testingT, http.StatusSeeOther, update.Code)
	cookies = mergeCookies(cookies, update)

	filtered := performPageRequest(testingT, harness.router, "/admin/contacts?status=converted", cookies)
	require.Equal(testingT, http.StatusOK, filtered.Code)
	require.Contains(testingT, filtered.Body.String(), `data-record-id="`+contact.ID+`"`)
	require.Contains(testingT, filtered.Body.String(), "Status atualizado")
}

func TestContactsPageCreatesAndDeletesSubmissions(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	cookies := signIn(testingT, harness)
	before := len(harness.catalog.Contacts.Snapshot().Items)

	invalid := performFormRequest(testingT, harness.router, "/admin/contacts", url.Values{"name": {"Jo"}, "email": {"bad"}, "message": {testContactMessage}}, cookies)
	require.Equal(testingT, http.StatusBadRequest, invalid.Code)
	require.Contains(testingT, invalid.Body.String(), "Email inválido")
	require.Len(testingT, harness.catalog.Contacts.Snapshot().Items, before)

	created := performFormRequest(testingT, harness.router, "/admin/contacts", url.Values{
		"name":    {"João Lima"},
		"email":   {"joao@example.com"},
		"message": {testContactMessage},
		"status":  {"contacted"},
	}, cookies)
	require.Equal(testingT, http.StatusSeeOther, created.Code)
	items := harness.catalog.Contacts.Snapshot().Items
	require.Len(testingT, items, before+1)
	require.Equal(testingT, model.ContactStatusContacted, items[0].Status)

	deleted := performFormRequest(testingT, harness.router, "/admin/contacts/"+items[0].ID+"/delete", url.Values{}, cookies)
	require.Equal(testingT, http.StatusSeeOther, deleted.Code)
	require.Len(testingT, harness.catalog.Contacts.Snapshot().Items, before)
}
