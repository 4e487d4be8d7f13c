package httpapi_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenSkyDrones/opensky/internal/httpapi"
)

func TestLoginPageRendersForm(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	recorder := performPageRequest(testingT, harness.router, httpapi.LoginPath, nil)
	require.Equal(testingT, http.StatusOK, recorder.Code)
	page := recorder.Body.String()
	require.Contains(testingT, page, `action="/admin/login"`)
	require.Contains(testingT, page, `name="password"`)
	require.Contains(testingT, page, "Modo demonstração")
}

func TestLoginRejectsInvalidCredentials(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	recorder := performFormRequest(testingT, harness.router, httpapi.LoginPath, url.Values{
		"email":    {testAdminEmail},
		"password": {"wrong"},
	}, nil)
	require.Equal(testingT, http.StatusUnauthorized, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "Credenciais inválidas. Tente novamente.")
	require.Contains(testingT, recorder.Body.String(), `value="`+testAdminEmail+`"`)
	require.Empty(testingT, recorder.Result().Cookies())
}

func TestLoginStartsSessionAndLogoutEndsIt(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})
	cookies := signIn(testingT, harness)

	dashboard := performPageRequest(testingT, harness.router, httpapi.AdminHomePath, cookies)
	require.Equal(testingT, http.StatusOK, dashboard.Code)
	require.Contains(testingT, dashboard.Body.String(), httpapi.DefaultAdminName)

	loginAgain := performPageRequest(testingT, harness.router, httpapi.LoginPath, cookies)
	require.Equal(testingT, http.StatusFound, loginAgain.Code)
	require.Equal(testingT, httpapi.AdminHomePath, loginAgain.Header().Get(locationHeader))

	logout := performFormRequest(testingT, harness.router, httpapi.LogoutPath, url.Values{}, cookies)
	require.Equal(testingT, http.StatusSeeOther, logout.Code)
	require.Equal(testingT, httpapi.LoginPath, logout.Header().Get(locationHeader))

	afterLogout := performPageRequest(testingT, harness.router, httpapi.AdminHomePath, mergeCookies(cookies, logout))
	require.Equal(testingT, http.StatusFound, afterLogout.Code)
}

func TestTokenEndpoint(testingT *testing.T) {
	harness := buildHarness(testingT, harnessOptions{})

	rejected := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/auth/token", map[string]string{
		"email":    testAdminEmail,
		"password": "wrong",
	}, nil)
	require.Equal(testingT, http.StatusUnauthorized, rejected.Code)

	malformed := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/auth/token", "{}", nil)
	require.Equal(testingT, http.StatusBadRequest, malformed.Code)

	accepted := performJSONRequest(testingT, harness.router, http.MethodPost, "/api/auth/token", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	}, nil)
	require.Equal(testingT, http.StatusOK, accepted.Code)
	body := decodeJSON(testingT, accepted)
	require.Equal(testingT, "Bearer", body["token_type"])
	require.NotEmpty(testingT, body["token"])
	require.NotEmpty(testingT, body["expires_at"])
}
