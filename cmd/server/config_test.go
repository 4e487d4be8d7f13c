package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OpenSkyDrones/opensky/internal/httpapi"
	"github.com/OpenSkyDrones/opensky/internal/store"
)

func configuredApplication(testingT *testing.T, values map[string]string) *ServerApplication {
	testingT.Helper()
	application := NewServerApplication()
	_, commandErr := application.Command()
	require.NoError(testingT, commandErr)
	for key, value := range values {
		application.serverLoader.Set(key, value)
	}
	return application
}

func TestLoadServerConfigResolvesMode(testingT *testing.T) {
	testCases := []struct {
		name         string
		values       map[string]string
		expectedMode store.Mode
		expectError  bool
	}{
		{name: "empty backend runs locally", values: map[string]string{}, expectedMode: store.ModeLocal},
		{name: "placeholder backend runs locally", values: map[string]string{environmentKeyBackendURL: "https://demo.supabase.co"}, expectedMode: store.ModeLocal},
		{name: "real backend runs remotely", values: map[string]string{environmentKeyBackendURL: "postgres://opensky@db/opensky"}, expectedMode: store.ModeRemote},
		{name: "explicit local override", values: map[string]string{environmentKeyBackendURL: "postgres://opensky@db/opensky", environmentKeyStoreMode: "local"}, expectedMode: store.ModeLocal},
		{name: "remote override without backend", values: map[string]string{environmentKeyStoreMode: "remote"}, expectError: true},
		{name: "unknown override", values: map[string]string{environmentKeyStoreMode: "hybrid"}, expectError: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(testingT *testing.T) {
			values := map[string]string{environmentKeySessionSecret: testSessionSecret, environmentKeyBackendURL: "", environmentKeyStoreMode: ""}
			for key, value := range testCase.values {
				values[key] = value
			}
			configuration, configErr := loadServerConfig(configuredApplication(testingT, values).serverLoader)
			if testCase.expectError {
				require.Error(testingT, configErr)
				return
			}
			require.NoError(testingT, configErr)
			require.Equal(testingT, testCase.expectedMode, configuration.Mode)
		})
	}
}

func TestLoadServerConfigDefaults(testingT *testing.T) {
	application := configuredApplication(testingT, map[string]string{
		environmentKeySessionSecret:     testSessionSecret,
		environmentKeyBackendURL:        "",
		environmentKeyStoreMode:         "",
		environmentKeyAdminEmail:        httpapi.DefaultAdminEmail,
		environmentKeyContactReadPolicy: "",
		environmentKeyRefreshInterval:   defaultRefreshInterval.String(),
		environmentKeyLocalCachePath:    defaultLocalCachePath,
		environmentKeyMediaEndpoint:     "",
	})
	configuration, configErr := loadServerConfig(application.serverLoader)
	require.NoError(testingT, configErr)
	require.Equal(testingT, httpapi.ContactReadPolicyAdmin, configuration.ContactReadPolicy)
	require.Equal(testingT, defaultRefreshInterval, configuration.RefreshInterval)
	require.Equal(testingT, defaultLocalCachePath, configuration.LocalCachePath)
	require.Equal(testingT, httpapi.DefaultAdminEmail, configuration.Credentials.Email)
	require.False(testingT, configuration.Media.Configured())
}

func TestLoadServerConfigRejectsInvalidValues(testingT *testing.T) {
	testCases := []struct {
		name   string
		values map[string]string
	}{
		{name: "missing session secret", values: map[string]string{environmentKeySessionSecret: ""}},
		{name: "unknown read policy", values: map[string]string{environmentKeySessionSecret: testSessionSecret, environmentKeyContactReadPolicy: "everyone"}},
		{name: "bad refresh interval", values: map[string]string{environmentKeySessionSecret: testSessionSecret, environmentKeyRefreshInterval: "often"}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(testingT *testing.T) {
			values := map[string]string{environmentKeyBackendURL: "", environmentKeyStoreMode: ""}
			for key, value := range testCase.values {
				values[key] = value
			}
			_, configErr := loadServerConfig(configuredApplication(testingT, values).serverLoader)
			require.Error(testingT, configErr)
		})
	}
}

func TestLoadServerConfigReadsPublicPolicyAndTracking(testingT *testing.T) {
	application := configuredApplication(testingT, map[string]string{
		environmentKeySessionSecret:     testSessionSecret,
		environmentKeyBackendURL:        "",
		environmentKeyStoreMode:         "",
		environmentKeyContactReadPolicy: "PUBLIC",
		environmentKeyAnalyticsID:       " G-TEST123 ",
		environmentKeyPixelID:           "998877",
		environmentKeyRefreshInterval:   "90s",
	})
	configuration, configErr := loadServerConfig(application.serverLoader)
	require.NoError(testingT, configErr)
	require.Equal(testingT, httpapi.ContactReadPolicyPublic, configuration.ContactReadPolicy)
	require.Equal(testingT, "G-TEST123", configuration.Tracking.AnalyticsMeasurementID)
	require.Equal(testingT, "998877", configuration.Tracking.PixelID)
	require.Equal(testingT, 90*time.Second, configuration.RefreshInterval)
}

func TestLoadWorkerConfigDefaultsConcurrency(testingT *testing.T) {
	application := NewServerApplication()
	_, commandErr := application.Command()
	require.NoError(testingT, commandErr)
	application.workerLoader.Set(environmentKeyRedisAddress, "127.0.0.1:6379")
	application.workerLoader.Set(environmentKeyWebhookURL, "https://hooks.example/contact")
	application.workerLoader.Set(environmentKeyWorkerConcurrency, "0")

	configuration, configErr := loadWorkerConfig(application.workerLoader)
	require.NoError(testingT, configErr)
	require.Equal(testingT, defaultWorkerConcurrency, configuration.Concurrency)
}
