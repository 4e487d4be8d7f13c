package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/OpenSkyDrones/opensky/internal/httpapi"
	"github.com/OpenSkyDrones/opensky/internal/media"
	"github.com/OpenSkyDrones/opensky/internal/store"
)

const (
	missingConfigurationMessage   = "missing required configuration"
	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"

	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeyBackendURL         = "BACKEND_URL"
	environmentKeyStoreMode          = "STORE_MODE"
	environmentKeyLocalCachePath     = "LOCAL_CACHE_PATH"
	environmentKeyContentFile        = "CONTENT_FILE"
	environmentKeySessionSecret      = "SESSION_SECRET"
	environmentKeyAdminEmail         = "ADMIN_EMAIL"
	environmentKeyAdminPassword      = "ADMIN_PASSWORD"
	environmentKeyContactReadPolicy  = "CONTACT_READ_POLICY"
	environmentKeyAnalyticsID        = "ANALYTICS_MEASUREMENT_ID"
	environmentKeyPixelID            = "TRACKING_PIXEL_ID"
	environmentKeyRefreshInterval    = "REFRESH_INTERVAL"
	environmentKeyRedisAddress       = "REDIS_ADDR"
	environmentKeyRedisPassword      = "REDIS_PASSWORD"
	environmentKeyWebhookURL         = "NOTIFY_WEBHOOK_URL"
	environmentKeyWorkerConcurrency  = "WORKER_CONCURRENCY"
	environmentKeyMediaEndpoint      = "MEDIA_ENDPOINT"
	environmentKeyMediaAccessKey     = "MEDIA_ACCESS_KEY"
	environmentKeyMediaSecretKey     = "MEDIA_SECRET_KEY"
	environmentKeyMediaBucket        = "MEDIA_BUCKET"
	environmentKeyMediaUseSSL        = "MEDIA_USE_SSL"
	environmentKeyMediaPublicBaseURL = "MEDIA_PUBLIC_BASE_URL"

	flagNameApplicationAddress = "app-addr"
	flagNameBackendURL         = "backend-url"
	flagNameStoreMode          = "store-mode"
	flagNameLocalCachePath     = "local-cache-path"
	flagNameContentFile        = "content-file"
	flagNameSessionSecret      = "session-secret"
	flagNameAdminEmail         = "admin-email"
	flagNameAdminPassword      = "admin-password"
	flagNameContactReadPolicy  = "contact-read-policy"
	flagNameAnalyticsID        = "analytics-id"
	flagNamePixelID            = "pixel-id"
	flagNameRefreshInterval    = "refresh-interval"
	flagNameRedisAddress       = "redis-addr"
	flagNameRedisPassword      = "redis-password"
	flagNameWebhookURL         = "notify-webhook-url"
	flagNameWorkerConcurrency  = "worker-concurrency"
	flagNameMediaEndpoint      = "media-endpoint"
	flagNameMediaAccessKey     = "media-access-key"
	flagNameMediaSecretKey     = "media-secret-key"
	flagNameMediaBucket        = "media-bucket"
	flagNameMediaUseSSL        = "media-use-ssl"
	flagNameMediaPublicBaseURL = "media-public-base-url"

	defaultApplicationAddress = ":8080"
	defaultLocalCachePath     = "opensky-local.db"
	defaultRefreshInterval    = 5 * time.Minute
	defaultWorkerConcurrency  = 4
)

type stringFlag struct {
	name           string
	environmentKey string
	defaultValue   string
	usage          string
}

var serverStringFlags = []stringFlag{
	{name: flagNameApplicationAddress, environmentKey: environmentKeyApplicationAddress, defaultValue: defaultApplicationAddress, usage: "address for the HTTP server to listen on"},
	{name: flagNameBackendURL, environmentKey: environmentKeyBackendURL, usage: "PostgreSQL connection string; empty or placeholder values run the local demo mode"},
	{name: flagNameStoreMode, environmentKey: environmentKeyStoreMode, usage: "force the store mode (remote or local)"},
	{name: flagNameLocalCachePath, environmentKey: environmentKeyLocalCachePath, defaultValue: defaultLocalCachePath, usage: "SQLite file holding the local slots"},
	{name: flagNameContentFile, environmentKey: environmentKeyContentFile, usage: "YAML file replacing the embedded site content"},
	{name: flagNameSessionSecret, environmentKey: environmentKeySessionSecret, usage: "secret used to sign admin sessions and tokens"},
	{name: flagNameAdminEmail, environmentKey: environmentKeyAdminEmail, defaultValue: httpapi.DefaultAdminEmail, usage: "administrator login email"},
	{name: flagNameAdminPassword, environmentKey: environmentKeyAdminPassword, defaultValue: httpapi.DefaultAdminPassword, usage: "administrator login password"},
	{name: flagNameContactReadPolicy, environmentKey: environmentKeyContactReadPolicy, defaultValue: string(httpapi.ContactReadPolicyAdmin), usage: "who may list contacts through GET /api/contacts (admin or public)"},
	{name: flagNameAnalyticsID, environmentKey: environmentKeyAnalyticsID, usage: "analytics measurement id; empty omits the tag"},
	{name: flagNamePixelID, environmentKey: environmentKeyPixelID, usage: "tracking pixel id; empty omits the tag"},
	{name: flagNameRefreshInterval, environmentKey: environmentKeyRefreshInterval, defaultValue: defaultRefreshInterval.String(), usage: "interval between background catalog refreshes"},
	{name: flagNameRedisAddress, environmentKey: environmentKeyRedisAddress, usage: "Redis address of the notification queue; empty disables notifications"},
	{name: flagNameRedisPassword, environmentKey: environmentKeyRedisPassword, usage: "Redis password"},
	{name: flagNameMediaEndpoint, environmentKey: environmentKeyMediaEndpoint, usage: "S3-compatible endpoint for media uploads; empty disables uploads"},
	{name: flagNameMediaAccessKey, environmentKey: environmentKeyMediaAccessKey, usage: "media storage access key"},
	{name: flagNameMediaSecretKey, environmentKey: environmentKeyMediaSecretKey, usage: "media storage secret key"},
	{name: flagNameMediaBucket, environmentKey: environmentKeyMediaBucket, usage: "media storage bucket"},
	{name: flagNameMediaUseSSL, environmentKey: environmentKeyMediaUseSSL, defaultValue: "true", usage: "use TLS for the media endpoint"},
	{name: flagNameMediaPublicBaseURL, environmentKey: environmentKeyMediaPublicBaseURL, usage: "public URL prefix of uploaded media"},
}

var workerStringFlags = []stringFlag{
	{name: flagNameRedisAddress, environmentKey: environmentKeyRedisAddress, usage: "Redis address of the notification queue"},
	{name: flagNameRedisPassword, environmentKey: environmentKeyRedisPassword, usage: "Redis password"},
	{name: flagNameWebhookURL, environmentKey: environmentKeyWebhookURL, usage: "URL receiving contact notifications"},
	{name: flagNameWorkerConcurrency, environmentKey: environmentKeyWorkerConcurrency, defaultValue: fmt.Sprint(defaultWorkerConcurrency), usage: "number of notifications processed in parallel"},
}

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress string
	BackendURL         string
	Mode               store.Mode
	LocalCachePath     string
	ContentFile        string
	SessionSecret      string
	Credentials        httpapi.Credentials
	ContactReadPolicy  httpapi.ContactReadPolicy
	Tracking           httpapi.TrackingConfig
	RefreshInterval    time.Duration
	RedisAddress       string
	RedisPassword      string
	Media              media.Config
}

// WorkerConfig captures configuration needed to run the notification worker.
type WorkerConfig struct {
	RedisAddress  string
	RedisPassword string
	WebhookURL    string
	Concurrency   int
}

func registerStringFlags(loader *viper.Viper, flagSet *pflag.FlagSet, definitions []stringFlag) error {
	for _, definition := range definitions {
		loader.SetDefault(definition.environmentKey, definition.defaultValue)
		flagSet.String(definition.name, definition.defaultValue, definition.usage)
	}
	loader.AutomaticEnv()
	for _, definition := range definitions {
		if bindErr := bindFlag(loader, flagSet, definition.environmentKey, definition.name); bindErr != nil {
			return bindErr
		}
		if environmentErr := applyEnvironmentConfiguration(flagSet, definition.environmentKey, definition.name); environmentErr != nil {
			return environmentErr
		}
	}
	return nil
}

func bindFlag(loader *viper.Viper, flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}
	return loader.BindPFlag(environmentKey, flag)
}

func applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}
	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}
	return nil
}

func loadServerConfig(loader *viper.Viper) (ServerConfig, error) {
	readString := func(key string) string {
		return strings.TrimSpace(loader.GetString(key))
	}

	var missingParameters []string
	sessionSecret := readString(environmentKeySessionSecret)
	if sessionSecret == "" {
		missingParameters = append(missingParameters, flagNameSessionSecret)
	}
	if len(missingParameters) > 0 {
		return ServerConfig{}, fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
	}

	backendURL := readString(environmentKeyBackendURL)
	mode := store.ResolveMode(backendURL)
	if override := readString(environmentKeyStoreMode); override != "" {
		parsedMode, modeErr := store.ParseMode(override)
		if modeErr != nil {
			return ServerConfig{}, modeErr
		}
		mode = parsedMode
	}
	if mode == store.ModeRemote && backendURL == "" {
		return ServerConfig{}, fmt.Errorf("%s: %s", missingConfigurationMessage, flagNameBackendURL)
	}

	readPolicy, policyErr := httpapi.ParseContactReadPolicy(readString(environmentKeyContactReadPolicy))
	if policyErr != nil {
		return ServerConfig{}, policyErr
	}

	refreshInterval, intervalErr := time.ParseDuration(readString(environmentKeyRefreshInterval))
	if intervalErr != nil {
		return ServerConfig{}, fmt.Errorf("parse %s: %w", flagNameRefreshInterval, intervalErr)
	}

	return ServerConfig{
		ApplicationAddress: readString(environmentKeyApplicationAddress),
		BackendURL:         backendURL,
		Mode:               mode,
		LocalCachePath:     readString(environmentKeyLocalCachePath),
		ContentFile:        readString(environmentKeyContentFile),
		SessionSecret:      sessionSecret,
		Credentials: httpapi.Credentials{
			Email:    readString(environmentKeyAdminEmail),
			Password: readString(environmentKeyAdminPassword),
		},
		ContactReadPolicy: readPolicy,
		Tracking: httpapi.TrackingConfig{
			AnalyticsMeasurementID: readString(environmentKeyAnalyticsID),
			PixelID:                readString(environmentKeyPixelID),
		},
		RefreshInterval: refreshInterval,
		RedisAddress:    readString(environmentKeyRedisAddress),
		RedisPassword:   loader.GetString(environmentKeyRedisPassword),
		Media: media.Config{
			Endpoint:      readString(environmentKeyMediaEndpoint),
			AccessKey:     readString(environmentKeyMediaAccessKey),
			SecretKey:     loader.GetString(environmentKeyMediaSecretKey),
			Bucket:        readString(environmentKeyMediaBucket),
			UseSSL:        loader.GetBool(environmentKeyMediaUseSSL),
			PublicBaseURL: readString(environmentKeyMediaPublicBaseURL),
		},
	}, nil
}

func loadWorkerConfig(loader *viper.Viper) (WorkerConfig, error) {
	configuration := WorkerConfig{
		RedisAddress:  strings.TrimSpace(loader.GetString(environmentKeyRedisAddress)),
		RedisPassword: loader.GetString(environmentKeyRedisPassword),
		WebhookURL:    strings.TrimSpace(loader.GetString(environmentKeyWebhookURL)),
		Concurrency:   loader.GetInt(environmentKeyWorkerConcurrency),
	}

	var missingParameters []string
	if configuration.RedisAddress == "" {
		missingParameters = append(missingParameters, flagNameRedisAddress)
	}
	if configuration.WebhookURL == "" {
		missingParameters = append(missingParameters, flagNameWebhookURL)
	}
	if len(missingParameters) > 0 {
		return WorkerConfig{}, fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
	}
	if configuration.Concurrency <= 0 {
		configuration.Concurrency = defaultWorkerConcurrency
	}
	return configuration, nil
}
