package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/content"
	"github.com/OpenSkyDrones/opensky/internal/httpapi"
)

const (
	defaultOutputDirectory = "public"
	landingOutputName      = "index.html"
	contactsAPIPath        = "/api/contacts"
)

type exportOptions struct {
	envFilePath string
	contentPath string
	outputDir   string
	apiBaseURL  string
}

// exportSettings are the values the export reads from the env file, overridden by flags.
type exportSettings struct {
	tracking        httpapi.TrackingConfig
	contactEndpoint string
}

func readEnvironment(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	values, readErr := godotenv.Read(path)
	if readErr != nil {
		if errors.Is(readErr, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, readErr
	}
	return values, nil
}

func resolveSettings(options exportOptions, environment map[string]string) exportSettings {
	apiBaseURL := strings.TrimSpace(options.apiBaseURL)
	if apiBaseURL == "" {
		apiBaseURL = strings.TrimSpace(environment["API_BASE_URL"])
	}
	contactEndpoint := contactsAPIPath
	if apiBaseURL != "" {
		contactEndpoint = strings.TrimRight(apiBaseURL, "/") + contactsAPIPath
	}
	return exportSettings{
		tracking: httpapi.TrackingConfig{
			AnalyticsMeasurementID: strings.TrimSpace(environment["ANALYTICS_MEASUREMENT_ID"]),
			PixelID:                strings.TrimSpace(environment["TRACKING_PIXEL_ID"]),
		},
		contactEndpoint: contactEndpoint,
	}
}

func loadDocument(path string) (content.Content, error) {
	if path == "" {
		return content.Default(), nil
	}
	payload, readErr := os.ReadFile(path)
	if readErr != nil {
		return content.Content{}, readErr
	}
	return content.Load(payload, time.Now())
}

func runExport(ctx context.Context, options exportOptions) (string, error) {
	environment, environmentErr := readEnvironment(options.envFilePath)
	if environmentErr != nil {
		return "", fmt.Errorf("read %s: %w", options.envFilePath, environmentErr)
	}
	document, documentErr := loadDocument(options.contentPath)
	if documentErr != nil {
		return "", fmt.Errorf("load content: %w", documentErr)
	}
	settings := resolveSettings(options, environment)

	renderer, rendererErr := httpapi.NewTemplateRenderer()
	if rendererErr != nil {
		return "", rendererErr
	}
	landing := httpapi.NewLandingPageHandlers(zap.NewNop(), renderer, httpapi.NewStaticSiteCatalog(document.Seeds), document, settings.tracking).
		WithContactEndpoint(settings.contactEndpoint)

	page, renderErr := landing.Render(ctx)
	if renderErr != nil {
		return "", fmt.Errorf("render landing page: %w", renderErr)
	}
	page = bytes.ReplaceAll(page, []byte("\r\n"), []byte("\n"))

	outputPath := filepath.Join(options.outputDir, landingOutputName)
	if writeErr := writeFile(outputPath, page); writeErr != nil {
		return "", writeErr
	}
	return outputPath, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func main() {
	var options exportOptions
	flag.StringVar(&options.envFilePath, "env-file", ".env", "env file providing tracking ids and API_BASE_URL")
	flag.StringVar(&options.contentPath, "content", "", "site content YAML; empty exports the embedded document")
	flag.StringVar(&options.outputDir, "out", defaultOutputDirectory, "directory to write the static site into")
	flag.StringVar(&options.apiBaseURL, "api-base-url", "", "origin of the server receiving the contact form")
	flag.Parse()

	outputPath, exportErr := runExport(context.Background(), options)
	if exportErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "static export failed: %v\n", exportErr)
		os.Exit(1)
	}
	_, _ = fmt.Fprintf(os.Stdout, "wrote %s\n", outputPath)
}
