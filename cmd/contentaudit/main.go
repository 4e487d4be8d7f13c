package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/OpenSkyDrones/opensky/internal/content"
	"github.com/OpenSkyDrones/opensky/internal/httpapi"
	"github.com/OpenSkyDrones/opensky/internal/store"
)

var localURLPattern = regexp.MustCompile(`https?://(?:localhost|127\.0\.0\.1)(?::[0-9]{2,5})?`)

type auditOptions struct {
	contentPath  string
	envPath      string
	templateRoot string
}

type auditResult struct {
	errors   []string
	warnings []string
}

func (result *auditResult) addError(message string, arguments ...any) {
	result.errors = append(result.errors, fmt.Sprintf(message, arguments...))
}

func (result *auditResult) addWarning(message string, arguments ...any) {
	result.warnings = append(result.warnings, fmt.Sprintf(message, arguments...))
}

func (result auditResult) ok() bool {
	return len(result.errors) == 0
}

func main() {
	var options auditOptions
	flag.StringVar(&options.contentPath, "content", "", "site content YAML; empty audits the embedded document")
	flag.StringVar(&options.envPath, "env-file", ".env", "environment file of the server")
	flag.StringVar(&options.templateRoot, "templates", filepath.Join("internal", "httpapi", "templates"), "template directory scanned for local URLs")
	flag.Parse()

	result := runAudit(options)
	sort.Strings(result.errors)
	sort.Strings(result.warnings)

	for _, warning := range result.warnings {
		_, _ = fmt.Fprintf(os.Stdout, "WARN: %s\n", warning)
	}
	for _, errorMessage := range result.errors {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %s\n", errorMessage)
	}
	if !result.ok() {
		_, _ = fmt.Fprintf(os.Stderr, "content-audit failed\n")
		os.Exit(1)
	}
	_, _ = fmt.Fprintf(os.Stdout, "content-audit OK\n")
}

func runAudit(options auditOptions) auditResult {
	var result auditResult
	auditContent(options.contentPath, &result)
	auditEnvironment(options.envPath, &result)
	auditTemplates(options.templateRoot, &result)
	return result
}

func auditContent(path string, result *auditResult) {
	document := content.Default()
	if path != "" {
		payload, readErr := os.ReadFile(path)
		if readErr != nil {
			result.addError("read content file %s: %v", path, readErr)
			return
		}
		loaded, loadErr := content.Load(payload, time.Now())
		if loadErr != nil {
			result.addError("parse content file %s: %v", path, loadErr)
			return
		}
		document = loaded
	}

	for _, issue := range content.Audit(document) {
		result.addError("content: %s", issue)
	}
	if strings.TrimSpace(document.Hero.Title) == "" {
		result.addError("content: hero title is empty")
	}
	if document.Site.WhatsAppURL() == "" {
		result.addWarning("content: no WhatsApp number, the floating link is hidden")
	}

	checkDuplicateIDs("services", collectIDs(len(document.Seeds.Services), func(index int) string { return document.Seeds.Services[index].ID }), result)
	checkDuplicateIDs("portfolio", collectIDs(len(document.Seeds.Portfolio), func(index int) string { return document.Seeds.Portfolio[index].ID }), result)
	checkDuplicateIDs("testimonials", collectIDs(len(document.Seeds.Testimonials), func(index int) string { return document.Seeds.Testimonials[index].ID }), result)
	checkDuplicateIDs("contacts", collectIDs(len(document.Seeds.Contacts), func(index int) string { return document.Seeds.Contacts[index].ID }), result)
}

func collectIDs(count int, idAt func(int) string) []string {
	identifiers := make([]string, 0, count)
	for index := 0; index < count; index++ {
		identifiers = append(identifiers, idAt(index))
	}
	return identifiers
}

func checkDuplicateIDs(collection string, identifiers []string, result *auditResult) {
	seen := make(map[string]struct{}, len(identifiers))
	for _, identifier := range identifiers {
		if strings.TrimSpace(identifier) == "" {
			result.addError("content: %s seed without id", collection)
			continue
		}
		if _, duplicate := seen[identifier]; duplicate {
			result.addError("content: %s id %s is used more than once", collection, identifier)
		}
		seen[identifier] = struct{}{}
	}
}

func auditEnvironment(path string, result *auditResult) {
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			result.addWarning("env file %s not found, defaults apply", path)
			return
		}
		result.addError("stat env file %s: %v", path, statErr)
		return
	}
	values, readErr := godotenv.Read(path)
	if readErr != nil {
		result.addError("parse env file %s: %v", path, readErr)
		return
	}
	lookup := func(key string) string {
		return strings.TrimSpace(values[key])
	}

	if lookup("SESSION_SECRET") == "" {
		result.addError("env: SESSION_SECRET is missing or empty")
	}
	if password := lookup("ADMIN_PASSWORD"); password == "" || password == httpapi.DefaultAdminPassword {
		result.addWarning("env: ADMIN_PASSWORD uses the built-in default")
	}
	if store.ResolveMode(lookup("BACKEND_URL")) == store.ModeLocal && lookup("STORE_MODE") != string(store.ModeRemote) {
		result.addWarning("env: BACKEND_URL is empty or a placeholder, the site runs in demo mode")
	}
	if _, policyErr := httpapi.ParseContactReadPolicy(lookup("CONTACT_READ_POLICY")); policyErr != nil {
		result.addError("env: %v", policyErr)
	}
	if lookup("MEDIA_ENDPOINT") != "" && lookup("MEDIA_BUCKET") == "" {
		result.addError("env: MEDIA_ENDPOINT is set but MEDIA_BUCKET is empty")
	}
	if lookup("REDIS_ADDR") != "" && lookup("NOTIFY_WEBHOOK_URL") == "" {
		result.addWarning("env: REDIS_ADDR is set but NOTIFY_WEBHOOK_URL is empty, queued notifications are never delivered")
	}
	if interval := lookup("REFRESH_INTERVAL"); interval != "" {
		if _, parseErr := time.ParseDuration(interval); parseErr != nil {
			result.addError("env: REFRESH_INTERVAL %q is not a duration", interval)
		}
	}
}

func auditTemplates(root string, result *auditResult) {
	info, statErr := os.Stat(root)
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return
		}
		result.addError("template scan: stat %s: %v", root, statErr)
		return
	}
	if !info.IsDir() {
		return
	}
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".tmpl", ".html", ".js", ".css":
		default:
			return nil
		}
		return scanTemplateFile(path, result)
	})
	if walkErr != nil {
		result.addError("template scan: %v", walkErr)
	}
}

func scanTemplateFile(path string, result *auditResult) error {
	file, openErr := os.Open(path)
	if openErr != nil {
		return openErr
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		for _, match := range localURLPattern.FindAllString(scanner.Text(), -1) {
			result.addError("template scan: %s:%d references %s", path, lineNumber, match)
		}
	}
	return scanner.Err()
}
