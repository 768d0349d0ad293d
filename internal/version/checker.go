package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marquee/internal/services"
)

const defaultCheckTimeout = 15 * time.Second

// Checker queries a releases endpoint for the newest published tag.
type Checker struct {
	releasesURL string
	current     string
	client      *http.Client
}

// CheckerOption customizes a Checker.
type CheckerOption func(*Checker)

// WithHTTPClient overrides the HTTP client used for release lookups.
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// NewChecker builds a release checker against the given releases URL.
func NewChecker(releasesURL string, opts ...CheckerOption) *Checker {
	checker := &Checker{
		releasesURL: strings.TrimSpace(releasesURL),
		current:     Version,
		client:      &http.Client{Timeout: defaultCheckTimeout},
	}
	for _, opt := range opts {
		opt(checker)
	}
	return checker
}

// Result describes the outcome of a release check.
type Result struct {
	Current string
	Latest  string
	Newer   bool
}

type releaseResponse struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
}

// Check fetches the latest release tag and compares it to the build version.
// Development builds never report an available update.
func (c *Checker) Check(ctx context.Context) (Result, error) {
	result := Result{Current: c.current}
	if c.releasesURL == "" {
		return result, services.Wrap(services.ErrConfiguration, "version", "check", "releases URL is not configured", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.releasesURL, nil)
	if err != nil {
		return result, services.Wrap(services.ErrExternalAPI, "version", "check", "build release request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Marquee/"+c.current)

	resp, err := c.client.Do(req)
	if err != nil {
		return result, services.Wrap(services.ErrExternalAPI, "version", "check", "fetch latest release", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return result, services.Wrap(services.ErrExternalAPI, "version", "check",
			fmt.Sprintf("releases endpoint returned status %d", resp.StatusCode), nil)
	}

	var release releaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return result, services.Wrap(services.ErrExternalAPI, "version", "check", "decode release response", err)
	}

	latest := strings.TrimSpace(release.TagName)
	if latest == "" {
		latest = strings.TrimSpace(release.Name)
	}
	if latest == "" {
		return result, services.Wrap(services.ErrExternalAPI, "version", "check", "release response carries no tag", nil)
	}

	result.Latest = latest
	result.Newer = IsNewer(c.current, latest)
	return result, nil
}

// IsNewer reports whether latest is a strictly newer release tag than
// current. Non-release builds such as "dev" are never considered outdated.
func IsNewer(current, latest string) bool {
	currentParts, ok := parseTag(current)
	if !ok {
		return false
	}
	latestParts, ok := parseTag(latest)
	if !ok {
		return false
	}
	for i := range 3 {
		if latestParts[i] != currentParts[i] {
			return latestParts[i] > currentParts[i]
		}
	}
	return false
}

func parseTag(tag string) ([3]int, bool) {
	var parts [3]int
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "v")
	if tag == "" {
		return parts, false
	}
	if idx := strings.IndexAny(tag, "-+"); idx >= 0 {
		tag = tag[:idx]
	}
	fields := strings.Split(tag, ".")
	if len(fields) == 0 || len(fields) > 3 {
		return parts, false
	}
	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil || value < 0 {
			return parts, false
		}
		parts[i] = value
	}
	return parts, true
}
