package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marquee/internal/config"
	"marquee/internal/version"
)

var userAgent = "Marquee/" + version.Version

// Service defines the notification surface exposed to the daemon and the
// recommendation coordinator.
type Service interface {
	NotifyRecommendationUpdated(ctx context.Context, team, name, tagline string) error
	NotifyRunFailed(ctx context.Context, message string) error
	NotifyVersionAvailable(ctx context.Context, current, latest string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRecommendationUpdated(ctx context.Context, team, name, tagline string) error {
	team = strings.TrimSpace(team)
	name = strings.TrimSpace(name)
	message := fmt.Sprintf("🍽️ %s: %s", team, name)
	if tagline = strings.TrimSpace(tagline); tagline != "" {
		message = fmt.Sprintf("%s\n%s", message, tagline)
	}
	data := payload{
		title:   "Marquee - Recommendation Updated",
		message: message,
		tags:    []string{"marquee", "recommendation", "updated"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown"
	}
	data := payload{
		title:    "Marquee - Run Failed",
		message:  fmt.Sprintf("❌ Recommendation run failed: %s", message),
		tags:     []string{"marquee", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVersionAvailable(ctx context.Context, current, latest string) error {
	data := payload{
		title:   "Marquee - Update Available",
		message: fmt.Sprintf("New release %s available (running %s)", latest, current),
		tags:    []string{"marquee", "version", "update"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Marquee - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"marquee", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRecommendationUpdated(context.Context, string, string, string) error {
	return nil
}
func (noopService) NotifyRunFailed(context.Context, string) error                { return nil }
func (noopService) NotifyVersionAvailable(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
