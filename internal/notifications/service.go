package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gavel/internal/config"
)

const userAgent = "Gavel/0.1.0"

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyRunStarted(ctx context.Context, target string) error
	NotifyRunCompleted(ctx context.Context, target string, overall *float64, incomplete bool, duration time.Duration) error
	NotifyRunFailed(ctx context.Context, target string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no topic is configured, a noop implementation is returned.
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
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		runStarted:   cfg.Notifications.RunStarted,
		runCompleted: cfg.Notifications.RunCompleted,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	runStarted   bool
	runCompleted bool
	errors       bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, target string) error {
	if !n.runStarted {
		return nil
	}
	data := payload{
		title:   "Gavel - Run Started",
		message: fmt.Sprintf("Auditing %s", strings.TrimSpace(target)),
		tags:    []string{"gavel", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, target string, overall *float64, incomplete bool, duration time.Duration) error {
	if !n.runCompleted {
		return nil
	}

	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	scoreText := "unscored"
	if overall != nil {
		scoreText = fmt.Sprintf("%.2f", *overall)
	}

	title := "Gavel - Run Complete"
	message := fmt.Sprintf("Audit of %s finished in %s. Overall score: %s", strings.TrimSpace(target), duration, scoreText)
	if incomplete {
		title = "Gavel - Run Complete (incomplete)"
		message += ". Some evidence sources were unavailable; see the report degradation notes"
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"gavel", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, target string, err error) error {
	if !n.errors {
		return nil
	}

	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Gavel - Run Failed",
		message:  fmt.Sprintf("Audit of %s failed: %s", strings.TrimSpace(target), reason),
		tags:     []string{"gavel", "run", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Gavel - Test",
		message:  "Notification system test",
		tags:     []string{"gavel", "test"},
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

func (noopService) NotifyRunStarted(context.Context, string) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, string, *float64, bool, time.Duration) error {
	return nil
}
func (noopService) NotifyRunFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
