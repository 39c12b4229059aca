package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tubeharvest/internal/config"
)

const userAgent = "TubeHarvest-Go/0.1.0"

// Event names a notification type.
type Event string

const (
	EventRunStarted       Event = "run_started"
	EventChannelCompleted Event = "channel_completed"
	EventScanHalted       Event = "scan_halted"
	EventRunCompleted     Event = "run_completed"
	EventError            Event = "error"
	EventTest             Event = "test"
)

// Payload carries event fields. Values are formatted with fmt.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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
		enabled: map[Event]bool{
			EventRunStarted:       cfg.Notifications.Run,
			EventRunCompleted:     cfg.Notifications.Run,
			EventChannelCompleted: cfg.Notifications.Channel,
			EventScanHalted:       cfg.Notifications.Halts,
			EventError:            cfg.Notifications.Errors,
			EventTest:             true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRunStarted:
		return message{
			title: "TubeHarvest - Run Started",
			body:  fmt.Sprintf("Harvesting %d channel(s)", payload.count("channels")),
			tags:  []string{"tubeharvest", "run", "started"},
		}, true
	case EventChannelCompleted:
		body := fmt.Sprintf("📺 %s: %d new, %d failed", payload.text("channel"), payload.count("succeeded"), payload.count("failed"))
		if halt := payload.text("halt"); halt != "" {
			body += fmt.Sprintf(" (stopped: %s)", halt)
		}
		return message{
			title: "TubeHarvest - Channel Complete",
			body:  body,
			tags:  []string{"tubeharvest", "channel", "completed"},
		}, true
	case EventScanHalted:
		return message{
			title:    "TubeHarvest - Scan Halted",
			body:     fmt.Sprintf("⛔ %s halted: %s", payload.text("channel"), payload.text("reason")),
			tags:     []string{"tubeharvest", "halt", "warning"},
			priority: "high",
		}, true
	case EventRunCompleted:
		duration := payload.duration("duration")
		failed := payload.count("failed")
		title := "TubeHarvest - Run Complete"
		body := fmt.Sprintf("✅ %d video(s) harvested from %d channel(s) in %s", payload.count("succeeded"), payload.count("channels"), duration)
		if failed > 0 {
			title = "TubeHarvest - Run Complete (with errors)"
			body = fmt.Sprintf("%d succeeded, %d failed across %d channel(s) in %s", payload.count("succeeded"), failed, payload.count("channels"), duration)
		}
		return message{title: title, body: body, tags: []string{"tubeharvest", "run", "completed"}}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payload.text("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if text := payload.text("error"); text != "" {
			builder.WriteString(text)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "TubeHarvest - Error",
			body:     builder.String(),
			tags:     []string{"tubeharvest", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "TubeHarvest - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"tubeharvest", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (p Payload) text(key string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	if err, ok := value.(error); ok {
		return strings.TrimSpace(err.Error())
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (p Payload) count(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (p Payload) duration(key string) string {
	d, _ := p[key].(time.Duration)
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
