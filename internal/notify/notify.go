package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/timer"
)

const userAgent = "Gustalya/0.1.0"

// Log writes one line per completed timer.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Log{logger: logger}
}

func (l *Log) TimerCompleted(_ context.Context, t domain.Timer) error {
	l.logger.Info("timer finished",
		slog.String("timer_id", t.ID),
		slog.String("label", t.Label),
		slog.String("category", t.Category),
		slog.Int("total_sec", t.TotalSec),
	)
	return nil
}

// Ntfy posts a push message to an ntfy topic URL.
type Ntfy struct {
	endpoint string
	client   *http.Client
}

// NewNtfy returns nil when topic is empty so callers can skip it.
func NewNtfy(topic string, timeout time.Duration) *Ntfy {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Ntfy{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

func (n *Ntfy) TimerCompleted(ctx context.Context, t domain.Timer) error {
	if n == nil || n.client == nil {
		return nil
	}

	label := t.Label
	if label == "" {
		label = "Minuteur"
	}
	message := fmt.Sprintf("⏰ %s terminé (%s)", label, domain.FormatDuration(t.TotalSec))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", "Gustalya - Minuteur")
	req.Header.Set("Tags", strings.Join([]string{"gustalya", "timer", t.Category}, ","))
	req.Header.Set("Priority", "high")

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

// Multi calls every notifier and joins their errors.
type Multi []timer.Notifier

func (m Multi) TimerCompleted(ctx context.Context, t domain.Timer) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.TimerCompleted(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
