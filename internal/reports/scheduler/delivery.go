package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookNotifier posts a JSON notice when a scheduled export is uploaded
type WebhookNotifier struct {
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	logger     *zap.Logger
}

// ExportNotification is the webhook payload
type ExportNotification struct {
	ScheduleID  string    `json:"schedule_id"`
	Schedule    string    `json:"schedule"`
	Kind        string    `json:"kind"`
	FileName    string    `json:"file_name"`
	FileKey     string    `json:"file_key"`
	DownloadURL string    `json:"download_url,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewWebhookNotifier creates a notifier. retries below one means a single attempt.
func NewWebhookNotifier(timeout time.Duration, retries int, logger *zap.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if retries < 1 {
		retries = 1
	}
	return &WebhookNotifier{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		backoff:    time.Second,
		logger:     logger,
	}
}

// Notify sends the notification, retrying on transport errors and non-2xx responses
func (n *WebhookNotifier) Notify(ctx context.Context, url string, notification *ExportNotification) error {
	if url == "" {
		return fmt.Errorf("webhook URL is required")
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	n.logger.Info("Sending webhook", zap.String("url", url))

	var lastErr error
	for attempt := 0; attempt < n.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.backoff * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			lastErr = err
			n.logger.Warn("Webhook request failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			n.logger.Info("Webhook delivered successfully",
				zap.String("url", url),
				zap.Int("status_code", resp.StatusCode))
			return nil
		}

		lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
		n.logger.Warn("Webhook returned non-success status",
			zap.Int("attempt", attempt+1),
			zap.Int("status_code", resp.StatusCode))
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", n.retries, lastErr)
}
