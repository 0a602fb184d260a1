// Package notify signals the frontend to re-render stale pages via its
// revalidation webhook.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/calderaweb/pressroom/internal/config"
	"github.com/go-resty/resty/v2"
)

// WebhookNotifier POSTs invalidated paths to the frontend's revalidate
// endpoint, authenticated by a shared secret.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	secret string
}

func NewWebhookNotifier(cfg *config.Config) *WebhookNotifier {
	return &WebhookNotifier{
		client: resty.New().
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(1 * time.Second).
			SetRetryMaxWaitTime(5 * time.Second),
		url:    cfg.RevalidateURL,
		secret: cfg.RevalidateSecret,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n.url != ""
}

func (n *WebhookNotifier) Invalidate(ctx context.Context, paths ...string) error {
	if !n.Enabled() || len(paths) == 0 {
		return nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"secret": n.secret,
			"paths":  paths,
		}).
		Post(n.url)

	if err != nil {
		return fmt.Errorf("failed to call revalidate webhook: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("revalidate webhook returned status %d", resp.StatusCode())
	}
	return nil
}
