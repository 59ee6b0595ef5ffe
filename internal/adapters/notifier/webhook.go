package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Default webhook transport configuration constants.
const (
	defaultTimeout    = 5 * time.Second
	defaultRetryCount = 1
)

// WebhookOption applies a configuration option to the WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) WebhookOption {
	return func(n *WebhookNotifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithRetryCount sets transport-level retries. These are HTTP
// retries within one Send; the 5-minute alert retry policy stays
// with the notification controller.
func WithRetryCount(count int) WebhookOption {
	return func(n *WebhookNotifier) {
		if count >= 0 {
			n.retryCount = count
		}
	}
}

// WebhookNotifier POSTs alerts as JSON to a notification gateway.
type WebhookNotifier struct {
	url        string
	timeout    time.Duration
	retryCount int
	client     *resty.Client
}

// NewWebhookNotifier creates a webhook notifier for the given URL.
func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	n := &WebhookNotifier{
		url:        url,
		timeout:    defaultTimeout,
		retryCount: defaultRetryCount,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.client = resty.New().
		SetTimeout(n.timeout).
		SetRetryCount(n.retryCount)
	return n
}

// Send delivers the alert. Any non-2xx response counts as a failed
// delivery so the caller leaves the event unrecorded and the policy
// retries later.
func (n *WebhookNotifier) Send(ctx context.Context, a Alert) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(a).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: gateway returned %s", ErrSendFailed, resp.Status())
	}
	return nil
}
