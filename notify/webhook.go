package notify

import (
	"context"
	nethttp "net/http"

	"github.com/randalmurphal/scrumsim/http"
)

// WebhookSource is the source field of every webhook payload.
const WebhookSource = "scrumsim"

// WebhookPayload is the JSON body posted by WebhookNotifier.
type WebhookPayload struct {
	Source string `json:"source"`
	Event  Event  `json:"event"`
}

// WebhookNotifier posts events as JSON to an HTTP endpoint, retrying
// rate limits and server errors.
type WebhookNotifier struct {
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier. headers are added to every
// request, typically for authorization.
func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{client: http.NewClient(http.ClientConfig{
		BaseURL:     url,
		ServiceName: "webhook",
		Authorize: func(req *nethttp.Request) error {
			for k, v := range headers {
				req.Header.Set(k, v)
			}
			return nil
		},
	})}
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	return n.client.PostJSON(ctx, "", WebhookPayload{Source: WebhookSource, Event: event}, nil)
}
