package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// WebhookNotifier posts ticket events as JSON to an external endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	if url == "" {
		panic("missing webhook url")
	}

	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (w *WebhookNotifier) Post(ctx context.Context, event string, data any) error {
	body, err := json.Marshal(webhookPayload{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("could not marshal %s webhook: %w", event, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not post %s webhook: %w", event, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status code for POST %s: %d", w.url, resp.StatusCode)
	}

	return nil
}
