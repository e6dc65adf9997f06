package gateway

import (
	"context"
	"sync"
)

type PostedWebhook struct {
	Event string
	Data  any
}

type WebhookMock struct {
	mock sync.Mutex

	Posted []PostedWebhook
}

func (w *WebhookMock) Post(ctx context.Context, event string, data any) error {
	w.mock.Lock()
	defer w.mock.Unlock()

	w.Posted = append(w.Posted, PostedWebhook{Event: event, Data: data})
	return nil
}

func (w *WebhookMock) Events() []string {
	w.mock.Lock()
	defer w.mock.Unlock()

	events := make([]string, 0, len(w.Posted))
	for _, p := range w.Posted {
		events = append(events, p.Event)
	}
	return events
}
