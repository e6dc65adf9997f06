package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hrei2/ticket-system/entity"
)

func testTicket() entity.Ticket {
	return entity.Ticket{
		TicketNumber: "TKT-2025-00001",
		Email:        "jan@example.com",
		Name:         "Jan",
		Surname:      "Kowalski",
		Birthdate:    "040609",
		Class:        "VIP",
		OwnerEmail:   "jan@example.com",
	}
}

func TestTicketQRCode(t *testing.T) {
	data, err := TicketQRCode("TKT-2025-00001", 128)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())
}

func TestNewTicketMessage(t *testing.T) {
	msg, err := newTicketMessage("tickets@example.com", "new-owner@example.com", testTicket())
	require.NoError(t, err)

	assert.Equal(t, []string{"new-owner@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Your ticket TKT-2025-00001"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, `filename="ticket-TKT-2025-00001.png"`)
	assert.Contains(t, raw, "Hello Jan Kowalski")
	assert.Contains(t, raw, "class VIP")
}

func TestWebhookNotifier_Post(t *testing.T) {
	type received struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}

	var (
		got           received
		correlationID string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID = r.Header.Get("Correlation-ID")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	ctx := log.ContextWithCorrelationID(context.Background(), "correlation-1")

	err := NewWebhookNotifier(server.URL).Post(ctx, "ticket_issued", testTicket())
	require.NoError(t, err)

	assert.Equal(t, "ticket_issued", got.Event)
	assert.Contains(t, string(got.Data), `"ticket_number":"TKT-2025-00001"`)
	assert.Equal(t, "correlation-1", correlationID)
}

func TestWebhookNotifier_Post_error_status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewWebhookNotifier(server.URL).Post(context.Background(), "ticket_issued", testTicket())
	assert.ErrorContains(t, err, "502")
}
