package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lithammer/shortuuid/v3"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Hrei2/ticket-system/app"
	"github.com/Hrei2/ticket-system/config"
	"github.com/Hrei2/ticket-system/db"
	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/gateway"
	ticketsHTTP "github.com/Hrei2/ticket-system/http"
	"github.com/Hrei2/ticket-system/pubsub"
)

const (
	httpAddress = ":8080"
	baseURL     = "http://localhost:8080"
	jwtSecret   = "component-test-secret"
)

var (
	seller  = entity.Actor{ID: "seller-1", Role: entity.RoleSeller}
	scanner = entity.Actor{ID: "scanner-1", Role: entity.RoleScanner}
	admin   = entity.Actor{ID: "admin-1", Role: entity.RoleAdmin}
)

func TestComponent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("github.com/testcontainers/testcontainers-go.(*Reaper).Connect.func1"))
	defer http.DefaultClient.CloseIdleConnections()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbconn, err := db.Open(postgresURL)
	require.NoError(t, err)
	defer dbconn.Close()

	redisClient := pubsub.NewRedisClient(redisURL)
	defer redisClient.Close()

	mailer := &gateway.MailerMock{}
	webhook := &gateway.WebhookMock{}

	cfg := config.Config{
		HTTPAddr:             httpAddress,
		PostgresURL:          postgresURL,
		RedisAddr:            redisURL,
		SequenceBackend:      config.BackendRedis,
		NotifyTransport:      config.BackendRedis,
		StoreTimeout:         5 * time.Second,
		JWTSecret:            jwtSecret,
		StatsRefreshInterval: time.Second,
		LogLevel:             "info",
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		assert.NoError(t, app.New(cfg, dbconn, redisClient, mailer, webhook, nil).Run(ctx))
	}()
	defer func() {
		cancel()
		<-finished
	}()

	waitForHttpServer(t)

	configureEvent(t)

	email := "buyer-" + shortuuid.New() + "@example.com"
	ticket := createTicket(t, email)
	assert.Regexp(t, `^TKT-\d{4}-\d{5,}$`, ticket.TicketNumber)

	assertTicketSentTo(t, mailer, email, ticket.TicketNumber)
	assertWebhookPosted(t, webhook, "ticket.issued")

	assertOnlyOneScanWins(t, ticket.TicketNumber)

	newOwner := "owner-" + shortuuid.New() + "@example.com"
	resp := send(t, admin, http.MethodPut, "/admin/tickets/"+ticket.TicketNumber, map[string]string{"owner_email": newOwner})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assertTicketSentTo(t, mailer, newOwner, ticket.TicketNumber)

	assertHistory(t, ticket.TicketNumber, entity.ActionCreated, entity.ActionScanned, entity.ActionUpdated)

	resp = send(t, admin, http.MethodDelete, "/admin/tickets/"+ticket.TicketNumber, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = send(t, scanner, http.MethodPost, "/scanner/scan/"+ticket.TicketNumber, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func configureEvent(t *testing.T) {
	t.Helper()

	resp := send(t, admin, http.MethodPut, "/settings", json.RawMessage(`{
		"eventDate": "2025-06-10",
		"ageColorRanges": {"0-15": "#FF6B6B", "16-17": "#FFA500", "18+": "#4CAF50"},
		"allowedClasses": ["VIP", "standard"]
	}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func createTicket(t *testing.T, email string) entity.Ticket {
	t.Helper()

	resp := send(t, seller, http.MethodPost, "/tickets", map[string]string{
		"email":     email,
		"name":      "Jan",
		"surname":   "Kowalski",
		"birthdate": "040609",
		"class":     "VIP",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Ticket entity.Ticket `json:"ticket"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Ticket
}

func assertOnlyOneScanWins(t *testing.T, ticketNumber string) {
	t.Helper()

	const scanners = 10

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses []int
	)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := send(t, scanner, http.MethodPost, "/scanner/scan/"+ticketNumber, nil)

			mu.Lock()
			defer mu.Unlock()
			statuses = append(statuses, resp.StatusCode)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, lo.Count(statuses, http.StatusOK), "statuses: %v", statuses)
	assert.Equal(t, scanners-1, lo.Count(statuses, http.StatusConflict), "statuses: %v", statuses)
}

func assertTicketSentTo(t *testing.T, mailer *gateway.MailerMock, recipient, ticketNumber string) {
	t.Helper()

	assert.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			sent := mailer.SentTo(recipient)
			if !assert.NotEmpty(t, sent, "no ticket sent to %s", recipient) {
				return
			}
			assert.Equal(t, ticketNumber, sent[0].TicketNumber)
		},
		10*time.Second,
		100*time.Millisecond,
	)
}

func assertWebhookPosted(t *testing.T, webhook *gateway.WebhookMock, event string) {
	t.Helper()

	assert.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			assert.Contains(t, webhook.Events(), event)
		},
		10*time.Second,
		100*time.Millisecond,
	)
}

func assertHistory(t *testing.T, ticketNumber string, actions ...entity.HistoryAction) {
	t.Helper()

	resp := send(t, admin, http.MethodGet, "/admin/tickets/"+ticketNumber+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []entity.HistoryEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))

	got := lo.Map(entries, func(e entity.HistoryEntry, _ int) entity.HistoryAction {
		return e.Action
	})
	// newest first
	assert.Equal(t, lo.Reverse(actions), got)
}

func send(t *testing.T, actor entity.Actor, method, path string, body any) *http.Response {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(payload))
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, ticketsHTTP.ActorClaims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Correlation-ID", shortuuid.New())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(baseURL + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode)
		},
		time.Second*10,
		time.Millisecond*50,
	)
}
