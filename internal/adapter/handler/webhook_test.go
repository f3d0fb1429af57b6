package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
	"github.com/EliranNovik/Leadify-sub026/internal/infrastructure/cache"
	"github.com/EliranNovik/Leadify-sub026/internal/usecase/pipeline"
	"github.com/EliranNovik/Leadify-sub026/pkg/config"
)

// stubNotificationRepo records what the dispatcher persists. Only the methods
// the dispatcher touches do real work.
type stubNotificationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*entities.Notification
}

func newStubNotificationRepo() *stubNotificationRepo {
	return &stubNotificationRepo{items: make(map[uuid.UUID]*entities.Notification)}
}

func (r *stubNotificationRepo) Create(_ context.Context, n *entities.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *stubNotificationRepo) ExistsInWindow(_ context.Context, dedupKey string, _ time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.DedupKey == dedupKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubNotificationRepo) Requeue(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		n.ProcessingState = entities.ProcessingStateQueued
	}
	return nil
}

func (r *stubNotificationRepo) FindByID(context.Context, uuid.UUID) (*entities.Notification, error) {
	return nil, nil
}
func (r *stubNotificationRepo) ClaimForProcessing(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}
func (r *stubNotificationRepo) MarkDone(context.Context, uuid.UUID, uuid.UUID, func(context.Context) error) error {
	return nil
}
func (r *stubNotificationRepo) MarkFailed(context.Context, uuid.UUID, entities.FailureReason, string) error {
	return nil
}
func (r *stubNotificationRepo) FindQueued(context.Context, int) ([]*entities.Notification, error) {
	return nil, nil
}
func (r *stubNotificationRepo) FindStuckProcessing(context.Context, time.Duration) ([]*entities.Notification, error) {
	return nil, nil
}
func (r *stubNotificationRepo) IncrementAttempts(context.Context, uuid.UUID) error { return nil }

func (r *stubNotificationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func newTestWebhook(t *testing.T) (*Webhook, *stubNotificationRepo, chan uuid.UUID) {
	t.Helper()
	repo := newStubNotificationRepo()
	queue := make(chan uuid.UUID, 8)
	cfg := &config.PipelineConfig{QueueSize: 8, DedupWindow: 30 * time.Minute}
	d := pipeline.NewDispatcher(repo, cache.NewMemoryCoordinator(), queue, cfg, zap.NewNop())
	return NewWebhook(d, "expected-secret", zap.NewNop()), repo, queue
}

func doRequest(h *Webhook, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h.Handle(c)
	return rec
}

func TestHandshakeEchoesTokenVerbatim(t *testing.T) {
	h, _, _ := newTestWebhook(t)

	rec := doRequest(h, http.MethodPost, "/v1/webhooks/graph?validationToken=tok-abc%20123", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "tok-abc 123", rec.Body.String())
	require.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/plain")
}

func TestHandshakeEchoesEmptyToken(t *testing.T) {
	h, repo, _ := newTestWebhook(t)

	rec := doRequest(h, http.MethodGet, "/v1/webhooks/graph?validationToken=", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "", rec.Body.String())
	require.Equal(t, 0, repo.count(), "handshake must not create notifications")
}

func TestHandshakeTokenInBody(t *testing.T) {
	h, repo, _ := newTestWebhook(t)

	rec := doRequest(h, http.MethodPost, "/v1/webhooks/graph", `{"validationToken": "body-tok"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body-tok", rec.Body.String())
	require.Equal(t, 0, repo.count())
}

func TestBatchWithValidClientStateIsAccepted(t *testing.T) {
	h, repo, queue := newTestWebhook(t)

	body := `{"value": [{
		"subscriptionId": "sub-1",
		"changeType": "created",
		"resource": "communications/callRecords/cr-1",
		"clientState": "expected-secret",
		"resourceData": {"id": "cr-1"}
	}]}`

	rec := doRequest(h, http.MethodPost, "/v1/webhooks/graph", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success": true}`, rec.Body.String())
	require.Equal(t, 1, repo.count())
	require.Len(t, queue, 1)
}

func TestMismatchedClientStateNeverReachesQueue(t *testing.T) {
	h, repo, queue := newTestWebhook(t)

	body := `{"value": [{
		"subscriptionId": "sub-1",
		"changeType": "created",
		"resource": "communications/callRecords/cr-1",
		"clientState": "forged",
		"resourceData": {"id": "cr-1"}
	}]}`

	rec := doRequest(h, http.MethodPost, "/v1/webhooks/graph", body)

	// Graph still gets a 2xx; the item itself is dropped.
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, repo.count())
	require.Len(t, queue, 0)
}

func TestMixedBatchDropsOnlyInvalidItems(t *testing.T) {
	h, repo, queue := newTestWebhook(t)

	body := `{"value": [
		{"subscriptionId": "sub-1", "changeType": "created", "resource": "communications/callRecords/cr-1", "clientState": "expected-secret", "resourceData": {"id": "cr-1"}},
		{"subscriptionId": "sub-1", "changeType": "created", "resource": "communications/callRecords/cr-2", "clientState": "forged", "resourceData": {"id": "cr-2"}}
	]}`

	rec := doRequest(h, http.MethodPost, "/v1/webhooks/graph", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, repo.count())
	require.Len(t, queue, 1)
}

func TestMalformedPayloadAnswersServerError(t *testing.T) {
	h, repo, _ := newTestWebhook(t)

	rec := doRequest(h, http.MethodPost, "/v1/webhooks/graph", "{not json")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 0, repo.count())
}
