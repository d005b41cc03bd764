package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/internal/models"
	"github.com/itxrex07/insta-sub000/internal/service"
)

type stubBridge struct {
	forwardErr error
	receiveErr error
	forwarded  []*models.Message
	received   []*models.Message
}

func (b *stubBridge) Forward(_ context.Context, msg *models.Message) error {
	if b.forwardErr != nil {
		return b.forwardErr
	}
	b.forwarded = append(b.forwarded, msg)
	return nil
}

func (b *stubBridge) Receive(_ context.Context, msg *models.Message) error {
	if b.receiveErr != nil {
		return b.receiveErr
	}
	b.received = append(b.received, msg)
	return nil
}

func (b *stubBridge) WarmCache(_ context.Context) error { return nil }

func newTestServer(bridge *stubBridge) *Server {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	cfg := &models.Config{}
	return NewServer(cfg, bridge, service.NewMetrics(), logger)
}

func postJSON(t *testing.T, handler http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(&stubBridge{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&stubBridge{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var snap map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Contains(t, snap, "uptime_seconds")
}

func TestInstagramWebhook_ForwardsMessage(t *testing.T) {
	bridge := &stubBridge{}
	s := newTestServer(bridge)

	rec := postJSON(t, s.Handler(), "/webhook/instagram", models.Message{
		ID:       "m1",
		ThreadID: "t1",
		SenderID: "u1",
		Kind:     models.KindText,
		Text:     "hello",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, bridge.forwarded, 1)
	assert.Equal(t, models.DirectionInbound, bridge.forwarded[0].Direction)
	assert.False(t, bridge.forwarded[0].Timestamp.IsZero())
}

func TestTelegramWebhook_ReceivesMessage(t *testing.T) {
	bridge := &stubBridge{}
	s := newTestServer(bridge)

	rec := postJSON(t, s.Handler(), "/webhook/telegram", models.Message{
		ID:       "r1",
		ThreadID: "42",
		Kind:     models.KindText,
		Text:     "reply",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, bridge.received, 1)
	assert.Equal(t, models.DirectionOutbound, bridge.received[0].Direction)
}

func TestWebhook_MalformedPayloadRejected(t *testing.T) {
	s := newTestServer(&stubBridge{})
	req := httptest.NewRequest(http.MethodPost, "/webhook/instagram", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_MissingThreadIDRejected(t *testing.T) {
	s := newTestServer(&stubBridge{})
	rec := postJSON(t, s.Handler(), "/webhook/instagram", models.Message{ID: "m1", Kind: models.KindText})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_TransientFailureReturns503(t *testing.T) {
	bridge := &stubBridge{forwardErr: brerrors.WrapRetryable(assert.AnError, brerrors.ErrCodeTransientNetwork, "upstream down")}
	s := newTestServer(bridge)

	rec := postJSON(t, s.Handler(), "/webhook/instagram", models.Message{ID: "m1", ThreadID: "t1", Kind: models.KindText, Text: "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebhook_InternalFailureReturns500(t *testing.T) {
	bridge := &stubBridge{forwardErr: brerrors.New(brerrors.ErrCodeInternal, "boom")}
	s := newTestServer(bridge)

	rec := postJSON(t, s.Handler(), "/webhook/instagram", models.Message{ID: "m1", ThreadID: "t1", Kind: models.KindText, Text: "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
