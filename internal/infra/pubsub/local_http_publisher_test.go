package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/service"
)

func testEvent() *service.OrderEvent {
	return &service.OrderEvent{
		RequestID:     "req-001",
		EventType:     service.EventOrderCreated,
		OrderID:       "3f1a7c2e-0000-0000-0000-000000000001",
		OrderNumber:   "ORD-123456001",
		CustomerID:    "3f1a7c2e-0000-0000-0000-000000000002",
		Status:        "pending",
		PaymentStatus: "pending",
		TotalAmount:   115,
		OccurredAt:    time.Now().UTC(),
	}
}

func TestLocalHTTPPublisher_PublishOrderEvent(t *testing.T) {
	var received PubSubPushMessage
	var requestID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		requestID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := NewLocalHTTPPublisher(srv.URL, logger)

	event := testEvent()
	err := publisher.PublishOrderEvent(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, "req-001", requestID)
	assert.Equal(t, event.OrderID, received.Message.Attributes["order_id"])
	assert.Equal(t, service.EventOrderCreated, received.Message.Attributes["event_type"])

	raw, err := base64.StdEncoding.DecodeString(received.Message.Data)
	require.NoError(t, err)

	var decoded service.OrderEvent
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, event.OrderNumber, decoded.OrderNumber)
	assert.InDelta(t, event.TotalAmount, decoded.TotalAmount, 0.001)
}

func TestLocalHTTPPublisher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := NewLocalHTTPPublisher(srv.URL, logger)

	err := publisher.PublishOrderEvent(context.Background(), testEvent())
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := &noopPublisher{logger: logger}

	assert.NoError(t, publisher.PublishOrderEvent(context.Background(), testEvent()))
	assert.NoError(t, publisher.Close())
}
