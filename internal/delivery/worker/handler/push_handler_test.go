package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	mockrepo "storefront/internal/mocks/repository"
)

type recordedNotification struct {
	token string
	title string
	body  string
	data  map[string]string
}

// recordingNotificationService captures sent notifications for assertions.
type recordingNotificationService struct {
	sent    []recordedNotification
	sendErr error
}

func (s *recordingNotificationService) SendSingleNotification(ctx context.Context, token, title, body string, data map[string]string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, recordedNotification{token: token, title: title, body: body, data: data})

	return nil
}

func newTestPushHandler(t *testing.T, notificationSvc service.NotificationService) (*PushHandler, *mockrepo.MockCustomerRepository) {
	t.Helper()

	customerRepo := mockrepo.NewMockCustomerRepository(t)

	return &PushHandler{
		verifyPushAuth:  false,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		notificationSvc: notificationSvc,
		customerRepo:    customerRepo,
	}, customerRepo
}

func pushRequestBody(t *testing.T, event *service.OrderEvent) []byte {
	t.Helper()

	eventData, err := json.Marshal(event)
	require.NoError(t, err)

	var pushMsg PubSubMessage
	pushMsg.Subscription = "projects/local/subscriptions/order-events-sub"
	pushMsg.Message.Data = base64.StdEncoding.EncodeToString(eventData)
	pushMsg.Message.MessageID = event.OrderID
	pushMsg.Message.PublishTime = time.Now().UTC().Format(time.RFC3339)
	pushMsg.Message.Attributes = map[string]string{
		"order_id":   event.OrderID,
		"event_type": event.EventType,
		"request_id": event.RequestID,
	}

	body, err := json.Marshal(pushMsg)
	require.NoError(t, err)

	return body
}

func performPush(t *testing.T, h *PushHandler, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.HandlePush(c))

	return rec
}

func orderCreatedEvent(customerID uuid.UUID) *service.OrderEvent {
	return &service.OrderEvent{
		RequestID:     "req-42",
		EventType:     service.EventOrderCreated,
		OrderID:       uuid.NewString(),
		OrderNumber:   "ORD-123456001",
		CustomerID:    customerID.String(),
		Status:        string(entity.OrderStatusPending),
		PaymentStatus: string(entity.PaymentStatusPending),
		TotalAmount:   115,
		OccurredAt:    time.Now().UTC(),
	}
}

func TestPushHandler_SendsNotification(t *testing.T) {
	notificationSvc := &recordingNotificationService{}
	h, customerRepo := newTestPushHandler(t, notificationSvc)

	customerID := uuid.New()
	customerRepo.EXPECT().FindByID(mock.Anything, customerID).Return(&entity.Customer{
		ID:          customerID,
		Name:        "Wang Min",
		DeviceToken: "fcm-token-1",
	}, nil)

	event := orderCreatedEvent(customerID)
	rec := performPush(t, h, pushRequestBody(t, event))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, notificationSvc.sent, 1)
	assert.Equal(t, "fcm-token-1", notificationSvc.sent[0].token)
	assert.Equal(t, "訂單成立", notificationSvc.sent[0].title)
	assert.Contains(t, notificationSvc.sent[0].body, "ORD-123456001")
	assert.Equal(t, event.OrderID, notificationSvc.sent[0].data["order_id"])
}

func TestPushHandler_SkipsWithoutDeviceToken(t *testing.T) {
	notificationSvc := &recordingNotificationService{}
	h, customerRepo := newTestPushHandler(t, notificationSvc)

	customerID := uuid.New()
	customerRepo.EXPECT().FindByID(mock.Anything, customerID).Return(&entity.Customer{
		ID:   customerID,
		Name: "Wang Min",
	}, nil)

	rec := performPush(t, h, pushRequestBody(t, orderCreatedEvent(customerID)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, notificationSvc.sent)
}

func TestPushHandler_SkipsUnknownCustomer(t *testing.T) {
	notificationSvc := &recordingNotificationService{}
	h, customerRepo := newTestPushHandler(t, notificationSvc)

	customerID := uuid.New()
	customerRepo.EXPECT().FindByID(mock.Anything, customerID).Return(nil, repository.ErrCustomerNotFound)

	rec := performPush(t, h, pushRequestBody(t, orderCreatedEvent(customerID)))

	// Unknown customers must not trigger Pub/Sub redelivery
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, notificationSvc.sent)
}

func TestPushHandler_RetriesOnRepositoryFailure(t *testing.T) {
	notificationSvc := &recordingNotificationService{}
	h, customerRepo := newTestPushHandler(t, notificationSvc)

	customerID := uuid.New()
	customerRepo.EXPECT().FindByID(mock.Anything, customerID).Return(nil, errors.New("connection reset"))

	rec := performPush(t, h, pushRequestBody(t, orderCreatedEvent(customerID)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPushHandler_BadPayload(t *testing.T) {
	notificationSvc := &recordingNotificationService{}
	h, _ := newTestPushHandler(t, notificationSvc)

	rec := performPush(t, h, []byte(`{"message": {"data": "not-base64!!"}}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
