package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/delivery/http/middleware"
	"storefront/internal/delivery/http/validator"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/usecase"
)

// stubOrderUsecase implements usecase.OrderUsecase with overridable functions.
type stubOrderUsecase struct {
	createOrder func(ctx context.Context, input usecase.CreateOrderInput) (*usecase.OrderOutput, error)
	getOrder    func(ctx context.Context, input usecase.GetOrderInput) (*usecase.OrderOutput, error)
	cancelOrder func(ctx context.Context, input usecase.CancelOrderInput) (*usecase.OrderOutput, error)
	listOrders  func(ctx context.Context, input usecase.ListOrdersInput) (*usecase.ListOrdersOutput, error)
	deleteDraft func(ctx context.Context, input usecase.DeleteDraftInput) error
}

func (s *stubOrderUsecase) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*usecase.OrderOutput, error) {
	return s.createOrder(ctx, input)
}

func (s *stubOrderUsecase) CancelOrder(ctx context.Context, input usecase.CancelOrderInput) (*usecase.OrderOutput, error) {
	return s.cancelOrder(ctx, input)
}

func (s *stubOrderUsecase) UpdateOrderStatus(ctx context.Context, input usecase.UpdateOrderStatusInput) (*usecase.OrderOutput, error) {
	return nil, nil
}

func (s *stubOrderUsecase) UpdatePaymentStatus(ctx context.Context, input usecase.UpdatePaymentStatusInput) (*usecase.OrderOutput, error) {
	return nil, nil
}

func (s *stubOrderUsecase) SaveDraft(ctx context.Context, input usecase.SaveDraftInput) (*usecase.OrderOutput, error) {
	return nil, nil
}

func (s *stubOrderUsecase) UpdateDraft(ctx context.Context, input usecase.UpdateDraftInput) (*usecase.OrderOutput, error) {
	return nil, nil
}

func (s *stubOrderUsecase) ConvertDraft(ctx context.Context, input usecase.ConvertDraftInput) (*usecase.OrderOutput, error) {
	return nil, nil
}

func (s *stubOrderUsecase) DeleteDraft(ctx context.Context, input usecase.DeleteDraftInput) error {
	return s.deleteDraft(ctx, input)
}

func (s *stubOrderUsecase) GetOrder(ctx context.Context, input usecase.GetOrderInput) (*usecase.OrderOutput, error) {
	return s.getOrder(ctx, input)
}

func (s *stubOrderUsecase) ListOrders(ctx context.Context, input usecase.ListOrdersInput) (*usecase.ListOrdersOutput, error) {
	return s.listOrders(ctx, input)
}

// stubQRCodeService returns a fixed payload for pickup QR requests.
type stubQRCodeService struct{}

func (s *stubQRCodeService) GeneratePickupQR(orderNumber string) ([]byte, error) {
	return []byte("png-bytes-" + orderNumber), nil
}

func newTestOrderHandler(uc usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{
		orderUC:   uc,
		qrcodeSvc: &stubQRCodeService{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newTestContext(t *testing.T, method, target string, body string, principal entity.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = validator.New()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextKeyPrincipal, principal)

	return c, rec
}

func sampleOrder(customerID uuid.UUID) *entity.Order {
	return &entity.Order{
		ID:             uuid.New(),
		OrderNumber:    "ORD-123456001",
		CustomerID:     customerID,
		Status:         entity.OrderStatusPending,
		PaymentStatus:  entity.PaymentStatusPending,
		Subtotal:       100,
		TaxAmount:      10,
		ShippingAmount: 5,
		TotalAmount:    115,
		Items: []*entity.OrderItem{
			{
				ID:        uuid.New(),
				ProductID: uuid.New(),
				Name:      "Ceramic Mug",
				SKU:       "MUG-001",
				Quantity:  2,
				UnitPrice: 50,
				Subtotal:  100,
				Tax:       10,
				Total:     110,
			},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()

	uc := &stubOrderUsecase{
		createOrder: func(ctx context.Context, input usecase.CreateOrderInput) (*usecase.OrderOutput, error) {
			assert.Equal(t, customerID, input.CustomerID)
			require.Len(t, input.Items, 1)
			assert.Equal(t, productID, input.Items[0].ProductID)
			assert.Equal(t, 2, input.Items[0].Quantity)

			return &usecase.OrderOutput{Order: sampleOrder(customerID)}, nil
		},
	}
	h := newTestOrderHandler(uc)

	body := `{
		"items": [{"productId": "` + productID.String() + `", "quantity": 2}],
		"shippingAddress": {"fullName": "Wang Min", "line1": "1 Market St", "city": "Taipei", "postalCode": "100", "country": "TW"},
		"billingAddress": {"fullName": "Wang Min", "line1": "1 Market St", "city": "Taipei", "postalCode": "100", "country": "TW"},
		"shippingMethod": "standard"
	}`
	c, rec := newTestContext(t, http.MethodPost, "/orders", body, entity.Principal{ID: customerID, Role: entity.RoleCustomer})

	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ORD-123456001", resp.Data.OrderNumber)
	assert.InDelta(t, 115, resp.Data.TotalAmount, 0.001)
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "Ceramic Mug", resp.Data.Items[0].Name)
}

func TestOrderHandler_CreateOrder_ValidationError(t *testing.T) {
	h := newTestOrderHandler(&stubOrderUsecase{})

	// Missing items entirely
	body := `{"shippingAddress": {}, "billingAddress": {}}`
	c, rec := newTestContext(t, http.MethodPost, "/orders", body, entity.Principal{ID: uuid.New(), Role: entity.RoleCustomer})

	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandler_GetOrder_NotFound(t *testing.T) {
	uc := &stubOrderUsecase{
		getOrder: func(ctx context.Context, input usecase.GetOrderInput) (*usecase.OrderOutput, error) {
			return nil, domainerrors.ErrOrderNotFound
		},
	}
	h := newTestOrderHandler(uc)

	c, rec := newTestContext(t, http.MethodGet, "/orders/"+uuid.NewString(), "", entity.Principal{ID: uuid.New(), Role: entity.RoleCustomer})
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	require.NoError(t, h.GetOrder(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ORDER_NOT_FOUND")
}

func TestOrderHandler_GetOrder_InvalidID(t *testing.T) {
	h := newTestOrderHandler(&stubOrderUsecase{})

	c, rec := newTestContext(t, http.MethodGet, "/orders/not-a-uuid", "", entity.Principal{ID: uuid.New(), Role: entity.RoleCustomer})
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	require.NoError(t, h.GetOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ID")
}

func TestOrderHandler_GetPickupQR(t *testing.T) {
	customerID := uuid.New()
	uc := &stubOrderUsecase{
		getOrder: func(ctx context.Context, input usecase.GetOrderInput) (*usecase.OrderOutput, error) {
			return &usecase.OrderOutput{Order: sampleOrder(customerID)}, nil
		},
	}
	h := newTestOrderHandler(uc)

	c, rec := newTestContext(t, http.MethodGet, "/orders/"+uuid.NewString()+"/pickup-code", "", entity.Principal{ID: customerID, Role: entity.RoleCustomer})
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	require.NoError(t, h.GetPickupQR(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "png-bytes-ORD-123456001", rec.Body.String())
}

func TestOrderHandler_CancelOrder_Forbidden(t *testing.T) {
	uc := &stubOrderUsecase{
		cancelOrder: func(ctx context.Context, input usecase.CancelOrderInput) (*usecase.OrderOutput, error) {
			return nil, domainerrors.ErrForbidden
		},
	}
	h := newTestOrderHandler(uc)

	c, rec := newTestContext(t, http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", `{"reason":"late delivery"}`, entity.Principal{ID: uuid.New(), Role: entity.RoleCustomer})
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	require.NoError(t, h.CancelOrder(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestOrderHandler_ListOrders_PassesFilters(t *testing.T) {
	customerID := uuid.New()
	uc := &stubOrderUsecase{
		listOrders: func(ctx context.Context, input usecase.ListOrdersInput) (*usecase.ListOrdersOutput, error) {
			assert.Equal(t, customerID, input.CustomerID)
			assert.Equal(t, entity.OrderStatusPending, input.Status)
			assert.Equal(t, 10, input.Limit)
			assert.Equal(t, 20, input.Offset)

			return &usecase.ListOrdersOutput{Orders: []*entity.Order{sampleOrder(customerID)}, Total: 1}, nil
		},
	}
	h := newTestOrderHandler(uc)

	c, rec := newTestContext(t, http.MethodGet, "/orders?status=pending&limit=10&offset=20", "", entity.Principal{ID: customerID, Role: entity.RoleCustomer})

	require.NoError(t, h.ListOrders(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data ListOrdersResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Orders, 1)
}

func TestOrderHandler_DeleteDraft(t *testing.T) {
	called := false
	uc := &stubOrderUsecase{
		deleteDraft: func(ctx context.Context, input usecase.DeleteDraftInput) error {
			called = true

			return nil
		},
	}
	h := newTestOrderHandler(uc)

	c, rec := newTestContext(t, http.MethodDelete, "/drafts/"+uuid.NewString(), "", entity.Principal{ID: uuid.New(), Role: entity.RoleCustomer})
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	require.NoError(t, h.DeleteDraft(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
