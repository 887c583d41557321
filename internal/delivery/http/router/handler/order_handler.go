package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/delivery/http/response"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// OrderHandlerParams holds dependencies for OrderHandler, injected by Fx.
type OrderHandlerParams struct {
	fx.In

	OrderUC   usecase.OrderUsecase
	QRCodeSvc service.QRCodeService
	Logger    *slog.Logger
}

// OrderHandler holds dependencies for order-related handlers
type OrderHandler struct {
	orderUC   usecase.OrderUsecase
	qrcodeSvc service.QRCodeService
	logger    *slog.Logger
}

// NewOrderHandler is the constructor for OrderHandler
func NewOrderHandler(params OrderHandlerParams) *OrderHandler {
	return &OrderHandler{
		orderUC:   params.OrderUC,
		qrcodeSvc: params.QRCodeSvc,
		logger:    params.Logger,
	}
}

// OrderItemRequest represents one requested product line
type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// AddressRequest represents a shipping or billing address
type AddressRequest struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// CreateOrderRequest represents the request body for placing an order
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress AddressRequest     `json:"shippingAddress" validate:"required"`
	BillingAddress  AddressRequest     `json:"billingAddress" validate:"required"`
	PaymentMethod   string             `json:"paymentMethod"`
	ShippingMethod  string             `json:"shippingMethod"`
	Notes           string             `json:"notes"`
}

// CancelOrderRequest represents the request body for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// UpdateOrderStatusRequest represents an administrative status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdatePaymentStatusRequest represents a payment status change
type UpdatePaymentStatusRequest struct {
	PaymentStatus string         `json:"paymentStatus" validate:"required"`
	Details       map[string]any `json:"details"`
}

// DraftRequest represents the request body for saving or reworking a draft.
// Items and addresses may be incomplete while the customer is still deciding.
type DraftRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"dive"`
	ShippingAddress AddressRequest     `json:"shippingAddress"`
	BillingAddress  AddressRequest     `json:"billingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	ShippingMethod  string             `json:"shippingMethod"`
	Notes           string             `json:"notes"`
	TotalAmount     *float64           `json:"totalAmount"`
}

// OrderItemResponse is the public view of one order line
type OrderItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	IsDigital bool    `json:"isDigital"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
}

// OrderResponse is the public view of an order
type OrderResponse struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"orderNumber"`
	CustomerID      string                 `json:"customerId"`
	Status          string                 `json:"status"`
	PaymentStatus   string                 `json:"paymentStatus"`
	Subtotal        float64                `json:"subtotal"`
	TaxAmount       float64                `json:"taxAmount"`
	ShippingAmount  float64                `json:"shippingAmount"`
	DiscountAmount  float64                `json:"discountAmount"`
	TotalAmount     float64                `json:"totalAmount"`
	ShippingAddress entity.AddressSnapshot `json:"shippingAddress"`
	BillingAddress  entity.AddressSnapshot `json:"billingAddress"`
	PaymentMethod   string                 `json:"paymentMethod,omitempty"`
	ShippingMethod  string                 `json:"shippingMethod,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	Metadata        map[string]any         `json:"metadata,omitempty"`
	Items           []OrderItemResponse    `json:"items"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// ListOrdersResponse is a page of orders with the unfiltered total
type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
}

func newOrderResponse(order *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			SKU:       item.SKU,
			IsDigital: item.IsDigital,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
			Tax:       item.Tax,
			Discount:  item.Discount,
			Total:     item.Total,
		})
	}

	return OrderResponse{
		ID:              order.ID.String(),
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID.String(),
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		Subtotal:        order.Subtotal,
		TaxAmount:       order.TaxAmount,
		ShippingAmount:  order.ShippingAmount,
		DiscountAmount:  order.DiscountAmount,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		PaymentMethod:   order.PaymentMethod,
		ShippingMethod:  order.ShippingMethod,
		Notes:           order.Notes,
		Metadata:        order.Metadata,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func toAddressSnapshot(req AddressRequest) entity.AddressSnapshot {
	return entity.AddressSnapshot{
		FullName:   req.FullName,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
	}
}

func toItemInputs(items []OrderItemRequest) ([]usecase.OrderItemInput, error) {
	inputs := make([]usecase.OrderItemInput, 0, len(items))
	for _, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, usecase.OrderItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	return inputs, nil
}

// CreateOrder handles placing a new order
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid order input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	items, err := toItemInputs(req.Items)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid product ID")
	}

	output, err := h.orderUC.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		CustomerID:      principal.ID,
		Items:           items,
		ShippingAddress: toAddressSnapshot(req.ShippingAddress),
		BillingAddress:  toAddressSnapshot(req.BillingAddress),
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.ShippingMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, newOrderResponse(output.Order), "Order created successfully")
}

// GetOrder handles retrieving a single order
func (h *OrderHandler) GetOrder(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid order ID")
	}

	output, err := h.orderUC.GetOrder(c.Request().Context(), usecase.GetOrderInput{
		OrderID:   orderID,
		Principal: principal,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newOrderResponse(output.Order), "Order retrieved successfully")
}

// ListOrders handles listing the caller's orders with optional status filter
func (h *OrderHandler) ListOrders(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	customerID := principal.ID
	if customerIDParam := c.QueryParam("customerId"); customerIDParam != "" {
		parsed, err := uuid.Parse(customerIDParam)
		if err != nil {
			return response.BadRequest(c, "INVALID_ID", "Invalid customer ID")
		}
		customerID = parsed
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	output, err := h.orderUC.ListOrders(c.Request().Context(), usecase.ListOrdersInput{
		CustomerID: customerID,
		Principal:  principal,
		Status:     entity.OrderStatus(c.QueryParam("status")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	orders := make([]OrderResponse, 0, len(output.Orders))
	for _, order := range output.Orders {
		orders = append(orders, newOrderResponse(order))
	}

	return response.Success(c, http.StatusOK, ListOrdersResponse{
		Orders: orders,
		Total:  output.Total,
	}, "Orders retrieved successfully")
}

// GetPickupQR returns a PNG QR code for the order, scanned at pickup points.
// Ownership is enforced by the underlying order lookup.
func (h *OrderHandler) GetPickupQR(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid order ID")
	}

	output, err := h.orderUC.GetOrder(c.Request().Context(), usecase.GetOrderInput{
		OrderID:   orderID,
		Principal: principal,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	png, err := h.qrcodeSvc.GeneratePickupQR(output.Order.OrderNumber)
	if err != nil {
		h.logger.Error("Failed to generate pickup QR code",
			slog.String("order_id", orderID.String()),
			slog.Any("error", err))

		return response.InternalServerError(c, "QR_GENERATION_FAILED", "Failed to generate pickup code")
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// CancelOrder handles cancelling an order
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid order ID")
	}

	// Reason is optional, so binding failures only matter for malformed bodies
	var req CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid cancellation input")
	}

	output, err := h.orderUC.CancelOrder(c.Request().Context(), usecase.CancelOrderInput{
		OrderID:   orderID,
		Principal: principal,
		Reason:    req.Reason,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newOrderResponse(output.Order), "Order cancelled successfully")
}

// UpdateOrderStatus handles an administrative fulfillment status change
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid order ID")
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid status input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	output, err := h.orderUC.UpdateOrderStatus(c.Request().Context(), usecase.UpdateOrderStatusInput{
		OrderID:   orderID,
		Principal: principal,
		Status:    entity.OrderStatus(req.Status),
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newOrderResponse(output.Order), "Order status updated successfully")
}

// UpdatePaymentStatus handles recording the outcome of a payment attempt
func (h *OrderHandler) UpdatePaymentStatus(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid order ID")
	}

	var req UpdatePaymentStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid payment status input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	output, err := h.orderUC.UpdatePaymentStatus(c.Request().Context(), usecase.UpdatePaymentStatusInput{
		OrderID:       orderID,
		Principal:     principal,
		PaymentStatus: entity.PaymentStatus(req.PaymentStatus),
		Details:       req.Details,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newOrderResponse(output.Order), "Payment status updated successfully")
}

// SaveDraft handles saving a new draft order
func (h *OrderHandler) SaveDraft(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	var req DraftRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid draft input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	items, err := toItemInputs(req.Items)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid product ID")
	}

	output, err := h.orderUC.SaveDraft(c.Request().Context(), usecase.SaveDraftInput{
		CustomerID:      principal.ID,
		Items:           items,
		ShippingAddress: toAddressSnapshot(req.ShippingAddress),
		BillingAddress:  toAddressSnapshot(req.BillingAddress),
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.ShippingMethod,
		Notes:           req.Notes,
		TotalAmount:     req.TotalAmount,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, newOrderResponse(output.Order), "Draft saved successfully")
}

// UpdateDraft handles reworking an existing draft
func (h *OrderHandler) UpdateDraft(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid draft ID")
	}

	var req DraftRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid draft input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	items, err := toItemInputs(req.Items)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid product ID")
	}

	output, err := h.orderUC.UpdateDraft(c.Request().Context(), usecase.UpdateDraftInput{
		OrderID:         orderID,
		Principal:       principal,
		Items:           items,
		ShippingAddress: toAddressSnapshot(req.ShippingAddress),
		BillingAddress:  toAddressSnapshot(req.BillingAddress),
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.ShippingMethod,
		Notes:           req.Notes,
		TotalAmount:     req.TotalAmount,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newOrderResponse(output.Order), "Draft updated successfully")
}

// ConvertDraft handles converting a draft into a live order
func (h *OrderHandler) ConvertDraft(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid draft ID")
	}

	output, err := h.orderUC.ConvertDraft(c.Request().Context(), usecase.ConvertDraftInput{
		OrderID:   orderID,
		Principal: principal,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newOrderResponse(output.Order), "Draft converted successfully")
}

// DeleteDraft handles deleting a draft order
func (h *OrderHandler) DeleteDraft(c echo.Context) error {
	principal, ok := getPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid identity in token")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid draft ID")
	}

	if err := h.orderUC.DeleteDraft(c.Request().Context(), usecase.DeleteDraftInput{
		OrderID:   orderID,
		Principal: principal,
	}); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Draft deleted successfully"}, "Draft deleted successfully")
}
