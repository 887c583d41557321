// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"storefront/internal/delivery/http/middleware"
	"storefront/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	OrderHandler   *handler.OrderHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	orderHandler   *handler.OrderHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		orderHandler:   params.OrderHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check and metrics endpoints
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
	}

	// Order routes that require authentication
	orderGroup := e.Group("/orders")
	orderGroup.Use(r.authMiddleware.Authenticate)
	{
		orderGroup.POST("", r.orderHandler.CreateOrder)
		orderGroup.GET("", r.orderHandler.ListOrders)
		orderGroup.GET("/:id", r.orderHandler.GetOrder)
		orderGroup.GET("/:id/pickup-code", r.orderHandler.GetPickupQR)
		orderGroup.POST("/:id/cancel", r.orderHandler.CancelOrder)

		// Fulfillment and payment transitions are staff operations
		orderGroup.PATCH("/:id/status", r.orderHandler.UpdateOrderStatus, r.authMiddleware.RequireStaff)
		orderGroup.PATCH("/:id/payment", r.orderHandler.UpdatePaymentStatus, r.authMiddleware.RequireStaff)
	}

	// Draft routes that require authentication
	draftGroup := e.Group("/drafts")
	draftGroup.Use(r.authMiddleware.Authenticate)
	{
		draftGroup.POST("", r.orderHandler.SaveDraft)
		draftGroup.PATCH("/:id", r.orderHandler.UpdateDraft)
		draftGroup.POST("/:id/convert", r.orderHandler.ConvertDraft)
		draftGroup.DELETE("/:id", r.orderHandler.DeleteDraft)
	}
}
