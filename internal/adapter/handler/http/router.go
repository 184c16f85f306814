package http

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/quickcart/orders/internal/adapter/config"
	"github.com/quickcart/orders/internal/core/port"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.HTTP,
	tokenService port.TokenService,
	orderHandler *OrderHandler,
	paymentHandler *PaymentHandler,
	webhookHandler *WebhookHandler) (*Router, error) {

	router := gin.New()

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	{
		orders := api.Group("/orders")
		{
			// Tracking is looked up by order number alone.
			orders.GET("/:number/tracking", orderHandler.GetOrderTracking)

			authed := orders.Group("")
			{
				authed.Use(authCheck(tokenService))
				authed.POST("", requireRole(port.RoleBuyer), orderHandler.CreateOrder)
				authed.GET("", orderHandler.ListOrders)
				authed.GET("/:number", orderHandler.GetOrder)
				authed.PATCH("/:number/status", requireRole(port.RoleSeller, port.RoleAdmin), orderHandler.UpdateOrderStatus)
				authed.POST("/:number/cancel", orderHandler.CancelOrder)
				authed.POST("/:number/return", requireRole(port.RoleBuyer), orderHandler.RequestReturn)
			}
		}

		payments := api.Group("/payments")
		{
			// The gateway signs webhook calls; no bearer token there.
			payments.POST("/webhook", webhookHandler.Handle)

			authed := payments.Group("")
			{
				authed.Use(authCheck(tokenService))
				authed.POST("/initiate", requireRole(port.RoleBuyer), paymentHandler.InitiatePayment)
				authed.POST("/verify", requireRole(port.RoleBuyer), paymentHandler.VerifyPayment)
				authed.POST("/:number/refund", requireRole(port.RoleSeller, port.RoleAdmin), paymentHandler.ProcessRefund)
			}
		}
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}
