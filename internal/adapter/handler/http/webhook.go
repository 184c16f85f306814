package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

type WebhookHandler struct {
	Handler
	service port.WebhookHandler
}

func NewWebhookHandler(service port.WebhookHandler, logger *zap.Logger) (*WebhookHandler, error) {
	return &WebhookHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

// Handle receives gateway webhooks. The signature covers the raw body,
// so the body is read untouched before any parsing. A bad signature is
// a 400; once the event is authentic the endpoint acks with 200 so the
// gateway stops retrying, whatever the business outcome.
func (wh *WebhookHandler) Handle(ctx *gin.Context) {
	payload, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		wh.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	signature := ctx.Request.Header.Get(webhookSignatureHeader)

	err = wh.service.Handle(ctx, payload, signature)
	if err != nil {
		if err == domain.ErrInvalidPayment || err == domain.ErrBadRequest {
			wh.handleError(ctx, err)
			return
		}
		wh.logger.Error("webhook processing failed", zap.Error(err))
	}

	ctx.Status(http.StatusOK)
}
