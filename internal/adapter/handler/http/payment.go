package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
)

type PaymentHandler struct {
	Handler
	service port.PaymentService
}

func NewPaymentHandler(service port.PaymentService, logger *zap.Logger) (*PaymentHandler, error) {
	return &PaymentHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type initiatePaymentRequest struct {
	CheckoutID string `json:"checkout_id" binding:"required"`
	Method     string `json:"method" binding:"required"`
}

func (ph *PaymentHandler) InitiatePayment(ctx *gin.Context) {
	buyerID := getAuthPayload(ctx).UserID

	var req initiatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ph.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}
	checkoutID, err := uuid.Parse(req.CheckoutID)
	if err != nil {
		ph.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	intent, err := ph.service.InitiatePayment(ctx, buyerID, checkoutID, domain.PaymentMethod(req.Method))
	if err != nil {
		ph.handleError(ctx, err)
		return
	}
	ph.handleSuccess(ctx, intent)
}

type verifyPaymentRequest struct {
	CheckoutID       string `json:"checkout_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature" binding:"required"`
}

type paymentResp struct {
	PaymentID     string          `json:"payment_id"`
	CheckoutID    string          `json:"checkout_id"`
	Status        string          `json:"status"`
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

func newPaymentResp(p *domain.Payment) paymentResp {
	return paymentResp{
		PaymentID:     p.ID.String(),
		CheckoutID:    p.CheckoutID.String(),
		Status:        string(p.Status),
		Method:        string(p.Method),
		Amount:        p.Amount,
		Currency:      p.Currency,
		RefundAmount:  p.RefundAmount,
		FailureReason: p.FailureReason,
	}
}

func (ph *PaymentHandler) VerifyPayment(ctx *gin.Context) {
	buyerID := getAuthPayload(ctx).UserID

	var req verifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ph.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}
	checkoutID, err := uuid.Parse(req.CheckoutID)
	if err != nil {
		ph.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	payment, err := ph.service.VerifyPayment(ctx, buyerID, checkoutID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}
	ph.handleSuccess(ctx, newPaymentResp(payment))
}

type refundRequest struct {
	// Amount is optional: empty means refund the order's full allocation.
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

func (ph *PaymentHandler) ProcessRefund(ctx *gin.Context) {
	number := domain.OrderNumber(ctx.Param("number"))

	var req refundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ph.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	var amount *decimal.Decimal
	if req.Amount != "" {
		a, err := decimal.Parse(req.Amount)
		if err != nil {
			ph.handleValidationError(ctx, domain.ErrBadRequest)
			return
		}
		amount = &a
	}

	result, err := ph.service.ProcessRefund(ctx, number, amount, req.Reason)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}
	ph.handleSuccessWithStatus(ctx, result, http.StatusOK)
}
