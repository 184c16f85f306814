package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
)

// WebhookService reconciles asynchronous gateway events. The gateway
// delivers at-least-once and may redeliver after the client-side verify
// already settled the same payment, so every handler checks current state
// before mutating anything.
type WebhookService struct {
	payments *PaymentService
	repo     port.Repository
	gateway  port.Gateway
	notifier port.Notifier
	logger   *zap.Logger
}

func NewWebhookService(payments *PaymentService, repo port.Repository,
	gateway port.Gateway, notifier port.Notifier, logger *zap.Logger) (*WebhookService, error) {
	return &WebhookService{
		payments: payments,
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
	}, nil
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
		Refund *struct {
			Entity refundEntity `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

type paymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	ErrorDescription string `json:"error_description"`
}

type refundEntity struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// Handle verifies the signature over the raw body and dispatches the
// event. A bad signature drops the event without processing. Business
// no-ops (unknown payment, already settled) are acknowledged so the
// gateway does not retry them.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(payload, signature) {
		s.logger.Warn("webhook signature mismatch")
		return domain.ErrInvalidPayment
	}

	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.logger.Warn("webhook payload malformed", zap.Error(err))
		return domain.ErrBadRequest
	}

	switch env.Event {
	case "payment.captured":
		if env.Payload.Payment == nil {
			return domain.ErrBadRequest
		}
		return s.handlePaymentCaptured(ctx, env.Payload.Payment.Entity)
	case "payment.failed":
		if env.Payload.Payment == nil {
			return domain.ErrBadRequest
		}
		return s.handlePaymentFailed(ctx, env.Payload.Payment.Entity)
	case "refund.processed":
		if env.Payload.Refund == nil {
			return domain.ErrBadRequest
		}
		return s.handleRefundProcessed(ctx, env.Payload.Refund.Entity)
	default:
		s.logger.Info("unhandled webhook event", zap.String("event", env.Event))
		return nil
	}
}

// handlePaymentCaptured has the same effect as a successful client-side
// verification, sourced from the gateway's authoritative payload. A
// payment already completed is left untouched.
func (s *WebhookService) handlePaymentCaptured(ctx context.Context, entity paymentEntity) error {
	payment, err := s.repo.GetPaymentByGatewayOrder(ctx, entity.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			s.logger.Warn("captured event for unknown gateway order",
				zap.String("gateway_order", entity.OrderID))
			return nil
		}
		return err
	}

	_, err = s.payments.completePayment(ctx, payment.ID, entity.ID, "")
	return err
}

func (s *WebhookService) handlePaymentFailed(ctx context.Context, entity paymentEntity) error {
	payment, err := s.repo.GetPaymentByGatewayOrder(ctx, entity.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil
		}
		return err
	}

	changed := false
	updated, err := s.repo.UpdatePayment(ctx, payment.ID, func(p *domain.Payment) error {
		// A capture may already have won the race; failure then carries
		// no information.
		if p.Status == domain.PaymentStatusCompleted ||
			p.Status == domain.PaymentStatusFailed {
			return nil
		}
		p.Status = domain.PaymentStatusFailed
		p.FailureReason = entity.ErrorDescription
		changed = true
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		// Buyer may retry; order status stays put.
		s.notifier.PaymentFailed(updated)
	}
	return nil
}

// handleRefundProcessed reconciles the local refund total with the
// gateway's cumulative figure instead of blindly adding this event's
// amount, so a refund already recorded by a direct ProcessRefund call is
// not counted twice.
func (s *WebhookService) handleRefundProcessed(ctx context.Context, entity refundEntity) error {
	payment, err := s.repo.GetPaymentByGatewayPayment(ctx, entity.PaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil
		}
		return err
	}

	remote, err := s.gateway.FetchPayment(ctx, entity.PaymentID)
	if err != nil {
		s.logger.Error("gateway fetch payment", zap.Error(err))
		return err
	}
	target, err := fromMinorUnits(remote.AmountRefunded)
	if err != nil {
		return err
	}

	delta := decimal.Zero
	updated, err := s.repo.UpdatePayment(ctx, payment.ID, func(p *domain.Payment) error {
		if target.Cmp(p.RefundAmount) <= 0 {
			return nil
		}
		if target.Cmp(p.Amount) > 0 {
			return domain.ErrRefundExceedsPayment
		}
		var derr error
		delta, derr = target.Sub(p.RefundAmount)
		if derr != nil {
			return derr
		}
		now := time.Now()
		p.RefundAmount = target
		p.RefundedAt = &now
		if target.Cmp(p.Amount) == 0 {
			p.Status = domain.PaymentStatusRefunded
		} else {
			p.Status = domain.PaymentStatusPartiallyRefunded
		}
		return nil
	})
	if err != nil {
		return err
	}
	if delta.Cmp(decimal.Zero) == 0 {
		return nil
	}

	if updated.Status == domain.PaymentStatusRefunded {
		allocations, err := s.repo.GetAllocations(ctx, payment.ID)
		if err != nil {
			return err
		}
		for _, a := range allocations {
			_, err := s.repo.UpdateOrder(ctx, a.OrderNumber,
				domain.Audit{Reason: "refund settled by gateway"},
				func(o *domain.Order) error {
					o.PaymentStatus = domain.OrderPaymentRefunded
					return nil
				})
			if err != nil {
				return err
			}
		}
	}

	s.notifier.RefundProcessed(updated, delta)
	return nil
}
