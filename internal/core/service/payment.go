package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
	"github.com/quickcart/orders/internal/core/statemachine"
)

// gatewayPaymentAuthorized is the remote payment state before capture.
const gatewayPaymentAuthorized = "authorized"

type PaymentService struct {
	repo     port.Repository
	gateway  port.Gateway
	notifier port.Notifier
	currency string
	logger   *zap.Logger
}

func NewPaymentService(repo port.Repository, gateway port.Gateway,
	notifier port.Notifier, currency string, logger *zap.Logger) (*PaymentService, error) {
	return &PaymentService{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		currency: currency,
		logger:   logger,
	}, nil
}

// InitiatePayment opens a payment for a whole checkout. COD confirms the
// orders immediately without touching the gateway; everything else gets a
// remote gateway order for the checkout total.
func (s *PaymentService) InitiatePayment(ctx context.Context, buyerID, checkoutID uuid.UUID,
	method domain.PaymentMethod) (*domain.PaymentIntent, error) {
	if !method.Valid() {
		return nil, domain.ErrUnsupportedPaymentMethod
	}

	orders, err := s.repo.GetCheckoutOrders(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrDataNotFound
	}
	for _, o := range orders {
		if o.BuyerID != buyerID {
			return nil, domain.ErrForbidden
		}
	}

	existing, err := s.repo.GetPaymentByCheckout(ctx, checkoutID)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		s.logger.Error("get payment", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if existing != nil && existing.Status == domain.PaymentStatusCompleted {
		return nil, domain.ErrPaymentAlreadyCompleted
	}

	total := decimal.Zero
	for _, o := range orders {
		total, err = total.Add(o.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}
	}

	if method == domain.PaymentMethodCOD {
		return s.initiateCOD(ctx, orders, existing, checkoutID, total)
	}

	amountMinor, err := toMinorUnits(total)
	if err != nil {
		return nil, err
	}
	remote, err := s.gateway.CreateOrder(ctx, amountMinor, s.currency,
		fmt.Sprintf("chk_%s", checkoutID))
	if err != nil {
		s.logger.Error("gateway create order", zap.Error(err))
		return nil, domain.ErrInvalidPayment
	}

	payment, err := s.upsertPayment(ctx, existing, orders, checkoutID, total, method, remote.ID)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentIntent{
		PaymentID:      payment.ID,
		GatewayOrderID: remote.ID,
		KeyID:          s.gateway.KeyID(),
		Amount:         total,
		Currency:       s.currency,
		Method:         method,
		Description:    fmt.Sprintf("Payment for checkout %s", checkoutID),
	}, nil
}

func (s *PaymentService) initiateCOD(ctx context.Context, orders []*domain.Order,
	existing *domain.Payment, checkoutID uuid.UUID, total decimal.Decimal) (*domain.PaymentIntent, error) {
	payment, err := s.upsertPayment(ctx, existing, orders, checkoutID, total,
		domain.PaymentMethodCOD, "")
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		prev := o.Status
		updated, err := s.repo.UpdateOrder(ctx, o.Number,
			domain.Audit{Reason: "cash on delivery"},
			func(o *domain.Order) error {
				if o.Status == domain.OrderStatusConfirmed &&
					o.PaymentStatus == domain.OrderPaymentCOD {
					return nil
				}
				if !statemachine.CanTransition(o.Status, domain.OrderStatusConfirmed) {
					return &domain.TransitionError{From: o.Status, To: domain.OrderStatusConfirmed}
				}
				o.Status = domain.OrderStatusConfirmed
				o.PaymentStatus = domain.OrderPaymentCOD
				return nil
			})
		if err != nil {
			return nil, err
		}
		s.notifier.OrderStatusChanged(updated, prev)
	}

	return &domain.PaymentIntent{
		PaymentID:   payment.ID,
		Amount:      total,
		Currency:    s.currency,
		Method:      domain.PaymentMethodCOD,
		Description: "Order placed with cash on delivery",
	}, nil
}

// upsertPayment creates the checkout payment with its allocations, or
// rewires the still-pending record when the buyer retries with a new
// method or gateway order. Completed payments are never touched here.
func (s *PaymentService) upsertPayment(ctx context.Context, existing *domain.Payment,
	orders []*domain.Order, checkoutID uuid.UUID, total decimal.Decimal,
	method domain.PaymentMethod, gatewayOrderID string) (*domain.Payment, error) {
	if existing != nil {
		return s.repo.UpdatePayment(ctx, existing.ID, func(p *domain.Payment) error {
			if p.Status == domain.PaymentStatusCompleted {
				return domain.ErrPaymentAlreadyCompleted
			}
			p.Status = domain.PaymentStatusPending
			p.Method = method
			p.Amount = total
			p.GatewayOrderID = gatewayOrderID
			p.GatewayPaymentID = ""
			p.GatewaySignature = ""
			p.FailureReason = ""
			return nil
		})
	}

	payment := &domain.Payment{
		ID:             uuid.New(),
		CheckoutID:     checkoutID,
		Amount:         total,
		Currency:       s.currency,
		Method:         method,
		Status:         domain.PaymentStatusPending,
		GatewayOrderID: gatewayOrderID,
		RefundAmount:   decimal.Zero,
		CreatedAt:      time.Now(),
	}
	allocations := make([]domain.PaymentAllocation, 0, len(orders))
	for _, o := range orders {
		allocations = append(allocations, domain.PaymentAllocation{
			PaymentID:   payment.ID,
			OrderNumber: o.Number,
			Amount:      o.TotalAmount,
		})
	}

	created, err := s.repo.CreatePayment(ctx, payment, allocations)
	if err != nil {
		s.logger.Error("create payment", zap.Error(err))
		return nil, domain.ErrInternal
	}
	return created, nil
}

// VerifyPayment settles the client-side confirmation. The signature over
// gateway_order_id|payment_id is recomputed with the shared secret and
// compared in constant time. The path is idempotent and safe to race
// against the webhook: a payment already completed is treated as success.
func (s *PaymentService) VerifyPayment(ctx context.Context, buyerID, checkoutID uuid.UUID,
	gatewayPaymentID, signature string) (*domain.Payment, error) {
	payment, err := s.repo.GetPaymentByCheckout(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.GetCheckoutOrders(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.BuyerID != buyerID {
			return nil, domain.ErrForbidden
		}
	}

	if !s.gateway.VerifyPaymentSignature(payment.GatewayOrderID, gatewayPaymentID, signature) {
		_, uerr := s.repo.UpdatePayment(ctx, payment.ID, func(p *domain.Payment) error {
			if p.Status == domain.PaymentStatusCompleted {
				return nil
			}
			p.Status = domain.PaymentStatusFailed
			p.FailureReason = "invalid signature"
			return nil
		})
		if uerr != nil {
			s.logger.Error("mark payment failed", zap.Error(uerr))
		}
		return nil, domain.ErrInvalidPayment
	}

	// The gateway is the system of record: cross-check the payment really
	// belongs to our remote order before completing.
	remote, err := s.gateway.FetchPayment(ctx, gatewayPaymentID)
	if err != nil {
		s.logger.Error("gateway fetch payment", zap.Error(err))
		return nil, domain.ErrInvalidPayment
	}
	if remote.OrderID != payment.GatewayOrderID {
		return nil, domain.ErrInvalidPayment
	}

	// Without auto-capture the gateway holds the money in "authorized"
	// until the merchant captures it.
	if remote.Status == gatewayPaymentAuthorized {
		amountMinor, err := toMinorUnits(payment.Amount)
		if err != nil {
			return nil, err
		}
		if _, err := s.gateway.CapturePayment(ctx, gatewayPaymentID, amountMinor, s.currency); err != nil {
			s.logger.Error("gateway capture payment", zap.Error(err))
			return nil, domain.ErrInvalidPayment
		}
	}

	return s.completePayment(ctx, payment.ID, gatewayPaymentID, signature)
}

// completePayment marks the payment captured and confirms every allocated
// order. Idempotent under the payment row lock; redundant arrival from
// either the verify or the webhook path is a no-op.
func (s *PaymentService) completePayment(ctx context.Context, paymentID uuid.UUID,
	gatewayPaymentID, signature string) (*domain.Payment, error) {
	already := false
	payment, err := s.repo.UpdatePayment(ctx, paymentID, func(p *domain.Payment) error {
		if p.Status == domain.PaymentStatusCompleted {
			already = true
			return nil
		}
		now := time.Now()
		p.Status = domain.PaymentStatusCompleted
		p.GatewayPaymentID = gatewayPaymentID
		if signature != "" {
			p.GatewaySignature = signature
		}
		p.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if already {
		return payment, nil
	}

	allocations, err := s.repo.GetAllocations(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	for _, a := range allocations {
		_, err := s.repo.UpdateOrder(ctx, a.OrderNumber,
			domain.Audit{Reason: "payment captured"},
			func(o *domain.Order) error {
				if o.Status == domain.OrderStatusConfirmed &&
					o.PaymentStatus == domain.OrderPaymentCompleted {
					return nil
				}
				if !statemachine.CanTransition(o.Status, domain.OrderStatusConfirmed) {
					return &domain.TransitionError{From: o.Status, To: domain.OrderStatusConfirmed}
				}
				o.Status = domain.OrderStatusConfirmed
				o.PaymentStatus = domain.OrderPaymentCompleted
				return nil
			})
		if err != nil {
			return nil, err
		}
	}

	s.notifier.PaymentCompleted(payment)

	return payment, nil
}

// ProcessRefund refunds one seller order against the checkout payment.
// The default amount is the order's allocation; refunds are additive and
// serialize on the payment row so the total never exceeds the payment.
func (s *PaymentService) ProcessRefund(ctx context.Context, number domain.OrderNumber,
	amount *decimal.Decimal, reason string) (*domain.RefundResult, error) {
	payment, allocation, err := s.repo.GetPaymentForOrder(ctx, number)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, domain.ErrPaymentNotCompleted
		}
		return nil, err
	}

	if payment.Method == domain.PaymentMethodCOD {
		// Nothing was ever collected.
		return &domain.RefundResult{
			RefundID:  fmt.Sprintf("cod_refund_%s", uuid.New().String()[:8]),
			PaymentID: payment.ID,
			Amount:    decimal.Zero,
			Status:    "not_applicable",
			CreatedAt: time.Now(),
		}, nil
	}

	if payment.Status != domain.PaymentStatusCompleted &&
		payment.Status != domain.PaymentStatusPartiallyRefunded {
		return nil, domain.ErrPaymentNotCompleted
	}

	amt := allocation.Amount
	if amount != nil {
		amt = *amount
	}
	remaining, err := payment.Remaining()
	if err != nil {
		return nil, fmt.Errorf("math error:%w", err)
	}
	if amt.Cmp(remaining) > 0 || amt.Cmp(allocation.Amount) > 0 {
		return nil, domain.ErrRefundExceedsPayment
	}

	amountMinor, err := toMinorUnits(amt)
	if err != nil {
		return nil, err
	}
	refund, err := s.gateway.CreateRefund(ctx, payment.GatewayPaymentID, amountMinor,
		map[string]string{"reason": reason})
	if err != nil {
		s.logger.Error("gateway refund", zap.String("order", string(number)), zap.Error(err))
		return nil, domain.ErrBadRequest
	}

	updated, err := s.repo.UpdatePayment(ctx, payment.ID, func(p *domain.Payment) error {
		newTotal, err := p.RefundAmount.Add(amt)
		if err != nil {
			return fmt.Errorf("math error:%w", err)
		}
		if newTotal.Cmp(p.Amount) > 0 {
			return domain.ErrRefundExceedsPayment
		}
		now := time.Now()
		p.RefundAmount = newTotal
		p.RefundedAt = &now
		if newTotal.Cmp(p.Amount) == 0 {
			p.Status = domain.PaymentStatusRefunded
		} else {
			p.Status = domain.PaymentStatusPartiallyRefunded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	orderPayState := domain.OrderPaymentPartiallyRefunded
	if amt.Cmp(allocation.Amount) == 0 {
		orderPayState = domain.OrderPaymentRefunded
	}
	_, err = s.repo.UpdateOrder(ctx, number, domain.Audit{Reason: reason},
		func(o *domain.Order) error {
			o.PaymentStatus = orderPayState
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.notifier.RefundProcessed(updated, amt)

	return &domain.RefundResult{
		RefundID:  refund.ID,
		PaymentID: payment.ID,
		Amount:    amt,
		Status:    refund.Status,
		CreatedAt: time.Now(),
	}, nil
}
