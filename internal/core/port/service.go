package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/quickcart/orders/internal/core/domain"
)

type OrderItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int32
}

type CreateOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	PaymentMethod   domain.PaymentMethod
	CouponCode      string
	Notes           string
}

type OrderService interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, input CreateOrderInput) ([]*domain.Order, error)
	GetOrder(ctx context.Context, number domain.OrderNumber, actor TokenPayload) (*domain.Order, error)
	ListOrders(ctx context.Context, actor TokenPayload, status *domain.OrderStatus, page, size int) ([]*domain.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, number domain.OrderNumber, actorID uuid.UUID, newStatus domain.OrderStatus) (*domain.Order, error)
	CancelOrder(ctx context.Context, number domain.OrderNumber, actor TokenPayload, reason string) (*domain.Order, error)
	RequestReturn(ctx context.Context, number domain.OrderNumber, buyerID uuid.UUID, reason string) (*domain.Order, error)
	GetOrderTracking(ctx context.Context, number domain.OrderNumber) (*domain.Tracking, error)
}

// RefundProcessor is the slice of the payment service the order flows
// need when a cancellation or return claws money back.
//
//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock
type RefundProcessor interface {
	ProcessRefund(ctx context.Context, number domain.OrderNumber, amount *decimal.Decimal, reason string) (*domain.RefundResult, error)
}

type PaymentService interface {
	RefundProcessor
	InitiatePayment(ctx context.Context, buyerID, checkoutID uuid.UUID, method domain.PaymentMethod) (*domain.PaymentIntent, error)
	VerifyPayment(ctx context.Context, buyerID, checkoutID uuid.UUID, gatewayPaymentID, signature string) (*domain.Payment, error)
}

type WebhookHandler interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}
