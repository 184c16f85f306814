package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/quickcart/orders/internal/core/domain"
)

// UpdateOrderFn mutates an order inside the repository transaction. The
// row is locked for the duration, so closures see a consistent snapshot.
type UpdateOrderFn func(o *domain.Order) error

// UpdatePaymentFn mutates a payment inside the repository transaction
// under a row lock. Concurrent verify/webhook/refund paths serialize here.
type UpdatePaymentFn func(p *domain.Payment) error

type OrderFilter struct {
	BuyerID  *uuid.UUID
	SellerID *uuid.UUID
	Status   *domain.OrderStatus
	Page     int
	Size     int
}

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type Repository interface {
	// Catalog
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetCoupon(ctx context.Context, code string) (*domain.Coupon, error)

	// Order. CreateCheckout atomically decrements stock for every item,
	// inserts all orders of the checkout with their items and initial
	// history rows, and clears the buyer's cart: all or nothing.
	CreateCheckout(ctx context.Context, orders []*domain.Order) ([]*domain.Order, error)
	GetOrder(ctx context.Context, number domain.OrderNumber) (*domain.Order, error)
	GetCheckoutOrders(ctx context.Context, checkoutID uuid.UUID) ([]*domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*domain.Order, int64, error)
	ListOrderHistory(ctx context.Context, number domain.OrderNumber) ([]*domain.OrderStatusHistory, error)
	// UpdateOrder locks the order row, applies fn and, when fn changed the
	// status, appends a history row in the same transaction.
	UpdateOrder(ctx context.Context, number domain.OrderNumber, audit domain.Audit, fn UpdateOrderFn) (*domain.Order, error)
	// CancelOrder behaves like UpdateOrder and additionally restores the
	// stock decremented at creation, in the same transaction.
	CancelOrder(ctx context.Context, number domain.OrderNumber, audit domain.Audit, fn UpdateOrderFn) (*domain.Order, error)

	// Payment
	CreatePayment(ctx context.Context, payment *domain.Payment, allocations []domain.PaymentAllocation) (*domain.Payment, error)
	GetPaymentByCheckout(ctx context.Context, checkoutID uuid.UUID) (*domain.Payment, error)
	GetPaymentByGatewayOrder(ctx context.Context, gatewayOrderID string) (*domain.Payment, error)
	GetPaymentByGatewayPayment(ctx context.Context, gatewayPaymentID string) (*domain.Payment, error)
	GetPaymentForOrder(ctx context.Context, number domain.OrderNumber) (*domain.Payment, *domain.PaymentAllocation, error)
	GetAllocations(ctx context.Context, paymentID uuid.UUID) ([]domain.PaymentAllocation, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, fn UpdatePaymentFn) (*domain.Payment, error)
}
