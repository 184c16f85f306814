package port

import (
	"github.com/govalues/decimal"

	"github.com/quickcart/orders/internal/core/domain"
)

// Notifier hands events to the notification collaborator. Calls are
// fire-and-forget: delivery failures are logged by the adapter and never
// surface to the caller.
//
//go:generate mockgen -source=notifier.go -destination=mock/notifier.go -package=mock
type Notifier interface {
	OrderCreated(order *domain.Order)
	OrderStatusChanged(order *domain.Order, previous domain.OrderStatus)
	PaymentCompleted(payment *domain.Payment)
	PaymentFailed(payment *domain.Payment)
	RefundProcessed(payment *domain.Payment, amount decimal.Decimal)
}
