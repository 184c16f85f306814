package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetBanking PaymentMethod = "net_banking"
	PaymentMethodWallet     PaymentMethod = "wallet"
	PaymentMethodCOD        PaymentMethod = "cod"
)

// RequiresGateway reports whether the method settles through the payment
// gateway. COD collects on delivery and never touches it.
func (m PaymentMethod) RequiresGateway() bool {
	return m != PaymentMethodCOD
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetBanking,
		PaymentMethodWallet, PaymentMethodCOD:
		return true
	}
	return false
}

// Payment funds one checkout, which may span several seller orders.
// Completed payments are immutable except for the additive RefundAmount.
// Invariants: RefundAmount never decreases and never exceeds Amount;
// status refunded means RefundAmount == Amount, partially_refunded means
// 0 < RefundAmount < Amount.
type Payment struct {
	ID               uuid.UUID
	CheckoutID       uuid.UUID
	Amount           decimal.Decimal
	Currency         string
	Method           PaymentMethod
	Status           PaymentStatus
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	RefundAmount     decimal.Decimal
	FailureReason    string
	ProcessedAt      *time.Time
	RefundedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Remaining is the amount still refundable on the payment.
func (p *Payment) Remaining() (decimal.Decimal, error) {
	return p.Amount.Sub(p.RefundAmount)
}

// PaymentAllocation pins the slice of a checkout payment that funds one
// seller order. Per-order refunds are bounded by the allocation.
type PaymentAllocation struct {
	PaymentID   uuid.UUID
	OrderNumber OrderNumber
	Amount      decimal.Decimal
}

// PaymentIntent is what the client needs to open the gateway checkout.
type PaymentIntent struct {
	PaymentID      uuid.UUID       `json:"payment_id"`
	GatewayOrderID string          `json:"gateway_order_id,omitempty"`
	KeyID          string          `json:"key_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Method         PaymentMethod   `json:"method"`
	Description    string          `json:"description,omitempty"`
}

type RefundResult struct {
	RefundID  string          `json:"refund_id"`
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
