package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusOutForDelivery  OrderStatus = "out_for_delivery"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRefunded        OrderStatus = "refunded"
	OrderStatusFailed          OrderStatus = "failed"
	OrderStatusReturnRequested OrderStatus = "return_requested"
	OrderStatusReturnApproved  OrderStatus = "return_approved"
	OrderStatusReturnRejected  OrderStatus = "return_rejected"
	OrderStatusReturnPicked    OrderStatus = "return_picked"
	OrderStatusReturned        OrderStatus = "returned"
)

// OrderPaymentStatus mirrors the checkout payment state on the order row.
// Only the payment flows write it.
type OrderPaymentStatus string

const (
	OrderPaymentPending           OrderPaymentStatus = "pending"
	OrderPaymentCOD               OrderPaymentStatus = "cod"
	OrderPaymentCompleted         OrderPaymentStatus = "completed"
	OrderPaymentFailed            OrderPaymentStatus = "failed"
	OrderPaymentRefunded          OrderPaymentStatus = "refunded"
	OrderPaymentPartiallyRefunded OrderPaymentStatus = "partially_refunded"
)

type OrderNumber string

// Address is a point-in-time snapshot copied onto the order. Later edits
// to the buyer's saved addresses never touch a placed order.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Order is one seller's part of a buyer checkout. Orders stamped with the
// same CheckoutID were placed together and are funded by one payment.
// Invariant: TotalAmount = Subtotal - DiscountAmount + TaxAmount + ShippingFee.
type Order struct {
	Number             OrderNumber
	CheckoutID         uuid.UUID
	BuyerID            uuid.UUID
	SellerID           uuid.UUID
	Status             OrderStatus
	PaymentStatus      OrderPaymentStatus
	Subtotal           decimal.Decimal
	TaxAmount          decimal.Decimal
	ShippingFee        decimal.Decimal
	DiscountAmount     decimal.Decimal
	TotalAmount        decimal.Decimal
	CouponCode         string
	Items              []OrderItem
	ShippingAddress    Address
	BillingAddress     Address
	Notes              string
	CancellationReason string
	EstimatedDelivery  *time.Time
	DeliveredAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrderItem is a line item snapshot. UnitPrice is the product price at
// order time and never follows later catalog changes.
type OrderItem struct {
	OrderNumber OrderNumber
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	ProductName string
	ProductSKU  string
	Quantity    int32
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// OrderStatusHistory is the append-only audit trail. A row is written in
// the same transaction as the transition it records.
type OrderStatusHistory struct {
	OrderNumber    OrderNumber
	PreviousStatus OrderStatus
	NewStatus      OrderStatus
	Reason         string
	ActorID        *uuid.UUID
	CreatedAt      time.Time
}

// Audit identifies who asked for a state change and why. It feeds the
// history row written alongside the transition.
type Audit struct {
	ActorID *uuid.UUID
	Reason  string
}

type TrackingEvent struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

type Tracking struct {
	OrderNumber       OrderNumber     `json:"order_number"`
	Status            OrderStatus     `json:"status"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	Events            []TrackingEvent `json:"events"`
}

// CheckTotal reports whether the monetary snapshot satisfies the order
// amount invariant.
func (o *Order) CheckTotal() bool {
	t, err := o.Subtotal.Sub(o.DiscountAmount)
	if err != nil {
		return false
	}
	t, err = t.Add(o.TaxAmount)
	if err != nil {
		return false
	}
	t, err = t.Add(o.ShippingFee)
	if err != nil {
		return false
	}
	return t.Cmp(o.TotalAmount) == 0
}
