package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound    = errors.New("data not found")
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")

	// * Communication errors.
	ErrBadRequest = errors.New("error parsing request")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrExpiredToken               = errors.New("access token has expired")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")
	ErrUnauthorized               = errors.New("user is unauthorized to access the resource")
	ErrForbidden                  = errors.New("user is forbidden to access the resource")

	// * Business errors.
	ErrOrderNotCancellable      = errors.New("order cannot be cancelled in its current status")
	ErrOrderNotReturnable       = errors.New("order cannot be returned")
	ErrInvalidCoupon            = errors.New("coupon is not valid for this order")
	ErrProductUnavailable       = errors.New("product is not available")
	ErrEmptyOrder               = errors.New("order has no items")
	ErrPaymentAlreadyCompleted  = errors.New("payment already completed for this checkout")
	ErrInvalidPayment           = errors.New("payment verification failed")
	ErrRefundExceedsPayment     = errors.New("refund amount exceeds refundable balance")
	ErrPaymentNotCompleted      = errors.New("no completed payment for this order")
	ErrUnsupportedPaymentMethod = errors.New("payment method is not supported")
)

// InsufficientStockError names the product that ran short and how many
// units are still available.
type InsufficientStockError struct {
	ProductName string
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d available", e.ProductName, e.Available)
}

// TransitionError reports an order status edge the state machine rejects.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
