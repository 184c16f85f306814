// Package statemachine encodes the legal order status transitions as a
// pure decision table. It performs no I/O; callers apply the decision and
// carry out the associated effects.
package statemachine

import (
	"github.com/quickcart/orders/internal/core/domain"
)

var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending: {
		domain.OrderStatusConfirmed,
		domain.OrderStatusCancelled,
	},
	domain.OrderStatusConfirmed: {
		domain.OrderStatusProcessing,
		domain.OrderStatusCancelled,
	},
	domain.OrderStatusProcessing: {
		domain.OrderStatusShipped,
		domain.OrderStatusCancelled,
	},
	domain.OrderStatusShipped: {
		domain.OrderStatusOutForDelivery,
		domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
	},
	domain.OrderStatusOutForDelivery: {
		domain.OrderStatusDelivered,
		domain.OrderStatusFailed,
	},
	domain.OrderStatusDelivered: {
		domain.OrderStatusRefunded,
		domain.OrderStatusReturnRequested,
	},
	domain.OrderStatusCancelled: {
		domain.OrderStatusRefunded,
	},
	domain.OrderStatusFailed: {
		domain.OrderStatusCancelled,
		domain.OrderStatusProcessing,
	},
	domain.OrderStatusReturnRequested: {
		domain.OrderStatusReturnApproved,
		domain.OrderStatusReturnRejected,
	},
	domain.OrderStatusReturnApproved: {
		domain.OrderStatusReturnPicked,
		domain.OrderStatusCancelled,
	},
	domain.OrderStatusReturnPicked: {
		domain.OrderStatusReturned,
		domain.OrderStatusRefunded,
	},
	// Terminal states carry no outgoing edges.
	domain.OrderStatusRefunded:       {},
	domain.OrderStatusReturned:       {},
	domain.OrderStatusReturnRejected: {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidTransitions returns the statuses reachable from the given one.
func ValidTransitions(from domain.OrderStatus) []domain.OrderStatus {
	next := transitions[from]
	out := make([]domain.OrderStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether the status has no outgoing edges.
func IsTerminal(status domain.OrderStatus) bool {
	return len(transitions[status]) == 0
}

// IsCancellable reports whether the order may still be cancelled.
func IsCancellable(status domain.OrderStatus) bool {
	return CanTransition(status, domain.OrderStatusCancelled)
}
