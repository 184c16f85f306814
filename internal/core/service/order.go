package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
	"github.com/quickcart/orders/internal/core/statemachine"
)

// Pricing carries the checkout pricing policy: tax rate applied to the
// post-discount subtotal, the free-shipping threshold, the flat shipping
// fee below it, and the return window after delivery.
type Pricing struct {
	TaxRate           decimal.Decimal
	FreeShippingAbove decimal.Decimal
	ShippingFee       decimal.Decimal
	ReturnWindow      time.Duration
}

type OrderService struct {
	repo     port.Repository
	refunds  port.RefundProcessor
	notifier port.Notifier
	pricing  Pricing
	logger   *zap.Logger
}

func NewOrderService(repo port.Repository, refunds port.RefundProcessor,
	notifier port.Notifier, pricing Pricing, logger *zap.Logger) (*OrderService, error) {
	return &OrderService{
		repo:     repo,
		refunds:  refunds,
		notifier: notifier,
		pricing:  pricing,
		logger:   logger,
	}, nil
}

const orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newOrderNumber(now time.Time) domain.OrderNumber {
	var b strings.Builder
	b.WriteString("ORD")
	b.WriteString(now.UTC().Format("20060102150405"))
	for i := 0; i < 4; i++ {
		b.WriteByte(orderNumberCharset[rand.Intn(len(orderNumberCharset))])
	}
	return domain.OrderNumber(b.String())
}

type sellerGroup struct {
	sellerID uuid.UUID
	items    []domain.OrderItem
}

// CreateOrder places a checkout: one order per distinct seller, all
// stamped with a shared checkout id and committed in one transaction
// together with the stock decrements.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID uuid.UUID,
	input port.CreateOrderInput) ([]*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.Valid() {
		return nil, domain.ErrUnsupportedPaymentMethod
	}

	now := time.Now()

	// Snapshot products, verify availability, group by seller. The
	// decisive stock check happens again atomically at commit time.
	groups := make([]*sellerGroup, 0, 1)
	bySeller := make(map[uuid.UUID]*sellerGroup)
	cartValue := decimal.Zero

	for _, in := range input.Items {
		product, err := s.repo.GetProduct(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrDataNotFound) {
				return nil, domain.ErrProductUnavailable
			}
			s.logger.Error("get product", zap.Error(err))
			return nil, domain.ErrInternal
		}
		if !product.Active {
			return nil, domain.ErrProductUnavailable
		}
		if in.Quantity <= 0 {
			return nil, domain.ErrBadRequest
		}
		if product.Stock < in.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductName: product.Title,
				Available:   product.Stock,
			}
		}

		qty, err := decimal.New(int64(in.Quantity), 0)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}
		lineTotal, err := product.Price.Mul(qty)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}
		cartValue, err = cartValue.Add(lineTotal)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}

		g, ok := bySeller[product.SellerID]
		if !ok {
			g = &sellerGroup{sellerID: product.SellerID}
			bySeller[product.SellerID] = g
			groups = append(groups, g)
		}
		g.items = append(g.items, domain.OrderItem{
			ProductID:   product.ID,
			VariantID:   in.VariantID,
			ProductName: product.Title,
			ProductSKU:  product.SKU,
			Quantity:    in.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  lineTotal,
		})
	}

	coupon, err := s.lookupCoupon(ctx, input.CouponCode, cartValue, now)
	if err != nil {
		return nil, err
	}

	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}

	checkoutID := uuid.New()
	orders := make([]*domain.Order, 0, len(groups))
	for _, g := range groups {
		order, err := s.priceOrder(g, coupon)
		if err != nil {
			return nil, err
		}
		order.Number = newOrderNumber(now)
		order.CheckoutID = checkoutID
		order.BuyerID = buyerID
		order.Status = domain.OrderStatusPending
		order.PaymentStatus = domain.OrderPaymentPending
		order.ShippingAddress = input.ShippingAddress
		order.BillingAddress = billing
		order.Notes = input.Notes
		order.CreatedAt = now
		order.UpdatedAt = now
		for i := range order.Items {
			order.Items[i].OrderNumber = order.Number
		}
		orders = append(orders, order)
	}

	created, err := s.repo.CreateCheckout(ctx, orders)
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, err
		}
		s.logger.Error("create checkout", zap.Error(err))
		return nil, domain.ErrInternal
	}

	for _, o := range created {
		s.notifier.OrderCreated(o)
	}

	return created, nil
}

// lookupCoupon validates a coupon against the whole cart value. The
// discount itself is computed per seller order.
func (s *OrderService) lookupCoupon(ctx context.Context, code string,
	cartValue decimal.Decimal, now time.Time) (*domain.Coupon, error) {
	if code == "" {
		return nil, nil
	}
	coupon, err := s.repo.GetCoupon(ctx, strings.ToUpper(code))
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, domain.ErrInvalidCoupon
		}
		s.logger.Error("get coupon", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if !coupon.ValidAt(now) {
		return nil, domain.ErrInvalidCoupon
	}
	if coupon.MinOrderValue != nil && cartValue.Cmp(*coupon.MinOrderValue) < 0 {
		return nil, domain.ErrInvalidCoupon
	}
	return coupon, nil
}

func (s *OrderService) priceOrder(g *sellerGroup, coupon *domain.Coupon) (*domain.Order, error) {
	subtotal := decimal.Zero
	var err error
	for _, it := range g.items {
		subtotal, err = subtotal.Add(it.TotalPrice)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}
	}

	discount := decimal.Zero
	couponCode := ""
	if coupon != nil {
		discount, err = coupon.Discount(subtotal)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}
		couponCode = coupon.Code
	}

	taxable, err := subtotal.Sub(discount)
	if err != nil {
		return nil, fmt.Errorf("math error:%w", err)
	}
	tax, err := taxable.Mul(s.pricing.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("math error:%w", err)
	}
	tax = tax.Round(2)

	shipping := decimal.Zero
	if subtotal.Cmp(s.pricing.FreeShippingAbove) < 0 {
		shipping = s.pricing.ShippingFee
	}

	total, err := taxable.Add(tax)
	if err != nil {
		return nil, fmt.Errorf("math error:%w", err)
	}
	total, err = total.Add(shipping)
	if err != nil {
		return nil, fmt.Errorf("math error:%w", err)
	}

	return &domain.Order{
		SellerID:       g.sellerID,
		Subtotal:       subtotal,
		TaxAmount:      tax,
		ShippingFee:    shipping,
		DiscountAmount: discount,
		TotalAmount:    total,
		CouponCode:     couponCode,
		Items:          g.items,
	}, nil
}

const estimatedDeliveryDays = 3

// UpdateOrderStatus progresses fulfillment. Only the fulfilling seller
// may call it; the transition must be legal. A transition to refunded
// moves the money first and the status after.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, number domain.OrderNumber,
	actorID uuid.UUID, newStatus domain.OrderStatus) (*domain.Order, error) {
	if newStatus == domain.OrderStatusRefunded {
		if err := s.refundBeforeTransition(ctx, number, actorID); err != nil {
			return nil, err
		}
	}

	var previous domain.OrderStatus
	order, err := s.repo.UpdateOrder(ctx, number,
		domain.Audit{ActorID: &actorID},
		func(o *domain.Order) error {
			if o.SellerID != actorID {
				return domain.ErrForbidden
			}
			if !statemachine.CanTransition(o.Status, newStatus) {
				return &domain.TransitionError{From: o.Status, To: newStatus}
			}
			previous = o.Status
			o.Status = newStatus

			now := time.Now()
			switch newStatus {
			case domain.OrderStatusShipped:
				eta := now.AddDate(0, 0, estimatedDeliveryDays)
				o.EstimatedDelivery = &eta
			case domain.OrderStatusDelivered:
				o.DeliveredAt = &now
				if o.PaymentStatus == domain.OrderPaymentCOD {
					o.PaymentStatus = domain.OrderPaymentCompleted
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.notifier.OrderStatusChanged(order, previous)

	return order, nil
}

// refundBeforeTransition validates the refunded edge up front and issues
// the refund, so the terminal status is only ever reached with the money
// already returned.
func (s *OrderService) refundBeforeTransition(ctx context.Context,
	number domain.OrderNumber, actorID uuid.UUID) error {
	order, err := s.repo.GetOrder(ctx, number)
	if err != nil {
		return err
	}
	if order.SellerID != actorID {
		return domain.ErrForbidden
	}
	if !statemachine.CanTransition(order.Status, domain.OrderStatusRefunded) {
		return &domain.TransitionError{From: order.Status, To: domain.OrderStatusRefunded}
	}
	_, err = s.refunds.ProcessRefund(ctx, number, nil, "order returned")
	return err
}

// CancelOrder cancels and, when the order was paid, refunds. Stock
// restore, status change and history land in one transaction; the refund
// follows as its own reconciling step.
func (s *OrderService) CancelOrder(ctx context.Context, number domain.OrderNumber,
	actor port.TokenPayload, reason string) (*domain.Order, error) {
	var previous domain.OrderStatus
	order, err := s.repo.CancelOrder(ctx, number,
		domain.Audit{ActorID: &actor.UserID, Reason: reason},
		func(o *domain.Order) error {
			if !canAccessOrder(o, actor) {
				return domain.ErrForbidden
			}
			if !statemachine.IsCancellable(o.Status) {
				return domain.ErrOrderNotCancellable
			}
			previous = o.Status
			o.Status = domain.OrderStatusCancelled
			o.CancellationReason = reason
			return nil
		})
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == domain.OrderPaymentCompleted ||
		order.PaymentStatus == domain.OrderPaymentPartiallyRefunded {
		if _, err := s.refunds.ProcessRefund(ctx, number, nil, "order cancelled"); err != nil {
			s.logger.Error("refund on cancel", zap.String("order", string(number)), zap.Error(err))
			return nil, err
		}
		order, err = s.repo.UpdateOrder(ctx, number,
			domain.Audit{ActorID: &actor.UserID, Reason: "refund issued"},
			func(o *domain.Order) error {
				if !statemachine.CanTransition(o.Status, domain.OrderStatusRefunded) {
					return &domain.TransitionError{From: o.Status, To: domain.OrderStatusRefunded}
				}
				o.Status = domain.OrderStatusRefunded
				return nil
			})
		if err != nil {
			return nil, err
		}
	}

	s.notifier.OrderStatusChanged(order, previous)

	return order, nil
}

// RequestReturn opens the return flow. Only the buyer may ask, only for
// delivered orders, only within the return window.
func (s *OrderService) RequestReturn(ctx context.Context, number domain.OrderNumber,
	buyerID uuid.UUID, reason string) (*domain.Order, error) {
	var previous domain.OrderStatus
	order, err := s.repo.UpdateOrder(ctx, number,
		domain.Audit{ActorID: &buyerID, Reason: reason},
		func(o *domain.Order) error {
			if o.BuyerID != buyerID {
				return domain.ErrForbidden
			}
			if !statemachine.CanTransition(o.Status, domain.OrderStatusReturnRequested) {
				return domain.ErrOrderNotReturnable
			}
			if o.DeliveredAt == nil || time.Since(*o.DeliveredAt) > s.pricing.ReturnWindow {
				return domain.ErrOrderNotReturnable
			}
			previous = o.Status
			o.Status = domain.OrderStatusReturnRequested
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.notifier.OrderStatusChanged(order, previous)

	return order, nil
}

func canAccessOrder(o *domain.Order, actor port.TokenPayload) bool {
	if actor.Role == port.RoleAdmin {
		return true
	}
	return o.BuyerID == actor.UserID || o.SellerID == actor.UserID
}

func (s *OrderService) GetOrder(ctx context.Context, number domain.OrderNumber,
	actor port.TokenPayload) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, number)
	if err != nil {
		return nil, err
	}
	if !canAccessOrder(order, actor) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, actor port.TokenPayload,
	status *domain.OrderStatus, page, size int) ([]*domain.Order, int64, error) {
	filter := port.OrderFilter{Status: status, Page: page, Size: size}
	switch actor.Role {
	case port.RoleSeller:
		filter.SellerID = &actor.UserID
	case port.RoleAdmin:
		// unrestricted
	default:
		filter.BuyerID = &actor.UserID
	}
	return s.repo.ListOrders(ctx, filter)
}

var trackingDescriptions = map[domain.OrderStatus]string{
	domain.OrderStatusPending:         "Your order has been placed",
	domain.OrderStatusConfirmed:       "Your order has been confirmed",
	domain.OrderStatusProcessing:      "Your order is being processed",
	domain.OrderStatusShipped:         "Your order has been shipped",
	domain.OrderStatusOutForDelivery:  "Your order is out for delivery",
	domain.OrderStatusDelivered:       "Your order has been delivered",
	domain.OrderStatusCancelled:       "Your order has been cancelled",
	domain.OrderStatusRefunded:        "Your refund has been issued",
	domain.OrderStatusFailed:          "Delivery attempt failed",
	domain.OrderStatusReturnRequested: "Return requested",
	domain.OrderStatusReturnApproved:  "Return approved",
	domain.OrderStatusReturnRejected:  "Return rejected",
	domain.OrderStatusReturnPicked:    "Return picked up",
	domain.OrderStatusReturned:        "Return completed",
}

// GetOrderTracking projects the status history into a human-readable
// event list. Read-only.
func (s *OrderService) GetOrderTracking(ctx context.Context,
	number domain.OrderNumber) (*domain.Tracking, error) {
	order, err := s.repo.GetOrder(ctx, number)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListOrderHistory(ctx, number)
	if err != nil {
		return nil, err
	}

	events := make([]domain.TrackingEvent, 0, len(history)+1)
	events = append(events, domain.TrackingEvent{
		Status:      string(domain.OrderStatusPending),
		Timestamp:   order.CreatedAt,
		Description: trackingDescriptions[domain.OrderStatusPending],
	})
	for _, h := range history {
		if h.NewStatus == domain.OrderStatusPending {
			continue
		}
		events = append(events, domain.TrackingEvent{
			Status:      string(h.NewStatus),
			Timestamp:   h.CreatedAt,
			Description: trackingDescriptions[h.NewStatus],
		})
	}

	return &domain.Tracking{
		OrderNumber:       order.Number,
		Status:            order.Status,
		EstimatedDelivery: order.EstimatedDelivery,
		Events:            events,
	}, nil
}
