package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
	"github.com/quickcart/orders/internal/core/port/mock"
	"github.com/quickcart/orders/internal/core/service"
)

func newPaymentService(t *testing.T, repo port.Repository, gateway port.Gateway,
	notifier port.Notifier) *service.PaymentService {
	t.Helper()
	s, err := service.NewPaymentService(repo, gateway, notifier, "INR", zap.NewNop())
	require.NoError(t, err)
	return s
}

// applyPaymentUpdate wires a mocked UpdatePayment call to run the closure
// against the given payment, like the transactional repository.
func applyPaymentUpdate(payment *domain.Payment) func(context.Context, uuid.UUID, port.UpdatePaymentFn) (*domain.Payment, error) {
	return func(ctx context.Context, id uuid.UUID, fn port.UpdatePaymentFn) (*domain.Payment, error) {
		if err := fn(payment); err != nil {
			return nil, err
		}
		return payment, nil
	}
}

func checkoutOrders(buyerID, checkoutID uuid.UUID, totals ...string) []*domain.Order {
	orders := make([]*domain.Order, 0, len(totals))
	for i, total := range totals {
		orders = append(orders, &domain.Order{
			Number:        domain.OrderNumber("ORD20250101120000AAA" + string(rune('A'+i))),
			CheckoutID:    checkoutID,
			BuyerID:       buyerID,
			Status:        domain.OrderStatusPending,
			PaymentStatus: domain.OrderPaymentPending,
			TotalAmount:   decimal.MustParse(total),
		})
	}
	return orders
}

func TestPaymentService_InitiatePayment_Gateway(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	buyerID := uuid.New()
	checkoutID := uuid.New()
	orders := checkoutOrders(buyerID, checkoutID, "236", "512")

	repo := mock.NewMockRepository(mockCtrl)
	gateway := mock.NewMockGateway(mockCtrl)
	notifier := mock.NewMockNotifier(mockCtrl)

	repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)
	repo.EXPECT().GetPaymentByCheckout(gomock.Any(), checkoutID).Return(nil, domain.ErrDataNotFound)
	// 236 + 512 = 748 rupees = 74800 paise.
	gateway.EXPECT().CreateOrder(gomock.Any(), int64(74800), "INR", "chk_"+checkoutID.String()).
		Return(&port.GatewayOrder{ID: "order_rzp1", Amount: 74800, Currency: "INR", Status: "created"}, nil)
	gateway.EXPECT().KeyID().Return("rzp_test_key")

	var createdAllocations []domain.PaymentAllocation
	repo.EXPECT().CreatePayment(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, p *domain.Payment, allocations []domain.PaymentAllocation) (*domain.Payment, error) {
			createdAllocations = allocations
			return p, nil
		})

	s := newPaymentService(t, repo, gateway, notifier)

	intent, err := s.InitiatePayment(context.Background(), buyerID, checkoutID, domain.PaymentMethodUPI)

	require.NoError(t, err)
	assert.Equal(t, "order_rzp1", intent.GatewayOrderID)
	assert.Equal(t, "rzp_test_key", intent.KeyID)
	assert.Equal(t, "INR", intent.Currency)
	assertDecimal(t, "748", intent.Amount)

	require.Len(t, createdAllocations, 2)
	assert.Equal(t, orders[0].Number, createdAllocations[0].OrderNumber)
	assertDecimal(t, "236", createdAllocations[0].Amount)
	assert.Equal(t, orders[1].Number, createdAllocations[1].OrderNumber)
	assertDecimal(t, "512", createdAllocations[1].Amount)
}

func TestPaymentService_InitiatePayment_COD(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	buyerID := uuid.New()
	checkoutID := uuid.New()
	orders := checkoutOrders(buyerID, checkoutID, "236")

	repo := mock.NewMockRepository(mockCtrl)
	gateway := mock.NewMockGateway(mockCtrl)
	notifier := mock.NewMockNotifier(mockCtrl)

	repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)
	repo.EXPECT().GetPaymentByCheckout(gomock.Any(), checkoutID).Return(nil, domain.ErrDataNotFound)
	repo.EXPECT().CreatePayment(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, p *domain.Payment, allocations []domain.PaymentAllocation) (*domain.Payment, error) {
			return p, nil
		})
	repo.EXPECT().UpdateOrder(gomock.Any(), orders[0].Number, gomock.Any(), gomock.Any()).
		DoAndReturn(applyUpdate(orders[0]))
	notifier.EXPECT().OrderStatusChanged(gomock.Any(), domain.OrderStatusPending)

	s := newPaymentService(t, repo, gateway, notifier)

	intent, err := s.InitiatePayment(context.Background(), buyerID, checkoutID, domain.PaymentMethodCOD)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentMethodCOD, intent.Method)
	assert.Empty(t, intent.GatewayOrderID)
	assert.Equal(t, domain.OrderStatusConfirmed, orders[0].Status)
	assert.Equal(t, domain.OrderPaymentCOD, orders[0].PaymentStatus)
}

func TestPaymentService_InitiatePayment_AlreadyCompleted(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	buyerID := uuid.New()
	checkoutID := uuid.New()
	orders := checkoutOrders(buyerID, checkoutID, "236")

	repo := mock.NewMockRepository(mockCtrl)
	gateway := mock.NewMockGateway(mockCtrl)
	notifier := mock.NewMockNotifier(mockCtrl)

	repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)
	repo.EXPECT().GetPaymentByCheckout(gomock.Any(), checkoutID).Return(&domain.Payment{
		ID:         uuid.New(),
		CheckoutID: checkoutID,
		Status:     domain.PaymentStatusCompleted,
	}, nil)

	s := newPaymentService(t, repo, gateway, notifier)

	_, err := s.InitiatePayment(context.Background(), buyerID, checkoutID, domain.PaymentMethodUPI)
	assert.ErrorIs(t, err, domain.ErrPaymentAlreadyCompleted)
}

func TestPaymentService_InitiatePayment_ForeignBuyer(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	checkoutID := uuid.New()
	orders := checkoutOrders(uuid.New(), checkoutID, "236")

	repo := mock.NewMockRepository(mockCtrl)
	repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)

	s := newPaymentService(t, repo, mock.NewMockGateway(mockCtrl), mock.NewMockNotifier(mockCtrl))

	_, err := s.InitiatePayment(context.Background(), uuid.New(), checkoutID, domain.PaymentMethodUPI)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPaymentService_InitiatePayment_UnknownMethod(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	s := newPaymentService(t, mock.NewMockRepository(mockCtrl),
		mock.NewMockGateway(mockCtrl), mock.NewMockNotifier(mockCtrl))

	_, err := s.InitiatePayment(context.Background(), uuid.New(), uuid.New(), "cheque")
	assert.ErrorIs(t, err, domain.ErrUnsupportedPaymentMethod)
}

func TestPaymentService_VerifyPayment(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	buyerID := uuid.New()
	checkoutID := uuid.New()
	paymentID := uuid.New()

	newPayment := func(status domain.PaymentStatus) *domain.Payment {
		return &domain.Payment{
			ID:             paymentID,
			CheckoutID:     checkoutID,
			Amount:         decimal.MustParse("236"),
			Currency:       "INR",
			Method:         domain.PaymentMethodUPI,
			Status:         status,
			GatewayOrderID: "order_rzp1",
		}
	}

	t.Run("valid signature completes payment and confirms orders", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newPayment(domain.PaymentStatusPending)
		orders := checkoutOrders(buyerID, checkoutID, "236")

		repo.EXPECT().GetPaymentByCheckout(gomock.Any(), checkoutID).Return(payment, nil)
		repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)
		gateway.EXPECT().VerifyPaymentSignature("order_rzp1", "pay_1", "sig").Return(true)
		gateway.EXPECT().FetchPayment(gomock.Any(), "pay_1").
			Return(&port.GatewayPayment{ID: "pay_1", OrderID: "order_rzp1", Status: "captured"}, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		repo.EXPECT().GetAllocations(gomock.Any(), paymentID).Return([]domain.PaymentAllocation{
			{PaymentID: paymentID, OrderNumber: orders[0].Number, Amount: decimal.MustParse("236")},
		}, nil)
		repo.EXPECT().UpdateOrder(gomock.Any(), orders[0].Number, gomock.Any(), gomock.Any()).
			DoAndReturn(applyUpdate(orders[0]))
		notifier.EXPECT().PaymentCompleted(gomock.Any())

		s := newPaymentService(t, repo, gateway, notifier)

		updated, err := s.VerifyPayment(context.Background(), buyerID, checkoutID, "pay_1", "sig")

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, updated.Status)
		assert.Equal(t, "pay_1", updated.GatewayPaymentID)
		assert.NotNil(t, updated.ProcessedAt)
		assert.Equal(t, domain.OrderStatusConfirmed, orders[0].Status)
		assert.Equal(t, domain.OrderPaymentCompleted, orders[0].PaymentStatus)
	})

	t.Run("authorized payment is captured before completion", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newPayment(domain.PaymentStatusPending)
		orders := checkoutOrders(buyerID, checkoutID, "236")

		repo.EXPECT().GetPaymentByCheckout(gomock.Any(), checkoutID).Return(payment, nil)
		repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)
		gateway.EXPECT().VerifyPaymentSignature("order_rzp1", "pay_1", "sig").Return(true)
		gateway.EXPECT().FetchPayment(gomock.Any(), "pay_1").
			Return(&port.GatewayPayment{ID: "pay_1", OrderID: "order_rzp1", Status: "authorized"}, nil)
		gateway.EXPECT().CapturePayment(gomock.Any(), "pay_1", int64(23600), "INR").
			Return(&port.GatewayPayment{ID: "pay_1", OrderID: "order_rzp1", Status: "captured"}, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		repo.EXPECT().GetAllocations(gomock.Any(), paymentID).Return([]domain.PaymentAllocation{
			{PaymentID: paymentID, OrderNumber: orders[0].Number, Amount: decimal.MustParse("236")},
		}, nil)
		repo.EXPECT().UpdateOrder(gomock.Any(), orders[0].Number, gomock.Any(), gomock.Any()).
			DoAndReturn(applyUpdate(orders[0]))
		notifier.EXPECT().PaymentCompleted(gomock.Any())

		s := newPaymentService(t, repo, gateway, notifier)

		updated, err := s.VerifyPayment(context.Background(), buyerID, checkoutID, "pay_1", "sig")

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, updated.Status)
	})

	t.Run("capture failure leaves payment pending", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newPayment(domain.PaymentStatusPending)
		orders := checkoutOrders(buyerID, checkoutID, "236")

		repo.EXPECT().GetPaymentByCheckout(gomock.Any(), checkoutID).Return(payment, nil)
		repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)
		gateway.EXPECT().VerifyPaymentSignature("order_rzp1", "pay_1", "sig").Return(true)
		gateway.EXPECT().FetchPayment(gomock.Any(), "pay_1").
			Return(&port.GatewayPayment{ID: "pay_1", OrderID: "order_rzp1", Status: "authorized"}, nil)
		gateway.EXPECT().CapturePayment(gomock.Any(), "pay_1", int64(23600), "INR").
			Return(nil, errors.New("gateway unavailable"))

		s := newPaymentService(t, repo, gateway, notifier)

		_, err := s.VerifyPayment(context.Background(), buyerID, checkoutID, "pay_1", "sig")

		assert.ErrorIs(t, err, domain.ErrInvalidPayment)
		assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	})

	t.Run("bad signature marks payment failed", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newPayment(domain.PaymentStatusPending)
		orders := checkoutOrders(buyerID, checkoutID, "236")

		repo.EXPECT().GetPaymentByCheckout(gomock.Any(), checkoutID).Return(payment, nil)
		repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)
		gateway.EXPECT().VerifyPaymentSignature("order_rzp1", "pay_1", "forged").Return(false)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))

		s := newPaymentService(t, repo, gateway, notifier)

		_, err := s.VerifyPayment(context.Background(), buyerID, checkoutID, "pay_1", "forged")

		assert.ErrorIs(t, err, domain.ErrInvalidPayment)
		assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
		assert.Equal(t, "invalid signature", payment.FailureReason)
	})

	t.Run("second verification is a no-op success", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newPayment(domain.PaymentStatusCompleted)
		payment.GatewayPaymentID = "pay_1"
		orders := checkoutOrders(buyerID, checkoutID, "236")

		repo.EXPECT().GetPaymentByCheckout(gomock.Any(), checkoutID).Return(payment, nil)
		repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)
		gateway.EXPECT().VerifyPaymentSignature("order_rzp1", "pay_1", "sig").Return(true)
		gateway.EXPECT().FetchPayment(gomock.Any(), "pay_1").
			Return(&port.GatewayPayment{ID: "pay_1", OrderID: "order_rzp1", Status: "captured"}, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		// No allocations are touched and no notification goes out.

		s := newPaymentService(t, repo, gateway, notifier)

		updated, err := s.VerifyPayment(context.Background(), buyerID, checkoutID, "pay_1", "sig")

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, updated.Status)
	})

	t.Run("payment for another gateway order rejected", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newPayment(domain.PaymentStatusPending)
		orders := checkoutOrders(buyerID, checkoutID, "236")

		repo.EXPECT().GetPaymentByCheckout(gomock.Any(), checkoutID).Return(payment, nil)
		repo.EXPECT().GetCheckoutOrders(gomock.Any(), checkoutID).Return(orders, nil)
		gateway.EXPECT().VerifyPaymentSignature("order_rzp1", "pay_1", "sig").Return(true)
		gateway.EXPECT().FetchPayment(gomock.Any(), "pay_1").
			Return(&port.GatewayPayment{ID: "pay_1", OrderID: "order_other", Status: "captured"}, nil)

		s := newPaymentService(t, repo, gateway, notifier)

		_, err := s.VerifyPayment(context.Background(), buyerID, checkoutID, "pay_1", "sig")
		assert.ErrorIs(t, err, domain.ErrInvalidPayment)
	})
}

func TestPaymentService_ProcessRefund(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	checkoutID := uuid.New()
	paymentID := uuid.New()
	number := domain.OrderNumber("ORD20250101120000AAAA")

	newCompletedPayment := func(amount, refunded string) *domain.Payment {
		return &domain.Payment{
			ID:               paymentID,
			CheckoutID:       checkoutID,
			Amount:           decimal.MustParse(amount),
			Currency:         "INR",
			Method:           domain.PaymentMethodUPI,
			Status:           domain.PaymentStatusCompleted,
			GatewayOrderID:   "order_rzp1",
			GatewayPaymentID: "pay_1",
			RefundAmount:     decimal.MustParse(refunded),
		}
	}
	allocation := func(amount string) *domain.PaymentAllocation {
		return &domain.PaymentAllocation{
			PaymentID:   paymentID,
			OrderNumber: number,
			Amount:      decimal.MustParse(amount),
		}
	}

	t.Run("full refund of a single-order payment", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newCompletedPayment("236", "0")
		order := &domain.Order{Number: number, Status: domain.OrderStatusCancelled,
			PaymentStatus: domain.OrderPaymentCompleted}

		repo.EXPECT().GetPaymentForOrder(gomock.Any(), number).Return(payment, allocation("236"), nil)
		gateway.EXPECT().CreateRefund(gomock.Any(), "pay_1", int64(23600),
			map[string]string{"reason": "order cancelled"}).
			Return(&port.GatewayRefund{ID: "rfnd_1", PaymentID: "pay_1", Amount: 23600, Status: "processed"}, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		repo.EXPECT().UpdateOrder(gomock.Any(), number, gomock.Any(), gomock.Any()).
			DoAndReturn(applyUpdate(order))
		notifier.EXPECT().RefundProcessed(gomock.Any(), gomock.Any())

		s := newPaymentService(t, repo, gateway, notifier)

		result, err := s.ProcessRefund(context.Background(), number, nil, "order cancelled")

		require.NoError(t, err)
		assert.Equal(t, "rfnd_1", result.RefundID)
		assertDecimal(t, "236", result.Amount)
		assert.Equal(t, domain.PaymentStatusRefunded, payment.Status)
		assert.Equal(t, domain.OrderPaymentRefunded, order.PaymentStatus)
	})

	t.Run("partial refund against a multi-order payment", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newCompletedPayment("748", "0")
		order := &domain.Order{Number: number, Status: domain.OrderStatusCancelled,
			PaymentStatus: domain.OrderPaymentCompleted}

		repo.EXPECT().GetPaymentForOrder(gomock.Any(), number).Return(payment, allocation("236"), nil)
		gateway.EXPECT().CreateRefund(gomock.Any(), "pay_1", int64(23600), gomock.Any()).
			Return(&port.GatewayRefund{ID: "rfnd_2", PaymentID: "pay_1", Amount: 23600, Status: "processed"}, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		repo.EXPECT().UpdateOrder(gomock.Any(), number, gomock.Any(), gomock.Any()).
			DoAndReturn(applyUpdate(order))
		notifier.EXPECT().RefundProcessed(gomock.Any(), gomock.Any())

		s := newPaymentService(t, repo, gateway, notifier)

		result, err := s.ProcessRefund(context.Background(), number, nil, "order cancelled")

		require.NoError(t, err)
		assertDecimal(t, "236", result.Amount)
		assert.Equal(t, domain.PaymentStatusPartiallyRefunded, payment.Status)
		assert.Equal(t, domain.OrderPaymentRefunded, order.PaymentStatus)
	})

	t.Run("amount above the allocation rejected", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newCompletedPayment("748", "0")

		repo.EXPECT().GetPaymentForOrder(gomock.Any(), number).Return(payment, allocation("236"), nil)

		s := newPaymentService(t, repo, gateway, notifier)

		amount := decimal.MustParse("300")
		_, err := s.ProcessRefund(context.Background(), number, &amount, "partial damage")
		assert.ErrorIs(t, err, domain.ErrRefundExceedsPayment)
	})

	t.Run("amount above the remaining balance rejected", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newCompletedPayment("748", "600")
		payment.Status = domain.PaymentStatusPartiallyRefunded

		repo.EXPECT().GetPaymentForOrder(gomock.Any(), number).Return(payment, allocation("236"), nil)

		s := newPaymentService(t, repo, gateway, notifier)

		amount := decimal.MustParse("200")
		_, err := s.ProcessRefund(context.Background(), number, &amount, "second claim")
		assert.ErrorIs(t, err, domain.ErrRefundExceedsPayment)
	})

	t.Run("cod order returns a not-applicable result", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newCompletedPayment("236", "0")
		payment.Method = domain.PaymentMethodCOD

		repo.EXPECT().GetPaymentForOrder(gomock.Any(), number).Return(payment, allocation("236"), nil)

		s := newPaymentService(t, repo, gateway, notifier)

		result, err := s.ProcessRefund(context.Background(), number, nil, "order cancelled")

		require.NoError(t, err)
		assert.Equal(t, "not_applicable", result.Status)
		assertDecimal(t, "0", result.Amount)
	})

	t.Run("pending payment cannot be refunded", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := newCompletedPayment("236", "0")
		payment.Status = domain.PaymentStatusPending

		repo.EXPECT().GetPaymentForOrder(gomock.Any(), number).Return(payment, allocation("236"), nil)

		s := newPaymentService(t, repo, gateway, notifier)

		_, err := s.ProcessRefund(context.Background(), number, nil, "order cancelled")
		assert.ErrorIs(t, err, domain.ErrPaymentNotCompleted)
	})
}
