package service_test

import (
	"context"
	"fmt"
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

func newWebhookService(t *testing.T, repo port.Repository, gateway port.Gateway,
	notifier port.Notifier) *service.WebhookService {
	t.Helper()
	payments, err := service.NewPaymentService(repo, gateway, notifier, "INR", zap.NewNop())
	require.NoError(t, err)
	s, err := service.NewWebhookService(payments, repo, gateway, notifier, zap.NewNop())
	require.NoError(t, err)
	return s
}

func capturedEvent(gatewayOrderID, gatewayPaymentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"order_id":%q,"status":"captured"}}}}`,
		gatewayPaymentID, gatewayOrderID))
}

func TestWebhookService_BadSignature(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	repo := mock.NewMockRepository(mockCtrl)
	gateway := mock.NewMockGateway(mockCtrl)
	notifier := mock.NewMockNotifier(mockCtrl)

	payload := capturedEvent("order_rzp1", "pay_1")
	gateway.EXPECT().VerifyWebhookSignature(payload, "forged").Return(false)

	s := newWebhookService(t, repo, gateway, notifier)

	err := s.Handle(context.Background(), payload, "forged")
	assert.ErrorIs(t, err, domain.ErrInvalidPayment)
}

func TestWebhookService_MalformedPayload(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	gateway := mock.NewMockGateway(mockCtrl)
	gateway.EXPECT().VerifyWebhookSignature(gomock.Any(), "sig").Return(true)

	s := newWebhookService(t, mock.NewMockRepository(mockCtrl), gateway, mock.NewMockNotifier(mockCtrl))

	err := s.Handle(context.Background(), []byte(`{not json`), "sig")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestWebhookService_UnknownEventAcknowledged(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	gateway := mock.NewMockGateway(mockCtrl)
	gateway.EXPECT().VerifyWebhookSignature(gomock.Any(), "sig").Return(true)

	s := newWebhookService(t, mock.NewMockRepository(mockCtrl), gateway, mock.NewMockNotifier(mockCtrl))

	err := s.Handle(context.Background(), []byte(`{"event":"order.paid","payload":{}}`), "sig")
	assert.NoError(t, err)
}

func TestWebhookService_PaymentCaptured(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	checkoutID := uuid.New()
	paymentID := uuid.New()
	number := domain.OrderNumber("ORD20250101120000AAAA")

	t.Run("pending payment is completed and orders confirmed", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := &domain.Payment{
			ID:             paymentID,
			CheckoutID:     checkoutID,
			Amount:         decimal.MustParse("236"),
			Status:         domain.PaymentStatusPending,
			Method:         domain.PaymentMethodUPI,
			GatewayOrderID: "order_rzp1",
		}
		order := &domain.Order{Number: number, Status: domain.OrderStatusPending,
			PaymentStatus: domain.OrderPaymentPending}

		payload := capturedEvent("order_rzp1", "pay_1")
		gateway.EXPECT().VerifyWebhookSignature(payload, "sig").Return(true)
		repo.EXPECT().GetPaymentByGatewayOrder(gomock.Any(), "order_rzp1").Return(payment, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		repo.EXPECT().GetAllocations(gomock.Any(), paymentID).Return([]domain.PaymentAllocation{
			{PaymentID: paymentID, OrderNumber: number, Amount: decimal.MustParse("236")},
		}, nil)
		repo.EXPECT().UpdateOrder(gomock.Any(), number, gomock.Any(), gomock.Any()).
			DoAndReturn(applyUpdate(order))
		notifier.EXPECT().PaymentCompleted(gomock.Any())

		s := newWebhookService(t, repo, gateway, notifier)

		err := s.Handle(context.Background(), payload, "sig")

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
		assert.Equal(t, "pay_1", payment.GatewayPaymentID)
		assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	})

	t.Run("redelivery after verify is a no-op", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := &domain.Payment{
			ID:               paymentID,
			CheckoutID:       checkoutID,
			Amount:           decimal.MustParse("236"),
			Status:           domain.PaymentStatusCompleted,
			Method:           domain.PaymentMethodUPI,
			GatewayOrderID:   "order_rzp1",
			GatewayPaymentID: "pay_1",
		}

		payload := capturedEvent("order_rzp1", "pay_1")
		gateway.EXPECT().VerifyWebhookSignature(payload, "sig").Return(true)
		repo.EXPECT().GetPaymentByGatewayOrder(gomock.Any(), "order_rzp1").Return(payment, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		// No order updates, no notification.

		s := newWebhookService(t, repo, gateway, notifier)

		err := s.Handle(context.Background(), payload, "sig")

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
	})

	t.Run("unknown gateway order acknowledged", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payload := capturedEvent("order_unknown", "pay_1")
		gateway.EXPECT().VerifyWebhookSignature(payload, "sig").Return(true)
		repo.EXPECT().GetPaymentByGatewayOrder(gomock.Any(), "order_unknown").
			Return(nil, domain.ErrDataNotFound)

		s := newWebhookService(t, repo, gateway, notifier)

		err := s.Handle(context.Background(), payload, "sig")
		assert.NoError(t, err)
	})
}

func TestWebhookService_PaymentFailed(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	paymentID := uuid.New()

	payload := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":` +
		`{"id":"pay_1","order_id":"order_rzp1","status":"failed","error_description":"card declined"}}}}`)

	t.Run("pending payment marked failed", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := &domain.Payment{
			ID:             paymentID,
			Status:         domain.PaymentStatusPending,
			GatewayOrderID: "order_rzp1",
		}
		gateway.EXPECT().VerifyWebhookSignature(payload, "sig").Return(true)
		repo.EXPECT().GetPaymentByGatewayOrder(gomock.Any(), "order_rzp1").Return(payment, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		notifier.EXPECT().PaymentFailed(gomock.Any())

		s := newWebhookService(t, repo, gateway, notifier)

		err := s.Handle(context.Background(), payload, "sig")

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
		assert.Equal(t, "card declined", payment.FailureReason)
	})

	t.Run("capture already won the race", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := &domain.Payment{
			ID:             paymentID,
			Status:         domain.PaymentStatusCompleted,
			GatewayOrderID: "order_rzp1",
		}
		gateway.EXPECT().VerifyWebhookSignature(payload, "sig").Return(true)
		repo.EXPECT().GetPaymentByGatewayOrder(gomock.Any(), "order_rzp1").Return(payment, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		// Completed stays completed; no notification.

		s := newWebhookService(t, repo, gateway, notifier)

		err := s.Handle(context.Background(), payload, "sig")

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
	})
}

func TestWebhookService_RefundProcessed(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	paymentID := uuid.New()
	number := domain.OrderNumber("ORD20250101120000AAAA")

	payload := []byte(`{"event":"refund.processed","payload":{"refund":{"entity":` +
		`{"id":"rfnd_1","payment_id":"pay_1","amount":23600,"status":"processed"}}}}`)

	t.Run("refund already recorded locally is not double counted", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		// A direct ProcessRefund call already booked the 236.
		payment := &domain.Payment{
			ID:               paymentID,
			Amount:           decimal.MustParse("748"),
			Status:           domain.PaymentStatusPartiallyRefunded,
			GatewayPaymentID: "pay_1",
			RefundAmount:     decimal.MustParse("236"),
		}
		gateway.EXPECT().VerifyWebhookSignature(payload, "sig").Return(true)
		repo.EXPECT().GetPaymentByGatewayPayment(gomock.Any(), "pay_1").Return(payment, nil)
		gateway.EXPECT().FetchPayment(gomock.Any(), "pay_1").
			Return(&port.GatewayPayment{ID: "pay_1", AmountRefunded: 23600}, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		// Cumulative figure matches: nothing changes, nobody is notified.

		s := newWebhookService(t, repo, gateway, notifier)

		err := s.Handle(context.Background(), payload, "sig")

		require.NoError(t, err)
		assertDecimal(t, "236", payment.RefundAmount)
		assert.Equal(t, domain.PaymentStatusPartiallyRefunded, payment.Status)
	})

	t.Run("gateway-side refund advances the local total", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		payment := &domain.Payment{
			ID:               paymentID,
			Amount:           decimal.MustParse("748"),
			Status:           domain.PaymentStatusPartiallyRefunded,
			GatewayPaymentID: "pay_1",
			RefundAmount:     decimal.MustParse("236"),
		}
		gateway.EXPECT().VerifyWebhookSignature(payload, "sig").Return(true)
		repo.EXPECT().GetPaymentByGatewayPayment(gomock.Any(), "pay_1").Return(payment, nil)
		// The gateway has settled everything by now.
		gateway.EXPECT().FetchPayment(gomock.Any(), "pay_1").
			Return(&port.GatewayPayment{ID: "pay_1", AmountRefunded: 74800}, nil)
		repo.EXPECT().UpdatePayment(gomock.Any(), paymentID, gomock.Any()).
			DoAndReturn(applyPaymentUpdate(payment))
		repo.EXPECT().GetAllocations(gomock.Any(), paymentID).Return([]domain.PaymentAllocation{
			{PaymentID: paymentID, OrderNumber: number, Amount: decimal.MustParse("748")},
		}, nil)
		order := &domain.Order{Number: number, Status: domain.OrderStatusCancelled,
			PaymentStatus: domain.OrderPaymentPartiallyRefunded}
		repo.EXPECT().UpdateOrder(gomock.Any(), number, gomock.Any(), gomock.Any()).
			DoAndReturn(applyUpdate(order))
		notifier.EXPECT().RefundProcessed(gomock.Any(), gomock.Any()).Do(
			func(p *domain.Payment, delta decimal.Decimal) {
				assertDecimal(t, "512", delta)
			})

		s := newWebhookService(t, repo, gateway, notifier)

		err := s.Handle(context.Background(), payload, "sig")

		require.NoError(t, err)
		assertDecimal(t, "748", payment.RefundAmount)
		assert.Equal(t, domain.PaymentStatusRefunded, payment.Status)
		assert.Equal(t, domain.OrderPaymentRefunded, order.PaymentStatus)
	})

	t.Run("unknown gateway payment acknowledged", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		gateway := mock.NewMockGateway(mockCtrl)
		notifier := mock.NewMockNotifier(mockCtrl)

		gateway.EXPECT().VerifyWebhookSignature(payload, "sig").Return(true)
		repo.EXPECT().GetPaymentByGatewayPayment(gomock.Any(), "pay_1").
			Return(nil, domain.ErrDataNotFound)

		s := newWebhookService(t, repo, gateway, notifier)

		err := s.Handle(context.Background(), payload, "sig")
		assert.NoError(t, err)
	})
}
