package port

import "context"

// GatewayOrder is the remote order the gateway settles against. Amounts
// are integers in the currency's smallest unit.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

type GatewayPayment struct {
	ID             string
	OrderID        string
	Amount         int64
	AmountRefunded int64
	Currency       string
	Status         string
	Method         string
	Email          string
	Contact        string
}

type GatewayRefund struct {
	ID        string
	PaymentID string
	Amount    int64
	Status    string
}

//go:generate mockgen -source=gateway.go -destination=mock/gateway.go -package=mock
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
	CapturePayment(ctx context.Context, paymentID string, amountMinor int64, currency string) (*GatewayPayment, error)
	CreateRefund(ctx context.Context, paymentID string, amountMinor int64, notes map[string]string) (*GatewayRefund, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(payload []byte, signature string) bool
	KeyID() string
}
