package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/adapter/config"
	"github.com/quickcart/orders/internal/core/port"
)

// Client talks to the Razorpay REST API with basic auth and verifies
// the HMAC signatures Razorpay sends back on checkout and webhooks.
type Client struct {
	logger        *zap.Logger
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	httpClient    *http.Client
}

func NewClient(cfg *config.Razorpay, log *zap.Logger) (*Client, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("razorpay credentials are not configured")
	}
	return &Client{
		logger:        log,
		baseURL:       cfg.BaseURL,
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) KeyID() string {
	return c.keyID
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type paymentResponse struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	Method         string `json:"method"`
	Email          string `json:"email"`
	Contact        string `json:"contact"`
}

type refundResponse struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*port.GatewayOrder, error) {
	body := map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}

	var resp orderResponse
	if err := c.call(ctx, http.MethodPost, "/orders", body, &resp); err != nil {
		return nil, err
	}

	return &port.GatewayOrder{
		ID:       resp.ID,
		Amount:   resp.Amount,
		Currency: resp.Currency,
		Receipt:  resp.Receipt,
		Status:   resp.Status,
	}, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*port.GatewayPayment, error) {
	var resp paymentResponse
	if err := c.call(ctx, http.MethodGet, "/payments/"+paymentID, nil, &resp); err != nil {
		return nil, err
	}
	return gatewayPayment(&resp), nil
}

func (c *Client) CapturePayment(ctx context.Context, paymentID string, amountMinor int64, currency string) (*port.GatewayPayment, error) {
	body := map[string]any{
		"amount":   amountMinor,
		"currency": currency,
	}

	var resp paymentResponse
	if err := c.call(ctx, http.MethodPost, "/payments/"+paymentID+"/capture", body, &resp); err != nil {
		return nil, err
	}
	return gatewayPayment(&resp), nil
}

func (c *Client) CreateRefund(ctx context.Context, paymentID string, amountMinor int64, notes map[string]string) (*port.GatewayRefund, error) {
	body := map[string]any{
		"amount": amountMinor,
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}

	var resp refundResponse
	if err := c.call(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", body, &resp); err != nil {
		return nil, err
	}

	return &port.GatewayRefund{
		ID:        resp.ID,
		PaymentID: resp.PaymentID,
		Amount:    resp.Amount,
		Status:    resp.Status,
	}, nil
}

func gatewayPayment(resp *paymentResponse) *port.GatewayPayment {
	return &port.GatewayPayment{
		ID:             resp.ID,
		OrderID:        resp.OrderID,
		Amount:         resp.Amount,
		AmountRefunded: resp.AmountRefunded,
		Currency:       resp.Currency,
		Status:         resp.Status,
		Method:         resp.Method,
		Email:          resp.Email,
		Contact:        resp.Contact,
	}
}

func (c *Client) call(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Description != "" {
			c.logger.Error("razorpay error response",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("code", apiErr.Error.Code),
				zap.String("description", apiErr.Error.Description))
			return fmt.Errorf("razorpay %s: %s", apiErr.Error.Code, apiErr.Error.Description)
		}
		return fmt.Errorf("razorpay unexpected status %d for %s %s", resp.StatusCode, method, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// VerifyPaymentSignature checks the checkout callback signature:
// HMAC-SHA256 over "<order_id>|<payment_id>" with the key secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return verifyHMAC([]byte(orderID+"|"+paymentID), signature, c.keySecret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header:
// HMAC-SHA256 over the raw request body with the webhook secret.
func (c *Client) VerifyWebhookSignature(payload []byte, signature string) bool {
	return verifyHMAC(payload, signature, c.webhookSecret)
}

func verifyHMAC(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
