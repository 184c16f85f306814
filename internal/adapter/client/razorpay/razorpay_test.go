package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/adapter/config"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(&config.Razorpay{
		BaseURL:       baseURL,
		KeyID:         "rzp_test_key",
		KeySecret:     "key_secret",
		WebhookSecret: "webhook_secret",
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestVerifyPaymentSignature(t *testing.T) {
	client := newTestClient(t, "http://unused")

	signature := sign([]byte("order_abc|pay_xyz"), "key_secret")

	assert.True(t, client.VerifyPaymentSignature("order_abc", "pay_xyz", signature))
	assert.False(t, client.VerifyPaymentSignature("order_abc", "pay_other", signature))
	assert.False(t, client.VerifyPaymentSignature("order_abc", "pay_xyz", "deadbeef"))
	assert.False(t, client.VerifyPaymentSignature("order_abc", "pay_xyz", ""))
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := newTestClient(t, "http://unused")

	payload := []byte(`{"event":"payment.captured"}`)

	assert.True(t, client.VerifyWebhookSignature(payload, sign(payload, "webhook_secret")))
	assert.False(t, client.VerifyWebhookSignature(payload, sign(payload, "wrong_secret")))
	assert.False(t, client.VerifyWebhookSignature([]byte(`tampered`), sign(payload, "webhook_secret")))
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "key_secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":23600,"currency":"INR","receipt":"chk_1","status":"created"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	order, err := client.CreateOrder(context.Background(), 23600, "INR", "chk_1")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(23600), order.Amount)
	assert.Equal(t, "created", order.Status)
}

func TestCreateOrderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.CreateOrder(context.Background(), 1, "INR", "chk_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_REQUEST_ERROR")
}

func TestCreateRefund(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_xyz/refund", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"rfnd_1","payment_id":"pay_xyz","amount":10000,"status":"processed"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	refund, err := client.CreateRefund(context.Background(), "pay_xyz", 10000, map[string]string{"reason": "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", refund.ID)
	assert.Equal(t, int64(10000), refund.Amount)
}
