package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/adapter/config"
	"github.com/quickcart/orders/internal/core/domain"
)

const maxAttempts = 3

// Client posts lifecycle events to the notification service. Events go
// through a buffered queue drained by a worker pool, so callers never
// block on the remote side. When no service address is configured every
// event is dropped with a debug log.
type Client struct {
	logger *zap.Logger
	host   string
	queue  chan event
}

type event struct {
	Type        string          `json:"type"`
	OrderNumber string          `json:"order_number,omitempty"`
	CheckoutID  string          `json:"checkout_id,omitempty"`
	BuyerID     string          `json:"buyer_id,omitempty"`
	SellerID    string          `json:"seller_id,omitempty"`
	Status      string          `json:"status,omitempty"`
	Previous    string          `json:"previous_status,omitempty"`
	PaymentID   string          `json:"payment_id,omitempty"`
	Amount      decimal.Decimal `json:"amount,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewClient(cfg *config.Notify, log *zap.Logger) (*Client, error) {
	return &Client{
		logger: log,
		host:   cfg.HostString,
		queue:  make(chan event, 64),
	}, nil
}

// Run starts the worker pool and blocks the workers on the queue until
// the context is cancelled.
func (c *Client) Run(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case e := <-c.queue:
					c.deliver(ctx, e)
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

func (c *Client) deliver(ctx context.Context, e event) {
	if c.host == "" {
		c.logger.Debug("notification service not configured, dropping event",
			zap.String("type", e.Type))
		return
	}

	payload, err := json.Marshal(e)
	if err != nil {
		c.logger.Error("marshal notification", zap.Error(err))
		return
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = c.post(ctx, payload)
		if err == nil {
			return
		}
		c.logger.Warn("notification delivery failed",
			zap.String("type", e.Type),
			zap.Int("attempt", attempt),
			zap.Error(err))

		timer := time.NewTimer(time.Duration(attempt) * time.Second)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
	c.logger.Error("notification dropped after retries",
		zap.String("type", e.Type), zap.Error(err))
}

func (c *Client) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"http://"+c.host+"/api/events", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}

func (c *Client) enqueue(e event) {
	e.CreatedAt = time.Now()
	select {
	case c.queue <- e:
	default:
		c.logger.Warn("notification queue full, dropping event",
			zap.String("type", e.Type))
	}
}

func (c *Client) OrderCreated(order *domain.Order) {
	c.enqueue(event{
		Type:        "order.created",
		OrderNumber: string(order.Number),
		CheckoutID:  order.CheckoutID.String(),
		BuyerID:     order.BuyerID.String(),
		SellerID:    order.SellerID.String(),
		Status:      string(order.Status),
		Amount:      order.TotalAmount,
	})
}

func (c *Client) OrderStatusChanged(order *domain.Order, previous domain.OrderStatus) {
	c.enqueue(event{
		Type:        "order.status_changed",
		OrderNumber: string(order.Number),
		BuyerID:     order.BuyerID.String(),
		SellerID:    order.SellerID.String(),
		Status:      string(order.Status),
		Previous:    string(previous),
	})
}

func (c *Client) PaymentCompleted(payment *domain.Payment) {
	c.enqueue(event{
		Type:       "payment.completed",
		CheckoutID: payment.CheckoutID.String(),
		PaymentID:  payment.ID.String(),
		Status:     string(payment.Status),
		Amount:     payment.Amount,
	})
}

func (c *Client) PaymentFailed(payment *domain.Payment) {
	c.enqueue(event{
		Type:       "payment.failed",
		CheckoutID: payment.CheckoutID.String(),
		PaymentID:  payment.ID.String(),
		Status:     string(payment.Status),
		Amount:     payment.Amount,
	})
}

func (c *Client) RefundProcessed(payment *domain.Payment, amount decimal.Decimal) {
	c.enqueue(event{
		Type:       "refund.processed",
		CheckoutID: payment.CheckoutID.String(),
		PaymentID:  payment.ID.String(),
		Status:     string(payment.Status),
		Amount:     amount,
	})
}
