package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
)

type OrderHandler struct {
	Handler
	service port.OrderService
}

func NewOrderHandler(service port.OrderService, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type orderItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	VariantID *string `json:"variant_id"`
	Quantity  int32   `json:"quantity" binding:"required,gt=0"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items" binding:"required"`
	ShippingAddress domain.Address     `json:"shipping_address" binding:"required"`
	BillingAddress  *domain.Address    `json:"billing_address"`
	PaymentMethod   string             `json:"payment_method" binding:"required"`
	CouponCode      string             `json:"coupon_code"`
	Notes           string             `json:"notes"`
}

type orderItemResp struct {
	ProductID   string          `json:"product_id"`
	VariantID   *string         `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku,omitempty"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type orderResp struct {
	Number             string          `json:"number"`
	CheckoutID         string          `json:"checkout_id"`
	SellerID           string          `json:"seller_id"`
	Status             string          `json:"status"`
	PaymentStatus      string          `json:"payment_status"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	ShippingFee        decimal.Decimal `json:"shipping_fee"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	CouponCode         string          `json:"coupon_code,omitempty"`
	Items              []orderItemResp `json:"items"`
	ShippingAddress    domain.Address  `json:"shipping_address"`
	BillingAddress     domain.Address  `json:"billing_address"`
	Notes              string          `json:"notes,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	EstimatedDelivery  *time.Time      `json:"estimated_delivery,omitempty"`
	DeliveredAt        *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func newOrderResp(o *domain.Order) orderResp {
	items := make([]orderItemResp, 0, len(o.Items))
	for _, item := range o.Items {
		r := orderItemResp{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
		if item.VariantID != nil {
			v := item.VariantID.String()
			r.VariantID = &v
		}
		items = append(items, r)
	}
	return orderResp{
		Number:             string(o.Number),
		CheckoutID:         o.CheckoutID.String(),
		SellerID:           o.SellerID.String(),
		Status:             string(o.Status),
		PaymentStatus:      string(o.PaymentStatus),
		Subtotal:           o.Subtotal,
		TaxAmount:          o.TaxAmount,
		ShippingFee:        o.ShippingFee,
		DiscountAmount:     o.DiscountAmount,
		TotalAmount:        o.TotalAmount,
		CouponCode:         o.CouponCode,
		Items:              items,
		ShippingAddress:    o.ShippingAddress,
		BillingAddress:     o.BillingAddress,
		Notes:              o.Notes,
		CancellationReason: o.CancellationReason,
		EstimatedDelivery:  o.EstimatedDelivery,
		DeliveredAt:        o.DeliveredAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func (oh *OrderHandler) CreateOrder(ctx *gin.Context) {
	buyerID := getAuthPayload(ctx).UserID

	var req createOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	input := port.CreateOrderInput{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	}
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			oh.handleValidationError(ctx, domain.ErrBadRequest)
			return
		}
		in := port.OrderItemInput{ProductID: productID, Quantity: item.Quantity}
		if item.VariantID != nil {
			variantID, err := uuid.Parse(*item.VariantID)
			if err != nil {
				oh.handleValidationError(ctx, domain.ErrBadRequest)
				return
			}
			in.VariantID = &variantID
		}
		input.Items = append(input.Items, in)
	}

	orders, err := oh.service.CreateOrder(ctx, buyerID, input)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	result := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		result = append(result, newOrderResp(o))
	}
	oh.handleSuccessWithStatus(ctx, gin.H{
		"checkout_id": orders[0].CheckoutID.String(),
		"orders":      result,
	}, http.StatusCreated)
}

func (oh *OrderHandler) GetOrder(ctx *gin.Context) {
	number := domain.OrderNumber(ctx.Param("number"))

	order, err := oh.service.GetOrder(ctx, number, *getAuthPayload(ctx))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, newOrderResp(order))
}

type listOrdersQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"`
	Size   int    `form:"size,default=20"`
}

func (oh *OrderHandler) ListOrders(ctx *gin.Context) {
	var query listOrdersQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		oh.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	var status *domain.OrderStatus
	if query.Status != "" {
		s := domain.OrderStatus(query.Status)
		status = &s
	}

	orders, total, err := oh.service.ListOrders(ctx, *getAuthPayload(ctx), status, query.Page, query.Size)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	result := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		result = append(result, newOrderResp(o))
	}
	oh.handleSuccess(ctx, gin.H{
		"orders": result,
		"total":  total,
		"page":   query.Page,
		"size":   query.Size,
	})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (oh *OrderHandler) UpdateOrderStatus(ctx *gin.Context) {
	number := domain.OrderNumber(ctx.Param("number"))

	var req updateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	order, err := oh.service.UpdateOrderStatus(ctx, number,
		getAuthPayload(ctx).UserID, domain.OrderStatus(req.Status))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, newOrderResp(order))
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (oh *OrderHandler) CancelOrder(ctx *gin.Context) {
	number := domain.OrderNumber(ctx.Param("number"))

	var req reasonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	order, err := oh.service.CancelOrder(ctx, number, *getAuthPayload(ctx), req.Reason)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, newOrderResp(order))
}

func (oh *OrderHandler) RequestReturn(ctx *gin.Context) {
	number := domain.OrderNumber(ctx.Param("number"))

	var req reasonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	order, err := oh.service.RequestReturn(ctx, number, getAuthPayload(ctx).UserID, req.Reason)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, newOrderResp(order))
}

func (oh *OrderHandler) GetOrderTracking(ctx *gin.Context) {
	number := domain.OrderNumber(ctx.Param("number"))

	tracking, err := oh.service.GetOrderTracking(ctx, number)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, tracking)
}
