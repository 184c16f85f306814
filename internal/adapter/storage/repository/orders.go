package repository

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
)

// querier is satisfied by both the pool and an open transaction, so the
// read helpers serve plain reads and locked reads alike.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var orderColumns = []string{
	"number", "checkout_id", "buyer_id", "seller_id",
	"status", "payment_status",
	"subtotal", "tax_amount", "shipping_fee", "discount_amount", "total_amount",
	"coupon_code", "shipping_address", "billing_address",
	"notes", "cancellation_reason",
	"estimated_delivery", "delivered_at", "created_at", "updated_at",
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order    domain.Order
		shipping []byte
		billing  []byte
	)
	err := row.Scan(
		&order.Number,
		&order.CheckoutID,
		&order.BuyerID,
		&order.SellerID,
		&order.Status,
		&order.PaymentStatus,
		&order.Subtotal,
		&order.TaxAmount,
		&order.ShippingFee,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.CouponCode,
		&shipping,
		&billing,
		&order.Notes,
		&order.CancellationReason,
		&order.EstimatedDelivery,
		&order.DeliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shipping, &order.ShippingAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billing, &order.BillingAddress); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) CreateCheckout(ctx context.Context, orders []*domain.Order) ([]*domain.Order, error) {
	if len(orders) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, order := range orders {
			for i := range order.Items {
				if err := r.decrementStock(ctx, tx, &order.Items[i]); err != nil {
					return err
				}
			}
			if err := r.insertOrder(ctx, tx, order); err != nil {
				return err
			}
		}
		return r.clearCart(ctx, tx, orders[0].BuyerID)
	})
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return orders, nil
}

func (r *Repository) insertOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	shipping, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}
	billing, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return err
	}

	statement := r.db.QueryBuilder.Insert("orders").
		Columns(orderColumns...).
		Values(order.Number, order.CheckoutID, order.BuyerID, order.SellerID,
			order.Status, order.PaymentStatus,
			order.Subtotal, order.TaxAmount, order.ShippingFee, order.DiscountAmount, order.TotalAmount,
			order.CouponCode, shipping, billing,
			order.Notes, order.CancellationReason,
			order.EstimatedDelivery, order.DeliveredAt, order.CreatedAt, order.UpdatedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	for _, item := range order.Items {
		itemSt := r.db.QueryBuilder.Insert("order_items").
			Columns("order_number", "product_id", "variant_id", "product_name",
				"product_sku", "quantity", "unit_price", "total_price").
			Values(order.Number, item.ProductID, item.VariantID, item.ProductName,
				item.ProductSKU, item.Quantity, item.UnitPrice, item.TotalPrice)

		sql, args, err := itemSt.ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
	}

	return r.insertHistory(ctx, tx, &domain.OrderStatusHistory{
		OrderNumber:    order.Number,
		PreviousStatus: order.Status,
		NewStatus:      order.Status,
		Reason:         "order created",
		ActorID:        &order.BuyerID,
		CreatedAt:      order.CreatedAt,
	})
}

func (r *Repository) insertHistory(ctx context.Context, q querier, h *domain.OrderStatusHistory) error {
	statement := r.db.QueryBuilder.Insert("order_status_history").
		Columns("order_number", "previous_status", "new_status", "reason", "actor_id", "created_at").
		Values(h.OrderNumber, h.PreviousStatus, h.NewStatus, h.Reason, h.ActorID, h.CreatedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, sql, args...)
	return err
}

func (r *Repository) GetOrder(ctx context.Context, number domain.OrderNumber) (*domain.Order, error) {
	return r.getOrder(ctx, r.db, number, false)
}

func (r *Repository) getOrder(ctx context.Context, q querier, number domain.OrderNumber, forUpdate bool) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"number": number})
	if forUpdate {
		statement = statement.Suffix("FOR UPDATE")
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	if err := r.loadItems(ctx, q, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// loadItems attaches line items to the given orders with a single query.
func (r *Repository) loadItems(ctx context.Context, q querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	numbers := make([]domain.OrderNumber, 0, len(orders))
	byNumber := make(map[domain.OrderNumber]*domain.Order, len(orders))
	for _, o := range orders {
		o.Items = nil
		numbers = append(numbers, o.Number)
		byNumber[o.Number] = o
	}

	statement := r.db.QueryBuilder.
		Select("order_number", "product_id", "variant_id", "product_name",
			"product_sku", "quantity", "unit_price", "total_price").
		From("order_items").
		Where(sq.Eq{"order_number": numbers})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item := domain.OrderItem{}
		err := rows.Scan(
			&item.OrderNumber,
			&item.ProductID,
			&item.VariantID,
			&item.ProductName,
			&item.ProductSKU,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
		)
		if err != nil {
			return err
		}
		if order, ok := byNumber[item.OrderNumber]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return rows.Err()
}

func (r *Repository) GetCheckoutOrders(ctx context.Context, checkoutID uuid.UUID) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"checkout_id": checkoutID}).
		OrderBy("number")

	orders, err := r.queryOrders(ctx, statement)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrDataNotFound
	}
	return orders, nil
}

func (r *Repository) queryOrders(ctx context.Context, statement sq.SelectBuilder) ([]*domain.Order, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, r.db, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) ListOrders(ctx context.Context, filter port.OrderFilter) ([]*domain.Order, int64, error) {
	where := sq.And{}
	if filter.BuyerID != nil {
		where = append(where, sq.Eq{"buyer_id": *filter.BuyerID})
	}
	if filter.SellerID != nil {
		where = append(where, sq.Eq{"seller_id": *filter.SellerID})
	}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": *filter.Status})
	}

	countSt := r.db.QueryBuilder.Select("count(*)").From("orders")
	if len(where) > 0 {
		countSt = countSt.Where(where)
	}
	sql, args, err := countSt.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.Size
	if size < 1 {
		size = 20
	}

	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "number").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size))
	if len(where) > 0 {
		statement = statement.Where(where)
	}

	orders, err := r.queryOrders(ctx, statement)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *Repository) ListOrderHistory(ctx context.Context, number domain.OrderNumber) ([]*domain.OrderStatusHistory, error) {
	statement := r.db.QueryBuilder.
		Select("order_number", "previous_status", "new_status", "reason", "actor_id", "created_at").
		From("order_status_history").
		Where(sq.Eq{"order_number": number}).
		OrderBy("id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.OrderStatusHistory, 0)
	for rows.Next() {
		h := domain.OrderStatusHistory{}
		err := rows.Scan(
			&h.OrderNumber,
			&h.PreviousStatus,
			&h.NewStatus,
			&h.Reason,
			&h.ActorID,
			&h.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) UpdateOrder(ctx context.Context, number domain.OrderNumber,
	audit domain.Audit, fn port.UpdateOrderFn) (*domain.Order, error) {
	return r.updateOrder(ctx, number, audit, fn, false)
}

func (r *Repository) CancelOrder(ctx context.Context, number domain.OrderNumber,
	audit domain.Audit, fn port.UpdateOrderFn) (*domain.Order, error) {
	return r.updateOrder(ctx, number, audit, fn, true)
}

func (r *Repository) updateOrder(ctx context.Context, number domain.OrderNumber,
	audit domain.Audit, fn port.UpdateOrderFn, restock bool) (*domain.Order, error) {
	var order *domain.Order

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		order, err = r.getOrder(ctx, tx, number, true)
		if err != nil {
			return err
		}

		previous := order.Status
		if err := fn(order); err != nil {
			return err
		}

		statement := r.db.QueryBuilder.Update("orders").
			Set("status", order.Status).
			Set("payment_status", order.PaymentStatus).
			Set("notes", order.Notes).
			Set("cancellation_reason", order.CancellationReason).
			Set("estimated_delivery", order.EstimatedDelivery).
			Set("delivered_at", order.DeliveredAt).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"number": number})

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, sql, args...); err != nil {
			return err
		}

		if order.Status != previous {
			err = r.insertHistory(ctx, tx, &domain.OrderStatusHistory{
				OrderNumber:    order.Number,
				PreviousStatus: previous,
				NewStatus:      order.Status,
				Reason:         audit.Reason,
				ActorID:        audit.ActorID,
				CreatedAt:      time.Now(),
			})
			if err != nil {
				return err
			}
		}

		if restock && order.Status == domain.OrderStatusCancelled && previous != domain.OrderStatusCancelled {
			for i := range order.Items {
				if err := r.restoreStock(ctx, tx, &order.Items[i]); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
