package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
)

var paymentColumns = []string{
	"id", "checkout_id", "amount", "currency", "method", "status",
	"gateway_order_id", "gateway_payment_id", "gateway_signature",
	"refund_amount", "failure_reason",
	"processed_at", "refunded_at", "created_at", "updated_at",
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	payment := domain.Payment{}
	err := row.Scan(
		&payment.ID,
		&payment.CheckoutID,
		&payment.Amount,
		&payment.Currency,
		&payment.Method,
		&payment.Status,
		&payment.GatewayOrderID,
		&payment.GatewayPaymentID,
		&payment.GatewaySignature,
		&payment.RefundAmount,
		&payment.FailureReason,
		&payment.ProcessedAt,
		&payment.RefundedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) CreatePayment(ctx context.Context, payment *domain.Payment,
	allocations []domain.PaymentAllocation) (*domain.Payment, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		statement := r.db.QueryBuilder.Insert("payments").
			Columns("id", "checkout_id", "amount", "currency", "method", "status",
				"gateway_order_id", "gateway_payment_id", "gateway_signature",
				"refund_amount", "failure_reason", "created_at").
			Values(payment.ID, payment.CheckoutID, payment.Amount, payment.Currency,
				payment.Method, payment.Status,
				payment.GatewayOrderID, payment.GatewayPaymentID, payment.GatewaySignature,
				payment.RefundAmount, payment.FailureReason, payment.CreatedAt)

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, sql, args...); err != nil {
			return err
		}

		for _, a := range allocations {
			allocSt := r.db.QueryBuilder.Insert("payment_allocations").
				Columns("payment_id", "order_number", "amount").
				Values(a.PaymentID, a.OrderNumber, a.Amount)

			sql, args, err := allocSt.ToSql()
			if err != nil {
				return err
			}
			if _, err = tx.Exec(ctx, sql, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return payment, nil
}

func (r *Repository) GetPaymentByCheckout(ctx context.Context, checkoutID uuid.UUID) (*domain.Payment, error) {
	return r.getPayment(ctx, r.db, sq.Eq{"checkout_id": checkoutID}, false)
}

func (r *Repository) GetPaymentByGatewayOrder(ctx context.Context, gatewayOrderID string) (*domain.Payment, error) {
	if gatewayOrderID == "" {
		return nil, domain.ErrDataNotFound
	}
	return r.getPayment(ctx, r.db, sq.Eq{"gateway_order_id": gatewayOrderID}, false)
}

func (r *Repository) GetPaymentByGatewayPayment(ctx context.Context, gatewayPaymentID string) (*domain.Payment, error) {
	if gatewayPaymentID == "" {
		return nil, domain.ErrDataNotFound
	}
	return r.getPayment(ctx, r.db, sq.Eq{"gateway_payment_id": gatewayPaymentID}, false)
}

func (r *Repository) getPayment(ctx context.Context, q querier, where sq.Eq, forUpdate bool) (*domain.Payment, error) {
	statement := r.db.QueryBuilder.
		Select(paymentColumns...).
		From("payments").
		Where(where)
	if forUpdate {
		statement = statement.Suffix("FOR UPDATE")
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	payment, err := scanPayment(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (r *Repository) GetPaymentForOrder(ctx context.Context, number domain.OrderNumber) (*domain.Payment, *domain.PaymentAllocation, error) {
	statement := r.db.QueryBuilder.
		Select("payment_id", "order_number", "amount").
		From("payment_allocations").
		Where(sq.Eq{"order_number": number})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, nil, err
	}

	allocation := domain.PaymentAllocation{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&allocation.PaymentID,
		&allocation.OrderNumber,
		&allocation.Amount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, domain.ErrDataNotFound
		}
		return nil, nil, err
	}

	payment, err := r.getPayment(ctx, r.db, sq.Eq{"id": allocation.PaymentID}, false)
	if err != nil {
		return nil, nil, err
	}
	return payment, &allocation, nil
}

func (r *Repository) GetAllocations(ctx context.Context, paymentID uuid.UUID) ([]domain.PaymentAllocation, error) {
	statement := r.db.QueryBuilder.
		Select("payment_id", "order_number", "amount").
		From("payment_allocations").
		Where(sq.Eq{"payment_id": paymentID}).
		OrderBy("order_number")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]domain.PaymentAllocation, 0)
	for rows.Next() {
		a := domain.PaymentAllocation{}
		if err := rows.Scan(&a.PaymentID, &a.OrderNumber, &a.Amount); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) UpdatePayment(ctx context.Context, id uuid.UUID, fn port.UpdatePaymentFn) (*domain.Payment, error) {
	var payment *domain.Payment

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		payment, err = r.getPayment(ctx, tx, sq.Eq{"id": id}, true)
		if err != nil {
			return err
		}

		if err := fn(payment); err != nil {
			return err
		}

		statement := r.db.QueryBuilder.Update("payments").
			Set("amount", payment.Amount).
			Set("method", payment.Method).
			Set("status", payment.Status).
			Set("gateway_order_id", payment.GatewayOrderID).
			Set("gateway_payment_id", payment.GatewayPaymentID).
			Set("gateway_signature", payment.GatewaySignature).
			Set("refund_amount", payment.RefundAmount).
			Set("failure_reason", payment.FailureReason).
			Set("processed_at", payment.ProcessedAt).
			Set("refunded_at", payment.RefundedAt).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"id": id})

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}
