package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quickcart/orders/internal/adapter/storage"
	"github.com/quickcart/orders/internal/core/domain"
)

type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	statement := r.db.QueryBuilder.
		Select("id", "seller_id", "title", "sku", "price", "stock", "active").
		From("products").
		Where(sq.Eq{"id": id})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	product := domain.Product{}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&product.ID,
		&product.SellerID,
		&product.Title,
		&product.SKU,
		&product.Price,
		&product.Stock,
		&product.Active,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &product, nil
}

func (r *Repository) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	statement := r.db.QueryBuilder.
		Select("id", "code", "discount_type", "discount_value",
			"max_discount", "min_order_value", "valid_from", "valid_until", "active").
		From("coupons").
		Where(sq.Eq{"code": code})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	coupon := domain.Coupon{}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Type,
		&coupon.Value,
		&coupon.MaxDiscount,
		&coupon.MinOrderValue,
		&coupon.ValidFrom,
		&coupon.ValidUntil,
		&coupon.Active,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &coupon, nil
}

// decrementStock is the atomic check-and-decrement: the conditional
// update either takes the units or touches no row, so two checkouts
// racing on the last unit cannot both win.
func (r *Repository) decrementStock(ctx context.Context, tx pgx.Tx, item *domain.OrderItem) error {
	tag, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`,
		item.Quantity, item.ProductID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var available int32
		err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, item.ProductID).
			Scan(&available)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.ErrProductUnavailable
			}
			return err
		}
		return &domain.InsufficientStockError{
			ProductName: item.ProductName,
			Available:   available,
		}
	}
	return nil
}

func (r *Repository) restoreStock(ctx context.Context, tx pgx.Tx, item *domain.OrderItem) error {
	_, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock + $1 WHERE id = $2`,
		item.Quantity, item.ProductID)
	return err
}

func (r *Repository) clearCart(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
